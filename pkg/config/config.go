package config

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server Server
	Redis  Redis
	Log    Log

	BankFile       string
	AnswerSheetTTL time.Duration
}

type Server struct {
	Addr       string
	CORSOrigin string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Log struct {
	Level  string
	Pretty bool
}

// NewConfig lee la configuración de un .env opcional y de las variables de entorno
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("BANK_FILE", "questions.json")
	v.SetDefault("ANSWER_SHEET_TTL", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	config := fromViper(v)
	if config.AnswerSheetTTL <= 0 {
		return nil, fmt.Errorf("ANSWER_SHEET_TTL inválido: %q", v.GetString("ANSWER_SHEET_TTL"))
	}
	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	var config Config

	config.Server.Addr = v.GetString("HTTP_ADDR")
	config.Server.CORSOrigin = v.GetString("CORS_ORIGIN")
	config.Redis.Addr = v.GetString("REDIS_ADDR")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Log.Level = v.GetString("LOG_LEVEL")
	config.Log.Pretty = v.GetBool("LOG_PRETTY")

	config.BankFile = v.GetString("BANK_FILE")
	config.AnswerSheetTTL = v.GetDuration("ANSWER_SHEET_TTL")

	return &config
}
