package config

import (
	"testing"
	"time"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Server.Addr != ":8080" || cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AnswerSheetTTL != 24*time.Hour {
		t.Errorf("AnswerSheetTTL = %v", cfg.AnswerSheetTTL)
	}
	if cfg.BankFile != "questions.json" || cfg.Log.Level != "info" || !cfg.Log.Pretty {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNewConfig_Env(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("ANSWER_SHEET_TTL", "90m")
	t.Setenv("LOG_PRETTY", "false")

	cfg, err := NewConfig()
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Redis.Addr != "redis:6379" || cfg.Redis.DB != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.AnswerSheetTTL != 90*time.Minute || cfg.Log.Pretty {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestNewConfig_InvalidTTL(t *testing.T) {
	for _, ttl := range []string{"abc", "0s", "-1h"} {
		t.Run(ttl, func(t *testing.T) {
			t.Setenv("ANSWER_SHEET_TTL", ttl)

			if cfg, err := NewConfig(); err == nil {
				t.Errorf("se esperaba error, cfg = %+v", cfg)
			}
		})
	}
}
