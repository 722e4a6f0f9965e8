package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/backsoul/question-bank/pkg/config"
	"github.com/backsoul/question-bank/pkg/handlers"
	"github.com/backsoul/question-bank/pkg/logger"
	"github.com/backsoul/question-bank/pkg/redis"
	"github.com/backsoul/question-bank/pkg/services"
	"github.com/backsoul/question-bank/pkg/websocket"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Error cargando configuración")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().Msg("🚀 Iniciando servidor del banco de preguntas")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Redis.Addr).Msg("🔌 Conectando a Redis...")
	redisClient, err := redis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Error conectando a Redis")
	}
	defer redisClient.Close()

	log.Info().Msg("⚙️  Inicializando servicios...")
	hub := websocket.NewHub()
	go hub.Run(ctx)

	questionService := services.NewQuestionService(redisClient, hub)
	answerService := services.NewAnswerService(redisClient, questionService, cfg.AnswerSheetTTL)

	loadInitialQuestions(ctx, questionService, cfg.BankFile)

	router := handlers.NewRouter(
		handlers.NewQuestionHandler(questionService, cfg.BankFile),
		handlers.NewAnswerHandler(answerService),
		handlers.NewLiveHandler(questionService, hub, cfg.Server.CORSOrigin),
		cfg.Server.CORSOrigin,
	)

	server := &fasthttp.Server{
		Handler: router.Handle,
		Name:    "QuestionBank Server",
	}

	go func() {
		<-ctx.Done()
		log.Info().Msg("🛑 Deteniendo servidor...")
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Error deteniendo el servidor")
		}
	}()

	log.Info().Str("addr", cfg.Server.Addr).Msg("📚 Servidor del banco de preguntas iniciado")
	log.Info().Msg("🔧 API Health: /api/health")
	log.Info().Msg("📊 API Preguntas: /api/questions")
	log.Info().Msg("📡 Editor en vivo: /ws")

	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		log.Fatal().Err(err).Msg("Error al iniciar el servidor")
	}

	<-hub.Done()
	log.Info().Msg("👋 Servidor detenido")
}

func loadInitialQuestions(ctx context.Context, questionService *services.QuestionService, bankFile string) {
	log.Info().Msg("📚 Cargando preguntas iniciales...")

	count, err := questionService.GetQuestionCount(ctx)
	if err == nil && count > 0 {
		log.Info().Int("count", count).Msg("✅ Ya hay preguntas en Redis")
		return
	}

	count, err = questionService.LoadQuestionsFromFile(ctx, bankFile)
	if err != nil {
		log.Warn().Err(err).Str("file", bankFile).Msg("⚠️ Error cargando preguntas iniciales")
		log.Info().Msg("💡 El servidor continuará funcionando. Puedes cargar preguntas usando POST /api/questions/reload")
		return
	}
	log.Info().Int("count", count).Msg("✅ Preguntas cargadas exitosamente")
}
