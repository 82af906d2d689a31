package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"salehero-chat/internal/auth"
	"salehero-chat/internal/config"
	"salehero-chat/internal/db"
	"salehero-chat/internal/handlers"
	"salehero-chat/internal/middleware"
	"salehero-chat/internal/observability"
	"salehero-chat/internal/rabbitmq"
	"salehero-chat/internal/repositories"
	"salehero-chat/internal/telemetry"
	"salehero-chat/internal/ws"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	emitter := telemetry.NewAuditEmitter(publisher, "audit.chat", "salehero-chat", cfg.Environment)
	validator := auth.NewValidator(cfg.JWTSecret)

	messageRepo := repositories.NewMessageRepo(database)
	hub := ws.NewHub()

	historyHandler := handlers.NewHistoryHandler(messageRepo, cfg.HistoryPageSize, emitter)
	chatWS := ws.NewChatWebSocketHandler(hub, messageRepo, validator)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("salehero-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	optionalAuth := middleware.OptionalAuth(validator)

	router.GET("/api/chat/messages", optionalAuth, historyHandler.GetMessages)
	router.GET("/ws/chat", chatWS.Handle)
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, emitter, validator, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
