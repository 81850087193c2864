package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chat-app/backend/api/handlers"
	"github.com/chat-app/backend/internal/auth"
	"github.com/chat-app/backend/internal/chat"
	"github.com/chat-app/backend/internal/config"
	"github.com/chat-app/backend/internal/db"
	"github.com/chat-app/backend/internal/metrics"
	"github.com/chat-app/backend/internal/repository"
	"github.com/chat-app/backend/internal/ws"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Ensure data directories exist
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		log.Fatalf("Failed to create uploads directory: %v", err)
	}

	// Initialize database
	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Initialize chat manager
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	chatManager := chat.NewManager(
		repository.NewUserRepository(database),
		repository.NewFriendRepository(database),
		repository.NewChatRepository(database),
		tokens,
		chat.Config{},
	)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	socketMetrics := metrics.New(registry)

	// Initialize WebSocket service
	wsService := ws.NewService(ws.Config{
		Gateway: ws.GatewayConfig{
			EventsPerSecond: cfg.EventsPerSecond,
			EventBurst:      cfg.EventBurst,
			RoomScoped:      cfg.RoomScopedBroadcast,
			Participants:    chatManager,
			OnAccept:        chatManager.OnInviteAccepted,
		},
		AllowedOrigins: cfg.Origins(),
		SendBufferSize: cfg.SendBufferSize,
	}, socketMetrics)
	defer wsService.Close()

	// Initialize Gin router
	r := gin.Default()

	r.Use(corsMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": wsService.ConnectionCount(),
			"registered":  wsService.RegisteredCount(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	r.Static("/uploads", cfg.UploadsDir)

	// API routes
	handlers.RegisterAPI(r.Group("/api"), handlers.Dependencies{
		Manager:   chatManager,
		Tokens:    tokens,
		WSService: wsService,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down server...")
		wsService.Close()
		db.CloseDB()
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// corsMiddleware returns a permissive CORS middleware for the browser client.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
