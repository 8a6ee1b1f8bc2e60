package main

import (
	"flag"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/DavidTesa19/walter-system-software-sub001/internal/chat"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/config"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/logger"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/models"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/providers"
	"github.com/DavidTesa19/walter-system-software-sub001/internal/websearch"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	logger.InitLogger(logger.ParseLevel(cfg.LogLevel), "server")

	registry := providers.NewRegistry(providers.NameOpenAI)
	if err := registry.Register(providers.NewOpenAIProvider(providers.ClientConfig{
		APIBase: cfg.Providers.OpenAI.APIBase,
		APIKey:  cfg.Providers.OpenAI.APIKey,
		Models:  cfg.Providers.OpenAI.Models,
	})); err != nil {
		log.Fatal(err)
	}
	if err := registry.Register(providers.NewClaudeProvider(providers.ClientConfig{
		APIBase: cfg.Providers.Claude.APIBase,
		APIKey:  cfg.Providers.Claude.APIKey,
		Models:  cfg.Providers.Claude.Models,
	})); err != nil {
		log.Fatal(err)
	}

	var searcher websearch.Searcher
	if cfg.Search.APIBase != "" {
		searcher = websearch.NewClient(cfg.Search.APIBase)
	}

	engine := chat.NewEngine(registry, searcher)

	r := gin.Default()

	// Middleware to check API key
	r.Use(func(c *gin.Context) {
		if cfg.Server.APIKey != "" && c.GetHeader("Authorization") != cfg.Server.APIKey {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	})

	r.POST("/v1/chat", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		resp, err := engine.Complete(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	r.POST("/v1/chat/stream", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		events, err := engine.CompleteStream(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Stream(func(w io.Writer) bool {
			event, ok := <-events
			if !ok {
				return false
			}
			c.SSEvent(string(event.Type), event)
			return event.Type != models.StreamDone
		})
	})

	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatal(err)
	}
}
