package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// A fake upstream for local development: serves canned chat-completion,
// messages, and responses payloads so the engine can be exercised without
// real credentials.
func main() {
	port := flag.String("port", "8001", "Port to run the server on")
	flag.Parse()

	r := gin.Default()

	r.POST("/v1/chat/completions", func(c *gin.Context) {
		var req struct {
			Model string `json:"model"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":    "chatcmpl-mock",
			"model": req.Model,
			"choices": []gin.H{
				{
					"message": gin.H{
						"role":    "assistant",
						"content": "This is a canned chat-completions reply from the mock upstream.",
					},
					"finish_reason": "stop",
				},
			},
			"usage": gin.H{"prompt_tokens": 12, "completion_tokens": 10, "total_tokens": 22},
		})
	})

	r.POST("/v1/messages", func(c *gin.Context) {
		var req struct {
			Model string `json:"model"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":    "msg-mock",
			"model": req.Model,
			"content": []gin.H{
				{"type": "text", "text": "This is a canned messages reply from the mock upstream."},
			},
			"stop_reason": "end_turn",
			"usage":       gin.H{"input_tokens": 12, "output_tokens": 10},
		})
	})

	r.POST("/v1/responses", func(c *gin.Context) {
		var req struct {
			Model string `json:"model"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"id":    "resp-mock",
			"model": req.Model,
			"output": []gin.H{
				{
					"type": "message",
					"content": []gin.H{
						{"type": "text", "text": "This is a canned responses reply from the mock upstream."},
					},
				},
			},
			"usage": gin.H{"input_tokens": 12, "output_tokens": 10, "total_tokens": 22},
		})
	})

	r.GET("/search", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"results": []gin.H{
				{
					"title":       "Mock result",
					"url":         "https://example.com/mock",
					"description": "A canned search result from the mock upstream.",
				},
			},
		})
	})

	if err := r.Run(":" + *port); err != nil {
		log.Fatal(err)
	}
}
