package api

import (
	"context"                 // Context for Redis operations
	"net/http"                // HTTP status codes
	"rentflow/internal/chat"  // Chat threads and migration
	"rentflow/internal/domain" // Importing domain models
	"rentflow/internal/utils" // Utility functions
	"strconv"                 // String conversion
	"time"                    // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// PostMessageRequest appends a message to a thread
type PostMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required"` // Receiving user
	Body        string `json:"body" binding:"required"`         // Message text
}

// threadScope reads the scope query parameter, defaulting to application
func threadScope(c *gin.Context) string {
	if c.Query("scope") == chat.ScopeLease {
		return chat.ScopeLease
	}
	return chat.ScopeApplication
}

// threadCacheKey builds the Redis key for a thread read
func threadCacheKey(scope, threadID string) string {
	return "thread:" + scope + ":" + threadID
}

// GetThreadMessagesHandler returns a thread's messages in send order
func GetThreadMessagesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread id"})
			return
		}
		scope := threadScope(c)
		ctx := context.Background()
		cacheKey := threadCacheKey(scope, c.Param("id"))
		var cached []domain.Message
		found, cerr := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if cerr == nil && found {
			c.JSON(http.StatusOK, gin.H{"messages": cached, "cached": true})
			return
		}
		messages, err := chat.ThreadMessages(db, scope, uint(id))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, messages, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"messages": messages, "cached": false})
	}
}

// PostMessageHandler appends a message from the authenticated user to a thread
func PostMessageHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		senderID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread id"})
			return
		}
		var req PostMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		scope := threadScope(c)
		msg, err := chat.PostMessage(db, scope, uint(id), senderID.(uint), req.RecipientID, req.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post message"})
			return
		}
		// Invalidate the thread cache after a successful write
		_ = utils.DeleteCache(context.Background(), rdb, threadCacheKey(scope, c.Param("id")))
		c.JSON(http.StatusCreated, gin.H{"message": msg})
	}
}
