package api

import (
	"context"                  // Context for Redis operations
	"net/http"                 // HTTP status codes
	"rentflow/internal/domain" // Importing domain models
	"rentflow/internal/utils"  // Utility functions
	"strconv"                  // String conversion
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// pageParams reads page and page_size from the query string
func pageParams(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20 // Defaults
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

// ListUsersHandler returns all users, paginated (admin only)
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		cacheKey := "admin:users:page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background()
		var cached []domain.User
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"users": cached, "cached": true})
			return
		}
		var users []domain.User
		if err := db.Order("id asc").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, users, 60*time.Second)
		c.JSON(http.StatusOK, gin.H{"users": users, "cached": false})
	}
}

// ListLeasesHandler returns leases filtered by optional status, paginated
// (admin only)
func ListLeasesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		status := c.Query("status")
		cacheKey := "admin:leases:" + status + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background()
		var cached []domain.Lease
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"leases": cached, "cached": true})
			return
		}
		q := db.Order("id asc")
		if status != "" {
			q = q.Where("status = ?", status)
		}
		var leases []domain.Lease
		if err := q.Offset((page - 1) * pageSize).
			Limit(pageSize).
			Find(&leases).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leases"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, leases, 60*time.Second)
		c.JSON(http.StatusOK, gin.H{"leases": leases, "cached": false})
	}
}

// ListSettlementsHandler returns settlement records for a lease (admin only)
func ListSettlementsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil || id == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lease id"})
			return
		}
		var records []domain.SettlementRecord
		if err := db.Where("lease_id = ?", uint(id)).
			Order("id asc").
			Find(&records).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch settlements"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"settlements": records})
	}
}
