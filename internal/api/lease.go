package api

import (
	"context"                  // Context for Redis operations
	"net/http"                 // HTTP status codes
	"rentflow/internal/domain" // Importing domain models
	"rentflow/internal/lease"  // Lease store, collector and coordinator
	"rentflow/internal/utils"  // Utility functions
	"strconv"                  // String conversion
	"time"                     // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// CreateLeaseRequest carries the approved-application data a lease starts from
type CreateLeaseRequest struct {
	ApplicationID   uint    `json:"application_id" binding:"required"`   // Originating application
	PropertyID      uint    `json:"property_id" binding:"required"`      // Property under lease
	TenantID        *uint   `json:"tenant_id"`                           // Optional until the tenant connects a wallet
	MonthlyRent     float64 `json:"monthly_rent" binding:"required,gt=0"` // Monthly rent amount
	SecurityDeposit float64 `json:"security_deposit" binding:"gte=0"`    // Security deposit amount
	StartDate       int64   `json:"start_date" binding:"required"`       // Term start, unix seconds
	EndDate         int64   `json:"end_date" binding:"required"`         // Term end, unix seconds
}

// SignLeaseRequest is one party's signature submission
type SignLeaseRequest struct {
	Role          string `json:"role" binding:"required,oneof=landlord tenant"` // Claimed signer role
	Signature     []byte `json:"signature" binding:"required"`                  // Opaque signed-message bytes
	WalletAddress string `json:"wallet_address" binding:"required"`             // Signer's wallet address
}

// leaseCacheKey builds the Redis key for a lease read
func leaseCacheKey(leaseID string) string {
	return "lease:" + leaseID
}

// leaseID parses the :id path parameter
func leaseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lease id"})
		return 0, false
	}
	return uint(id), true
}

// CreateLeaseHandler drafts a lease from an approved application (managers only)
func CreateLeaseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		landlordID, exists := c.Get("userID") // The drafting manager is the landlord party
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateLeaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		l, err := lease.Create(db, lease.CreateInput{
			ApplicationID:   req.ApplicationID,
			PropertyID:      req.PropertyID,
			LandlordID:      landlordID.(uint),
			TenantID:        req.TenantID,
			MonthlyRent:     req.MonthlyRent,
			SecurityDeposit: req.SecurityDeposit,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
		})
		if err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"lease": l})
	}
}

// GetLeaseHandler returns a lease with its settlement annotation
func GetLeaseHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := leaseID(c)
		if !ok {
			return
		}
		ctx := context.Background()
		cacheKey := leaseCacheKey(c.Param("id"))
		var cached domain.Lease
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"lease": cached, "cached": true})
			return
		}
		l, err := lease.Get(db, id)
		if err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, l, 60*time.Second) // Cache the lease for 60 seconds
		c.JSON(http.StatusOK, gin.H{"lease": l, "cached": false})
	}
}

// SignLeaseHandler records the authenticated caller's signature on a lease
func SignLeaseHandler(collector *lease.Collector, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		signerID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := leaseID(c)
		if !ok {
			return
		}
		var req SignLeaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		l, err := collector.SubmitSignature(id, signerID.(uint), req.Role, req.Signature, req.WalletAddress)
		if err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		// Invalidate the cached lease after a successful write
		_ = utils.DeleteCache(context.Background(), rdb, leaseCacheKey(c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"lease": l})
	}
}

// VerifyLeaseHandler reports whether both signatures exist and the lease is active
func VerifyLeaseHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := leaseID(c)
		if !ok {
			return
		}
		v, err := lease.Verify(db, id)
		if err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"verification": v})
	}
}

// PaymentsCompleteHandler receives the payment collaborator's signal that the
// deposit and first period rent are collected. Idempotent by contract.
func PaymentsCompleteHandler(coordinator *lease.Coordinator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := leaseID(c)
		if !ok {
			return
		}
		if err := coordinator.NotifyPaymentsComplete(id); err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, leaseCacheKey(c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"message": "Payments recorded"})
	}
}

// TerminateLeaseHandler ends a lease early (admins only)
func TerminateLeaseHandler(coordinator *lease.Coordinator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := leaseID(c)
		if !ok {
			return
		}
		if err := coordinator.Terminate(id); err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, leaseCacheKey(c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"message": "Lease terminated"})
	}
}

// ExpireLeaseHandler applies the end-of-term signal to an active lease
func ExpireLeaseHandler(coordinator *lease.Coordinator, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := leaseID(c)
		if !ok {
			return
		}
		if err := coordinator.Expire(id); err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, leaseCacheKey(c.Param("id")))
		c.JSON(http.StatusOK, gin.H{"message": "Lease expired"})
	}
}
