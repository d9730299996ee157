package api

import (
	"net/http"                 // HTTP status codes
	"rentflow/internal/wallet" // Wallet binding registry
	"strconv"                  // String conversion

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// AddWalletRequest binds a new wallet address to the caller
type AddWalletRequest struct {
	Address     string `json:"address" binding:"required"`                 // Wallet public address
	CustodyType string `json:"custody_type" binding:"omitempty,oneof=self custodial"` // Defaults to self
}

// walletID parses the :id path parameter
func walletID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet id"})
		return 0, false
	}
	return uint(id), true
}

// AddWalletHandler registers a wallet for the authenticated user
func AddWalletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req AddWalletRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		w, err := wallet.AddWallet(db, userID.(uint), req.Address, req.CustodyType)
		if err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		c.JSON(http.StatusCreated, gin.H{"wallet": w})
	}
}

// ListWalletsHandler returns the caller's wallets, primary first
func ListWalletsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		wallets, err := wallet.ListWallets(db, userID.(uint))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list wallets"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"wallets": wallets})
	}
}

// SetPrimaryWalletHandler swaps the caller's primary wallet
func SetPrimaryWalletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := walletID(c)
		if !ok {
			return
		}
		if err := wallet.SetPrimary(db, userID.(uint), id); err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Primary wallet updated"})
	}
}

// RemoveWalletHandler deletes one of the caller's wallets
func RemoveWalletHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		id, ok := walletID(c)
		if !ok {
			return
		}
		if err := wallet.RemoveWallet(db, userID.(uint), id); err != nil {
			c.JSON(errStatus(err), errBody(err))
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Wallet removed"})
	}
}
