package domain

// Wallet custody types
const (
	CustodySelf      = "self"      // User holds their own keys
	CustodyCustodial = "custodial" // Keys held by a custodial provider
)

// Wallet Model
type Wallet struct {
	ID          uint   `gorm:"primaryKey" json:"id"`                                    // Primary key
	UserID      uint   `gorm:"not null;uniqueIndex:idx_user_address" json:"user_id"`    // Owning user
	Address     string `gorm:"not null;uniqueIndex:idx_user_address" json:"address"`    // Wallet public address
	CustodyType string `gorm:"not null;default:self" json:"custody_type"`               // self or custodial
	IsPrimary   bool   `gorm:"not null;default:false" json:"is_primary"`                // Default wallet for signing and payouts
	CreatedAt   int64  `gorm:"autoCreateTime:milli" json:"created_at"`                  // Timestamp of creation in milliseconds
	UpdatedAt   int64  `gorm:"autoUpdateTime:milli" json:"updated_at"`                  // Monotonic, used for optimistic concurrency
}
