package domain

// Message Model
//
// A message belongs to exactly one thread: either the application it was sent
// under, or the lease that application became. Never both at once.
type Message struct {
	ID            uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	SenderID      uint   `gorm:"not null;index" json:"sender_id"`        // Sending user
	RecipientID   uint   `gorm:"not null" json:"recipient_id"`           // Receiving user
	Body          string `gorm:"not null" json:"body"`                   // Message text
	ApplicationID *uint  `gorm:"index" json:"application_id"`            // Pre-contract thread discriminator
	LeaseID       *uint  `gorm:"index" json:"lease_id"`                  // Post-contract thread discriminator
	SentAt        int64  `gorm:"autoCreateTime:milli" json:"sent_at"`    // Send timestamp in milliseconds
	UpdatedAt     int64  `gorm:"autoUpdateTime:milli" json:"updated_at"` // Monotonic, used for optimistic concurrency
}
