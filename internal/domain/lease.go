package domain

import "encoding/json"

// Lease status values; the lifecycle only ever moves forward
const (
	LeaseDraft                    = "draft"                      // Created from an approved application, unsigned
	LeasePendingTenantSignature   = "pending_tenant_signature"   // Landlord signed, waiting on tenant
	LeasePendingLandlordSignature = "pending_landlord_signature" // Tenant signed, waiting on landlord
	LeaseFullySigned              = "fully_signed"               // Both parties signed, payment outstanding
	LeaseActive                   = "active"                     // Fully signed and payments complete
	LeaseExpired                  = "expired"                    // Ended normally at end of term
	LeaseTerminated               = "terminated"                 // Ended early by administrative action
)

// Reserved wallet addresses
const (
	// ZeroAddress is the all-zero public key; never a valid signer address.
	ZeroAddress = "11111111111111111111111111111111"
	// PlaceholderTenantAddress stands in for a tenant whose wallet is not yet
	// connected. Distinct from ZeroAddress so an unresolved tenant is
	// distinguishable from a corrupt record.
	PlaceholderTenantAddress = "TenantPending111111111111111111111111111111"
)

// Lease Model
type Lease struct {
	ID                    uint    `gorm:"primaryKey" json:"id"`                      // Primary key
	ApplicationID         uint    `gorm:"index;not null" json:"application_id"`     // Originating rental application
	PropertyID            uint    `gorm:"index;not null" json:"property_id"`        // Property under lease
	LandlordID            uint    `gorm:"index;not null" json:"landlord_id"`        // Landlord user ID
	TenantID              *uint   `gorm:"index" json:"tenant_id"`                   // Tenant user ID, nil until resolved
	Status                string  `gorm:"not null;default:draft" json:"status"`     // Lifecycle status
	LandlordSignature     []byte  `json:"landlord_signature"`                       // Opaque signed-message bytes, nil until signed
	TenantSignature       []byte  `json:"tenant_signature"`                         // Opaque signed-message bytes, nil until signed
	LandlordWalletAddress string  `json:"landlord_wallet_address"`                  // Landlord signing wallet
	TenantWalletAddress   string  `json:"tenant_wallet_address"`                    // Tenant signing wallet or placeholder
	MonthlyRent           float64 `gorm:"not null" json:"monthly_rent"`             // Monthly rent amount
	SecurityDeposit       float64 `gorm:"not null" json:"security_deposit"`         // Security deposit amount
	StartDate             int64   `gorm:"not null" json:"start_date"`               // Term start, unix seconds
	EndDate               int64   `gorm:"not null" json:"end_date"`                 // Term end, unix seconds
	PaymentsComplete      bool    `gorm:"not null;default:false" json:"payments_complete"` // Deposit + first rent collected
	SettlementPending     bool    `gorm:"not null;default:false" json:"settlement_pending"` // Ledger confirmation still outstanding
	LandlordSignedAt      int64   `json:"landlord_signed_at"`                       // Landlord signing time, unix ms, 0 = unsigned
	TenantSignedAt        int64   `json:"tenant_signed_at"`                         // Tenant signing time, unix ms, 0 = unsigned
	ActivatedAt           int64   `json:"activated_at"`                             // Activation time, unix ms, 0 = not active
	CreatedAt             int64   `gorm:"autoCreateTime:milli" json:"created_at"`   // Creation timestamp in milliseconds
	UpdatedAt             int64   `gorm:"autoUpdateTime:milli" json:"updated_at"`   // Monotonic, used for optimistic concurrency
}

// TenantResolved reports whether a real tenant wallet is bound to the lease.
func (l *Lease) TenantResolved() bool {
	return l.TenantID != nil &&
		l.TenantWalletAddress != "" &&
		l.TenantWalletAddress != ZeroAddress &&
		l.TenantWalletAddress != PlaceholderTenantAddress
}

// Terminal reports whether the lease can no longer change state.
func (l *Lease) Terminal() bool {
	return l.Status == LeaseExpired || l.Status == LeaseTerminated
}

// MarshalJSON emits the canonical fields plus a read-only lease_status alias
// kept for consumers of the pre-rewrite API. The alias is never parsed back.
func (l Lease) MarshalJSON() ([]byte, error) {
	type alias Lease // Drop methods to avoid recursive marshaling
	return json.Marshal(struct {
		alias
		LegacyStatus string `json:"lease_status"`
	}{alias(l), l.Status})
}
