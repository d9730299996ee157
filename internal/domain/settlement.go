package domain

// Settlement confirmation states
const (
	SettlementSubmitted = "submitted" // Commitment accepted by the ledger, not yet final
	SettlementConfirmed = "confirmed" // Ledger confirmed the commitment
	SettlementFailed    = "failed"    // Ledger reported a processing failure
	SettlementRejected  = "rejected"  // Ledger rejected the commitment
)

// SettlementRecord Model
//
// One record per fully-signed lease state; the dedupe key makes re-submission
// return the existing record instead of committing twice. Its lifecycle is
// independent of Lease.Status beyond the settlement_pending annotation.
type SettlementRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`                   // Primary key
	LeaseID    uint   `gorm:"not null;index" json:"lease_id"`         // Lease being settled
	TxRef      string `gorm:"index" json:"tx_ref"`                    // Ledger-assigned transaction reference
	State      string `gorm:"not null;default:submitted" json:"state"` // Confirmation state
	RetryCount int    `gorm:"not null;default:0" json:"retry_count"`  // Confirmation polls performed
	DedupeKey  string `gorm:"uniqueIndex;not null" json:"-"`          // leaseID + hash of both signatures
	CreatedAt  int64  `gorm:"autoCreateTime:milli" json:"created_at"` // Timestamp of creation in milliseconds
	UpdatedAt  int64  `gorm:"autoUpdateTime:milli" json:"updated_at"` // Monotonic, used for optimistic concurrency
}

// TerminalState reports whether the record has reached a final ledger state.
func (r *SettlementRecord) TerminalState() bool {
	return r.State == SettlementConfirmed || r.State == SettlementFailed || r.State == SettlementRejected
}
