package lease

import (
	"errors"
	"rentflow/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CreateInput carries the fields an approved application supplies when a
// lease is drafted. TenantID may be nil when the landlord starts the lease
// before the applicant has connected a wallet.
type CreateInput struct {
	ApplicationID   uint    // Originating application
	PropertyID      uint    // Property under lease
	LandlordID      uint    // Landlord user
	TenantID        *uint   // Tenant user, nil while unresolved
	MonthlyRent     float64 // Monthly rent amount
	SecurityDeposit float64 // Security deposit amount
	StartDate       int64   // Term start, unix seconds
	EndDate         int64   // Term end, unix seconds
}

// Create drafts a lease from an approved application. The tenant wallet
// column starts at the placeholder address until the tenant connects a real
// wallet, so an unresolved counterparty never looks like a corrupt record.
func Create(db *gorm.DB, in CreateInput) (domain.Lease, error) {
	if in.MonthlyRent <= 0 {
		return domain.Lease{}, domain.ErrInvalidRentAmount
	}
	if in.EndDate <= in.StartDate {
		return domain.Lease{}, domain.ErrInvalidDateRange
	}
	l := domain.Lease{
		ApplicationID:       in.ApplicationID,
		PropertyID:          in.PropertyID,
		LandlordID:          in.LandlordID,
		TenantID:            in.TenantID,
		Status:              domain.LeaseDraft,
		TenantWalletAddress: domain.PlaceholderTenantAddress,
		MonthlyRent:         in.MonthlyRent,
		SecurityDeposit:     in.SecurityDeposit,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
	}
	if err := db.Create(&l).Error; err != nil {
		return domain.Lease{}, err
	}
	logrus.WithFields(logrus.Fields{
		"lease_id":       l.ID,
		"application_id": l.ApplicationID,
		"landlord_id":    l.LandlordID,
		"monthly_rent":   l.MonthlyRent,
	}).Info("Lease created")
	return l, nil
}

// Get returns a lease by ID.
func Get(db *gorm.DB, leaseID uint) (domain.Lease, error) {
	var l domain.Lease
	if err := db.First(&l, leaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Lease{}, domain.ErrLeaseNotFound
		}
		return domain.Lease{}, err
	}
	return l, nil
}

// Verification is the signature report for a lease.
type Verification struct {
	LeaseID        uint `json:"lease_id"`        // Lease being verified
	LandlordSigned bool `json:"landlord_signed"` // Landlord signature present
	TenantSigned   bool `json:"tenant_signed"`   // Tenant signature present
	Active         bool `json:"active"`          // Lease is in the active state
	Valid          bool `json:"valid"`           // Both signed and active
}

// Verify reports whether both parties have signed and the lease is active.
func Verify(db *gorm.DB, leaseID uint) (Verification, error) {
	l, err := Get(db, leaseID)
	if err != nil {
		return Verification{}, err
	}
	v := Verification{
		LeaseID:        l.ID,
		LandlordSigned: l.LandlordSignature != nil,
		TenantSigned:   l.TenantSignature != nil,
		Active:         l.Status == domain.LeaseActive,
	}
	v.Valid = v.LandlordSigned && v.TenantSigned && v.Active
	return v, nil
}
