package lease

import (
	"rentflow/internal/chat"
	"rentflow/internal/domain"
	"rentflow/internal/role"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Coordinator owns every write to Lease.Status past signing: activation on
// payment completion, expiry at end of term, and administrative termination.
// Transitions only move forward; a trigger delivered twice is a no-op.
type Coordinator struct {
	DB *gorm.DB
}

// NotifyPaymentsComplete records the external payment collaborator's signal
// that the security deposit and first period rent have been collected, then
// attempts activation. Safe to deliver any number of times.
func (co *Coordinator) NotifyPaymentsComplete(leaseID uint) error {
	res := co.DB.Model(&domain.Lease{}).
		Where("id = ? AND payments_complete = ?", leaseID, false).
		Update("payments_complete", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either already recorded (duplicate delivery) or no such lease
		if _, err := Get(co.DB, leaseID); err != nil {
			return err
		}
	}
	logrus.WithField("lease_id", leaseID).Info("Payments complete recorded")
	return co.TryActivate(leaseID)
}

// TryActivate moves a lease from fully_signed to active once every
// precondition holds: both signatures recorded, both wallet addresses real,
// payments complete. Called from both the payment signal and the fully-signed
// hook, so whichever arrives last completes the activation.
//
// The guarded UPDATE admits exactly one winner. Role promotion and chat
// migration run after the flip; both are idempotent, so they are also
// re-applied whenever a trigger lands on an already-active lease. That way a
// winner that failed partway through the side effects is repaired by the next
// delivery instead of leaving them lost forever.
func (co *Coordinator) TryActivate(leaseID uint) error {
	res := co.DB.Model(&domain.Lease{}).
		Where("id = ? AND status = ? AND payments_complete = ?", leaseID, domain.LeaseFullySigned, true).
		Where("landlord_signature IS NOT NULL AND tenant_signature IS NOT NULL").
		Where("landlord_wallet_address NOT IN ?", []string{domain.ZeroAddress, domain.PlaceholderTenantAddress}).
		Where("tenant_wallet_address NOT IN ?", []string{domain.ZeroAddress, domain.PlaceholderTenantAddress}).
		Updates(map[string]any{
			"status":       domain.LeaseActive,
			"activated_at": co.DB.NowFunc().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		l, err := Get(co.DB, leaseID)
		if err != nil {
			return err
		}
		if l.Status != domain.LeaseActive {
			return nil // Preconditions not met yet
		}
		// Another worker already flipped the status; re-apply the side
		// effects in case it failed before they landed
		return co.applyActivationEffects(l)
	}

	l, err := Get(co.DB, leaseID)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"lease_id":  l.ID,
		"tenant_id": l.TenantID,
	}).Info("Lease activated")
	return co.applyActivationEffects(l)
}

// applyActivationEffects runs role promotion before chat migration, per the
// activation contract. Both callees no-op on rows already in their target
// state, so repeated application converges.
func (co *Coordinator) applyActivationEffects(l domain.Lease) error {
	if l.TenantID != nil {
		if err := role.PromoteToTenant(co.DB, *l.TenantID); err != nil {
			return err
		}
	}
	_, err := chat.MigrateThread(co.DB, l.ApplicationID, l.ID)
	return err
}

// Expire ends an active lease whose term has passed. Delivering the
// end-of-term signal to an already-expired lease is a no-op.
func (co *Coordinator) Expire(leaseID uint) error {
	res := co.DB.Model(&domain.Lease{}).
		Where("id = ? AND status = ? AND end_date <= ?", leaseID, domain.LeaseActive, co.DB.NowFunc().Unix()).
		Update("status", domain.LeaseExpired)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		logrus.WithField("lease_id", leaseID).Info("Lease expired")
		return nil
	}
	l, err := Get(co.DB, leaseID)
	if err != nil {
		return err
	}
	if l.Status == domain.LeaseExpired {
		return nil // Duplicate end-of-term signal
	}
	return domain.ErrInvalidLeaseState
}

// Terminate ends a lease early by administrative action, from any
// non-terminal state. Terminating an already-terminated lease is a no-op;
// an expired lease cannot be terminated.
func (co *Coordinator) Terminate(leaseID uint) error {
	res := co.DB.Model(&domain.Lease{}).
		Where("id = ? AND status NOT IN ?", leaseID, []string{domain.LeaseExpired, domain.LeaseTerminated}).
		Update("status", domain.LeaseTerminated)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		logrus.WithField("lease_id", leaseID).Warn("Lease terminated")
		return nil
	}
	l, err := Get(co.DB, leaseID)
	if err != nil {
		return err
	}
	if l.Status == domain.LeaseTerminated {
		return nil // Already terminated
	}
	return domain.ErrInvalidLeaseState
}
