package lease

import (
	"errors"
	"rentflow/internal/domain"
	"rentflow/internal/wallet"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Signer roles accepted by SubmitSignature
const (
	SignerLandlord = "landlord"
	SignerTenant   = "tenant"
)

// Collector validates and records per-party lease signatures.
//
// OnFullySigned runs in its own goroutine after the transition to
// fully_signed commits; callers of SubmitSignature never wait on it. It is
// wired in cmd/server to an activation attempt followed by settlement
// submission.
type Collector struct {
	DB            *gorm.DB           // Lease persistence
	OnFullySigned func(domain.Lease) // Fire-and-forget hook, may be nil
}

// SubmitSignature records one party's signature on a lease.
//
// Validation order: lease exists and is not terminated/expired; the signer is
// the recorded party for the claimed role; that party has not signed yet (no
// re-signing without an administrative reset); and the submitted wallet
// address is one the signer has registered in the wallet registry. Reserved
// addresses can never be registered, so they are rejected outright. The first
// signer may proceed while the counterparty's wallet is still the
// placeholder; when the tenant later signs with a real wallet the placeholder
// is overwritten.
//
// Same-role races are settled by a check-and-set on the signature column:
// the losing submission matches zero rows and gets ErrAlreadySigned.
// Different-role submissions serialize on the lease row and converge to
// fully_signed regardless of arrival order.
func (c *Collector) SubmitSignature(leaseID, signerID uint, claimedRole string, signature []byte, walletAddress string) (domain.Lease, error) {
	if len(signature) == 0 {
		return domain.Lease{}, domain.ErrInvalidAddress
	}

	var updated domain.Lease
	var becameFullySigned bool
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var l domain.Lease
		if err := tx.First(&l, leaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLeaseNotFound
			}
			return err
		}
		if l.Terminal() {
			return domain.ErrInvalidLeaseState
		}

		// Party checks for the claimed role
		updates := map[string]any{}
		var sigColumn string
		switch claimedRole {
		case SignerLandlord:
			if signerID != l.LandlordID {
				return domain.ErrUnauthorizedSigner
			}
			if l.LandlordSignature != nil {
				return domain.ErrAlreadySigned
			}
			sigColumn = "landlord_signature"
			updates["landlord_signature"] = signature
			updates["landlord_wallet_address"] = walletAddress
			updates["landlord_signed_at"] = tx.NowFunc().UnixMilli()
		case SignerTenant:
			// A lease drafted before the applicant connected a wallet has no
			// tenant yet; the first tenant signature resolves the identity
			if l.TenantID != nil && signerID != *l.TenantID {
				return domain.ErrUnauthorizedSigner
			}
			if l.TenantSignature != nil {
				return domain.ErrAlreadySigned
			}
			sigColumn = "tenant_signature"
			updates["tenant_signature"] = signature
			updates["tenant_wallet_address"] = walletAddress // Overwrites the placeholder
			updates["tenant_signed_at"] = tx.NowFunc().UnixMilli()
			if l.TenantID == nil {
				updates["tenant_id"] = signerID
			}
		default:
			return domain.ErrUnauthorizedSigner
		}

		// The money-routing address must be a wallet the signer registered for
		// themselves. The reserved addresses (zero and the tenant placeholder)
		// can never be registered, so they fail here too, as does an address
		// bound to some other user.
		if _, werr := wallet.Owned(tx, signerID, walletAddress); werr != nil {
			if errors.Is(werr, domain.ErrWalletNotFound) {
				return domain.ErrInvalidAddress
			}
			return werr
		}

		// Check-and-set on the signature column: a concurrent duplicate for
		// the same role matches zero rows here
		res := tx.Model(&domain.Lease{}).
			Where("id = ? AND "+sigColumn+" IS NULL", leaseID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadySigned
		}

		// Recompute status from the row itself so concurrent opposite-role
		// submissions converge no matter which lands last
		statusExpr := gorm.Expr(
			"CASE WHEN landlord_signature IS NOT NULL AND tenant_signature IS NOT NULL THEN ? "+
				"WHEN landlord_signature IS NOT NULL THEN ? ELSE ? END",
			domain.LeaseFullySigned,
			domain.LeasePendingTenantSignature,
			domain.LeasePendingLandlordSignature,
		)
		statusRes := tx.Model(&domain.Lease{}).
			Where("id = ? AND status IN ?", leaseID, []string{
				domain.LeaseDraft,
				domain.LeasePendingTenantSignature,
				domain.LeasePendingLandlordSignature,
			}).
			Update("status", statusExpr)
		if statusRes.Error != nil {
			return statusRes.Error
		}

		if err := tx.First(&updated, leaseID).Error; err != nil {
			return err
		}
		becameFullySigned = statusRes.RowsAffected == 1 && updated.Status == domain.LeaseFullySigned
		return nil
	})
	if err != nil {
		return domain.Lease{}, err
	}

	logrus.WithFields(logrus.Fields{
		"lease_id": leaseID,
		"role":     claimedRole,
		"signer":   signerID,
		"status":   updated.Status,
	}).Info("Lease signature recorded")

	if becameFullySigned && c.OnFullySigned != nil {
		go c.OnFullySigned(updated) // Settlement and activation, off the request path
	}
	return updated, nil
}
