package settlement

import (
	"context"
	"errors"
	"time"

	"rentflow/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service submits lease commitments to the ledger and polls them to a
// terminal state. Settlement is strictly best-effort with respect to the
// lease itself: a timeout or ledger failure marks the outcome on the
// settlement record and the settlement_pending annotation, and never reverts
// a fully-signed or active lease.
type Service struct {
	DB           *gorm.DB
	Client       *Client
	PollInterval time.Duration // Fixed delay between confirmation polls
	MaxAttempts  int           // Confirmation poll budget per submission
}

// NewService returns a settlement service with the given polling policy.
func NewService(db *gorm.DB, client *Client, pollInterval time.Duration, maxAttempts int) *Service {
	return &Service{DB: db, Client: client, PollInterval: pollInterval, MaxAttempts: maxAttempts}
}

// Submit records a commitment for a fully-signed lease on the external
// ledger. Re-submission for the same fully-signed state finds the existing
// record by dedupe key and returns it without touching the ledger again.
func (s *Service) Submit(ctx context.Context, l domain.Lease) (domain.SettlementRecord, error) {
	key := DedupeKey(l.ID, l.LandlordSignature, l.TenantSignature)

	var existing domain.SettlementRecord
	err := s.DB.Where("dedupe_key = ?", key).First(&existing).Error
	if err == nil {
		return existing, nil // Already submitted for this signed state
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SettlementRecord{}, err
	}

	txRef, err := s.Client.SubmitCommitment(ctx, l.ID, l.LandlordSignature, l.TenantSignature, key)
	if err != nil {
		return domain.SettlementRecord{}, err
	}
	record := domain.SettlementRecord{
		LeaseID:   l.ID,
		TxRef:     txRef,
		State:     domain.SettlementSubmitted,
		DedupeKey: key,
	}
	if err := s.DB.Create(&record).Error; err != nil {
		// A concurrent submission may have won the unique index; surface the
		// winner rather than the conflict
		var winner domain.SettlementRecord
		if ferr := s.DB.Where("dedupe_key = ?", key).First(&winner).Error; ferr == nil {
			return winner, nil
		}
		return domain.SettlementRecord{}, err
	}
	logrus.WithFields(logrus.Fields{
		"lease_id": l.ID,
		"tx_ref":   txRef,
	}).Info("Settlement submitted")
	return record, nil
}

// PollUntilTerminal polls the ledger at a fixed interval until the record
// reaches confirmed, failed or rejected, the attempt budget runs out, the
// owning lease is terminated, or ctx is cancelled. Budget exhaustion returns
// ErrTransactionTimeout and flags the lease settlement_pending; it is
// explicitly non-fatal and never changes Lease.Status.
func (s *Service) PollUntilTerminal(ctx context.Context, recordID uint) error {
	var record domain.SettlementRecord
	if err := s.DB.First(&record, recordID).Error; err != nil {
		return err
	}
	if record.TerminalState() {
		return nil
	}

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		// Stop polling for a lease that was terminated while in flight
		var l domain.Lease
		if err := s.DB.First(&l, record.LeaseID).Error; err == nil && l.Status == domain.LeaseTerminated {
			logrus.WithField("lease_id", record.LeaseID).Info("Settlement polling cancelled, lease terminated")
			return nil
		}

		state, err := s.Client.CommitmentState(ctx, record.TxRef)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"tx_ref":  record.TxRef,
				"attempt": attempt,
				"error":   err.Error(),
			}).Warn("Settlement poll failed")
			s.bumpRetry(recordID, attempt)
			continue
		}
		s.bumpRetry(recordID, attempt)

		switch state {
		case domain.SettlementSubmitted:
			continue // Not final yet
		case domain.SettlementConfirmed:
			return s.finish(recordID, record.LeaseID, domain.SettlementConfirmed)
		case domain.SettlementFailed, domain.SettlementRejected:
			logrus.WithFields(logrus.Fields{
				"lease_id": record.LeaseID,
				"tx_ref":   record.TxRef,
				"state":    state,
			}).Error("Settlement rejected by ledger")
			return s.finish(recordID, record.LeaseID, state)
		default:
			logrus.WithField("state", state).Warn("Unknown ledger state")
			continue
		}
	}

	// Budget exhausted: leave the record submitted and annotate the lease;
	// the signing contract already succeeded, so nothing rolls back
	if err := s.DB.Model(&domain.Lease{}).
		Where("id = ?", record.LeaseID).
		Update("settlement_pending", true).Error; err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"lease_id": record.LeaseID,
		"tx_ref":   record.TxRef,
	}).Warn("Settlement confirmation timed out")
	return domain.ErrTransactionTimeout
}

// SubmitAndPoll is the fire-and-forget entry point used when a lease becomes
// fully signed: one bounded task per lease, ending on confirmation, terminal
// failure, cancellation or timeout.
func (s *Service) SubmitAndPoll(l domain.Lease) {
	// Hard wall-clock bound on the whole submission, with headroom for the
	// submit call itself
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.MaxAttempts+2)*s.PollInterval+30*time.Second)
	defer cancel()

	record, err := s.Submit(ctx, l)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"lease_id": l.ID,
			"error":    err.Error(),
		}).Error("Settlement submission failed")
		if err := s.DB.Model(&domain.Lease{}).
			Where("id = ?", l.ID).
			Update("settlement_pending", true).Error; err != nil {
			logrus.WithField("lease_id", l.ID).Error("Failed to flag settlement pending")
		}
		return
	}
	if err := s.PollUntilTerminal(ctx, record.ID); err != nil && !errors.Is(err, domain.ErrTransactionTimeout) {
		logrus.WithFields(logrus.Fields{
			"lease_id": l.ID,
			"error":    err.Error(),
		}).Error("Settlement polling stopped")
	}
}

// bumpRetry persists the poll attempt count.
func (s *Service) bumpRetry(recordID uint, attempt int) {
	if err := s.DB.Model(&domain.SettlementRecord{}).
		Where("id = ?", recordID).
		Update("retry_count", attempt).Error; err != nil {
		logrus.WithField("record_id", recordID).Warn("Failed to persist retry count")
	}
}

// finish stores the terminal state and clears the pending annotation.
func (s *Service) finish(recordID, leaseID uint, state string) error {
	if err := s.DB.Model(&domain.SettlementRecord{}).
		Where("id = ?", recordID).
		Update("state", state).Error; err != nil {
		return err
	}
	if err := s.DB.Model(&domain.Lease{}).
		Where("id = ?", leaseID).
		Update("settlement_pending", false).Error; err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"lease_id": leaseID,
		"state":    state,
	}).Info("Settlement reached terminal state")
	return nil
}
