package chat

import (
	"rentflow/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Thread scopes accepted by the read and post operations
const (
	ScopeApplication = "application" // Pre-contract thread
	ScopeLease       = "lease"       // Post-contract thread
)

// MigrateThread re-points every message under applicationID to leaseID and
// returns the number of rows moved. The whole batch is one UPDATE inside a
// transaction, so no reader ever observes a half-migrated thread. Invoking it
// again finds zero eligible rows and returns 0; messages of other
// applications are never touched, and sender, body and timestamps are
// preserved exactly.
func MigrateThread(db *gorm.DB, applicationID, leaseID uint) (int64, error) {
	var migrated int64
	err := db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Message{}).
			Where("application_id = ?", applicationID).
			Updates(map[string]any{
				"application_id": nil,     // Leave the pre-contract thread
				"lease_id":       leaseID, // Join the contract thread
			})
		migrated = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	logrus.WithFields(logrus.Fields{
		"application_id": applicationID,
		"lease_id":       leaseID,
		"migrated":       migrated,
	}).Info("Chat thread migrated")
	return migrated, nil
}

// PostMessage appends a message to an application or lease thread.
func PostMessage(db *gorm.DB, scope string, threadID, senderID, recipientID uint, body string) (domain.Message, error) {
	msg := domain.Message{
		SenderID:    senderID,    // Sending user
		RecipientID: recipientID, // Receiving user
		Body:        body,        // Message text
	}
	// Exactly one discriminator is ever set
	if scope == ScopeLease {
		msg.LeaseID = &threadID
	} else {
		msg.ApplicationID = &threadID
	}
	if err := db.Create(&msg).Error; err != nil {
		return domain.Message{}, err
	}
	return msg, nil
}

// ThreadMessages returns a thread's messages in send order.
func ThreadMessages(db *gorm.DB, scope string, threadID uint) ([]domain.Message, error) {
	var messages []domain.Message
	q := db.Order("sent_at asc, id asc")
	if scope == ScopeLease {
		q = q.Where("lease_id = ?", threadID)
	} else {
		q = q.Where("application_id = ?", threadID)
	}
	err := q.Find(&messages).Error
	return messages, err
}
