package role

import (
	"errors"
	"rentflow/internal/domain"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PromoteToTenant upgrades a user's role from prospective_tenant to tenant.
// Invoked by lease activation only. Any other current role is left untouched:
// a manager or admin who happens to rent must never be downgraded, and a user
// already promoted by an earlier delivery of the same activation event is a
// no-op. The guarded UPDATE makes the call idempotent under retries.
func PromoteToTenant(db *gorm.DB, userID uint) error {
	res := db.Model(&domain.User{}).
		Where("id = ? AND role = ?", userID, domain.RoleProspectiveTenant).
		Update("role", domain.RoleTenant)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var user domain.User
		if err := db.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// A lease activated for a user that does not exist: the role
				// column is the single source of truth, so this is a
				// data-integrity alarm, not a user-facing failure.
				logrus.WithField("user_id", userID).Error(domain.ErrRoleSyncConflict.Error())
				return nil
			}
			return err
		}
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"role":    user.Role,
		}).Debug("Role promotion skipped, user not a prospective tenant")
		return nil
	}
	logrus.WithField("user_id", userID).Info("User promoted to tenant")
	return nil
}
