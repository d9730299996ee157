package role

import (
	"fmt"
	"strings"
	"testing"

	"rentflow/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func userRole(t *testing.T, db *gorm.DB, id uint) string {
	t.Helper()
	var u domain.User
	require.NoError(t, db.First(&u, id).Error)
	return u.Role
}

func TestPromoteProspectiveTenant(t *testing.T) {
	db := openTestDB(t)
	u := domain.User{Username: "alice", Password: "x", Role: domain.RoleProspectiveTenant}
	require.NoError(t, db.Create(&u).Error)

	require.NoError(t, PromoteToTenant(db, u.ID))
	assert.Equal(t, domain.RoleTenant, userRole(t, db, u.ID))

	// Second delivery of the same activation event changes nothing
	require.NoError(t, PromoteToTenant(db, u.ID))
	assert.Equal(t, domain.RoleTenant, userRole(t, db, u.ID))
}

func TestPromoteNeverDowngrades(t *testing.T) {
	db := openTestDB(t)
	for _, role := range []string{domain.RoleManager, domain.RoleAdmin, domain.RoleTenant} {
		u := domain.User{Username: "u" + role, Password: "x", Role: role}
		require.NoError(t, db.Create(&u).Error)

		require.NoError(t, PromoteToTenant(db, u.ID))
		assert.Equal(t, role, userRole(t, db, u.ID))
	}
}

func TestPromoteMissingUserIsAlarmNotError(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, PromoteToTenant(db, 4242))
}
