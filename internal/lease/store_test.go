package lease

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"rentflow/internal/domain"
	"rentflow/internal/wallet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=10000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.User{},
		&domain.Wallet{},
		&domain.Lease{},
		&domain.Message{},
		&domain.SettlementRecord{},
	))
	return db
}

func uintPtr(v uint) *uint { return &v }

// bindWallet registers an address for a user so they can sign with it.
func bindWallet(t *testing.T, db *gorm.DB, userID uint, address string) {
	t.Helper()
	_, err := wallet.AddWallet(db, userID, address, domain.CustodySelf)
	require.NoError(t, err)
}

// draftLease creates a standard draft: landlord 10, application 7, property 3.
func draftLease(t *testing.T, db *gorm.DB, tenantID *uint) domain.Lease {
	t.Helper()
	l, err := Create(db, CreateInput{
		ApplicationID:   7,
		PropertyID:      3,
		LandlordID:      10,
		TenantID:        tenantID,
		MonthlyRent:     1500,
		SecurityDeposit: 3000,
		StartDate:       time.Now().Unix(),
		EndDate:         time.Now().Add(365 * 24 * time.Hour).Unix(),
	})
	require.NoError(t, err)
	return l
}

func reload(t *testing.T, db *gorm.DB, id uint) domain.Lease {
	t.Helper()
	l, err := Get(db, id)
	require.NoError(t, err)
	return l
}

func TestCreateDraftsLease(t *testing.T) {
	db := openTestDB(t)
	l := draftLease(t, db, nil)

	assert.Equal(t, domain.LeaseDraft, l.Status)
	assert.Nil(t, l.TenantID)
	// The tenant wallet starts at the placeholder, never at the zero sentinel
	assert.Equal(t, domain.PlaceholderTenantAddress, l.TenantWalletAddress)
	assert.False(t, l.TenantResolved())
	assert.Zero(t, l.ActivatedAt)
}

func TestCreateValidatesTerms(t *testing.T) {
	db := openTestDB(t)

	_, err := Create(db, CreateInput{
		ApplicationID: 7, PropertyID: 3, LandlordID: 10,
		MonthlyRent: 0, StartDate: 100, EndDate: 200,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidRentAmount)

	_, err = Create(db, CreateInput{
		ApplicationID: 7, PropertyID: 3, LandlordID: 10,
		MonthlyRent: 1500, StartDate: 200, EndDate: 200,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestGetMissingLease(t *testing.T) {
	db := openTestDB(t)
	_, err := Get(db, 999)
	assert.ErrorIs(t, err, domain.ErrLeaseNotFound)
}

func TestVerifyReportsSignatureState(t *testing.T) {
	db := openTestDB(t)
	l := draftLease(t, db, uintPtr(20))
	bindWallet(t, db, 10, "LandlordWallet")
	bindWallet(t, db, 20, "TenantWallet")

	v, err := Verify(db, l.ID)
	require.NoError(t, err)
	assert.False(t, v.LandlordSigned)
	assert.False(t, v.TenantSigned)
	assert.False(t, v.Valid)

	collector := &Collector{DB: db}
	_, err = collector.SubmitSignature(l.ID, 10, SignerLandlord, []byte("sig-l"), "LandlordWallet")
	require.NoError(t, err)
	_, err = collector.SubmitSignature(l.ID, 20, SignerTenant, []byte("sig-t"), "TenantWallet")
	require.NoError(t, err)

	v, err = Verify(db, l.ID)
	require.NoError(t, err)
	assert.True(t, v.LandlordSigned)
	assert.True(t, v.TenantSigned)
	assert.False(t, v.Valid) // Signed but not yet active

	co := &Coordinator{DB: db}
	require.NoError(t, co.NotifyPaymentsComplete(l.ID))

	v, err = Verify(db, l.ID)
	require.NoError(t, err)
	assert.True(t, v.Active)
	assert.True(t, v.Valid)
}
