package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

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
	require.NoError(t, db.AutoMigrate(&domain.Lease{}, &domain.SettlementRecord{}))
	return db
}

// fakeLedger serves the two commitment endpoints. submits counts POSTs;
// states is consumed one value per status poll, repeating the last entry.
type fakeLedger struct {
	submits atomic.Int64
	polls   atomic.Int64
	states  []string
}

func (f *fakeLedger) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /commitments", func(w http.ResponseWriter, r *http.Request) {
		f.submits.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"tx_ref": "tx-100"})
	})
	mux.HandleFunc("GET /commitments/{ref}", func(w http.ResponseWriter, r *http.Request) {
		n := int(f.polls.Add(1)) - 1
		if n >= len(f.states) {
			n = len(f.states) - 1
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"state": f.states[n]})
	})
	return mux
}

func signedLease(t *testing.T, db *gorm.DB) domain.Lease {
	t.Helper()
	l := domain.Lease{
		ApplicationID:         7,
		PropertyID:            3,
		LandlordID:            10,
		Status:                domain.LeaseFullySigned,
		LandlordSignature:     []byte("sig-l"),
		TenantSignature:       []byte("sig-t"),
		LandlordWalletAddress: "LandlordWallet",
		TenantWalletAddress:   "TenantWallet",
		MonthlyRent:           1500,
		StartDate:             100,
		EndDate:               200,
	}
	require.NoError(t, db.Create(&l).Error)
	return l
}

func newTestService(t *testing.T, db *gorm.DB, ledger *fakeLedger, attempts int) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(ledger.handler())
	t.Cleanup(srv.Close)
	return NewService(db, NewClient(srv.URL), 10*time.Millisecond, attempts), srv
}

func TestSubmitAndConfirm(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementSubmitted, domain.SettlementConfirmed}}
	svc, _ := newTestService(t, db, ledger, 10)

	record, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "tx-100", record.TxRef)
	assert.Equal(t, domain.SettlementSubmitted, record.State)

	require.NoError(t, svc.PollUntilTerminal(context.Background(), record.ID))

	var got domain.SettlementRecord
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, domain.SettlementConfirmed, got.State)
	assert.Equal(t, 2, got.RetryCount)

	var lease domain.Lease
	require.NoError(t, db.First(&lease, l.ID).Error)
	assert.False(t, lease.SettlementPending)
	assert.Equal(t, domain.LeaseFullySigned, lease.Status) // Settlement never touches status
}

func TestTimeoutIsNonFatal(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementSubmitted}}
	svc, _ := newTestService(t, db, ledger, 3)

	record, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)

	err = svc.PollUntilTerminal(context.Background(), record.ID)
	assert.ErrorIs(t, err, domain.ErrTransactionTimeout)

	// The lease keeps its signed status with a pending annotation
	var lease domain.Lease
	require.NoError(t, db.First(&lease, l.ID).Error)
	assert.Equal(t, domain.LeaseFullySigned, lease.Status)
	assert.True(t, lease.SettlementPending)

	var got domain.SettlementRecord
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, domain.SettlementSubmitted, got.State)
	assert.Equal(t, 3, got.RetryCount) // Bounded attempt budget
}

func TestResubmitDeduplicates(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementSubmitted}}
	svc, _ := newTestService(t, db, ledger, 3)

	first, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)

	// One fully-signed state maps to one record and one ledger call
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, ledger.submits.Load())

	var count int64
	require.NoError(t, db.Model(&domain.SettlementRecord{}).
		Where("lease_id = ?", l.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRejectionIsTerminal(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementRejected}}
	svc, _ := newTestService(t, db, ledger, 10)

	record, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)
	require.NoError(t, svc.PollUntilTerminal(context.Background(), record.ID))

	var got domain.SettlementRecord
	require.NoError(t, db.First(&got, record.ID).Error)
	assert.Equal(t, domain.SettlementRejected, got.State)

	// A ledger rejection never rolls back the signed lease
	var lease domain.Lease
	require.NoError(t, db.First(&lease, l.ID).Error)
	assert.Equal(t, domain.LeaseFullySigned, lease.Status)
}

func TestPollingStopsForTerminatedLease(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementSubmitted}}
	svc, _ := newTestService(t, db, ledger, 1000)

	record, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)

	require.NoError(t, db.Model(&domain.Lease{}).
		Where("id = ?", l.ID).
		Update("status", domain.LeaseTerminated).Error)

	done := make(chan error, 1)
	go func() { done <- svc.PollUntilTerminal(context.Background(), record.ID) }()
	select {
	case err := <-done:
		assert.NoError(t, err) // Cancelled, not timed out
	case <-time.After(2 * time.Second):
		t.Fatal("polling did not stop for a terminated lease")
	}
}

func TestPollHonorsContextCancellation(t *testing.T) {
	db := openTestDB(t)
	l := signedLease(t, db)
	ledger := &fakeLedger{states: []string{domain.SettlementSubmitted}}
	svc, _ := newTestService(t, db, ledger, 1000)

	record, err := svc.Submit(context.Background(), l)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, svc.PollUntilTerminal(ctx, record.ID), context.Canceled)
}

func TestDedupeKeyStableAndDistinct(t *testing.T) {
	key := DedupeKey(1, []byte("a"), []byte("b"))
	assert.Equal(t, key, DedupeKey(1, []byte("a"), []byte("b")))
	assert.NotEqual(t, key, DedupeKey(2, []byte("a"), []byte("b")))
	assert.NotEqual(t, key, DedupeKey(1, []byte("a"), []byte("c")))
}
