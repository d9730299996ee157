package settlement

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Client talks to the external settlement ledger. The ledger accepts signed
// lease commitments and exposes per-commitment state by transaction
// reference; confirmation is asynchronous.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a ledger client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SubmitCommitment posts a signed lease commitment and returns the ledger's
// transaction reference.
func (c *Client) SubmitCommitment(ctx context.Context, leaseID uint, landlordSig, tenantSig []byte, dedupeKey string) (string, error) {
	reqBody, _ := json.Marshal(map[string]any{
		"lease_id":           leaseID,
		"landlord_signature": landlordSig,
		"tenant_signature":   tenantSig,
		"dedupe_key":         dedupeKey,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/commitments", bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ledger returned %d", resp.StatusCode)
	}
	var out struct {
		TxRef string `json:"tx_ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.TxRef, nil
}

// CommitmentState fetches the ledger's current state for a transaction
// reference: submitted, confirmed, failed or rejected.
func (c *Client) CommitmentState(ctx context.Context, txRef string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/commitments/"+txRef, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ledger returned %d", resp.StatusCode)
	}
	var out struct {
		State string `json:"state"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.State, nil
}

// DedupeKey derives the idempotency key for one fully-signed lease state:
// the lease ID plus a SHA-256 over both signature blobs. A lease whose
// signatures have not changed always maps to the same key, so it can never
// produce two settlement records.
func DedupeKey(leaseID uint, landlordSig, tenantSig []byte) string {
	h := sha256.New()
	h.Write(landlordSig)
	h.Write(tenantSig)
	return fmt.Sprintf("%d:%s", leaseID, hex.EncodeToString(h.Sum(nil)))
}
