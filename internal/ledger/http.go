package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/udid-foundation/udid-chain/internal/config"
)

// HTTPLedger talks to a remote registry node over JSON. The node answers a
// store request only after the entry is durable, so a 201 here is a
// confirmed commit. Timeouts and transport failures fail closed, the caller
// must treat the commit as not having happened.
type HTTPLedger struct {
	baseURL   string
	issuerKey string
	client    *http.Client
}

// NewHTTPLedger validates the configuration up front and returns a fully
// initialized client or an error, there is no lazy init to retry later.
func NewHTTPLedger(cfg config.LedgerConfig) (*HTTPLedger, error) {
	if cfg.NodeURL == "" {
		return nil, errors.New("ledger: node URL is required")
	}
	if _, err := url.Parse(cfg.NodeURL); err != nil {
		return nil, fmt.Errorf("ledger: invalid node URL: %w", err)
	}
	if cfg.IssuerKey == "" {
		return nil, errors.New("ledger: issuer key is required")
	}

	timeout := cfg.CommitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPLedger{
		baseURL:   strings.TrimSuffix(cfg.NodeURL, "/"),
		issuerKey: cfg.IssuerKey,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

type storeDigestRequest struct {
	Digest string `json:"digest"`
}

type digestEntryResponse struct {
	Digest        string    `json:"digest"`
	TransactionID string    `json:"transactionId"`
	BlockHeight   uint64    `json:"blockHeight"`
	ConfirmedAt   time.Time `json:"confirmedAt"`
}

type transferOwnerRequest struct {
	NewIssuer string `json:"newIssuer"`
}

type listDigestsResponse struct {
	Digests []string `json:"digests"`
}

func (h *HTTPLedger) StoreDigest(ctx context.Context, digest string) (*Receipt, error) {
	if digest == "" {
		return nil, ErrInvalidDigest
	}

	body, err := json.Marshal(storeDigestRequest{Digest: digest})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/v1/digests", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.issuerKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger: store digest request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return nil, ErrDuplicateDigest
	case http.StatusBadRequest:
		return nil, ErrInvalidDigest
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("ledger: registry node returned status %d", resp.StatusCode)
	}

	var entry digestEntryResponse
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("ledger: malformed registry response: %w", err)
	}

	return &Receipt{
		TransactionID: entry.TransactionID,
		BlockHeight:   entry.BlockHeight,
		ConfirmedAt:   entry.ConfirmedAt,
	}, nil
}

func (h *HTTPLedger) getDigest(ctx context.Context, digest string) (*digestEntryResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/digests/"+url.PathEscape(digest), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("ledger: digest lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("ledger: registry node returned status %d", resp.StatusCode)
	}

	var entry digestEntryResponse
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, false, fmt.Errorf("ledger: malformed registry response: %w", err)
	}

	return &entry, true, nil
}

func (h *HTTPLedger) DigestExists(ctx context.Context, digest string) (bool, error) {
	if digest == "" {
		return false, nil
	}

	_, exists, err := h.getDigest(ctx, digest)
	return exists, err
}

func (h *HTTPLedger) DigestTimestamp(ctx context.Context, digest string) (time.Time, bool, error) {
	if digest == "" {
		return time.Time{}, false, nil
	}

	entry, exists, err := h.getDigest(ctx, digest)
	if err != nil || !exists {
		return time.Time{}, false, err
	}

	return entry.ConfirmedAt, true, nil
}

func (h *HTTPLedger) TransferWriteCapability(ctx context.Context, newIssuer string) error {
	if newIssuer == "" {
		return ErrInvalidAddress
	}

	body, err := json.Marshal(transferOwnerRequest{NewIssuer: newIssuer})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/api/v1/owner", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.issuerKey)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("ledger: capability transfer failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusBadRequest:
		return ErrInvalidAddress
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("ledger: registry node returned status %d", resp.StatusCode)
	}
}

func (h *HTTPLedger) ListDigests(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/digests", nil)
	if err != nil {
		return nil, err
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger: digest listing failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ledger: registry node returned status %d", resp.StatusCode)
	}

	var list listDigestsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("ledger: malformed registry response: %w", err)
	}

	return list.Digests, nil
}
