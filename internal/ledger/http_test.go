package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/udid-foundation/udid-chain/internal/config"
)

func newTestNode(t *testing.T, issuerKey string) (*httptest.Server, *MemoryLedger) {
	t.Helper()

	// the node wraps a memory registry, the HTTP client under test only sees
	// the JSON surface
	reg := NewMemoryLedger("node-owner")

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/digests", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+issuerKey {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		var req storeDigestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Digest) == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		receipt, err := reg.StoreDigest(r.Context(), req.Digest)
		switch {
		case errors.Is(err, ErrDuplicateDigest):
			w.WriteHeader(http.StatusConflict)
			return
		case err != nil:
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(digestEntryResponse{
			Digest:        req.Digest,
			TransactionID: receipt.TransactionID,
			BlockHeight:   receipt.BlockHeight,
			ConfirmedAt:   receipt.ConfirmedAt,
		})
	})
	mux.HandleFunc("GET /api/v1/digests/{digest}", func(w http.ResponseWriter, r *http.Request) {
		digest := r.PathValue("digest")
		ts, found, _ := reg.DigestTimestamp(r.Context(), digest)
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(digestEntryResponse{Digest: digest, ConfirmedAt: ts})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, reg
}

func newTestClient(t *testing.T, nodeURL, issuerKey string) *HTTPLedger {
	t.Helper()

	client, err := NewHTTPLedger(config.LedgerConfig{
		NodeURL:       nodeURL,
		IssuerKey:     issuerKey,
		CommitTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewHTTPLedger() error = %v", err)
	}
	return client
}

func TestHTTPLedgerConstructorValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LedgerConfig
	}{
		{"missing node url", config.LedgerConfig{IssuerKey: "k"}},
		{"missing issuer key", config.LedgerConfig{NodeURL: "http://localhost:8545"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHTTPLedger(tt.cfg); err == nil {
				t.Error("NewHTTPLedger() expected a configuration error")
			}
		})
	}
}

func TestHTTPLedgerStoreAndLookup(t *testing.T) {
	ctx := context.Background()
	srv, _ := newTestNode(t, "secret-key")
	client := newTestClient(t, srv.URL, "secret-key")

	receipt, err := client.StoreDigest(ctx, testDigest)
	if err != nil {
		t.Fatalf("StoreDigest() error = %v", err)
	}
	if receipt.TransactionID == "" || receipt.ConfirmedAt.IsZero() {
		t.Errorf("Incomplete receipt: %+v", receipt)
	}

	exists, err := client.DigestExists(ctx, testDigest)
	if err != nil {
		t.Fatalf("DigestExists() error = %v", err)
	}
	if !exists {
		t.Error("Stored digest not found through HTTP client")
	}

	_, found, err := client.DigestTimestamp(ctx, "unknown-digest")
	if err != nil {
		t.Fatalf("DigestTimestamp() error = %v", err)
	}
	if found {
		t.Error("Unknown digest reported as present")
	}
}

func TestHTTPLedgerDuplicate(t *testing.T) {
	ctx := context.Background()
	srv, reg := newTestNode(t, "secret-key")
	client := newTestClient(t, srv.URL, "secret-key")

	if _, err := reg.StoreDigest(ctx, testDigest); err != nil {
		t.Fatalf("seeding registry failed: %v", err)
	}

	if _, err := client.StoreDigest(ctx, testDigest); !errors.Is(err, ErrDuplicateDigest) {
		t.Errorf("StoreDigest() duplicate error = %v, want ErrDuplicateDigest", err)
	}
}

func TestHTTPLedgerUnauthorized(t *testing.T) {
	srv, _ := newTestNode(t, "secret-key")
	client := newTestClient(t, srv.URL, "wrong-key")

	if _, err := client.StoreDigest(context.Background(), testDigest); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("StoreDigest() with wrong key error = %v, want ErrUnauthorized", err)
	}
}

func TestHTTPLedgerFailsClosedOnNodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := newTestClient(t, srv.URL, "secret-key")

	if _, err := client.StoreDigest(context.Background(), testDigest); err == nil {
		t.Error("StoreDigest() expected an error when the node is failing")
	}
	if _, err := client.DigestExists(context.Background(), testDigest); err == nil {
		t.Error("DigestExists() expected an error when the node is failing")
	}
}
