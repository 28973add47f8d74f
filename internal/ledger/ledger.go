// Package ledger abstracts the append-only certificate registry the issuance
// flow commits digests to. Keys are hex digests, values are a confirmation
// timestamp and a block/sequence height. Writes are gated by a single issuer
// capability, reads are open to anyone.
package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrDuplicateDigest: the digest is already registered. Digests derive
	// from static certificate facts, so a retry of a failed issuance can
	// legitimately hit this.
	ErrDuplicateDigest = errors.New("ledger: digest already exists")

	// ErrInvalidDigest: zero/empty digest value.
	ErrInvalidDigest = errors.New("ledger: invalid digest")

	// ErrUnauthorized: caller does not hold the write capability.
	ErrUnauthorized = errors.New("ledger: caller lacks write capability")

	// ErrInvalidAddress: capability transfer to a zero/empty target.
	ErrInvalidAddress = errors.New("ledger: invalid issuer address")
)

// Receipt is proof of a confirmed digest commit. A commit is durable only
// once a receipt has been observed, "submitted" is not "confirmed".
type Receipt struct {
	TransactionID string
	BlockHeight   uint64
	ConfirmedAt   time.Time
}

type Client interface {
	// StoreDigest registers a digest and blocks until the registry confirms
	// it. Not retried by callers, the registry's own duplicate rejection is
	// the serialization point.
	StoreDigest(ctx context.Context, digest string) (*Receipt, error)

	// DigestExists reports whether the digest is registered. No capability
	// required.
	DigestExists(ctx context.Context, digest string) (bool, error)

	// DigestTimestamp returns the confirmation time of a digest. An unknown
	// digest is reported as absent, not as an error.
	DigestTimestamp(ctx context.Context, digest string) (time.Time, bool, error)

	// TransferWriteCapability hands the write capability to a new issuer
	// identity.
	TransferWriteCapability(ctx context.Context, newIssuer string) error
}

// Lister is an optional extension for registries that can enumerate their
// digests. The reconciler uses it to detect orphaned entries, digests
// committed with no matching certificate record.
type Lister interface {
	ListDigests(ctx context.Context) ([]string, error)
}
