package udid

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInput is returned when a digest is requested for an incomplete
// set of certificate fields.
type ErrInvalidInput struct {
	Field string
}

func (e ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid certificate fields: %s", e.Field)
}

// canonicalTimeFormat renders timestamps the way the original issuing system
// serialized them: UTC, millisecond precision, trailing Z. Changing this
// format would change every digest, bump canonicalVersion instead.
const canonicalTimeFormat = "2006-01-02T15:04:05.000Z"

// canonicalVersion tags the canonical byte format embedded in every digest,
// so a future schema change cannot silently break verification of
// certificates hashed under the old format.
const canonicalVersion = 1

// DigestHexLength is the length of a hex-encoded SHA-256 digest.
const DigestHexLength = 64

// CertificateFields is the exact set of facts a certificate digest commits
// to. Anything not listed here can change without invalidating the digest.
type CertificateFields struct {
	CertificateNumber    string
	HolderID             string
	ApplicationID        string
	DisabilityType       string
	DisabilityPercentage int
	IssueDate            time.Time
	ValidUntil           time.Time
}

// canonicalPayload fixes the key order of the hashed JSON document. Struct
// field order is the contract: encoding/json emits keys in declaration
// order, which keeps the byte sequence stable across platforms.
type canonicalPayload struct {
	V                    int    `json:"v"`
	CertificateNumber    string `json:"certificateNumber"`
	HolderID             string `json:"holderId"`
	ApplicationID        string `json:"applicationId"`
	DisabilityType       string `json:"disabilityType"`
	DisabilityPercentage int    `json:"disabilityPercentage"`
	IssueDate            string `json:"issueDate"`
	ValidUntil           string `json:"validUntil"`
}

func (f CertificateFields) validate() error {
	switch {
	case strings.TrimSpace(f.CertificateNumber) == "":
		return ErrInvalidInput{Field: "certificateNumber"}
	case strings.TrimSpace(f.HolderID) == "":
		return ErrInvalidInput{Field: "holderId"}
	case strings.TrimSpace(f.ApplicationID) == "":
		return ErrInvalidInput{Field: "applicationId"}
	case strings.TrimSpace(f.DisabilityType) == "":
		return ErrInvalidInput{Field: "disabilityType"}
	case f.DisabilityPercentage < 0 || f.DisabilityPercentage > 100:
		return ErrInvalidInput{Field: "disabilityPercentage"}
	case f.IssueDate.IsZero():
		return ErrInvalidInput{Field: "issueDate"}
	case f.ValidUntil.IsZero():
		return ErrInvalidInput{Field: "validUntil"}
	}
	return nil
}

// CanonicalBytes serializes the fields into the deterministic byte sequence
// that feeds the digest. Identical logical input always yields identical
// bytes regardless of platform or field-object representation.
func CanonicalBytes(f CertificateFields) ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}

	return json.Marshal(canonicalPayload{
		V:                    canonicalVersion,
		CertificateNumber:    f.CertificateNumber,
		HolderID:             f.HolderID,
		ApplicationID:        f.ApplicationID,
		DisabilityType:       f.DisabilityType,
		DisabilityPercentage: f.DisabilityPercentage,
		IssueDate:            f.IssueDate.UTC().Format(canonicalTimeFormat),
		ValidUntil:           f.ValidUntil.UTC().Format(canonicalTimeFormat),
	})
}

// ComputeDigest canonicalizes the fields and returns the hex-encoded SHA-256
// digest. Pure function, no side effects.
func ComputeDigest(f CertificateFields) (string, error) {
	payload, err := CanonicalBytes(f)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
