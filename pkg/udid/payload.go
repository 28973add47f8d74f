package udid

import (
	"encoding/json"
	"fmt"

	"github.com/skip2/go-qrcode"
)

// VerificationPayload is the blob encoded into the certificate QR code. It
// carries just enough for an offline scanner to reach the public
// verification endpoint, no holder data.
type VerificationPayload struct {
	CertificateNumber string `json:"certificateNumber"`
	Hash              string `json:"hash"`
	VerifyURL         string `json:"verifyUrl"`
}

// VerifyURL is the public verification page for a certificate.
func VerifyURL(certificateNumber, frontendURL string) string {
	return fmt.Sprintf("%s/verify/%s", frontendURL, certificateNumber)
}

func BuildVerificationPayload(certificateNumber, digest, frontendURL string) (string, error) {
	payload, err := json.Marshal(VerificationPayload{
		CertificateNumber: certificateNumber,
		Hash:              digest,
		VerifyURL:         VerifyURL(certificateNumber, frontendURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build verification payload: %w", err)
	}

	return string(payload), nil
}

// GenerateQRCode renders the verification payload as a PNG. Size 256 is
// comfortable for both screen display and print.
func GenerateQRCode(payload string, size int) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// GenerateQRCodeFile writes the QR code PNG to disk, used by the PDF
// renderer which stamps from a file path.
func GenerateQRCodeFile(payload, outputPath string, size int) error {
	if err := qrcode.WriteFile(payload, qrcode.Medium, size, outputPath); err != nil {
		return fmt.Errorf("failed to generate QR code: %w", err)
	}
	return nil
}
