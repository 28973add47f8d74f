package udid

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const pdfDateFormat = "02 Jan 2006"

// PdfFields is what gets printed on the certificate document. Everything
// here is already public on the physical certificate.
type PdfFields struct {
	CertificateNumber    string
	HolderName           string
	DisabilityType       string
	DisabilityPercentage int
	IssueDate            time.Time
	ValidUntil           time.Time
}

// stampLine places one text line on the certificate template. Offsets are
// relative to the top-left corner, matching how the template form is laid
// out. In pdfcpu, y grows downward from the anchor when negated.
type stampLine struct {
	text string
	offX float64
	offY float64
	size int
}

func (f PdfFields) lines() []stampLine {
	return []stampLine{
		{fmt.Sprintf("Certificate No: %s", f.CertificateNumber), 60, -150, 14},
		{fmt.Sprintf("This is to certify that %s", f.HolderName), 60, -210, 12},
		{fmt.Sprintf("has been assessed with %s", f.DisabilityType), 60, -240, 12},
		{fmt.Sprintf("Disability: %d%%", f.DisabilityPercentage), 60, -270, 12},
		{fmt.Sprintf("Issued on: %s", f.IssueDate.Format(pdfDateFormat)), 60, -330, 11},
		{fmt.Sprintf("Valid until: %s", f.ValidUntil.Format(pdfDateFormat)), 60, -360, 11},
	}
}

// RenderCertificatePdf stamps the certificate fields and the verification QR
// code onto the issued-certificate template and returns the finished
// document. qrPayload is the serialized verification payload stored on the
// certificate record.
func RenderCertificatePdf(templatePath, qrPayload string, fields PdfFields) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "udid_pdf_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	currentFile := templatePath
	for i, line := range fields.lines() {
		outFile := filepath.Join(tmpDir, fmt.Sprintf("stamp_%d.pdf", i))
		description := fmt.Sprintf("points:%d, pos:tl, off:%.1f %.1f, scale:1 abs, rot:0, fillcolor:#1a1a1a", line.size, line.offX, line.offY)

		if err := api.AddTextWatermarksFile(currentFile, outFile, []string{"1"}, true, line.text, description, nil); err != nil {
			return nil, fmt.Errorf("failed to stamp certificate text: %w", err)
		}

		currentFile = outFile
	}

	qrFile := filepath.Join(tmpDir, "qr.png")
	if err := GenerateQRCodeFile(qrPayload, qrFile, 256); err != nil {
		return nil, err
	}

	finalFile := filepath.Join(tmpDir, "certificate.pdf")
	if err := EmbedQRCodeToPdf(currentFile, finalFile, qrFile, []string{"1"}); err != nil {
		return nil, err
	}

	return os.ReadFile(finalFile)
}

// EmbedQRCodeToPdf applies the QR image to the bottom right corner of the
// given pages, all pages when none are selected.
func EmbedQRCodeToPdf(inFile, outFile, qrCodePath string, selectedPages []string) error {
	description := "pos: br, off: -40 40, scale: 0.25 abs, rotation: 0"
	err := api.AddImageWatermarksFile(inFile, outFile, selectedPages, true, qrCodePath, description, nil)
	if err != nil {
		return fmt.Errorf("failed to embed QR code in PDF: %w", err)
	}
	return nil
}
