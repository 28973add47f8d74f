package constant

const (
	// CertificateNumberPrefix + year + zero-padded sequence, e.g.
	// UDID-2026-0000000042.
	CertificateNumberPrefix   = "UDID"
	CertificateSequenceDigits = 10

	// ApplicationNumberPrefix + year + zero-padded sequence, e.g.
	// DCA-2026-000007.
	ApplicationNumberPrefix   = "DCA"
	ApplicationSequenceDigits = 6

	// Certificates are valid for five years from the issue date.
	CertificateValidityYears = 5
)
