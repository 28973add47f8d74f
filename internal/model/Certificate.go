package model

import "time"

// LedgerReceipt is the proof returned by the certificate registry after a
// digest commit. A certificate row is never written without one. Verified is
// a cache refreshed by the reconciler, the verification flow always re-checks
// the ledger itself.
type LedgerReceipt struct {
	TransactionID string     `gorm:"column:ledger_tx_id;type:text;not null" json:"transactionId"`
	BlockHeight   uint64     `gorm:"column:ledger_block_height;not null" json:"blockHeight"`
	ConfirmedAt   *time.Time `gorm:"column:ledger_confirmed_at;not null" json:"confirmedAt"`
	Verified      bool       `gorm:"column:ledger_verified;default:false" json:"verified"`
}

// Certificate is append-only once issued. Every field that feeds the digest
// is immutable, the only mutable columns are IsActive and the cached
// ledger_verified flag.
type Certificate struct {
	BaseModel
	ApplicationID        string     `gorm:"type:text;not null;uniqueIndex" json:"applicationId"`
	HolderID             string     `gorm:"type:text;not null;index" json:"holderId"`
	CertificateNumber    string     `gorm:"type:text;not null;uniqueIndex" json:"certificateNumber"`
	DisabilityType       string     `gorm:"type:varchar(50);not null" json:"disabilityType"`
	DisabilityPercentage int        `gorm:"type:int;not null" json:"disabilityPercentage"`
	IssueDate            *time.Time `gorm:"not null" json:"issueDate"`
	ValidUntil           *time.Time `gorm:"not null" json:"validUntil"`
	CertificateHash      string     `gorm:"type:text;not null;uniqueIndex" json:"certificateHash"`

	Ledger LedgerReceipt `gorm:"embedded" json:"ledger"`

	// QrPayload is the serialized verification payload handed to the
	// presentation layer for QR encoding.
	QrPayload  string `gorm:"type:text;not null" json:"qrPayload"`
	IssuedByID string `gorm:"type:text;not null" json:"issuedById"`
	IsActive   bool   `gorm:"type:boolean;default:true" json:"isActive"`

	Holder      User        `gorm:"foreignKey:HolderID;constraint:OnDelete:SET NULL" json:"holder,omitempty"`
	Application Application `gorm:"foreignKey:ApplicationID;constraint:OnDelete:SET NULL" json:"application,omitempty"`
	IssuedBy    User        `gorm:"foreignKey:IssuedByID;constraint:OnDelete:SET NULL" json:"issuedBy,omitempty"`
}

func (c Certificate) TableName() string {
	return "certificates"
}
