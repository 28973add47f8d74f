package model

// Sequence backs certificate and application number allocation. One row per
// (name, year), bumped with an atomic upsert so two concurrent issuances can
// never observe the same value.
type Sequence struct {
	Name  string `gorm:"type:text;primaryKey"`
	Year  int    `gorm:"primaryKey"`
	Value int64  `gorm:"not null;default:0"`
}

func (s Sequence) TableName() string {
	return "sequences"
}

const (
	SequenceCertificate = "certificate"
	SequenceApplication = "application"
)
