package model

import (
	"time"

	"github.com/udid-foundation/udid-chain/internal/constant"
)

type Application struct {
	BaseModel
	ApplicationNumber string `gorm:"type:text;not null;uniqueIndex" json:"applicationNumber"`
	HolderID          string `gorm:"type:text;not null;index" json:"holderId"`

	DisabilityType        string     `gorm:"type:varchar(50);not null" json:"disabilityType" form:"disabilityType" binding:"required"`
	DisabilityDescription string     `gorm:"type:varchar(1000);not null" json:"disabilityDescription" form:"disabilityDescription" binding:"required,cmax=1000"`
	ClaimedPercentage     int        `gorm:"type:int" json:"claimedPercentage" form:"claimedPercentage" binding:"gte=0,lte=100"`
	DisabledSince         *time.Time `json:"disabledSince,omitempty" form:"disabledSince"`

	Status constant.ApplicationStatus `gorm:"type:varchar(30);not null;default:'SUBMITTED'" json:"status"`

	AssignedDoctorID *string `gorm:"type:text" json:"assignedDoctorId,omitempty"`

	// Assessment is filled by the assigned doctor and is the source of the
	// percentage that ends up on the certificate.
	AssessedPercentage *int       `gorm:"type:int" json:"assessedPercentage,omitempty"`
	DoctorNotes        string     `gorm:"type:text" json:"doctorNotes,omitempty"`
	AssessmentDate     *time.Time `json:"assessmentDate,omitempty"`

	AdminNotes      string `gorm:"type:text" json:"adminNotes,omitempty"`
	RejectionReason string `gorm:"type:text" json:"rejectionReason,omitempty"`

	Holder         User  `gorm:"foreignKey:HolderID;constraint:OnDelete:SET NULL" json:"holder,omitempty"`
	AssignedDoctor *User `gorm:"foreignKey:AssignedDoctorID;constraint:OnDelete:SET NULL" json:"assignedDoctor,omitempty"`

	StatusHistory []ApplicationStatusLog `gorm:"foreignKey:ApplicationID" json:"statusHistory,omitempty"`
}

func (a Application) TableName() string {
	return "applications"
}

type ApplicationStatusLog struct {
	BaseModel
	ApplicationID string                     `gorm:"type:text;not null;index" json:"applicationId"`
	Status        constant.ApplicationStatus `gorm:"type:varchar(30);not null" json:"status"`
	ChangedByID   string                     `gorm:"type:text;not null" json:"changedById"`
	Notes         string                     `gorm:"type:text" json:"notes,omitempty"`
}

func (l ApplicationStatusLog) TableName() string {
	return "application_status_logs"
}
