package constant

import "testing"

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{ApplicationStatusSubmitted, ApplicationStatusVerified, true},
		{ApplicationStatusSubmitted, ApplicationStatusRejected, true},
		{ApplicationStatusSubmitted, ApplicationStatusApproved, false},
		{ApplicationStatusVerified, ApplicationStatusDoctorAssigned, true},
		{ApplicationStatusDoctorAssigned, ApplicationStatusAssessed, true},
		{ApplicationStatusAssessed, ApplicationStatusApproved, true},
		{ApplicationStatusApproved, ApplicationStatusCertificateIssued, true},
		{ApplicationStatusApproved, ApplicationStatusRejected, false},
		{ApplicationStatusRejected, ApplicationStatusVerified, false},
		{ApplicationStatusCertificateIssued, ApplicationStatusApproved, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestIsValidDisabilityType(t *testing.T) {
	if !IsValidDisabilityType("Visual Impairment") {
		t.Error("known category rejected")
	}
	if IsValidDisabilityType("Clairvoyance") {
		t.Error("unknown category accepted")
	}
	if IsValidDisabilityType("") {
		t.Error("empty category accepted")
	}
}
