package constant

type ApplicationStatus string

const (
	ApplicationStatusSubmitted         ApplicationStatus = "SUBMITTED"
	ApplicationStatusVerified          ApplicationStatus = "VERIFIED"
	ApplicationStatusDoctorAssigned    ApplicationStatus = "DOCTOR_ASSIGNED"
	ApplicationStatusAssessed          ApplicationStatus = "ASSESSED"
	ApplicationStatusApproved          ApplicationStatus = "APPROVED"
	ApplicationStatusRejected          ApplicationStatus = "REJECTED"
	ApplicationStatusCertificateIssued ApplicationStatus = "CERTIFICATE_ISSUED"
)

// applicationTransitions encodes the allowed status transitions. REJECTED is
// reachable from every state before APPROVED; issuance is the only way
// forward from APPROVED.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusSubmitted:      {ApplicationStatusVerified, ApplicationStatusRejected},
	ApplicationStatusVerified:       {ApplicationStatusDoctorAssigned, ApplicationStatusRejected},
	ApplicationStatusDoctorAssigned: {ApplicationStatusAssessed, ApplicationStatusRejected},
	ApplicationStatusAssessed:       {ApplicationStatusApproved, ApplicationStatusRejected},
	ApplicationStatusApproved:       {ApplicationStatusCertificateIssued},
}

func (s ApplicationStatus) CanTransitionTo(next ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// DisabilityTypes is the closed list of disability categories an application
// can claim. Mirrors the issuing authority's category list.
var DisabilityTypes = []string{
	"Visual Impairment",
	"Hearing Impairment",
	"Locomotor Disability",
	"Mental Illness",
	"Intellectual Disability",
	"Learning Disability",
	"Autism Spectrum Disorder",
	"Multiple Disabilities",
	"Other",
}

func IsValidDisabilityType(t string) bool {
	for _, dt := range DisabilityTypes {
		if dt == t {
			return true
		}
	}
	return false
}
