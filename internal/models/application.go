// internal/models/application.go
package models

import "time"

// ApplicationStatus is the lifecycle state of an exhibitor application.
// An application starts PENDING and transitions exactly once to a
// terminal state.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "PENDING"
	StatusApproved ApplicationStatus = "APPROVED"
	StatusRejected ApplicationStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is permitted.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Application is one exhibitor's submission ("demande") under review.
type Application struct {
	Reference      string            `json:"reference"`
	Applicant      ApplicantProfile  `json:"applicant"`
	Business       BusinessInfo      `json:"business"`
	Status         ApplicationStatus `json:"status"`
	DecisionReason string            `json:"decisionReason,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// ApplicantProfile holds the submitter's contact fields.
type ApplicantProfile struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// BusinessInfo holds the business and product fields the jury scores
// against: provenance, transformation, employment, certification.
type BusinessInfo struct {
	CompanyName          string `json:"companyName"`
	ProductDescription   string `json:"productDescription"`
	RawMaterialOrigin    string `json:"rawMaterialOrigin,omitempty"`
	LocalTransformation  string `json:"localTransformation,omitempty"`
	EmployeeCount        int    `json:"employeeCount,omitempty"`
	QualityCertification string `json:"qualityCertification,omitempty"`
}
