// internal/models/evaluator.go
package models

// Role is an evaluator's scoring role. Only JURY and PRESIDENT_JURY may
// submit evaluations; other administrative roles are excluded from the
// scoring workflow.
type Role string

const (
	RoleJury          Role = "JURY"
	RolePresidentJury Role = "PRESIDENT_JURY"
	RoleAdmin         Role = "ADMIN"
)

// CanEvaluate reports whether the role is allowed to score applications.
func (r Role) CanEvaluate() bool {
	return r == RoleJury || r == RolePresidentJury
}

// Evaluator is an authenticated actor with a scoring role.
type Evaluator struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Role   Role   `json:"role"`
	Active bool   `json:"active"`
}
