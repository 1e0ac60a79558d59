package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of accounts.
type Role string

const (
	RoleClient       Role = "CLIENT"
	RolePractitioner Role = "PRACTITIONER"
)

// VerificationStatus tracks practitioner credential review.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationVerified VerificationStatus = "VERIFIED"
	VerificationRejected VerificationStatus = "REJECTED"
)

// Account represents a client or practitioner. The Credits balance is mutated
// only through ledger transactions.
type Account struct {
	ID                 uuid.UUID          `json:"id"`
	Email              string             `json:"email"`
	Name               string             `json:"name"`
	Role               Role               `json:"role"`
	Credits            int64              `json:"credits"`
	Speciality         string             `json:"speciality,omitempty"`
	ExperienceYears    int                `json:"experience_years,omitempty"`
	CredentialURL      string             `json:"credential_url,omitempty"`
	Description        string             `json:"description,omitempty"`
	VerificationStatus VerificationStatus `json:"verification_status,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// CreateAccountRequest is the onboarding payload. The account id comes from
// the identity provider, not the request body.
type CreateAccountRequest struct {
	ID              uuid.UUID `json:"-"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	Speciality      string    `json:"speciality"`
	ExperienceYears int       `json:"experience_years"`
	CredentialURL   string    `json:"credential_url"`
	Description     string    `json:"description"`

	// StartingCredits is granted to clients at onboarding and recorded in
	// the ledger. Set by the handler from config, never by the caller.
	StartingCredits int64 `json:"-"`
}

// Validate validates the onboarding request
func (r *CreateAccountRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrMissingAccountID
	}
	if strings.TrimSpace(r.Name) == "" || strings.TrimSpace(r.Email) == "" {
		return ErrMissingProfile
	}
	switch r.Role {
	case RoleClient:
		return nil
	case RolePractitioner:
		if strings.TrimSpace(r.Speciality) == "" || r.ExperienceYears <= 0 ||
			strings.TrimSpace(r.CredentialURL) == "" || strings.TrimSpace(r.Description) == "" {
			return ErrIncompleteApplication
		}
		return nil
	default:
		return ErrInvalidRole
	}
}
