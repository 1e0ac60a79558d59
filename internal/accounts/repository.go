package accounts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medimeet/telehealth-platform/internal/ledger"
)

// Repository defines the interface for account storage.
type Repository interface {
	Create(ctx context.Context, req *CreateAccountRequest) (*Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetVerifiedPractitioner(ctx context.Context, id uuid.UUID) (*Account, error)
	ListVerifiedPractitioners(ctx context.Context, speciality string) ([]*Account, error)
	SetVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Account, error)
}

// InMemoryRepository is an in-memory implementation of Repository for tests
// and dev mode. Balance mutations go through AdjustCredits so the scheduling
// store can keep the ledger invariant.
type InMemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account
	ledger   *ledger.InMemoryRepository
}

// NewInMemoryRepository creates a new in-memory repository. The ledger
// receives the onboarding grant entries.
func NewInMemoryRepository(lr *ledger.InMemoryRepository) *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[uuid.UUID]*Account),
		ledger:   lr,
	}
}

// Create creates a new account. Clients receive the starting credit grant.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[req.ID]; ok {
		return nil, ErrAlreadyOnboarded
	}

	account := &Account{
		ID:        req.ID,
		Email:     req.Email,
		Name:      req.Name,
		Role:      req.Role,
		CreatedAt: time.Now().UTC(),
	}
	if req.Role == RolePractitioner {
		account.Speciality = req.Speciality
		account.ExperienceYears = req.ExperienceYears
		account.CredentialURL = req.CredentialURL
		account.Description = req.Description
		account.VerificationStatus = VerificationPending
	} else {
		account.Credits = req.StartingCredits
	}

	// The grant entry and the account appear together or not at all,
	// mirroring the transactional Postgres path.
	if account.Role == RoleClient && account.Credits > 0 && r.ledger != nil {
		if _, err := r.ledger.Record(ctx, ledger.Transaction{
			AccountID: account.ID,
			Amount:    account.Credits,
			Kind:      ledger.KindOnboardingGrant,
		}); err != nil {
			return nil, err
		}
	}
	r.accounts[account.ID] = account

	copied := *account
	return &copied, nil
}

// GetByID retrieves an account by id.
func (r *InMemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// GetVerifiedPractitioner retrieves an account only if it is a verified
// practitioner.
func (r *InMemoryRepository) GetVerifiedPractitioner(ctx context.Context, id uuid.UUID) (*Account, error) {
	account, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role != RolePractitioner || account.VerificationStatus != VerificationVerified {
		return nil, ErrNotFound
	}
	return account, nil
}

// ListVerifiedPractitioners returns verified practitioners, optionally
// filtered by speciality, ordered by name.
func (r *InMemoryRepository) ListVerifiedPractitioners(ctx context.Context, speciality string) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Account
	for _, account := range r.accounts {
		if account.Role != RolePractitioner || account.VerificationStatus != VerificationVerified {
			continue
		}
		if speciality != "" && !strings.EqualFold(account.Speciality, speciality) {
			continue
		}
		copied := *account
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SetVerification transitions a practitioner's verification status.
func (r *InMemoryRepository) SetVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Account, error) {
	if status != VerificationVerified && status != VerificationRejected {
		return nil, ErrInvalidVerification
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok || account.Role != RolePractitioner {
		return nil, ErrNotFound
	}
	account.VerificationStatus = status
	copied := *account
	return &copied, nil
}

// AdjustCredits applies a signed delta to an account balance, refusing any
// change that would take the balance below zero. Only the scheduling store's
// unit of work and tests should call this.
func (r *InMemoryRepository) AdjustCredits(ctx context.Context, id uuid.UUID, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if account.Credits+delta < 0 {
		return ledger.ErrInsufficientBalance
	}
	account.Credits += delta
	return nil
}
