package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medimeet/telehealth-platform/internal/ledger"
)

// db is the subset of pgxpool used here. pgxmock satisfies it.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores accounts in the relational database.
type PostgresRepository struct {
	db db
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("accounts: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

// NewPostgresRepositoryWithDB allows injecting a mock database for testing.
func NewPostgresRepositoryWithDB(d db) *PostgresRepository {
	return &PostgresRepository{db: d}
}

const accountColumns = `id, email, name, role, credits, speciality, experience_years, credential_url, description, verification_status, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	var role, status string
	if err := row.Scan(&a.ID, &a.Email, &a.Name, &role, &a.Credits, &a.Speciality,
		&a.ExperienceYears, &a.CredentialURL, &a.Description, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Role = Role(role)
	a.VerificationStatus = VerificationStatus(status)
	return &a, nil
}

// Create inserts a new account. The onboarding grant and its ledger entry are
// written in the same transaction so the balance never exists without an
// audit record.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateAccountRequest) (*Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account := &Account{
		ID:    req.ID,
		Email: req.Email,
		Name:  req.Name,
		Role:  req.Role,
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

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("accounts: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var createdAt time.Time
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, role, credits, speciality, experience_years, credential_url, description, verification_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`,
		account.ID, account.Email, account.Name, string(account.Role), account.Credits,
		account.Speciality, account.ExperienceYears, account.CredentialURL,
		account.Description, string(account.VerificationStatus),
	).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("accounts: insert failed: %w", err)
	}
	account.CreatedAt = createdAt

	if account.Role == RoleClient && account.Credits > 0 {
		if err := ledger.RecordGrant(ctx, tx, account.ID, account.Credits); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("accounts: commit: %w", err)
	}
	return account, nil
}

// GetByID fetches an account by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accounts: select failed: %w", err)
	}
	return account, nil
}

// GetVerifiedPractitioner fetches an account only if it is a verified
// practitioner.
func (r *PostgresRepository) GetVerifiedPractitioner(ctx context.Context, id uuid.UUID) (*Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id = $1 AND role = 'PRACTITIONER' AND verification_status = 'VERIFIED'`, id)
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accounts: select practitioner failed: %w", err)
	}
	return account, nil
}

// ListVerifiedPractitioners returns verified practitioners, optionally
// filtered by speciality.
func (r *PostgresRepository) ListVerifiedPractitioners(ctx context.Context, speciality string) ([]*Account, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE role = 'PRACTITIONER' AND verification_status = 'VERIFIED'
		  AND ($1 = '' OR lower(speciality) = lower($1))
		ORDER BY name`, speciality)
	if err != nil {
		return nil, fmt.Errorf("accounts: list practitioners: %w", err)
	}
	defer rows.Close()

	var out []*Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("accounts: scan practitioner: %w", err)
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

// SetVerification transitions a practitioner's verification status.
func (r *PostgresRepository) SetVerification(ctx context.Context, id uuid.UUID, status VerificationStatus) (*Account, error) {
	if status != VerificationVerified && status != VerificationRejected {
		return nil, ErrInvalidVerification
	}
	row := r.db.QueryRow(ctx, `
		UPDATE accounts SET verification_status = $2
		WHERE id = $1 AND role = 'PRACTITIONER'
		RETURNING `+accountColumns, id, string(status))
	account, err := scanAccount(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("accounts: update verification: %w", err)
	}
	return account, nil
}
