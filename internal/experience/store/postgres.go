package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
)

// PostgresStore persists claims in PostgreSQL. It implements the same
// atomicity contract as the in-memory arena: each Create/Update runs in one
// SQL transaction covering the record and its index moves.
//
// Index order mapping:
//   - owner and email indices follow creation order, which is id order
//   - the employer index follows binding order, tracked by employer_bound_seq
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE SEQUENCE IF NOT EXISTS experience_id_seq START 1;
CREATE SEQUENCE IF NOT EXISTS employer_bound_seq START 1;

CREATE TABLE IF NOT EXISTS experiences (
	id                 BIGINT PRIMARY KEY,
	owner_address      TEXT        NOT NULL,
	seeker_name        TEXT        NOT NULL,
	seeker_handle      TEXT        NOT NULL,
	seeker_address     TEXT        NOT NULL,
	employer_name      TEXT        NOT NULL,
	employer_handle    TEXT        NOT NULL DEFAULT '',
	employer_address   TEXT        NOT NULL DEFAULT '',
	employer_email     TEXT        NOT NULL DEFAULT '',
	employer_status    TEXT        NOT NULL,
	attestation_status TEXT        NOT NULL,
	role               TEXT        NOT NULL,
	employment_type    TEXT        NOT NULL DEFAULT '',
	start_date         TIMESTAMPTZ NOT NULL,
	end_date           TIMESTAMPTZ NOT NULL,
	description        TEXT        NOT NULL DEFAULT '',
	credential_id      BIGINT      NOT NULL DEFAULT 0,
	employer_bound_pos BIGINT,
	created_at         TIMESTAMPTZ NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS experiences_owner_idx    ON experiences (owner_address, id);
CREATE INDEX IF NOT EXISTS experiences_employer_idx ON experiences (employer_address, employer_bound_pos);
CREATE INDEX IF NOT EXISTS experiences_email_idx    ON experiences (employer_email, id);

CREATE TABLE IF NOT EXISTS email_bindings (
	email    TEXT PRIMARY KEY,
	address  TEXT        NOT NULL,
	handle   TEXT        NOT NULL,
	bound_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates tables and sequences when they do not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *models.Experience) (id.ClaimID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var claimID uint64
	if err := tx.QueryRow(ctx, `SELECT nextval('experience_id_seq')`).Scan(&claimID); err != nil {
		return 0, fmt.Errorf("allocate id: %w", err)
	}
	rec.ID = id.ClaimID(claimID)

	_, err = tx.Exec(ctx, `
		INSERT INTO experiences (
			id, owner_address, seeker_name, seeker_handle, seeker_address,
			employer_name, employer_handle, employer_address, employer_email,
			employer_status, attestation_status, role, employment_type,
			start_date, end_date, description, credential_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		int64(rec.ID), rec.Owner.String(), rec.Seeker.Name, rec.Seeker.Handle.String(),
		rec.SeekerAddress.String(), rec.EmployerName, rec.EmployerHandle.String(),
		rec.EmployerAddress.String(), rec.EmployerEmail.String(),
		string(rec.EmployerStatus), string(rec.AttestationStatus), rec.Role,
		rec.EmploymentType, rec.StartDate, rec.EndDate, rec.Description,
		int64(rec.CredentialID), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert experience: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return rec.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, claimID id.ClaimID) (*models.Experience, error) {
	row := s.pool.QueryRow(ctx, selectExperience+` WHERE id = $1`, int64(claimID))
	return scanExperience(row)
}

func (s *PostgresStore) Update(ctx context.Context, rec *models.Experience, moves IndexMoves) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if moves.BindEmail != nil {
		var tag pgconn.CommandTag
		tag, err = tx.Exec(ctx, `
			INSERT INTO email_bindings (email, address, handle, bound_at)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (email) DO NOTHING`,
			moves.BindEmail.Email.String(), moves.BindEmail.Address.String(),
			moves.BindEmail.Handle.String(), moves.BindEmail.BoundAt,
		)
		if err != nil {
			return fmt.Errorf("bind email: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}
	}

	boundPos := `employer_bound_pos`
	if moves.AppendEmployerIndex {
		boundPos = `nextval('employer_bound_seq')`
	}
	tag, err := tx.Exec(ctx, fmt.Sprintf(`
		UPDATE experiences SET
			employer_name = $2, employer_handle = $3, employer_address = $4,
			employer_email = $5, employer_status = $6, attestation_status = $7,
			role = $8, employment_type = $9, start_date = $10, end_date = $11,
			description = $12, credential_id = $13, updated_at = $14,
			employer_bound_pos = %s
		WHERE id = $1`, boundPos),
		int64(rec.ID), rec.EmployerName, rec.EmployerHandle.String(),
		rec.EmployerAddress.String(), rec.EmployerEmail.String(),
		string(rec.EmployerStatus), string(rec.AttestationStatus), rec.Role,
		rec.EmploymentType, rec.StartDate, rec.EndDate, rec.Description,
		int64(rec.CredentialID), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update experience: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.Address) ([]*models.Experience, error) {
	return s.list(ctx, selectExperience+` WHERE owner_address = $1 ORDER BY id`, owner.String())
}

func (s *PostgresStore) ListByEmployer(ctx context.Context, employer id.Address) ([]*models.Experience, error) {
	return s.list(ctx, selectExperience+`
		WHERE employer_address = $1 AND employer_bound_pos IS NOT NULL
		ORDER BY employer_bound_pos`, employer.String())
}

func (s *PostgresStore) ListByEmployerEmail(ctx context.Context, email id.Email) ([]*models.Experience, error) {
	// Registered claims have their email cleared, so membership in this
	// index is simply a non-empty employer_email match.
	return s.list(ctx, selectExperience+` WHERE employer_email = $1 ORDER BY id`, email.String())
}

func (s *PostgresStore) EmailBinding(ctx context.Context, email id.Email) (*models.EmailBinding, error) {
	var b models.EmailBinding
	var bEmail, bAddress, bHandle string
	err := s.pool.QueryRow(ctx,
		`SELECT email, address, handle, bound_at FROM email_bindings WHERE email = $1`,
		email.String(),
	).Scan(&bEmail, &bAddress, &bHandle, &b.BoundAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find email binding: %w", err)
	}
	b.Email = id.Email(bEmail)
	b.Address = id.Address(bAddress)
	b.Handle = id.Handle(bHandle)
	return &b, nil
}

const selectExperience = `
	SELECT id, owner_address, seeker_name, seeker_handle, seeker_address,
	       employer_name, employer_handle, employer_address, employer_email,
	       employer_status, attestation_status, role, employment_type,
	       start_date, end_date, description, credential_id, created_at, updated_at
	FROM experiences`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperience(row rowScanner) (*models.Experience, error) {
	var rec models.Experience
	var claimID, credentialID int64
	var owner, seekerHandle, seekerAddress, employerHandle, employerAddress, employerEmail string
	var employerStatus, attestationStatus string
	err := row.Scan(
		&claimID, &owner, &rec.Seeker.Name, &seekerHandle, &seekerAddress,
		&rec.EmployerName, &employerHandle, &employerAddress, &employerEmail,
		&employerStatus, &attestationStatus, &rec.Role, &rec.EmploymentType,
		&rec.StartDate, &rec.EndDate, &rec.Description, &credentialID,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan experience: %w", err)
	}
	rec.ID = id.ClaimID(claimID)
	rec.Owner = id.Address(owner)
	rec.Seeker.Handle = id.Handle(seekerHandle)
	rec.SeekerAddress = id.Address(seekerAddress)
	rec.EmployerHandle = id.Handle(employerHandle)
	rec.EmployerAddress = id.Address(employerAddress)
	rec.EmployerEmail = id.Email(employerEmail)
	if rec.EmployerStatus, err = models.ParseEmployerStatus(employerStatus); err != nil {
		return nil, fmt.Errorf("scan experience %d: %w", claimID, err)
	}
	if rec.AttestationStatus, err = models.ParseAttestationStatus(attestationStatus); err != nil {
		return nil, fmt.Errorf("scan experience %d: %w", claimID, err)
	}
	rec.CredentialID = id.CredentialID(credentialID)
	return &rec, nil
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*models.Experience, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Experience, 0)
	for rows.Next() {
		rec, err := scanExperience(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
