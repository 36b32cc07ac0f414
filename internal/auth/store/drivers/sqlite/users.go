package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/harborline/storefront/internal/auth/domain"
	"github.com/harborline/storefront/internal/auth/store"
)

const userColumns = `id, name, email, password_hash, role, is_verified,
	verify_token_hash, verify_token_expires_at, verify_sent_at,
	failed_login_attempts, lock_until,
	refresh_token_hash, refresh_token_expires_at,
	created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	// Emails are stored lowercase; lower() here covers callers that skipped
	// normalization.
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower(?)`, email)
	return scanUser(row)
}

func (r *usersRepo) GetUserByRefreshTokenHash(ctx context.Context, hash string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE refresh_token_hash = ?`, hash)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (
			id, name, email, password_hash, role, is_verified,
			verify_token_hash, verify_token_expires_at, verify_sent_at,
			failed_login_attempts, lock_until,
			refresh_token_hash, refresh_token_expires_at,
			created_at, updated_at
		) VALUES (?, ?, lower(?), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.IsVerified,
		mapOptionalString(u.VerifyTokenHash), mapOptionalTime(u.VerifyExpiresAt), mapOptionalTime(u.VerifySentAt),
		u.FailedLoginAttempts, mapOptionalTime(u.LockUntil),
		mapOptionalString(u.RefreshTokenHash), mapOptionalTime(u.RefreshExpiresAt),
		u.CreatedAt, u.UpdatedAt,
	)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateLoginAttempts(ctx context.Context, userID string, attempts int, lockUntil *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = ?, lock_until = ?, updated_at = ?
		WHERE id = ?`,
		attempts, mapOptionalTime(lockUntil), time.Now().UTC(), userID,
	)
	return requireRow(res, err)
}

func (r *usersRepo) UpdateRefreshToken(ctx context.Context, userID string, hash *string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = ?, refresh_token_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		mapOptionalString(hash), mapOptionalTime(expiresAt), time.Now().UTC(), userID,
	)
	return requireRow(res, err)
}

func (r *usersRepo) ClearRefreshTokenByHash(ctx context.Context, hash string) error {
	// Deliberately not an error when nothing matches: logout is best-effort
	// and must not reveal whether a session existed.
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = ?
		WHERE refresh_token_hash = ?`,
		time.Now().UTC(), hash,
	)
	return err
}

func (r *usersRepo) SetVerification(ctx context.Context, userID string, tokenHash string, expiresAt, sentAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET verify_token_hash = ?, verify_token_expires_at = ?, verify_sent_at = ?, updated_at = ?
		WHERE id = ?`,
		tokenHash, expiresAt.UTC(), sentAt.UTC(), time.Now().UTC(), userID,
	)
	return requireRow(res, err)
}

func (r *usersRepo) MarkVerified(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET is_verified = 1,
			verify_token_hash = NULL, verify_token_expires_at = NULL, verify_sent_at = NULL,
			updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(), userID,
	)
	return requireRow(res, err)
}

func (r *usersRepo) ClearExpiredRefreshTokens(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = ?
		WHERE refresh_token_expires_at IS NOT NULL AND refresh_token_expires_at < ?`,
		now, now,
	)
	return err
}

func (r *usersRepo) ClearExpiredVerifications(ctx context.Context) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET verify_token_hash = NULL, verify_token_expires_at = NULL, updated_at = ?
		WHERE verify_token_expires_at IS NOT NULL AND verify_token_expires_at < ?`,
		now, now,
	)
	return err
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                domain.User
		verifyTokenHash  sql.NullString
		verifyExpiresAt  sql.NullTime
		verifySentAt     sql.NullTime
		lockUntil        sql.NullTime
		refreshTokenHash sql.NullString
		refreshExpiresAt sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsVerified,
		&verifyTokenHash, &verifyExpiresAt, &verifySentAt,
		&u.FailedLoginAttempts, &lockUntil,
		&refreshTokenHash, &refreshExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.VerifyTokenHash = mapNullStringPtr(verifyTokenHash)
	u.VerifyExpiresAt = mapNullTimePtr(verifyExpiresAt)
	u.VerifySentAt = mapNullTimePtr(verifySentAt)
	u.LockUntil = mapNullTimePtr(lockUntil)
	u.RefreshTokenHash = mapNullStringPtr(refreshTokenHash)
	u.RefreshExpiresAt = mapNullTimePtr(refreshExpiresAt)

	return u, nil
}

func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
