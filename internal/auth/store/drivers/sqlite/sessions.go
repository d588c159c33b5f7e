package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/4PPL8/PakGroccrry/internal/auth/domain"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, address, display_name, phone, new_user, verified_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Address, s.DisplayName, s.Phone, s.NewUser, s.VerifiedAt.UTC(), s.ExpiresAt.UTC(),
	)
	return err
}

func (r *sessionsRepo) GetSessionByID(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, address, display_name, phone, new_user, verified_at, expires_at
		FROM sessions WHERE id = ?`, id)

	var s domain.Session
	err := row.Scan(&s.ID, &s.Address, &s.DisplayName, &s.Phone, &s.NewUser, &s.VerifiedAt, &s.ExpiresAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteSessionsByAddress(ctx context.Context, address string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE address = ?`, address)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
