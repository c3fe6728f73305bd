package repository

import (
	"context"
	"database/sql"
	"strings"

	"rentalhub/internal/domain"

	"github.com/jmoiron/sqlx"
)

type PostgresUsersRepository struct {
	db *sqlx.DB
}

func NewPostgresUsersRepository(db *sqlx.DB) *PostgresUsersRepository {
	return &PostgresUsersRepository{db: db}
}

var _ UsersRepository = (*PostgresUsersRepository)(nil)

const userColumns = `id, username, email, password_hash, role, date_joined`

func (r *PostgresUsersRepository) CreateUser(ctx context.Context, u *domain.User, phone string) (*domain.User, error) {
	const op = "PostgresUsersRepository.CreateUser"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	out := *u
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, date_joined
	`, u.Username, u.Email, u.PasswordHash, u.Role).Scan(&out.ID, &out.DateJoined)
	if err != nil {
		return nil, wrap(op, err)
	}

	phone = strings.TrimSpace(phone)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, phone) VALUES ($1, $2)`,
		out.ID, sql.NullString{String: phone, Valid: phone != ""},
	); err != nil {
		return nil, wrap(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return &out, nil
}

func (r *PostgresUsersRepository) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, wrap("PostgresUsersRepository.GetUser", err)
	}
	return &u, nil
}

func (r *PostgresUsersRepository) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := r.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE username = $1`, username); err != nil {
		return nil, wrap("PostgresUsersRepository.GetUserByUsername", err)
	}
	return &u, nil
}

func (r *PostgresUsersRepository) GetProfile(ctx context.Context, userID int64) (*domain.Profile, error) {
	var p domain.Profile
	if err := r.db.GetContext(ctx, &p, `SELECT id, user_id, phone FROM profiles WHERE user_id = $1`, userID); err != nil {
		return nil, wrap("PostgresUsersRepository.GetProfile", err)
	}
	return &p, nil
}
