package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-automation/internal/automation"
	"shop-automation/internal/domain/user"
	"shop-automation/internal/infra"
	"shop-automation/internal/pkg/pgconv"
	"shop-automation/internal/usecase/readmodel"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email user.Email) (*readmodel.AuthorizedUserRM, string, error) {
	const query = `
		SELECT id, email, role, is_active, password_hash, last_login_at, created_at
		FROM users
		WHERE email = $1`

	var (
		rm           readmodel.AuthorizedUserRM
		passwordHash string
		lastLoginAt  pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, email.Value()).
		Scan(&rm.ID, &rm.Email, &rm.Role, &rm.IsActive, &passwordHash, &lastLoginAt, &rm.CreatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, "", infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, "", infra.WrapRepoErr("failed to find user by email", err)
	}

	if lastLoginAt.Valid {
		rm.LastLoginAt = &lastLoginAt.Time
	}
	return &rm, passwordHash, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*readmodel.AuthorizedUserRM, error) {
	const query = `
		SELECT id, email, role, is_active, last_login_at, created_at
		FROM users
		WHERE id = $1`

	var (
		rm          readmodel.AuthorizedUserRM
		lastLoginAt pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&rm.ID, &rm.Email, &rm.Role, &rm.IsActive, &lastLoginAt, &rm.CreatedAt)
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr("user not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find user by ID", err)
	}

	if lastLoginAt.Valid {
		rm.LastLoginAt = &lastLoginAt.Time
	}
	return &rm, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	const query = `UPDATE users SET last_login_at = now(), updated_at = now() WHERE id = $1`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return infra.WrapRepoErr("failed to update last login", err)
	}
	return nil
}

// ListAdmins backs the low-stock fan-out.
func (r *UserRepository) ListAdmins(ctx context.Context, limit int32) ([]automation.AdminUser, error) {
	const query = `
		SELECT id, email
		FROM users
		WHERE role = $1 AND is_active = true
		ORDER BY email
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, user.RoleAdmin.String(), limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list administrators", err)
	}
	defer rows.Close()

	var admins []automation.AdminUser
	for rows.Next() {
		var admin automation.AdminUser
		if err := rows.Scan(&admin.ID, &admin.Email); err != nil {
			return nil, infra.WrapRepoErr("failed to scan administrator row", err)
		}
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read administrators", err)
	}
	return admins, nil
}
