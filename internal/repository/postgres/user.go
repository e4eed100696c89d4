package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.rolebot/internal/model"
)

// UserRepository 用户目录仓库
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert 插入或覆盖用户
func (r *UserRepository) Upsert(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, username, first_name, last_name, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRow(ctx, query,
		user.Id,
		user.Username,
		user.FirstName,
		user.LastName,
	).Scan(&user.UpdatedAt)
}

// FindUsername 根据 ID 查找用户名
func (r *UserRepository) FindUsername(ctx context.Context, id int64) (string, bool, error) {
	query := `SELECT username FROM users WHERE id = $1`

	var username string
	err := r.db.QueryRow(ctx, query, id).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	return username, true, nil
}
