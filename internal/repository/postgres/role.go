package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
)

// RoleRepository 聊天角色仓库
type RoleRepository struct {
	db *pgxpool.Pool
}

// NewRoleRepository 创建角色仓库
func NewRoleRepository(db *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{db: db}
}

// lockKey 事务级咨询锁的键，角色尚不存在时也能串行化创建
func lockKey(chatId int64, name string) string {
	return fmt.Sprintf("rolebot:%d:%s", chatId, name)
}

// Update 在事务内持有咨询锁完成读-改-写
func (r *RoleRepository) Update(ctx context.Context, chatId int64, name string, fn repository.UpdateFunc) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey(chatId, name)); err != nil {
			return fmt.Errorf("acquire role lock: %w", err)
		}

		current, err := findRole(ctx, tx, chatId, name)
		if err != nil && !errors.Is(err, repository.ErrRoleNotFound) {
			return err
		}

		next, mutation := fn(current)
		switch mutation {
		case repository.MutationSave:
			if next == nil {
				return repository.ErrInvalidMembers
			}
			ids := next.MemberIds
			if ids == nil {
				ids = []int64{}
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO chat_roles (chat_id, name, member_ids)
				VALUES ($1, $2, $3)
				ON CONFLICT (chat_id, name) DO UPDATE
				SET member_ids = EXCLUDED.member_ids, updated_at = NOW()
			`, chatId, name, ids)
			return err
		case repository.MutationDelete:
			_, err := tx.Exec(ctx, `DELETE FROM chat_roles WHERE chat_id = $1 AND name = $2`, chatId, name)
			return err
		}
		return nil
	})
}

// Find 查找角色
func (r *RoleRepository) Find(ctx context.Context, chatId int64, name string) (*model.Role, error) {
	return findRole(ctx, r.db, chatId, name)
}

// ListByChat 按创建顺序列出聊天内角色
func (r *RoleRepository) ListByChat(ctx context.Context, chatId int64) ([]model.Role, error) {
	query := `SELECT chat_id, name, member_ids FROM chat_roles WHERE chat_id = $1 ORDER BY id`

	rows, err := r.db.Query(ctx, query, chatId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ChatId, &role.Name, &role.MemberIds); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}

	return roles, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func findRole(ctx context.Context, q querier, chatId int64, name string) (*model.Role, error) {
	query := `SELECT chat_id, name, member_ids FROM chat_roles WHERE chat_id = $1 AND name = $2`

	role := &model.Role{}
	err := q.QueryRow(ctx, query, chatId, name).Scan(&role.ChatId, &role.Name, &role.MemberIds)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrRoleNotFound
		}
		return nil, err
	}
	return role, nil
}
