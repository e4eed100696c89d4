package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
)

// Locker 角色互斥锁
type Locker interface {
	Acquire(ctx context.Context, key string) (unlock func(), err error)
}

// Store 基于 Redis 的用户目录与角色存储
type Store struct {
	client *redis.Client
	locker Locker
	logger *slog.Logger
}

// NewStore 创建 Redis 存储
func NewStore(client *redis.Client, locker Locker) *Store {
	return &Store{
		client: client,
		locker: locker,
		logger: slog.Default(),
	}
}

var (
	_ repository.UserRepository = (*Store)(nil)
	_ repository.RoleRepository = (*Store)(nil)
)

// Upsert 覆盖写入用户信息
func (s *Store) Upsert(ctx context.Context, user *model.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	return s.client.Set(ctx, BuildUserKey(user.Id), data, 0).Err()
}

// FindUsername 查找用户名
func (s *Store) FindUsername(ctx context.Context, id int64) (string, bool, error) {
	data, err := s.client.Get(ctx, BuildUserKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return "", false, fmt.Errorf("unmarshal user %d: %w", id, err)
	}
	return user.Username, true, nil
}

// Update 持有角色锁完成读-改-写
func (s *Store) Update(ctx context.Context, chatId int64, name string, fn repository.UpdateFunc) error {
	unlock, err := s.locker.Acquire(ctx, BuildRoleLockKey(chatId, name))
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.Find(ctx, chatId, name)
	if err != nil && !errors.Is(err, repository.ErrRoleNotFound) {
		return err
	}

	next, mutation := fn(current)
	switch mutation {
	case repository.MutationSave:
		if next == nil {
			return repository.ErrInvalidMembers
		}
		role := model.Role{ChatId: chatId, Name: name, MemberIds: next.MemberIds}
		if role.MemberIds == nil {
			role.MemberIds = []int64{}
		}
		data, err := json.Marshal(role)
		if err != nil {
			return fmt.Errorf("marshal role: %w", err)
		}
		_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, BuildRoleKey(chatId, name), data, 0)
			if current == nil {
				pipe.RPush(ctx, BuildChatRolesKey(chatId), name)
			}
			return nil
		})
		return err
	case repository.MutationDelete:
		if current == nil {
			return nil
		}
		_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, BuildRoleKey(chatId, name))
			pipe.LRem(ctx, BuildChatRolesKey(chatId), 0, name)
			return nil
		})
		return err
	}
	return nil
}

// Find 查找角色
func (s *Store) Find(ctx context.Context, chatId int64, name string) (*model.Role, error) {
	data, err := s.client.Get(ctx, BuildRoleKey(chatId, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrRoleNotFound
		}
		return nil, err
	}

	var role model.Role
	if err := json.Unmarshal(data, &role); err != nil {
		return nil, fmt.Errorf("unmarshal role %s: %w", name, err)
	}
	return &role, nil
}

// ListByChat 按 RPUSH 顺序列出角色
func (s *Store) ListByChat(ctx context.Context, chatId int64) ([]model.Role, error) {
	names, err := s.client.LRange(ctx, BuildChatRolesKey(chatId), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = BuildRoleKey(chatId, name)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	roles := make([]model.Role, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// 顺序列表与角色内容不一致，跳过
			s.logger.Warn("Role listed without content", "chatId", chatId, "role", names[i])
			continue
		}
		var role model.Role
		if err := json.Unmarshal([]byte(str), &role); err != nil {
			return nil, fmt.Errorf("unmarshal role %s: %w", names[i], err)
		}
		roles = append(roles, role)
	}
	return roles, nil
}
