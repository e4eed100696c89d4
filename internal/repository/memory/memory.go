package memory

import (
	"context"
	"slices"
	"sync"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
)

// chatSpace 单个聊天的角色集合，order 保存创建顺序
type chatSpace struct {
	order []string
	roles map[string]*model.Role
}

// Store 进程内存储，用于本地运行和测试
type Store struct {
	mu    sync.Mutex
	users map[int64]model.User
	chats map[int64]*chatSpace
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		users: make(map[int64]model.User),
		chats: make(map[int64]*chatSpace),
	}
}

var (
	_ repository.UserRepository = (*Store)(nil)
	_ repository.RoleRepository = (*Store)(nil)
)

// Upsert 插入或覆盖用户
func (s *Store) Upsert(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.Id] = *user
	return nil
}

// FindUsername 查找用户名
func (s *Store) FindUsername(ctx context.Context, id int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return "", false, nil
	}
	return user.Username, true, nil
}

// Update 在全局互斥锁内执行读-改-写
func (s *Store) Update(ctx context.Context, chatId int64, name string, fn repository.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	space := s.chats[chatId]
	var current *model.Role
	if space != nil {
		if role, ok := space.roles[name]; ok {
			current = cloneRole(role)
		}
	}

	next, mutation := fn(current)
	switch mutation {
	case repository.MutationSave:
		if next == nil {
			return repository.ErrInvalidMembers
		}
		if space == nil {
			space = &chatSpace{roles: make(map[string]*model.Role)}
			s.chats[chatId] = space
		}
		if _, exists := space.roles[name]; !exists {
			space.order = append(space.order, name)
		}
		saved := cloneRole(next)
		saved.ChatId = chatId
		saved.Name = name
		space.roles[name] = saved
	case repository.MutationDelete:
		if space == nil {
			return nil
		}
		if _, exists := space.roles[name]; !exists {
			return nil
		}
		delete(space.roles, name)
		space.order = slices.DeleteFunc(space.order, func(n string) bool { return n == name })
	}

	return nil
}

// Find 查找角色
func (s *Store) Find(ctx context.Context, chatId int64, name string) (*model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	space := s.chats[chatId]
	if space == nil {
		return nil, repository.ErrRoleNotFound
	}
	role, ok := space.roles[name]
	if !ok {
		return nil, repository.ErrRoleNotFound
	}
	return cloneRole(role), nil
}

// ListByChat 按创建顺序列出角色
func (s *Store) ListByChat(ctx context.Context, chatId int64) ([]model.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	space := s.chats[chatId]
	if space == nil {
		return nil, nil
	}

	roles := make([]model.Role, 0, len(space.order))
	for _, name := range space.order {
		roles = append(roles, *cloneRole(space.roles[name]))
	}
	return roles, nil
}

func cloneRole(r *model.Role) *model.Role {
	c := *r
	c.MemberIds = slices.Clone(r.MemberIds)
	return &c
}
