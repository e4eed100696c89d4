package repository

import (
	"context"
	"errors"

	"sudooom.im.rolebot/internal/model"
)

var (
	ErrRoleNotFound   = errors.New("role not found")
	ErrUnknownDriver  = errors.New("unknown storage driver")
	ErrInvalidMembers = errors.New("invalid role members")
)

// Mutation 角色更新回调的写回动作
type Mutation int

const (
	// MutationNone 不写回
	MutationNone Mutation = iota
	// MutationSave 保存（不存在则创建）
	MutationSave
	// MutationDelete 删除整个角色
	MutationDelete
)

// UpdateFunc 在 (chatId, name) 的互斥区内执行
// current 为 nil 表示角色不存在；回调可以修改 current 并返回 MutationSave
type UpdateFunc func(current *model.Role) (next *model.Role, mutation Mutation)

// UserRepository 用户目录存储
type UserRepository interface {
	// Upsert 按 id 插入或覆盖
	Upsert(ctx context.Context, user *model.User) error
	// FindUsername 查找用户名，不存在时 found 为 false 且不返回错误
	FindUsername(ctx context.Context, id int64) (username string, found bool, err error)
}

// RoleRepository 聊天角色存储
type RoleRepository interface {
	// Update 对单个角色做原子的读-改-写，同一 (chatId, name) 的并发调用被串行化
	Update(ctx context.Context, chatId int64, name string, fn UpdateFunc) error
	// Find 查找角色，不存在返回 ErrRoleNotFound
	Find(ctx context.Context, chatId int64, name string) (*model.Role, error)
	// ListByChat 按创建顺序列出聊天内所有角色
	ListByChat(ctx context.Context, chatId int64) ([]model.Role, error)
}

// Store 一个存储驱动提供的全部仓库
type Store struct {
	Users UserRepository
	Roles RoleRepository
	Close func()
}
