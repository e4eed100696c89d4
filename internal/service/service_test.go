package service

import (
	"context"
	"errors"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
	"sudooom.im.rolebot/internal/repository/memory"
)

var errStorageDown = errors.New("storage unavailable")

// failingStore 模拟存储不可用
type failingStore struct{}

func (failingStore) Upsert(ctx context.Context, user *model.User) error { return errStorageDown }
func (failingStore) FindUsername(ctx context.Context, id int64) (string, bool, error) {
	return "", false, errStorageDown
}
func (failingStore) Update(ctx context.Context, chatId int64, name string, fn repository.UpdateFunc) error {
	return errStorageDown
}
func (failingStore) Find(ctx context.Context, chatId int64, name string) (*model.Role, error) {
	return nil, errStorageDown
}
func (failingStore) ListByChat(ctx context.Context, chatId int64) ([]model.Role, error) {
	return nil, errStorageDown
}

type fixture struct {
	store     *memory.Store
	roles     *RoleService
	directory *DirectoryService
	resolver  *MentionResolver
}

func newFixture() *fixture {
	store := memory.NewStore()
	roles := NewRoleService(store)
	directory := NewDirectoryService(store)
	return &fixture{
		store:     store,
		roles:     roles,
		directory: directory,
		resolver:  NewMentionResolver(roles, directory),
	}
}
