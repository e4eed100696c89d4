package service

import (
	"context"
	"log/slog"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/repository"
)

// DirectoryService 用户目录服务，独立于聊天和角色
type DirectoryService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// NewDirectoryService 创建用户目录服务
func NewDirectoryService(users repository.UserRepository) *DirectoryService {
	return &DirectoryService{
		users:  users,
		logger: slog.Default(),
	}
}

// Upsert 记录或刷新用户，每次观察到用户交互时调用
func (s *DirectoryService) Upsert(ctx context.Context, user *model.User) error {
	if err := s.users.Upsert(ctx, user); err != nil {
		s.logger.Error("Failed to upsert user", "userId", user.Id, "error", err)
		return err
	}
	s.logger.Debug("User remembered", "userId", user.Id, "username", user.Username)
	return nil
}

// LookupUsername 查找用户名，不存在时 found 为 false
func (s *DirectoryService) LookupUsername(ctx context.Context, id int64) (string, bool, error) {
	return s.users.FindUsername(ctx, id)
}
