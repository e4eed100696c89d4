package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/reply"
	"sudooom.im.rolebot/internal/repository"
)

// RoleService 聊天角色成员管理
// 预期的业务结果（角色不存在、已加入等）以回复码返回，只有基础设施故障才返回 error
type RoleService struct {
	roles  repository.RoleRepository
	logger *slog.Logger
}

// NewRoleService 创建角色服务
func NewRoleService(roles repository.RoleRepository) *RoleService {
	return &RoleService{
		roles:  roles,
		logger: slog.Default(),
	}
}

// AddMember 将用户加入角色；角色不存在时由第一次成功加入创建
func (s *RoleService) AddMember(ctx context.Context, user *model.User, roleName string, chatId int64) (reply.JoinCode, error) {
	var code reply.JoinCode

	err := s.roles.Update(ctx, chatId, roleName, func(current *model.Role) (*model.Role, repository.Mutation) {
		if current == nil {
			code = reply.JoinAdded
			return &model.Role{ChatId: chatId, Name: roleName, MemberIds: []int64{user.Id}}, repository.MutationSave
		}
		if current.HasMember(user.Id) {
			code = reply.JoinAlreadyRegistered
			return nil, repository.MutationNone
		}
		current.MemberIds = append(current.MemberIds, user.Id)
		code = reply.JoinAdded
		return current, repository.MutationSave
	})
	if err != nil {
		s.logger.Error("Failed to add member", "chatId", chatId, "role", roleName, "userId", user.Id, "error", err)
		return "", err
	}

	s.logger.Info("Add member", "chatId", chatId, "role", roleName, "userId", user.Id, "code", code)
	return code, nil
}

// RemoveMember 将用户移出角色；角色清空后仍然保留
func (s *RoleService) RemoveMember(ctx context.Context, user *model.User, roleName string, chatId int64) (reply.LeaveCode, error) {
	var code reply.LeaveCode

	err := s.roles.Update(ctx, chatId, roleName, func(current *model.Role) (*model.Role, repository.Mutation) {
		if current == nil {
			code = reply.LeaveRoleDoesNotExist
			return nil, repository.MutationNone
		}
		idx := slices.Index(current.MemberIds, user.Id)
		if idx == -1 {
			code = reply.LeaveUserNotInCollection
			return nil, repository.MutationNone
		}
		current.MemberIds = slices.Delete(current.MemberIds, idx, idx+1)
		code = reply.LeaveDeleted
		return current, repository.MutationSave
	})
	if err != nil {
		s.logger.Error("Failed to remove member", "chatId", chatId, "role", roleName, "userId", user.Id, "error", err)
		return "", err
	}

	s.logger.Info("Remove member", "chatId", chatId, "role", roleName, "userId", user.Id, "code", code)
	return code, nil
}

// DeleteRole 删除整个角色，与成员数量无关
func (s *RoleService) DeleteRole(ctx context.Context, roleName string, chatId int64) (reply.DeleteCode, error) {
	var code reply.DeleteCode

	err := s.roles.Update(ctx, chatId, roleName, func(current *model.Role) (*model.Role, repository.Mutation) {
		if current == nil {
			code = reply.DeleteRoleDoesNotExist
			return nil, repository.MutationNone
		}
		code = reply.DeleteRoleDeleted
		return nil, repository.MutationDelete
	})
	if err != nil {
		s.logger.Error("Failed to delete role", "chatId", chatId, "role", roleName, "error", err)
		return "", err
	}

	s.logger.Info("Delete role", "chatId", chatId, "role", roleName, "code", code)
	return code, nil
}

// ListMemberIds 获取角色成员 id；角色不存在返回 ROLE_DOES_NOT_EXIST
// 角色存在但为空时返回空列表而不是回复码
func (s *RoleService) ListMemberIds(ctx context.Context, roleName string, chatId int64) (reply.Result[[]int64, reply.GetCode], error) {
	role, err := s.roles.Find(ctx, chatId, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return reply.Fail[[]int64](reply.GetRoleDoesNotExist), nil
		}
		s.logger.Error("Failed to find role", "chatId", chatId, "role", roleName, "error", err)
		return reply.Result[[]int64, reply.GetCode]{}, err
	}

	ids := role.MemberIds
	if ids == nil {
		ids = []int64{}
	}
	return reply.OK[[]int64, reply.GetCode](ids), nil
}

// ListRoles 列出聊天内的角色名，顺序与存储顺序一致（不排序）
// filter 为 nil 时返回全部角色
func (s *RoleService) ListRoles(ctx context.Context, chatId int64, filter *model.MembershipFilter) ([]string, error) {
	roles, err := s.roles.ListByChat(ctx, chatId)
	if err != nil {
		s.logger.Error("Failed to list roles", "chatId", chatId, "error", err)
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for i := range roles {
		if filter != nil && roles[i].HasMember(filter.UserId) != filter.Member {
			continue
		}
		names = append(names, roles[i].Name)
	}
	return names, nil
}
