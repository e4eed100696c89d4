package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/service"
	"sudooom.im.rolebot/pkg/proto"
)

var (
	ErrInvalidRequest   = errors.New("invalid command request")
	ErrUnknownReplyCode = errors.New("reply code outside its family")
)

// 未指定角色时的提示
const (
	promptJoin   = "Choose a role to join"
	promptLeave  = "Choose a role to leave"
	promptPing   = "Choose a role to ping"
	promptDelete = "Choose a role to delete"
	promptList   = "Choose a role to list"
	textNoRoles  = "There are no roles in this chat yet"
)

// replyCode 各操作族的回复码
type replyCode interface {
	~string
	Valid() bool
	Text() string
}

// CommandHandler 命令处理器
type CommandHandler struct {
	directory *service.DirectoryService
	roles     *service.RoleService
	resolver  *service.MentionResolver
	logger    *slog.Logger
}

// NewCommandHandler 创建命令处理器
func NewCommandHandler(directory *service.DirectoryService, roles *service.RoleService, resolver *service.MentionResolver) *CommandHandler {
	return &CommandHandler{
		directory: directory,
		roles:     roles,
		resolver:  resolver,
		logger:    slog.Default(),
	}
}

// HandleCommand 处理一条命令
// 基础设施错误不会向上传递，而是转换为 INTERNAL_ERROR 并记录日志
func (h *CommandHandler) HandleCommand(ctx context.Context, req *proto.CommandRequest) *proto.CommandResponse {
	resp, err := h.handle(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			h.logger.Warn("Invalid command request", "action", req.Action, "chatId", req.ChatId, "error", err)
			return &proto.CommandResponse{ChatId: req.ChatId, Action: req.Action, Code: proto.CodeInvalidRequest, Text: proto.TextInvalidRequest}
		}
		h.logger.Error("Failed to handle command",
			"action", req.Action,
			"chatId", req.ChatId,
			"userId", req.User.Id,
			"role", req.Role,
			"error", err)
		return &proto.CommandResponse{ChatId: req.ChatId, Action: req.Action, Code: proto.CodeInternalError, Text: proto.TextInternalError}
	}
	resp.ChatId = req.ChatId
	resp.Action = req.Action
	return resp
}

func (h *CommandHandler) handle(ctx context.Context, req *proto.CommandRequest) (*proto.CommandResponse, error) {
	if req.ChatId == 0 || req.User.Id == 0 {
		return nil, ErrInvalidRequest
	}

	user := &model.User{
		Id:        req.User.Id,
		Username:  req.User.Username,
		FirstName: req.User.FirstName,
		LastName:  req.User.LastName,
	}
	// 每次交互都刷新用户目录
	if err := h.directory.Upsert(ctx, user); err != nil {
		return nil, err
	}

	role := strings.TrimSpace(req.Role)

	switch req.Action {
	case proto.ActionJoin:
		return h.join(ctx, user, role, req.ChatId)
	case proto.ActionLeave:
		return h.leave(ctx, user, role, req.ChatId)
	case proto.ActionPing:
		return h.ping(ctx, role, req.ChatId)
	case proto.ActionList:
		return h.list(ctx, role, req.ChatId)
	case proto.ActionDelete:
		return h.delete(ctx, role, req.ChatId)
	case proto.ActionMyRoles:
		return h.listRoles(ctx, req.ChatId, &model.MembershipFilter{UserId: user.Id, Member: true})
	case proto.ActionRoles:
		return h.listRoles(ctx, req.ChatId, nil)
	case proto.ActionText:
		return h.text(ctx, req.Text, req.ChatId)
	}

	return nil, ErrInvalidRequest
}

func (h *CommandHandler) join(ctx context.Context, user *model.User, role string, chatId int64) (*proto.CommandResponse, error) {
	if role == "" {
		return h.choices(ctx, chatId, &model.MembershipFilter{UserId: user.Id, Member: false}, promptJoin)
	}
	code, err := h.roles.AddMember(ctx, user, role, chatId)
	if err != nil {
		return nil, err
	}
	return codeResponse(code)
}

func (h *CommandHandler) leave(ctx context.Context, user *model.User, role string, chatId int64) (*proto.CommandResponse, error) {
	if role == "" {
		return h.choices(ctx, chatId, &model.MembershipFilter{UserId: user.Id, Member: true}, promptLeave)
	}
	code, err := h.roles.RemoveMember(ctx, user, role, chatId)
	if err != nil {
		return nil, err
	}
	return codeResponse(code)
}

func (h *CommandHandler) ping(ctx context.Context, role string, chatId int64) (*proto.CommandResponse, error) {
	if role == "" {
		return h.choices(ctx, chatId, nil, promptPing)
	}
	res, err := h.resolver.ResolveRoleMentions(ctx, role, chatId)
	if err != nil {
		return nil, err
	}
	if code, isCode := res.Code(); isCode {
		return codeResponse(code)
	}
	mentions, _ := res.Value()
	return &proto.CommandResponse{Code: proto.CodeOK, Messages: service.RenderBatches(role, mentions)}, nil
}

func (h *CommandHandler) list(ctx context.Context, role string, chatId int64) (*proto.CommandResponse, error) {
	if role == "" {
		return h.choices(ctx, chatId, nil, promptList)
	}
	res, err := h.resolver.ResolveRoleMentions(ctx, role, chatId)
	if err != nil {
		return nil, err
	}
	if code, isCode := res.Code(); isCode {
		return codeResponse(code)
	}
	mentions, _ := res.Value()
	return &proto.CommandResponse{Code: proto.CodeOK, Messages: []string{service.RenderList(role, mentions)}}, nil
}

func (h *CommandHandler) delete(ctx context.Context, role string, chatId int64) (*proto.CommandResponse, error) {
	if role == "" {
		return h.choices(ctx, chatId, nil, promptDelete)
	}
	code, err := h.roles.DeleteRole(ctx, role, chatId)
	if err != nil {
		return nil, err
	}
	return codeResponse(code)
}

func (h *CommandHandler) listRoles(ctx context.Context, chatId int64, filter *model.MembershipFilter) (*proto.CommandResponse, error) {
	names, err := h.roles.ListRoles(ctx, chatId, filter)
	if err != nil {
		return nil, err
	}
	resp := &proto.CommandResponse{Code: proto.CodeOK, Roles: names}
	if len(names) == 0 {
		resp.Text = textNoRoles
	}
	return resp, nil
}

// codeResponse 回复码转换为响应，不属于本族的码视为内部错误
func codeResponse[C replyCode](code C) (*proto.CommandResponse, error) {
	if !code.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReplyCode, string(code))
	}
	return &proto.CommandResponse{Code: string(code), Text: code.Text()}, nil
}

// choices 未指定角色时返回可选角色，由传输层渲染为按钮
func (h *CommandHandler) choices(ctx context.Context, chatId int64, filter *model.MembershipFilter, prompt string) (*proto.CommandResponse, error) {
	names, err := h.roles.ListRoles(ctx, chatId, filter)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return &proto.CommandResponse{Code: proto.CodeOK, Text: textNoRoles}, nil
	}
	return &proto.CommandResponse{Code: proto.CodeOK, Text: prompt, Choices: names}, nil
}

// text 普通消息中 @角色名 触发对该角色的提及
func (h *CommandHandler) text(ctx context.Context, text string, chatId int64) (*proto.CommandResponse, error) {
	tokens := ExtractMentionTokens(text)
	if len(tokens) == 0 {
		return &proto.CommandResponse{Code: proto.CodeOK}, nil
	}

	names, err := h.roles.ListRoles(ctx, chatId, nil)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		known[name] = struct{}{}
	}

	resp := &proto.CommandResponse{Code: proto.CodeOK}
	for _, token := range tokens {
		if _, ok := known[token]; !ok {
			continue
		}
		res, err := h.resolver.ResolveRoleMentions(ctx, token, chatId)
		if err != nil {
			return nil, err
		}
		mentions, ok := res.Value()
		if !ok {
			continue
		}
		resp.Messages = append(resp.Messages, service.RenderBatches(token, mentions)...)
	}
	return resp, nil
}

// ExtractMentionTokens 提取文本中的 @name，按出现顺序去重
func ExtractMentionTokens(text string) []string {
	var tokens []string
	seen := make(map[string]struct{})

	for _, field := range strings.Fields(text) {
		if !strings.HasPrefix(field, "@") {
			continue
		}
		name := strings.TrimRightFunc(field[1:], func(r rune) bool {
			return unicode.IsPunct(r) && r != '_' && r != '-'
		})
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		tokens = append(tokens, name)
	}
	return tokens
}
