package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sudooom.im.rolebot/internal/reply"
	"sudooom.im.rolebot/internal/repository/memory"
	"sudooom.im.rolebot/internal/service"
	"sudooom.im.rolebot/pkg/proto"
)

func newTestHandler() *CommandHandler {
	store := memory.NewStore()
	directory := service.NewDirectoryService(store)
	roles := service.NewRoleService(store)
	return NewCommandHandler(directory, roles, service.NewMentionResolver(roles, directory))
}

func cmd(action string, userId int64, username, role string) *proto.CommandRequest {
	return &proto.CommandRequest{
		Action: action,
		ChatId: 100,
		User:   proto.User{Id: userId, Username: username},
		Role:   role,
	}
}

func TestCommandHandler_JoinPingDelete(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	resp := h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", "devs"))
	assert.Equal(t, string(reply.JoinAdded), resp.Code)
	assert.Equal(t, reply.JoinAdded.Text(), resp.Text)
	assert.Equal(t, int64(100), resp.ChatId)

	resp = h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bo_b", "devs"))
	assert.Equal(t, string(reply.JoinAdded), resp.Code)

	resp = h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bo_b", "devs"))
	assert.Equal(t, string(reply.JoinAlreadyRegistered), resp.Code)

	resp = h.HandleCommand(ctx, cmd(proto.ActionPing, 3, "carol", "devs"))
	assert.Equal(t, proto.CodeOK, resp.Code)
	assert.Equal(t, []string{`devs: @ann @bo\_b`}, resp.Messages)

	resp = h.HandleCommand(ctx, cmd(proto.ActionList, 3, "carol", "devs"))
	assert.Equal(t, []string{`devs: ann, bo\_b`}, resp.Messages)

	resp = h.HandleCommand(ctx, cmd(proto.ActionDelete, 3, "carol", "devs"))
	assert.Equal(t, string(reply.DeleteRoleDeleted), resp.Code)

	resp = h.HandleCommand(ctx, cmd(proto.ActionPing, 3, "carol", "devs"))
	assert.Equal(t, string(reply.GetRoleDoesNotExist), resp.Code)
	assert.Empty(t, resp.Messages)
}

func TestCommandHandler_Leave(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	resp := h.HandleCommand(ctx, cmd(proto.ActionLeave, 1, "ann", "devs"))
	assert.Equal(t, string(reply.LeaveRoleDoesNotExist), resp.Code)

	h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bob", "devs"))

	resp = h.HandleCommand(ctx, cmd(proto.ActionLeave, 1, "ann", "devs"))
	assert.Equal(t, string(reply.LeaveUserNotInCollection), resp.Code)

	resp = h.HandleCommand(ctx, cmd(proto.ActionLeave, 2, "bob", "devs"))
	assert.Equal(t, string(reply.LeaveDeleted), resp.Code)

	resp = h.HandleCommand(ctx, cmd(proto.ActionPing, 2, "bob", "devs"))
	assert.Equal(t, string(reply.GetCollectionEmpty), resp.Code)
}

func TestCommandHandler_ChoicesWhenRoleMissing(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	resp := h.HandleCommand(ctx, cmd(proto.ActionPing, 1, "ann", ""))
	assert.Equal(t, proto.CodeOK, resp.Code)
	assert.Empty(t, resp.Choices)
	assert.Equal(t, textNoRoles, resp.Text)

	h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", "devs"))
	h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bob", "ops"))

	resp = h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", ""))
	assert.Equal(t, []string{"ops"}, resp.Choices)
	assert.Equal(t, promptJoin, resp.Text)

	resp = h.HandleCommand(ctx, cmd(proto.ActionLeave, 1, "ann", ""))
	assert.Equal(t, []string{"devs"}, resp.Choices)

	resp = h.HandleCommand(ctx, cmd(proto.ActionPing, 1, "ann", " "))
	assert.Equal(t, []string{"devs", "ops"}, resp.Choices)

	resp = h.HandleCommand(ctx, cmd(proto.ActionDelete, 1, "ann", ""))
	assert.Equal(t, []string{"devs", "ops"}, resp.Choices)
}

func TestCommandHandler_ListRoles(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", "devs"))
	h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bob", "ops"))

	resp := h.HandleCommand(ctx, cmd(proto.ActionRoles, 1, "ann", ""))
	assert.Equal(t, []string{"devs", "ops"}, resp.Roles)

	resp = h.HandleCommand(ctx, cmd(proto.ActionMyRoles, 1, "ann", ""))
	assert.Equal(t, []string{"devs"}, resp.Roles)

	resp = h.HandleCommand(ctx, cmd(proto.ActionMyRoles, 3, "carol", ""))
	assert.Empty(t, resp.Roles)
	assert.Equal(t, textNoRoles, resp.Text)
}

func TestCommandHandler_TextMentions(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", "devs"))
	h.HandleCommand(ctx, cmd(proto.ActionJoin, 2, "bob", "ops"))

	req := cmd(proto.ActionText, 3, "carol", "")
	req.Text = "hey @ops, and @devs! also @nobody and @ops again"
	resp := h.HandleCommand(ctx, req)

	assert.Equal(t, proto.CodeOK, resp.Code)
	assert.Equal(t, []string{"ops: @bob", "devs: @ann"}, resp.Messages)

	req.Text = "no mentions here"
	resp = h.HandleCommand(ctx, req)
	assert.Empty(t, resp.Messages)
}

func TestCommandHandler_RemembersUser(t *testing.T) {
	store := memory.NewStore()
	directory := service.NewDirectoryService(store)
	roles := service.NewRoleService(store)
	h := NewCommandHandler(directory, roles, service.NewMentionResolver(roles, directory))

	h.HandleCommand(context.Background(), cmd(proto.ActionRoles, 9, "zed", ""))

	name, found, err := directory.LookupUsername(context.Background(), 9)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "zed", name)
}

func TestCommandHandler_InvalidRequests(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	tests := []struct {
		name string
		req  *proto.CommandRequest
	}{
		{"unknown action", cmd("dance", 1, "ann", "devs")},
		{"missing user", cmd(proto.ActionJoin, 0, "", "devs")},
		{"missing chat", &proto.CommandRequest{Action: proto.ActionJoin, User: proto.User{Id: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.HandleCommand(ctx, tt.req)
			assert.Equal(t, proto.CodeInvalidRequest, resp.Code)
			assert.Equal(t, proto.TextInvalidRequest, resp.Text)
		})
	}
}

func TestCodeResponse(t *testing.T) {
	resp, err := codeResponse(reply.LeaveUserNotInCollection)
	require.NoError(t, err)
	assert.Equal(t, "USER_NOT_IN_COLLECTION", resp.Code)
	assert.Equal(t, reply.LeaveUserNotInCollection.Text(), resp.Text)

	_, err = codeResponse(reply.JoinCode("ROLE_DELETED"))
	assert.ErrorIs(t, err, ErrUnknownReplyCode)
}

func TestCommandHandler_PingSkipsMembersWithoutUsername(t *testing.T) {
	h := newTestHandler()
	ctx := context.Background()

	h.HandleCommand(ctx, cmd(proto.ActionJoin, 1, "ann", "devs"))
	h.HandleCommand(ctx, cmd(proto.ActionJoin, 3, "", "devs"))

	resp := h.HandleCommand(ctx, cmd(proto.ActionPing, 1, "ann", "devs"))
	assert.Equal(t, []string{"devs: @ann"}, resp.Messages)

	h.HandleCommand(ctx, cmd(proto.ActionLeave, 1, "ann", "devs"))
	resp = h.HandleCommand(ctx, cmd(proto.ActionPing, 3, "", "devs"))
	assert.Equal(t, string(reply.GetCollectionEmpty), resp.Code)
	assert.Empty(t, resp.Messages)
}

func TestExtractMentionTokens(t *testing.T) {
	tests := []struct {
		text     string
		expected []string
	}{
		{"", nil},
		{"plain text", nil},
		{"@devs", []string{"devs"}},
		{"@devs, @ops. @devs", []string{"devs", "ops"}},
		{"@back_end @front-end?", []string{"back_end", "front-end"}},
		{"@ alone", nil},
		{"email@example.com", nil},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractMentionTokens(tt.text))
		})
	}
}
