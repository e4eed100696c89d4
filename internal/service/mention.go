package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"sudooom.im.rolebot/internal/model"
	"sudooom.im.rolebot/internal/reply"
)

// MentionBatchSize 单条消息的提及数上限
// 平台对超过 5 个提及的消息不发送通知，因此按批发送
const MentionBatchSize = 5

var ErrInvalidChunkSize = errors.New("chunk size must be at least 1")

// underscoreEscaper 平台 Markdown 中 _ 表示强调
var underscoreEscaper = strings.NewReplacer("_", `\_`)

// MentionResolver 将角色成员解析为可渲染的提及
type MentionResolver struct {
	roles     *RoleService
	directory *DirectoryService
	logger    *slog.Logger
}

// NewMentionResolver 创建提及解析器
func NewMentionResolver(roles *RoleService, directory *DirectoryService) *MentionResolver {
	return &MentionResolver{
		roles:     roles,
		directory: directory,
		logger:    slog.Default(),
	}
}

// ResolveRoleMentions 按成员顺序解析角色内用户的用户名
// 目录中没有记录或没有用户名的 id 无法渲染为提及，被丢弃；结果为空时返回 COLLECTION_EMPTY
func (r *MentionResolver) ResolveRoleMentions(ctx context.Context, roleName string, chatId int64) (reply.Result[[]model.Mention, reply.GetCode], error) {
	res, err := r.roles.ListMemberIds(ctx, roleName, chatId)
	if err != nil {
		return reply.Result[[]model.Mention, reply.GetCode]{}, err
	}
	if code, isCode := res.Code(); isCode {
		return reply.Fail[[]model.Mention](code), nil
	}

	ids, _ := res.Value()
	mentions := make([]model.Mention, 0, len(ids))
	for _, id := range ids {
		username, found, err := r.directory.LookupUsername(ctx, id)
		if err != nil {
			return reply.Result[[]model.Mention, reply.GetCode]{}, err
		}
		if !found {
			r.logger.Warn("Role member missing from directory, skipped", "chatId", chatId, "role", roleName, "userId", id)
			continue
		}
		if username == "" {
			r.logger.Warn("Role member has no username, skipped", "chatId", chatId, "role", roleName, "userId", id)
			continue
		}
		mentions = append(mentions, model.Mention{UserId: id, Username: username})
	}

	if len(mentions) == 0 {
		return reply.Fail[[]model.Mention](reply.GetCollectionEmpty), nil
	}
	return reply.OK[[]model.Mention, reply.GetCode](mentions), nil
}

// Chunk 将序列切分为若干连续分组，每组最多 size 个元素，最后一组可能更短
func Chunk[T any](seq []T, size int) ([][]T, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([][]T, 0, (len(seq)+size-1)/size)
	for start := 0; start < len(seq); start += size {
		end := min(start+size, len(seq))
		chunks = append(chunks, seq[start:end:end])
	}
	return chunks, nil
}

// EscapeUsername 转义用户名中的 _
func EscapeUsername(username string) string {
	return underscoreEscaper.Replace(username)
}

// RenderBatches 每批一条消息，格式为 "<role>: @u1 @u2 ..."
func RenderBatches(roleName string, mentions []model.Mention) []string {
	batches, _ := Chunk(mentions, MentionBatchSize)

	messages := make([]string, 0, len(batches))
	for _, batch := range batches {
		var b strings.Builder
		b.WriteString(roleName)
		b.WriteString(":")
		for _, m := range batch {
			b.WriteString(" @")
			b.WriteString(EscapeUsername(m.Username))
		}
		messages = append(messages, b.String())
	}
	return messages
}

// RenderList 列出成员但不带 @，不会触发通知
func RenderList(roleName string, mentions []model.Mention) string {
	names := make([]string, len(mentions))
	for i, m := range mentions {
		names[i] = EscapeUsername(m.Username)
	}
	return roleName + ": " + strings.Join(names, ", ")
}
