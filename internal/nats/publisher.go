package nats

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"sudooom.im.rolebot/pkg/proto"
)

// ResponsePublisher 命令结果发布器
type ResponsePublisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// NewResponsePublisher 创建发布器
func NewResponsePublisher(nc *nats.Conn) *ResponsePublisher {
	return &ResponsePublisher{
		nc:     nc,
		logger: slog.Default(),
	}
}

// Reply 回复到请求的 reply subject
func (p *ResponsePublisher) Reply(subject string, resp *proto.CommandResponse) error {
	return p.publish(subject, resp)
}

// PublishOutbound 推送到传输层的出站 subject（用于没有回复地址的消息）
func (p *ResponsePublisher) PublishOutbound(resp *proto.CommandResponse) error {
	return p.publish(SubjectOutbound, resp)
}

func (p *ResponsePublisher) publish(subject string, resp *proto.CommandResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		p.logger.Error("Failed to marshal response", "error", err)
		return err
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish response", "subject", subject, "error", err)
		return err
	}

	p.logger.Debug("Published response", "subject", subject, "chatId", resp.ChatId, "code", resp.Code)
	return nil
}
