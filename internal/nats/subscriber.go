package nats

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"sudooom.im.rolebot/internal/config"
	"sudooom.im.rolebot/pkg/proto"
)

// CommandHandler 命令处理器接口
type CommandHandler interface {
	HandleCommand(ctx context.Context, req *proto.CommandRequest) *proto.CommandResponse
}

// Publisher 命令结果发布接口
type Publisher interface {
	Reply(subject string, resp *proto.CommandResponse) error
	PublishOutbound(resp *proto.CommandResponse) error
}

// CommandSubscriber 命令订阅器
type CommandSubscriber struct {
	nc           *nats.Conn
	handler      CommandHandler
	publisher    Publisher
	logger       *slog.Logger
	subscription *nats.Subscription
	config       config.SubscriberConfig
	opTimeout    time.Duration
	msgChan      chan *nats.Msg
	done         chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
	cancelFunc   context.CancelFunc
}

// NewCommandSubscriber 创建命令订阅器
func NewCommandSubscriber(nc *nats.Conn, handler CommandHandler, publisher Publisher, cfg config.SubscriberConfig, opTimeout time.Duration) *CommandSubscriber {
	// 设置默认值
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 16
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1024
	}

	return &CommandSubscriber{
		nc:        nc,
		handler:   handler,
		publisher: publisher,
		logger:    slog.Default(),
		config:    cfg,
		opTimeout: opTimeout,
		done:      make(chan struct{}),
	}
}

// Start 启动订阅
func (s *CommandSubscriber) Start(ctx context.Context) error {
	s.msgChan = make(chan *nats.Msg, s.config.BufferSize)

	workerCtx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	for i := 0; i < s.config.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(workerCtx)
	}

	// 队列组实现多实例负载均衡
	sub, err := s.nc.QueueSubscribe(SubjectCommand, QueueGroupLogic, func(msg *nats.Msg) {
		select {
		case s.msgChan <- msg:
		default:
			s.logger.Warn("Command buffer full, dropping message", "bufferSize", s.config.BufferSize)
		}
	})
	if err != nil {
		cancel()
		return err
	}

	s.subscription = sub
	s.logger.Info("NATS subscriber started",
		"subject", SubjectCommand,
		"workerCount", s.config.WorkerCount,
		"bufferSize", s.config.BufferSize,
	)
	return nil
}

// worker 工作协程，停止时先处理完缓冲区中的命令再退出
func (s *CommandSubscriber) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			s.drain(ctx)
			return
		case msg := <-s.msgChan:
			s.handleCommand(ctx, msg.Reply, msg.Data)
		}
	}
}

func (s *CommandSubscriber) drain(ctx context.Context) {
	for {
		select {
		case msg := <-s.msgChan:
			s.handleCommand(ctx, msg.Reply, msg.Data)
		default:
			return
		}
	}
}

// handleCommand 解析并处理一条命令，然后回复或推送结果
func (s *CommandSubscriber) handleCommand(ctx context.Context, replySubject string, data []byte) {
	var req proto.CommandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.logger.Error("Failed to unmarshal command", "error", err)
		if replySubject != "" {
			_ = s.publisher.Reply(replySubject, &proto.CommandResponse{Code: proto.CodeInvalidRequest, Text: proto.TextInvalidRequest})
		}
		return
	}

	opCtx := ctx
	if s.opTimeout > 0 {
		var cancel context.CancelFunc
		opCtx, cancel = context.WithTimeout(ctx, s.opTimeout)
		defer cancel()
	}

	resp := s.handler.HandleCommand(opCtx, &req)

	if replySubject != "" {
		if err := s.publisher.Reply(replySubject, resp); err != nil {
			s.logger.Error("Failed to reply command", "action", req.Action, "chatId", req.ChatId, "error", err)
		}
		return
	}

	if len(resp.Messages) > 0 {
		if err := s.publisher.PublishOutbound(resp); err != nil {
			s.logger.Error("Failed to publish outbound", "action", req.Action, "chatId", req.ChatId, "error", err)
		}
	}
}

// Stop 停止订阅：先退订，等待 worker 处理完已缓冲的命令，再取消上下文
func (s *CommandSubscriber) Stop() error {
	if s.subscription != nil {
		if err := s.subscription.Unsubscribe(); err != nil {
			s.logger.Error("Failed to unsubscribe", "error", err)
		}
	}

	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.logger.Info("NATS subscriber stopped")
	return nil
}

// GetBufferUsage 获取缓冲区使用情况（用于监控）
func (s *CommandSubscriber) GetBufferUsage() (current int, capacity int) {
	if s.msgChan == nil {
		return 0, 0
	}
	return len(s.msgChan), cap(s.msgChan)
}
