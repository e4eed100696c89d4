package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Status 健康状态，未启用的组件不输出
type Status struct {
	NATS          string       `json:"nats,omitempty"`
	Redis         string       `json:"redis,omitempty"`
	Database      string       `json:"database,omitempty"`
	CommandBuffer *BufferUsage `json:"commandBuffer,omitempty"`
}

// BufferUsage 命令缓冲区使用情况
type BufferUsage struct {
	Current  int `json:"current"`
	Capacity int `json:"capacity"`
}

// BufferReporter 上报缓冲区使用情况（命令订阅器）
type BufferReporter interface {
	GetBufferUsage() (current int, capacity int)
}

// Healthy 所有已启用组件均已连接
func (s *Status) Healthy() bool {
	for _, v := range []string{s.NATS, s.Redis, s.Database} {
		if v != "" && v != StatusConnected {
			return false
		}
	}
	return true
}

// Checker 健康检查器，各依赖可以为 nil（取决于存储驱动）
type Checker struct {
	nc          *nats.Conn
	redisClient *redis.Client
	db          *pgxpool.Pool
	buffer      BufferReporter
}

// NewChecker 创建健康检查器
func NewChecker(nc *nats.Conn, redisClient *redis.Client, db *pgxpool.Pool, buffer BufferReporter) *Checker {
	return &Checker{
		nc:          nc,
		redisClient: redisClient,
		db:          db,
		buffer:      buffer,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{}

	if h.nc != nil {
		status.NATS = state(h.nc.IsConnected())
	}

	if h.redisClient != nil {
		redisCtx, redisCancel := context.WithTimeout(ctx, 2*time.Second)
		defer redisCancel()
		status.Redis = state(h.redisClient.Ping(redisCtx).Err() == nil)
	}

	if h.db != nil {
		dbCtx, dbCancel := context.WithTimeout(ctx, 2*time.Second)
		defer dbCancel()
		status.Database = state(h.db.Ping(dbCtx) == nil)
	}

	if h.buffer != nil {
		current, capacity := h.buffer.GetBufferUsage()
		status.CommandBuffer = &BufferUsage{Current: current, Capacity: capacity}
	}

	return status
}

// IsHealthy 检查是否健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Healthy()
}

func state(ok bool) string {
	if ok {
		return StatusConnected
	}
	return StatusDisconnected
}
