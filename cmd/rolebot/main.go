package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"sudooom.im.rolebot/internal/config"
	"sudooom.im.rolebot/internal/handler"
	"sudooom.im.rolebot/internal/health"
	imNats "sudooom.im.rolebot/internal/nats"
	"sudooom.im.rolebot/internal/repository/postgres"
	"sudooom.im.rolebot/internal/router"
	"sudooom.im.rolebot/internal/service"
	"sudooom.im.rolebot/internal/storage"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "rolebot",
		Usage:   "Chat role membership and mention service",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
				Value:   "configs/config.yaml",
				EnvVars: []string{"ROLEBOT_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the logic service",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cfg)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the PostgreSQL schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := setupLogger(cfg.App.LogLevel)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			db, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.Migrate(ctx, db); err != nil {
				return err
			}
			logger.Info("Schema applied", "host", cfg.Database.Host, "database", cfg.Database.Name)
			return nil
		},
	}
}

func serve(cfg *config.Config) error {
	logger := setupLogger(cfg.App.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 存储连接在进程启动时打开一次
	backend, err := storage.Open(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		return err
	}
	defer backend.Close()

	// 连接 NATS
	natsClient, err := imNats.NewClient(cfg.NATS)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		return err
	}
	defer natsClient.Close()
	logger.Info("Connected to NATS", "url", cfg.NATS.URL)

	// 初始化服务
	directoryService := service.NewDirectoryService(backend.Users)
	roleService := service.NewRoleService(backend.Roles)
	mentionResolver := service.NewMentionResolver(roleService, directoryService)
	commandHandler := handler.NewCommandHandler(directoryService, roleService, mentionResolver)

	// 启动订阅者
	publisher := imNats.NewResponsePublisher(natsClient.Conn())
	subscriber := imNats.NewCommandSubscriber(natsClient.Conn(), commandHandler, publisher, cfg.Subscriber, cfg.Storage.OpTimeout)
	if err := subscriber.Start(ctx); err != nil {
		logger.Error("Failed to start subscriber", "error", err)
		return err
	}

	// 启动 HTTP 服务
	healthChecker := health.NewChecker(natsClient.Conn(), backend.Redis, backend.DB, subscriber)
	server := newHTTPServer(cfg.HTTP, healthChecker, roleService, mentionResolver)
	go func() {
		logger.Info("HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Logic service started", "name", cfg.App.Name, "storage", cfg.Storage.Driver)

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown failed", "error", err)
	}

	// 先停订阅者，让已缓冲的命令带着有效上下文完成
	if err := subscriber.Stop(); err != nil {
		logger.Warn("Subscriber stop failed", "error", err)
	}
	cancel()
	logger.Info("Logic service stopped")
	return nil
}

func newHTTPServer(cfg config.HTTPConfig, checker *health.Checker, roles *service.RoleService, resolver *service.MentionResolver) *http.Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	router.Setup(r, checker, roles, resolver)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// setupLogger 初始化 JSON 日志并设为默认
func setupLogger(level string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
