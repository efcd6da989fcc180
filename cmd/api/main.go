package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hvac-crew/schedule/backend/internal/auth"
	"github.com/hvac-crew/schedule/backend/internal/baseline"
	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/handler"
	"github.com/hvac-crew/schedule/backend/internal/logging"
	"github.com/hvac-crew/schedule/backend/internal/mailer"
	"github.com/hvac-crew/schedule/backend/internal/notify"
	"github.com/hvac-crew/schedule/backend/internal/report"
	"github.com/hvac-crew/schedule/backend/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}

	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法创建 logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	/**********************************************
	 * 连接数据库
	 **********************************************/
	var store repository.BlobStore
	switch {
	case cfg.Database.DSN != "":
		dbpool, err := openDatabase(cfg)
		if err != nil {
			logger.Error("无法连接到数据库", zap.Error(err))
			return
		}
		defer dbpool.Close()
		store = repository.NewRepository(cfg, dbpool)
	case cfg.Environment == "development":
		logger.Warn("未配置数据库，使用内存存储，重启后数据会丢失")
		store = repository.NewMemoryStore()
	default:
		// 存储未配置时排班接口返回 store-not-configured，通知流程按首次通知降级
		logger.Warn("未配置数据库，存储相关功能不可用")
		store = repository.NewRepository(cfg, nil)
	}

	/**********************************************
	 * 连接 redis（可选，用于按周加锁）
	 **********************************************/
	var locker baseline.Locker
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       0,
		})
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("无法连接到 redis，通知将在无锁状态下继续", zap.Error(err))
		}
		cancel()

		locker = baseline.NewRedisLocker(rdb,
			time.Duration(cfg.Redis.LockTTL)*time.Second,
			time.Duration(cfg.Redis.LockWait)*time.Second,
		)
	}

	/**********************************************
	 * 创建邮件通道
	 **********************************************/
	// SMTP 客户端同时用于诊断接口，queue 模式下也尽量创建
	smtpTransport, err := mailer.NewSMTPTransport(cfg, logger)
	if err != nil {
		logger.Warn("SMTP 未就绪", zap.Error(err))
		smtpTransport = nil
	}

	var transport mailer.Transport = mailer.Unconfigured{}
	switch cfg.Email.Transport {
	case "queue":
		conn, ch, err := openQueue(cfg)
		if err != nil {
			logger.Error("无法连接到 rabbitmq", zap.Error(err))
			return
		}
		defer conn.Close()
		defer ch.Close()
		transport = mailer.NewQueueTransport(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second, logger)
	case "smtp":
		if smtpTransport != nil {
			transport = smtpTransport
		}
	default:
		logger.Error("未知的邮件通道", zap.String("transport", cfg.Email.Transport))
		return
	}

	/**********************************************
	 * 认证
	 **********************************************/
	users, err := auth.ParseUsers(cfg.Auth.Users)
	if err != nil {
		logger.Error("无法解析 AUTH_USERS", zap.Error(err))
		return
	}
	if users.Len() == 0 {
		logger.Warn("AUTH_USERS 为空，所有需要登录的接口都会返回 401")
	}
	authenticator := auth.NewAuthenticator(users, auth.NewSessionManager(cfg.Auth.CookieSecret))

	/**********************************************
	 * 通知服务
	 **********************************************/
	renderer, err := report.NewRenderer(report.Options{
		Title:         cfg.Email.FromName,
		SubjectPrefix: cfg.Email.SubjectPrefix,
		AppURL:        cfg.Notify.AppURL,
	})
	if err != nil {
		logger.Error("无法加载邮件模板", zap.Error(err))
		return
	}

	notifier := notify.NewService(notify.Deps{
		Store:     store,
		Baselines: baseline.NewManager(store, logger),
		Locker:    locker,
		Transport: transport,
		Verifier:  authenticator,
		Renderer:  renderer,
		Logger:    logger,
	}, notify.Options{
		MaxChanges:    cfg.Notify.MaxChanges,
		NoteMaxLength: cfg.Notify.NoteMaxLength,
		SendTimeout:   time.Duration(cfg.Email.SendTimeout) * time.Second,
	})

	/**********************************************
	 * 创建 handler
	 **********************************************/
	var smtpChecker handler.SMTPChecker
	if smtpTransport != nil {
		smtpChecker = smtpTransport
	}
	h, err := handler.NewHandler(cfg, store, authenticator, notifier, smtpChecker, logger)
	if err != nil {
		logger.Error("无法创建 handler", zap.Error(err))
		return
	}
	h.RegisterRoutes()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     zap.NewStdLog(logger),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", zap.String("port", cfg.Server.Port), zap.String("transport", cfg.Email.Transport))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动服务器", zap.Error(err))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", zap.Error(err))
	}
	logger.Info("服务器已成功关闭")
}

func openDatabase(cfg *config.Config) (*sql.DB, error) {
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func openQueue(cfg *config.Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	// 开启 confirm 模式，broker 确认后才算发送成功
	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, nil, err
	}

	_, err = ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // 持久化
		false, // 不自动删除
		false, // 非独占
		false, // 等待确认
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
