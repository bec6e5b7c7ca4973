package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Shradha102005/KhetBox/internal/config"
	"github.com/Shradha102005/KhetBox/internal/database"
	"github.com/Shradha102005/KhetBox/internal/evaluator"
	"github.com/Shradha102005/KhetBox/internal/gateway"
	httpapi "github.com/Shradha102005/KhetBox/internal/http"
	"github.com/Shradha102005/KhetBox/internal/hub"
	"github.com/Shradha102005/KhetBox/internal/mqtt"
	"github.com/Shradha102005/KhetBox/internal/report"
	"github.com/Shradha102005/KhetBox/internal/repository"
	"github.com/Shradha102005/KhetBox/internal/simulator"
	"github.com/Shradha102005/KhetBox/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// DashboardService 仪表盘服务（整合各层）
type DashboardService struct {
	config *config.Config
	logger *zap.Logger

	db          *sql.DB
	redisClient *redis.Client
	publisher   *mqtt.Publisher

	sim         *simulator.Simulator
	gateway     *gateway.Gateway
	reports     *report.Aggregator
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	handler     http.Handler
	server      *Server
}

// NewDashboardService 创建服务。PostgreSQL、Redis、MQTT 均为可选：
// 连接失败时记录告警并降级（内存存储 / 无 payload 缓存 / 不镜像）。
func NewDashboardService(cfg *config.Config, logger *zap.Logger) (*DashboardService, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	s := &DashboardService{config: cfg, logger: logger}
	now := time.Now().UTC()
	ctx := context.Background()

	// 1. 存储
	st := s.openStore(ctx, now)

	gwOpts := gateway.Options{
		DeviceID:    cfg.DeviceID,
		Timeout:     cfg.Store.Timeout,
		ListLimit:   cfg.Store.ListLimit,
		AlertsLimit: cfg.Store.AlertsLimit,
	}

	// 2. 遥测状态
	s.sim = resumeSimulator(ctx, st, gwOpts, logger)
	eval := evaluator.New()

	// 3. 网关与日报
	s.gateway = gateway.New(st, gateway.NewLiveGenerator(s.sim, eval, nil), gwOpts, logger)
	s.reports = report.NewAggregator(s.gateway, report.Options{
		DeviceID:    cfg.DeviceID,
		CacheTTL:    cfg.Report.CacheTTL,
		FallbackTTL: cfg.Report.FallbackTTL,
	}, logger)

	// 4. 广播
	var sinks []hub.Sink
	var payloads *store.PayloadCache
	if cfg.RedisEnabled {
		if payloads = s.openPayloadCache(ctx); payloads != nil {
			sinks = append(sinks, hub.Sink{Name: "redis", Save: payloads.Save})
		}
	}
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPublisher(cfg.MQTT, cfg.DeviceID, logger)
		if err != nil {
			logger.Warn("MQTT enabled but connection failed, telemetry mirror disabled", zap.Error(err))
		} else {
			s.publisher = p
			sinks = append(sinks, hub.Sink{Name: "mqtt", Save: p.Publish})
			logger.Info("MQTT telemetry mirror enabled", zap.String("topic", p.TopicName()))
		}
	}

	s.hub = hub.NewHub(cfg.Broadcast.QueueSize, logger)
	s.broadcaster = hub.NewBroadcaster(s.hub, s.sim, eval, s.gateway, hub.BroadcasterOptions{
		Interval:      cfg.Broadcast.Interval,
		PersistAlerts: cfg.Store.PersistAlert,
	}, logger, sinks...)

	// 5. HTTP
	router := httpapi.NewRouter(logger)
	router.RegisterDashboardRoutes(httpapi.NewDashboardHandler(s.sim, s.gateway, s.reports, logger))
	router.RegisterSensorStream(httpapi.NewSensorStreamHandler(s.hub, payloads, cfg.HTTP.CORSOrigins, logger))
	s.handler = httpapi.WithCORS(router, cfg.HTTP.CORSOrigins)
	s.server = NewServer(cfg.HTTP.Addr, s.handler, logger)

	return s, nil
}

// resumeSimulator 有持久化读数时从该读数继续，否则使用默认初始值
func resumeSimulator(ctx context.Context, st repository.Store, opts gateway.Options, logger *zap.Logger) *simulator.Simulator {
	// 此时尚无 generator，网关仅用于带超时地读取
	snap, ok := gateway.New(st, nil, opts, logger).LatestSnapshot(ctx)
	if !ok {
		return simulator.New()
	}
	logger.Info("Resuming simulator from persisted reading",
		zap.Float64("temperature", snap.Temperature),
		zap.Float64("battery", snap.Battery),
	)
	return simulator.New(simulator.WithInitial(snap))
}

// openStore DB 可用时使用 PostgreSQL，否则使用预置数据的内存存储
func (s *DashboardService) openStore(ctx context.Context, now time.Time) repository.Store {
	cfg := s.config
	if cfg.DBEnabled {
		db, err := s.openPostgres(ctx, now)
		if err == nil {
			s.db = db
			s.logger.Info("DB enabled for khetbox-dashboard")
			return repository.NewPostgresStore(db, s.logger)
		}
		s.logger.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
	}
	return repository.NewSeededMemoryStore(cfg.DeviceID, now)
}

func (s *DashboardService) openPostgres(ctx context.Context, now time.Time) (*sql.DB, error) {
	cfg := s.config
	db, err := database.NewPostgresDB(&cfg.Database, cfg.Store.Timeout)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := repository.NewPostgresStore(db, s.logger).SeedDefaults(ctx, cfg.DeviceID, now); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to seed defaults: %w", err)
	}
	return db, nil
}

func (s *DashboardService) openPayloadCache(ctx context.Context) *store.PayloadCache {
	cfg := s.config
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(ctx, cfg.Store.Timeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		s.logger.Warn("Redis enabled but ping failed, payload cache disabled", zap.Error(err))
		_ = client.Close()
		return nil
	}
	s.redisClient = client
	return store.NewPayloadCache(store.NewRedisKV(client), cfg.DeviceID, cfg.Redis.PayloadTTL)
}

// Handler HTTP 处理链（含 CORS）
func (s *DashboardService) Handler() http.Handler { return s.handler }

// Start 启动广播与 HTTP 服务，阻塞直到 ctx 取消或 HTTP 服务出错
func (s *DashboardService) Start(ctx context.Context) error {
	s.logger.Info("Starting dashboard service", zap.String("device_id", s.config.DeviceID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.broadcaster.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.server.Start()
	}()

	var err error
	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		// 先停广播以关闭所有 websocket 订阅
		cancel()
		wg.Wait()
		if stopErr := s.server.Stop(shutdownCtx); stopErr != nil {
			s.logger.Error("Failed to stop HTTP server", zap.Error(stopErr))
		}
	case err = <-serverErr:
		cancel()
		wg.Wait()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		} else {
			err = fmt.Errorf("http server: %w", err)
		}
	}
	return err
}

// Stop 释放外部连接
func (s *DashboardService) Stop() error {
	s.logger.Info("Stopping dashboard service")

	if s.publisher != nil {
		s.publisher.Close()
	}
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			s.logger.Error("Failed to close redis", zap.Error(err))
		}
	}
	if err := database.Close(s.db); err != nil {
		s.logger.Error("Failed to close database", zap.Error(err))
	}
	return nil
}
