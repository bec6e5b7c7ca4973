package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrReportNotFound 导出时当日报告尚不存在
	ErrReportNotFound = errors.New("report not found")
	// ErrStoreUnavailable 未配置存储
	ErrStoreUnavailable = errors.New("store unavailable")
)

type Options struct {
	DeviceID    string
	Timeout     time.Duration // 单次存储操作上限
	ListLimit   int           // storage / cctv 读取上限
	AlertsLimit int
}

// Gateway 存储读写网关
//   - 写：尽力而为，失败只记录日志
//   - 读：先查 Store（有超时），失败时（storage / cctv 为空时也一样）改用 Generator
//
// store 为 nil 时所有读走 Generator，所有写直接忽略。
type Gateway struct {
	store  repository.Store
	gen    Generator
	opts   Options
	logger *zap.Logger
}

func New(store repository.Store, gen Generator, opts Options, logger *zap.Logger) *Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.ListLimit <= 0 {
		opts.ListLimit = 10
	}
	if opts.AlertsLimit <= 0 {
		opts.AlertsLimit = 100
	}
	return &Gateway{store: store, gen: gen, opts: opts, logger: logger}
}

func (g *Gateway) DeviceID() string { return g.opts.DeviceID }

func (g *Gateway) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.opts.Timeout)
}

// ============================================
// 写路径
// ============================================

// RecordSnapshot upsert 当前读数
func (g *Gateway) RecordSnapshot(ctx context.Context, s models.Snapshot) {
	if g.store == nil {
		return
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	if err := g.store.UpsertSensor(ctx, g.opts.DeviceID, s); err != nil {
		g.logger.Warn("Failed to record sensor snapshot", zap.String("device_id", g.opts.DeviceID), zap.Error(err))
	}
}

// RecordAlerts 仅记录 warning / critical；每条单独落库，不做合并
func (g *Gateway) RecordAlerts(ctx context.Context, alerts []models.Alert) {
	if g.store == nil {
		return
	}
	actionable := make([]models.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Actionable() {
			actionable = append(actionable, a)
		}
	}
	if len(actionable) == 0 {
		return
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	if err := g.store.InsertAlerts(ctx, g.opts.DeviceID, actionable); err != nil {
		g.logger.Warn("Failed to record alerts",
			zap.String("device_id", g.opts.DeviceID),
			zap.Int("count", len(actionable)),
			zap.Error(err),
		)
	}
}

// ============================================
// 读路径
// ============================================

func (g *Gateway) StorageUnits(ctx context.Context) []models.StorageUnit {
	if g.store != nil {
		ctx, cancel := g.bounded(ctx)
		defer cancel()
		units, err := g.store.ListStorageUnits(ctx, g.opts.DeviceID, g.opts.ListLimit)
		if err == nil && len(units) > 0 {
			return units
		}
		g.logFallback("storage", err)
	}
	return g.gen.StorageUnits()
}

// Alerts 持久化告警（倒序）；存储失败时返回基于当前快照实时评估的告警
func (g *Gateway) Alerts(ctx context.Context) models.AlertsView {
	if g.store != nil {
		ctx, cancel := g.bounded(ctx)
		defer cancel()
		alerts, err := g.store.ListAlerts(ctx, g.opts.DeviceID, g.opts.AlertsLimit)
		if err == nil {
			return models.NewAlertsView(alerts)
		}
		g.logFallback("alerts", err)
	}
	return models.NewAlertsView(g.gen.Alerts())
}

func (g *Gateway) CameraStreams(ctx context.Context) []models.CameraStream {
	if g.store != nil {
		ctx, cancel := g.bounded(ctx)
		defer cancel()
		streams, err := g.store.ListCameraStreams(ctx, g.opts.DeviceID, g.opts.ListLimit)
		if err == nil && len(streams) > 0 {
			return streams
		}
		g.logFallback("cctv_streams", err)
	}
	return g.gen.CameraStreams()
}

// LatestSnapshot 读取已持久化的读数（用于启动时恢复 simulator）
func (g *Gateway) LatestSnapshot(ctx context.Context) (models.Snapshot, bool) {
	if g.store == nil {
		return models.Snapshot{}, false
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	s, err := g.store.GetSensor(ctx, g.opts.DeviceID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			g.logFallback("sensors", err)
		}
		return models.Snapshot{}, false
	}
	return s, true
}

// ============================================
// 日报
// ============================================

// FindReport 读取日报；不存在返回 repository.ErrNotFound，其余为存储错误
func (g *Gateway) FindReport(ctx context.Context, date string) (*models.DailyReport, error) {
	if g.store == nil {
		return nil, ErrStoreUnavailable
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	return g.store.GetReport(ctx, g.opts.DeviceID, date)
}

// CreateReport 比较后插入，返回库中最终保存的那一份
func (g *Gateway) CreateReport(ctx context.Context, r *models.DailyReport) (*models.DailyReport, bool, error) {
	if g.store == nil {
		return nil, false, ErrStoreUnavailable
	}
	ctx, cancel := g.bounded(ctx)
	defer cancel()
	return g.store.InsertReportIfAbsent(ctx, r)
}

// ExportReport 导出只读历史记录，不做兜底生成
func (g *Gateway) ExportReport(ctx context.Context, date string) (*models.DailyReport, error) {
	r, err := g.FindReport(ctx, date)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report %s: %w", date, err)
	}
	return r, nil
}

func (g *Gateway) logFallback(resource string, err error) {
	if err != nil {
		g.logger.Warn("Store read failed, using generated data", zap.String("resource", resource), zap.Error(err))
		return
	}
	g.logger.Debug("Store returned no rows, using generated data", zap.String("resource", resource))
}
