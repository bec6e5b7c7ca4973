package report

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	DateLayout = "2006-01-02"

	baseTemperature  = 4.4
	baseHumidity     = 61.0
	baseBattery      = 61.0
	uptimePercentage = 99.7
	hoursPerReport   = 24
)

// Store 日报读写（gateway.Gateway 实现）
type Store interface {
	FindReport(ctx context.Context, date string) (*models.DailyReport, error)
	CreateReport(ctx context.Context, r *models.DailyReport) (*models.DailyReport, bool, error)
}

type Options struct {
	DeviceID    string
	CacheTTL    time.Duration // 已落库日报的本地缓存时长
	FallbackTTL time.Duration // 未能落库的日报的本地缓存时长
	Rand        *rand.Rand
	Now         func() time.Time
}

// Aggregator 按日期幂等地获取或生成日报
type Aggregator struct {
	store    Store
	deviceID string
	memo     *cache.Cache
	ttl      time.Duration
	fallback time.Duration
	now      func() time.Time
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewAggregator(store Store, opts Options, logger *zap.Logger) *Aggregator {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	if opts.FallbackTTL <= 0 {
		opts.FallbackTTL = time.Minute
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Aggregator{
		store:    store,
		deviceID: opts.DeviceID,
		memo:     cache.New(opts.CacheTTL, 10*time.Minute),
		ttl:      opts.CacheTTL,
		fallback: opts.FallbackTTL,
		now:      opts.Now,
		logger:   logger,
		rng:      opts.Rand,
	}
}

// Today 当日 (UTC) 日期
func (a *Aggregator) Today() string {
	return a.now().UTC().Format(DateLayout)
}

// GetOrCreate 已存在则原样返回；不存在则生成并以比较后插入的方式落库，返回最终保存的那一份。
// 存储不可用时返回生成的日报（短时缓存，不落库）。
func (a *Aggregator) GetOrCreate(ctx context.Context, date string) *models.DailyReport {
	if r, ok := a.cached(date); ok {
		return r
	}

	existing, err := a.store.FindReport(ctx, date)
	if err == nil {
		a.remember(existing, a.ttl)
		return clone(existing)
	}

	synthesized := a.Synthesize(date)
	if !errors.Is(err, repository.ErrNotFound) {
		a.logger.Warn("Report lookup failed, serving unpersisted report", zap.String("date", date), zap.Error(err))
		a.remember(synthesized, a.fallback)
		return clone(synthesized)
	}

	stored, created, err := a.store.CreateReport(ctx, synthesized)
	if err != nil {
		a.logger.Warn("Report create failed, serving unpersisted report", zap.String("date", date), zap.Error(err))
		a.remember(synthesized, a.fallback)
		return clone(synthesized)
	}
	if created {
		a.logger.Info("Daily report created", zap.String("date", date), zap.String("device_id", a.deviceID))
	}
	a.remember(stored, a.ttl)
	return clone(stored)
}

// Synthesize 生成 24 个小时点及统计
func (a *Aggregator) Synthesize(date string) *models.DailyReport {
	now := a.now().UTC()
	end := now.Truncate(time.Hour)
	if d, err := time.Parse(DateLayout, date); err == nil && d.Format(DateLayout) != now.Format(DateLayout) {
		end = d.Add(23 * time.Hour)
	}

	a.rngMu.Lock()
	hourly := make([]models.HourlyPoint, 0, hoursPerReport)
	for i := 0; i < hoursPerReport; i++ {
		ts := end.Add(-time.Duration(hoursPerReport-1-i) * time.Hour)
		hourly = append(hourly, models.HourlyPoint{
			Hour:        ts.Format("15:00"),
			Timestamp:   ts,
			Temperature: models.Round(baseTemperature+a.uniform(-1.5, 1.5), 1),
			Humidity:    models.Round(baseHumidity+a.uniform(-8, 8), 0),
			Battery:     models.Round(baseBattery+a.uniform(-10, 10), 0),
		})
	}
	alertsCount := 2 + a.rng.Intn(7)
	a.rngMu.Unlock()

	summary := Summarize(hourly)
	summary.AlertsCount = alertsCount
	summary.UptimePercentage = uptimePercentage

	return &models.DailyReport{
		Date:       date,
		DeviceID:   a.deviceID,
		Summary:    summary,
		HourlyData: hourly,
		CreatedAt:  now,
	}
}

// Summarize 计算均值与极值（温度 1 位小数，湿度与电量取整）
func Summarize(points []models.HourlyPoint) models.ReportSummary {
	if len(points) == 0 {
		return models.ReportSummary{}
	}
	var sumT, sumH, sumB float64
	minT, maxT := points[0].Temperature, points[0].Temperature
	for _, p := range points {
		sumT += p.Temperature
		sumH += p.Humidity
		sumB += p.Battery
		if p.Temperature < minT {
			minT = p.Temperature
		}
		if p.Temperature > maxT {
			maxT = p.Temperature
		}
	}
	n := float64(len(points))
	return models.ReportSummary{
		AvgTemperature: models.Round(sumT/n, 1),
		MinTemperature: models.Round(minT, 1),
		MaxTemperature: models.Round(maxT, 1),
		AvgHumidity:    models.Round(sumH/n, 0),
		AvgBattery:     models.Round(sumB/n, 0),
	}
}

func (a *Aggregator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*a.rng.Float64()
}

func (a *Aggregator) cached(date string) (*models.DailyReport, bool) {
	v, ok := a.memo.Get(date)
	if !ok {
		return nil, false
	}
	return clone(v.(*models.DailyReport)), true
}

func (a *Aggregator) remember(r *models.DailyReport, ttl time.Duration) {
	a.memo.Set(r.Date, clone(r), ttl)
}

func clone(r *models.DailyReport) *models.DailyReport {
	c := *r
	c.HourlyData = append([]models.HourlyPoint(nil), r.HourlyData...)
	return &c
}
