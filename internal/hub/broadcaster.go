package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"

	"go.uber.org/zap"
)

// Stepper 推进一次遥测状态并返回提交后的快照（simulator）
type Stepper interface {
	Step() models.Snapshot
}

type Evaluator interface {
	EvaluateAt(s models.Snapshot, now time.Time) []models.Alert
}

// Recorder 尽力而为的持久化（gateway）
type Recorder interface {
	RecordSnapshot(ctx context.Context, s models.Snapshot)
	RecordAlerts(ctx context.Context, alerts []models.Alert)
}

// Sink 广播后的附加输出（payload 缓存、MQTT），失败只记日志
type Sink struct {
	Name string
	Save func(ctx context.Context, p models.BroadcastPayload) error
}

type BroadcasterOptions struct {
	Interval      time.Duration
	PersistAlerts bool
	Now           func() time.Time
}

// Broadcaster 固定周期：推进状态 → 评估告警 → 扇出 → 持久化
type Broadcaster struct {
	hub      *Hub
	sim      Stepper
	eval     Evaluator
	recorder Recorder
	sinks    []Sink
	opts     BroadcasterOptions
	logger   *zap.Logger
}

func NewBroadcaster(h *Hub, sim Stepper, eval Evaluator, recorder Recorder, opts BroadcasterOptions, logger *zap.Logger, sinks ...Sink) *Broadcaster {
	if opts.Interval <= 0 {
		opts.Interval = 8 * time.Second
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Broadcaster{
		hub:      h,
		sim:      sim,
		eval:     eval,
		recorder: recorder,
		sinks:    sinks,
		opts:     opts,
		logger:   logger,
	}
}

// Run 阻塞直到 ctx 取消；退出前关闭所有订阅者
func (b *Broadcaster) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.opts.Interval)
	defer ticker.Stop()
	defer b.hub.CloseAll()

	b.logger.Info("Broadcaster started", zap.Duration("interval", b.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Broadcaster stopped")
			return ctx.Err()
		case <-ticker.C:
			b.Round(ctx)
		}
	}
}

// Round 执行一轮广播并返回本轮 payload
func (b *Broadcaster) Round(ctx context.Context) models.BroadcastPayload {
	snap := b.sim.Step()
	now := b.opts.Now()
	alerts := b.eval.EvaluateAt(snap, now)
	payload := models.BroadcastPayload{SensorReading: snap.Reading(now), Alerts: alerts}

	msg, err := json.Marshal(payload)
	if err != nil {
		b.logger.Error("Failed to marshal broadcast payload", zap.Error(err))
		return payload
	}
	delivered := b.hub.Broadcast(msg)
	b.logger.Debug("Broadcast round", zap.Int("delivered", delivered), zap.Int("alerts", len(alerts)))

	if b.recorder != nil {
		b.recorder.RecordSnapshot(ctx, snap)
		if b.opts.PersistAlerts {
			b.recorder.RecordAlerts(ctx, alerts)
		}
	}
	for _, s := range b.sinks {
		if err := s.Save(ctx, payload); err != nil {
			b.logger.Warn("Broadcast sink failed", zap.String("sink", s.Name), zap.Error(err))
		}
	}
	return payload
}
