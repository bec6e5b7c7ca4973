package simulator

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
)

// Range 闭区间
type Range struct {
	Min, Max float64
}

func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

var (
	TemperatureRange = Range{Min: 2.0, Max: 8.5}
	HumidityRange    = Range{Min: 40, Max: 85}
	BatteryRange     = Range{Min: 20, Max: 95}
	StorageRange     = Range{Min: 50, Max: 75}
)

const (
	solarToggleProb = 0.05
	doorOpenProb    = 0.02
	doorCloseProb   = 0.3
)

// Simulator 持有唯一的遥测快照；Update 为唯一写入点
type Simulator struct {
	mu    sync.RWMutex
	state models.Snapshot
	rng   *rand.Rand // guarded by mu
	now   func() time.Time
}

type Option func(*Simulator)

// WithRand 注入随机源（测试用固定种子）
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

// WithClock 注入时钟
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) { s.now = now }
}

// WithInitial 以给定快照作为起点（会被规范化到合法范围）
func WithInitial(snap models.Snapshot) Option {
	return func(s *Simulator) { s.state = Normalize(snap) }
}

// New 创建 Simulator，默认从出厂状态开始
func New(opts ...Option) *Simulator {
	s := &Simulator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: func() time.Time { return time.Now().UTC() },
	}
	s.state = DefaultSnapshot(time.Time{})
	for _, opt := range opts {
		opt(s)
	}
	if s.state.LastUpdate.IsZero() {
		s.state.LastUpdate = s.now()
	}
	return s
}

// DefaultSnapshot 设备初始状态
func DefaultSnapshot(now time.Time) models.Snapshot {
	return models.Snapshot{
		Temperature: 4.4,
		Humidity:    61,
		Battery:     61,
		StorageUsed: 61,
		SolarActive: true,
		LastUpdate:  now,
	}
}

// Normalize 将快照夹到合法范围并修复门状态
func Normalize(snap models.Snapshot) models.Snapshot {
	n := snap.Clone()
	n.Temperature = TemperatureRange.Clamp(n.Temperature)
	n.Humidity = HumidityRange.Clamp(n.Humidity)
	n.Battery = BatteryRange.Clamp(n.Battery)
	n.StorageUsed = StorageRange.Clamp(n.StorageUsed)
	switch {
	case !n.DoorOpen:
		n.DoorOpenSince = nil
	case n.DoorOpenSince == nil:
		t := n.LastUpdate
		n.DoorOpenSince = &t
	}
	return n
}

// Update 执行一步有界随机游走。新状态先在副本上计算，再整体提交。
func (s *Simulator) Update() {
	s.step()
}

// Step 执行 Update 并返回本次提交的快照
func (s *Simulator) Step() models.Snapshot {
	return s.step()
}

// Snapshot 返回最近一次提交的快照副本
func (s *Simulator) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

func (s *Simulator) step() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := s.state.Clone()

	next.Temperature = TemperatureRange.Clamp(next.Temperature + s.uniform(-0.3, 0.3))
	next.Humidity = HumidityRange.Clamp(next.Humidity + s.uniform(-2, 2))
	if next.SolarActive {
		next.Battery += s.uniform(0.1, 0.5)
	} else {
		next.Battery += s.uniform(-0.5, 0.3)
	}
	next.Battery = BatteryRange.Clamp(next.Battery)
	next.StorageUsed = StorageRange.Clamp(next.StorageUsed + s.uniform(-0.1, 0.2))

	if s.rng.Float64() < solarToggleProb {
		next.SolarActive = !next.SolarActive
	}

	if !next.DoorOpen {
		if s.rng.Float64() < doorOpenProb {
			opened := now
			next.DoorOpen = true
			next.DoorOpenSince = &opened
		}
	} else if s.rng.Float64() < doorCloseProb {
		next.DoorOpen = false
		next.DoorOpenSince = nil
	}

	next.LastUpdate = now
	s.state = next
	return next.Clone()
}

func (s *Simulator) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*s.rng.Float64()
}
