package report

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/repository"
)

var testNow = time.Date(2024, 1, 1, 15, 42, 0, 0, time.UTC)

// flakyStore 基于 MemoryStore，可分别模拟读/写失败
type flakyStore struct {
	mem       *repository.MemoryStore
	mu        sync.Mutex
	readDown  bool
	writeDown bool
	creates   int
}

func newFlakyStore() *flakyStore { return &flakyStore{mem: repository.NewMemoryStore()} }

func (s *flakyStore) setReadDown(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readDown = v
}

func (s *flakyStore) FindReport(ctx context.Context, date string) (*models.DailyReport, error) {
	s.mu.Lock()
	down := s.readDown
	s.mu.Unlock()
	if down {
		return nil, errors.New("read timeout")
	}
	return s.mem.GetReport(ctx, "khetbox-001", date)
}

func (s *flakyStore) CreateReport(ctx context.Context, r *models.DailyReport) (*models.DailyReport, bool, error) {
	s.mu.Lock()
	s.creates++
	down := s.writeDown
	s.mu.Unlock()
	if down {
		return nil, false, errors.New("write timeout")
	}
	return s.mem.InsertReportIfAbsent(ctx, r)
}

func newAggregator(store Store, seed int64) *Aggregator {
	return NewAggregator(store, Options{
		DeviceID: "khetbox-001",
		Rand:     rand.New(rand.NewSource(seed)),
		Now:      func() time.Time { return testNow },
	}, zap.NewNop())
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	store := newFlakyStore()
	agg := newAggregator(store, 1)
	ctx := context.Background()

	first := agg.GetOrCreate(ctx, "2024-01-01")
	second := agg.GetOrCreate(ctx, "2024-01-01")

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))

	// 读存储故障时仍返回已保存的值
	store.setReadDown(true)
	third := agg.GetOrCreate(ctx, "2024-01-01")
	b3, err := json.Marshal(third)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b3))
}

func TestGetOrCreate_ReturnsPersistedReport(t *testing.T) {
	store := newFlakyStore()
	ctx := context.Background()
	persisted := newAggregator(store, 1).GetOrCreate(ctx, "2024-01-01")

	// 新进程（无本地缓存）从存储读到同一份
	again := newAggregator(store, 99).GetOrCreate(ctx, "2024-01-01")
	assert.Equal(t, persisted.Summary, again.Summary)
	assert.Equal(t, persisted.HourlyData, again.HourlyData)
	assert.Equal(t, 1, store.creates)
}

func TestGetOrCreate_ConcurrentCallersShareOneReport(t *testing.T) {
	store := newFlakyStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*models.DailyReport, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 每个调用方使用独立的 Aggregator，模拟多个实例并发创建
			results[i] = newAggregator(store, int64(i+1)).GetOrCreate(ctx, "2024-01-01")
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0].Summary, r.Summary)
		assert.Equal(t, results[0].CreatedAt, r.CreatedAt)
	}
}

func TestGetOrCreate_StoreDownServesWellFormedReport(t *testing.T) {
	store := newFlakyStore()
	store.readDown = true
	agg := newAggregator(store, 5)

	r := agg.GetOrCreate(context.Background(), "2024-01-01")
	require.NotNil(t, r)
	assert.Len(t, r.HourlyData, 24)
	assert.Equal(t, 0, store.creates)

	again := agg.GetOrCreate(context.Background(), "2024-01-01")
	assert.Equal(t, r.Summary, again.Summary)
}

func TestGetOrCreate_WriteFailureNotPersisted(t *testing.T) {
	store := newFlakyStore()
	store.writeDown = true
	agg := newAggregator(store, 5)
	ctx := context.Background()

	r := agg.GetOrCreate(ctx, "2024-01-01")
	assert.Len(t, r.HourlyData, 24)

	_, err := store.mem.GetReport(ctx, "khetbox-001", "2024-01-01")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetOrCreate_ReturnedCopyIsIsolated(t *testing.T) {
	agg := newAggregator(newFlakyStore(), 1)
	ctx := context.Background()

	r := agg.GetOrCreate(ctx, "2024-01-01")
	r.HourlyData[0].Temperature = -100
	r.Summary.AlertsCount = -1

	again := agg.GetOrCreate(ctx, "2024-01-01")
	assert.NotEqual(t, -100.0, again.HourlyData[0].Temperature)
	assert.NotEqual(t, -1, again.Summary.AlertsCount)
}

func TestSynthesize_Shape(t *testing.T) {
	agg := newAggregator(newFlakyStore(), 3)
	r := agg.Synthesize(agg.Today())

	assert.Equal(t, "2024-01-01", r.Date)
	assert.Equal(t, "khetbox-001", r.DeviceID)
	require.Len(t, r.HourlyData, 24)
	assert.Equal(t, "16:00", r.HourlyData[0].Hour)
	assert.Equal(t, "15:00", r.HourlyData[23].Hour)
	assert.Equal(t, testNow.Truncate(time.Hour), r.HourlyData[23].Timestamp)

	for _, p := range r.HourlyData {
		assert.GreaterOrEqual(t, p.Temperature, 2.9)
		assert.LessOrEqual(t, p.Temperature, 5.9)
		assert.GreaterOrEqual(t, p.Humidity, 53.0)
		assert.LessOrEqual(t, p.Humidity, 69.0)
		assert.GreaterOrEqual(t, p.Battery, 51.0)
		assert.LessOrEqual(t, p.Battery, 71.0)
	}
	assert.GreaterOrEqual(t, r.Summary.AlertsCount, 2)
	assert.LessOrEqual(t, r.Summary.AlertsCount, 8)
	assert.Equal(t, 99.7, r.Summary.UptimePercentage)
	assert.LessOrEqual(t, r.Summary.MinTemperature, r.Summary.AvgTemperature)
	assert.GreaterOrEqual(t, r.Summary.MaxTemperature, r.Summary.AvgTemperature)
}

func TestSynthesize_PastDateAnchoredToThatDay(t *testing.T) {
	agg := newAggregator(newFlakyStore(), 3)
	r := agg.Synthesize("2023-12-25")

	require.Len(t, r.HourlyData, 24)
	assert.Equal(t, "00:00", r.HourlyData[0].Hour)
	assert.Equal(t, time.Date(2023, 12, 25, 23, 0, 0, 0, time.UTC), r.HourlyData[23].Timestamp)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]models.HourlyPoint{
		{Temperature: 4.0, Humidity: 60, Battery: 50},
		{Temperature: 5.1, Humidity: 61, Battery: 55},
		{Temperature: 3.2, Humidity: 64, Battery: 60},
	})
	assert.Equal(t, 4.1, s.AvgTemperature)
	assert.Equal(t, 3.2, s.MinTemperature)
	assert.Equal(t, 5.1, s.MaxTemperature)
	assert.Equal(t, 62.0, s.AvgHumidity)
	assert.Equal(t, 55.0, s.AvgBattery)

	assert.Equal(t, models.ReportSummary{}, Summarize(nil))
}
