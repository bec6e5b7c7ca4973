package simulator

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	cur := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(step)
		return cur
	}
}

func assertValid(t *testing.T, s models.Snapshot) {
	t.Helper()
	require.True(t, TemperatureRange.Contains(s.Temperature), "temperature %v", s.Temperature)
	require.True(t, HumidityRange.Contains(s.Humidity), "humidity %v", s.Humidity)
	require.True(t, BatteryRange.Contains(s.Battery), "battery %v", s.Battery)
	require.True(t, StorageRange.Contains(s.StorageUsed), "storage %v", s.StorageUsed)
	require.Equal(t, s.DoorOpen, s.DoorOpenSince != nil, "door invariant")
}

func TestNew_DefaultState(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sim := New(WithClock(func() time.Time { return now }))

	snap := sim.Snapshot()
	assert.Equal(t, 4.4, snap.Temperature)
	assert.Equal(t, 61.0, snap.Humidity)
	assert.Equal(t, 61.0, snap.Battery)
	assert.Equal(t, 61.0, snap.StorageUsed)
	assert.True(t, snap.SolarActive)
	assert.False(t, snap.DoorOpen)
	assert.Nil(t, snap.DoorOpenSince)
	assert.Equal(t, now, snap.LastUpdate)
}

func TestUpdate_BoundsAndDoorInvariant(t *testing.T) {
	starts := []models.Snapshot{
		DefaultSnapshot(time.Time{}),
		{Temperature: 2.0, Humidity: 40, Battery: 20, StorageUsed: 50},
		{Temperature: 8.5, Humidity: 85, Battery: 95, StorageUsed: 75, SolarActive: true},
		{Temperature: 8.4, Humidity: 84, Battery: 21, StorageUsed: 74.9, DoorOpen: true},
	}
	for i, start := range starts {
		sim := New(
			WithRand(rand.New(rand.NewSource(int64(i+1)))),
			WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 8*time.Second)),
			WithInitial(start),
		)
		assertValid(t, sim.Snapshot())
		for step := 0; step < 5000; step++ {
			assertValid(t, sim.Step())
		}
	}
}

func TestUpdate_DoorOpensAndCloses(t *testing.T) {
	sim := New(
		WithRand(rand.New(rand.NewSource(42))),
		WithClock(fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)),
	)

	var opened, closed bool
	var prev models.Snapshot = sim.Snapshot()
	for i := 0; i < 5000; i++ {
		cur := sim.Step()
		if !prev.DoorOpen && cur.DoorOpen {
			opened = true
			require.NotNil(t, cur.DoorOpenSince)
			assert.Equal(t, cur.LastUpdate, *cur.DoorOpenSince)
		}
		if prev.DoorOpen && !cur.DoorOpen {
			closed = true
			assert.Nil(t, cur.DoorOpenSince)
		}
		if prev.DoorOpen && cur.DoorOpen {
			assert.Equal(t, *prev.DoorOpenSince, *cur.DoorOpenSince, "open time kept while door stays open")
		}
		prev = cur
	}
	assert.True(t, opened)
	assert.True(t, closed)
}

func TestUpdate_DeterministicWithSeed(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	a := New(WithRand(rand.New(rand.NewSource(7))), WithClock(clock))
	b := New(WithRand(rand.New(rand.NewSource(7))), WithClock(clock))
	for i := 0; i < 100; i++ {
		a.Update()
		b.Update()
	}
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestUpdate_SolarChargesBattery(t *testing.T) {
	sim := New(
		WithRand(rand.New(rand.NewSource(3))),
		WithInitial(models.Snapshot{Temperature: 4, Humidity: 60, Battery: 50, StorageUsed: 60, SolarActive: true}),
	)
	before := sim.Snapshot()
	after := sim.Step()
	assert.Greater(t, after.Battery, before.Battery)
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	opened := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sim := New(WithInitial(models.Snapshot{Temperature: 4, Humidity: 60, Battery: 50, StorageUsed: 60, DoorOpen: true, DoorOpenSince: &opened}))

	snap := sim.Snapshot()
	snap.Temperature = 100
	*snap.DoorOpenSince = opened.Add(time.Hour)

	again := sim.Snapshot()
	assert.Equal(t, 4.0, again.Temperature)
	assert.Equal(t, opened, *again.DoorOpenSince)
}

func TestNormalize(t *testing.T) {
	last := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := Normalize(models.Snapshot{Temperature: 30, Humidity: 10, Battery: 100, StorageUsed: 0, DoorOpen: true, LastUpdate: last})
	assert.Equal(t, 8.5, n.Temperature)
	assert.Equal(t, 40.0, n.Humidity)
	assert.Equal(t, 95.0, n.Battery)
	assert.Equal(t, 50.0, n.StorageUsed)
	require.NotNil(t, n.DoorOpenSince)
	assert.Equal(t, last, *n.DoorOpenSince)

	stale := last
	closed := Normalize(models.Snapshot{Temperature: 4, Humidity: 60, Battery: 50, StorageUsed: 60, DoorOpenSince: &stale})
	assert.Nil(t, closed.DoorOpenSince)
}

func TestConcurrentUpdateAndRead(t *testing.T) {
	sim := New(WithRand(rand.New(rand.NewSource(11))))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				sim.Update()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				snap := sim.Snapshot()
				assert.Equal(t, snap.DoorOpen, snap.DoorOpenSince != nil)
			}
		}()
	}
	wg.Wait()
	assertValid(t, sim.Snapshot())
}
