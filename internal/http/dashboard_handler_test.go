package httpapi

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shradha102005/KhetBox/internal/evaluator"
	"github.com/Shradha102005/KhetBox/internal/gateway"
	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/report"
	"github.com/Shradha102005/KhetBox/internal/repository"
	"github.com/Shradha102005/KhetBox/internal/simulator"
)

const testDevice = "khetbox-001"

type fixture struct {
	router *Router
	sim    *simulator.Simulator
	store  *repository.MemoryStore
}

func newFixture(t *testing.T, withStore bool) *fixture {
	t.Helper()
	logger := zap.NewNop()
	sim := simulator.New(simulator.WithRand(rand.New(rand.NewSource(7))))
	eval := evaluator.New()

	var (
		mem   *repository.MemoryStore
		store repository.Store
	)
	if withStore {
		mem = repository.NewSeededMemoryStore(testDevice, time.Now().UTC())
		store = mem
	}
	gw := gateway.New(store, gateway.NewLiveGenerator(sim, eval, nil), gateway.Options{DeviceID: testDevice, Timeout: time.Second}, logger)
	agg := report.NewAggregator(gw, report.Options{DeviceID: testDevice, Rand: rand.New(rand.NewSource(1))}, logger)

	router := NewRouter(logger)
	router.RegisterDashboardRoutes(NewDashboardHandler(sim, gw, agg, logger))
	return &fixture{router: router, sim: sim, store: mem}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), out))
}

func TestRoot(t *testing.T) {
	f := newFixture(t, false)

	rr := f.get(t, "/api/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"message":"Khetbox Dashboard API","version":"1.0.0"}`, rr.Body.String())

	assert.Equal(t, http.StatusNotFound, f.get(t, "/api/unknown").Code)

	health := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Equal(t, "OK", health.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, false)
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestStatus_StepsAndPersists(t *testing.T) {
	f := newFixture(t, true)

	rr := f.get(t, "/api/status")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var reading models.SensorReading
	decode(t, rr, &reading)
	assert.True(t, simulator.TemperatureRange.Contains(reading.Temperature))
	assert.True(t, simulator.BatteryRange.Contains(reading.Battery))

	persisted, err := f.store.GetSensor(context.Background(), testDevice)
	require.NoError(t, err)
	assert.Equal(t, f.sim.Snapshot().Temperature, persisted.Temperature)
}

func TestStorageAndStreams_WithoutStore(t *testing.T) {
	f := newFixture(t, false)

	var storage struct {
		StorageUnits []models.StorageUnit `json:"storage_units"`
	}
	rr := f.get(t, "/api/storage")
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &storage)
	require.Len(t, storage.StorageUnits, 1)
	assert.Equal(t, "Cold Storage Unit A", storage.StorageUnits[0].Name)

	var streams struct {
		Streams []models.CameraStream `json:"streams"`
	}
	rr = f.get(t, "/api/cctv/streams")
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &streams)
	assert.Len(t, streams.Streams, 2)
}

func TestAlerts_View(t *testing.T) {
	f := newFixture(t, false)

	var view models.AlertsView
	rr := f.get(t, "/api/alerts")
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &view)
	assert.Equal(t, len(view.Alerts), view.TotalCount)
	assert.NotEmpty(t, view.Alerts)
}

func TestCapacity(t *testing.T) {
	c := capacityFor(61)
	assert.Equal(t, 2000.0, c.TotalCapacityKg)
	assert.Equal(t, 1220.0, c.UsedKg)
	assert.Equal(t, 780.0, c.AvailableKg)
	assert.Equal(t, 61.0, c.UsedPercentage)
	require.Len(t, c.Breakdown, 5)
	assert.Equal(t, "Other", c.Breakdown[4].Name)
	assert.Equal(t, -580.0, c.Breakdown[4].Kg)

	f := newFixture(t, false)
	before := f.sim.Snapshot()
	rr := f.get(t, "/api/capacity")
	require.Equal(t, http.StatusOK, rr.Code)
	var got models.Capacity
	decode(t, rr, &got)
	assert.Equal(t, models.Round(before.StorageUsed, 0), got.UsedPercentage)
	assert.Equal(t, before, f.sim.Snapshot())
}

func TestDailyReport_Idempotent(t *testing.T) {
	f := newFixture(t, true)

	first := f.get(t, "/api/reports/daily")
	require.Equal(t, http.StatusOK, first.Code)
	second := f.get(t, "/api/reports/daily")
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	var body map[string]any
	decode(t, first, &body)
	assert.Equal(t, testDevice, body["device_id"])
	assert.Contains(t, body, "charts")
	assert.Len(t, body["hourly_data"], 24)
}

func TestExport_NotFoundUntilReportExists(t *testing.T) {
	f := newFixture(t, true)

	for _, path := range []string{"/api/reports/export-pdf", "/api/reports/export-xlsx"} {
		rr := f.get(t, path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
		assert.JSONEq(t, `{"detail":"Report not found"}`, rr.Body.String(), path)
	}

	require.Equal(t, http.StatusOK, f.get(t, "/api/reports/daily").Code)

	pdf := f.get(t, "/api/reports/export-pdf")
	require.Equal(t, http.StatusOK, pdf.Code)
	assert.Equal(t, "application/pdf", pdf.Header().Get("Content-Type"))
	assert.Contains(t, pdf.Header().Get("Content-Disposition"), "attachment; filename=khetbox-daily-report-")
	assert.Equal(t, "%PDF", pdf.Body.String()[:4])

	xlsx := f.get(t, "/api/reports/export-xlsx")
	require.Equal(t, http.StatusOK, xlsx.Code)
	assert.Contains(t, xlsx.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "PK", xlsx.Body.String()[:2])
}

func TestExport_StoreUnavailable(t *testing.T) {
	f := newFixture(t, false)

	rr := f.get(t, "/api/reports/export-pdf")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	decode(t, rr, &body)
	assert.Contains(t, body["detail"], "store unavailable")
}

func TestCORS(t *testing.T) {
	f := newFixture(t, false)
	h := WithCORS(f.router, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}
