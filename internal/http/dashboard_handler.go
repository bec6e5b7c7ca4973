package httpapi

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/Shradha102005/KhetBox/internal/gateway"
	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/report"

	"go.uber.org/zap"
)

const (
	apiVersion        = "1.0.0"
	totalCapacityKg   = 2000.0
	namedCropsTotalKg = 1800.0
	otherCropColor    = "#6366F1"
	otherCropIcon     = "📦"
)

var namedCrops = []models.CropShare{
	{Name: "Tomatoes", Kg: 450, Color: "#EF4444", Icon: "🍅"},
	{Name: "Rice", Kg: 650, Color: "#F59E0B", Icon: "🍚"},
	{Name: "Chillies", Kg: 280, Color: "#10B981", Icon: "🌶️"},
	{Name: "Wheat", Kg: 420, Color: "#3B82F6", Icon: "🌾"},
}

// Simulator 遥测状态（simulator.Simulator）
type Simulator interface {
	Step() models.Snapshot
	Snapshot() models.Snapshot
}

// DashboardHandler 仪表盘 REST 接口
type DashboardHandler struct {
	sim     Simulator
	gw      *gateway.Gateway
	reports *report.Aggregator
	pdf     report.Renderer
	xlsx    report.Renderer
	now     func() time.Time
	logger  *zap.Logger
}

func NewDashboardHandler(sim Simulator, gw *gateway.Gateway, reports *report.Aggregator, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{
		sim:     sim,
		gw:      gw,
		reports: reports,
		pdf:     report.PDFRenderer{},
		xlsx:    report.XLSXRenderer{},
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

func (d *DashboardHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Khetbox Dashboard API",
		"version": apiVersion,
	})
}

// Status 推进一次状态，尽力落库后返回读数
func (d *DashboardHandler) Status(w http.ResponseWriter, req *http.Request) {
	snap := d.sim.Step()
	d.gw.RecordSnapshot(req.Context(), snap)
	writeJSON(w, http.StatusOK, snap.Reading(d.now()))
}

func (d *DashboardHandler) Storage(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"storage_units": d.gw.StorageUnits(req.Context())})
}

func (d *DashboardHandler) Alerts(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, d.gw.Alerts(req.Context()))
}

func (d *DashboardHandler) CameraStreams(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"streams": d.gw.CameraStreams(req.Context())})
}

func (d *DashboardHandler) DailyReport(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, d.reports.GetOrCreate(req.Context(), d.reports.Today()))
}

// Capacity 按当前 storage_used 计算容量；不推进状态
func (d *DashboardHandler) Capacity(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, capacityFor(d.sim.Snapshot().Reading(d.now()).StorageUsed))
}

func capacityFor(usedPercentage float64) models.Capacity {
	used := math.Round(totalCapacityKg * usedPercentage / 100)
	breakdown := make([]models.CropShare, 0, len(namedCrops)+1)
	breakdown = append(breakdown, namedCrops...)
	breakdown = append(breakdown, models.CropShare{
		Name:  "Other",
		Kg:    used - namedCropsTotalKg,
		Color: otherCropColor,
		Icon:  otherCropIcon,
	})
	return models.Capacity{
		TotalCapacityKg: totalCapacityKg,
		UsedKg:          used,
		AvailableKg:     totalCapacityKg - used,
		UsedPercentage:  usedPercentage,
		Breakdown:       breakdown,
	}
}

func (d *DashboardHandler) ExportPDF(w http.ResponseWriter, req *http.Request) {
	d.export(w, req, d.pdf)
}

func (d *DashboardHandler) ExportXLSX(w http.ResponseWriter, req *http.Request) {
	d.export(w, req, d.xlsx)
}

// export 只导出已落库的当日日报
func (d *DashboardHandler) export(w http.ResponseWriter, req *http.Request, renderer report.Renderer) {
	date := d.reports.Today()
	r, err := d.gw.ExportReport(req.Context(), date)
	if err != nil {
		if errors.Is(err, gateway.ErrReportNotFound) {
			writeDetail(w, http.StatusNotFound, "Report not found")
			return
		}
		d.logger.Error("Failed to load report for export", zap.String("date", date), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	body, err := renderer.Render(r, d.now())
	if err != nil {
		d.logger.Error("Failed to render report", zap.String("date", date), zap.String("content_type", renderer.ContentType()), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", renderer.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+renderer.FileName(r))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
