package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// get 只接受 GET
func get(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterDashboardRoutes 注册 /api 下的 JSON 与导出路由
func (r *Router) RegisterDashboardRoutes(d *DashboardHandler) {
	r.Handle("/api/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/api/" {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not Found"})
			return
		}
		get(d.Root)(w, req)
	})
	r.Handle("/api/status", get(d.Status))
	r.Handle("/api/storage", get(d.Storage))
	r.Handle("/api/alerts", get(d.Alerts))
	r.Handle("/api/capacity", get(d.Capacity))
	r.Handle("/api/cctv/streams", get(d.CameraStreams))
	r.Handle("/api/reports/daily", get(d.DailyReport))
	r.Handle("/api/reports/export-pdf", get(d.ExportPDF))
	r.Handle("/api/reports/export-xlsx", get(d.ExportXLSX))

	r.Handle("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

// RegisterSensorStream 注册 websocket 推送
func (r *Router) RegisterSensorStream(s *SensorStreamHandler) {
	r.Handle("/ws/sensors", s.ServeHTTP)
}
