package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Shradha102005/KhetBox/internal/hub"
	"github.com/Shradha102005/KhetBox/internal/models"
	"github.com/Shradha102005/KhetBox/internal/store"
)

func newStreamServer(t *testing.T, h *hub.Hub, payloads *store.PayloadCache, origins []string) *httptest.Server {
	t.Helper()
	router := NewRouter(zap.NewNop())
	router.RegisterSensorStream(NewSensorStreamHandler(h, payloads, origins, zap.NewNop()))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/sensors"
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestSensorStream_FirstFrameFromHub(t *testing.T) {
	h := hub.NewHub(4, zap.NewNop())
	h.Broadcast([]byte(`{"temperature":4.4,"alerts":[]}`))
	srv := newStreamServer(t, h, nil, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.JSONEq(t, `{"temperature":4.4,"alerts":[]}`, readFrame(t, conn))

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 5*time.Millisecond)
	h.Broadcast([]byte(`{"temperature":4.6,"alerts":[]}`))
	assert.JSONEq(t, `{"temperature":4.6,"alerts":[]}`, readFrame(t, conn))
}

func TestSensorStream_FirstFrameFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := store.NewPayloadCache(store.NewRedisKV(rdb), testDevice, time.Minute)

	cached := models.BroadcastPayload{
		SensorReading: models.SensorReading{Temperature: 5.1, Humidity: 62},
		Alerts:        []models.Alert{},
	}
	require.NoError(t, cache.Save(context.Background(), cached))

	h := hub.NewHub(4, zap.NewNop())
	h.Broadcast([]byte(`{"stale":true}`))
	srv := newStreamServer(t, h, cache, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Contains(t, readFrame(t, conn), `"temperature":5.1`)
}

func TestSensorStream_CacheMissFallsBackToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := store.NewPayloadCache(store.NewRedisKV(rdb), testDevice, time.Minute)

	h := hub.NewHub(4, zap.NewNop())
	h.Broadcast([]byte(`{"from":"hub"}`))
	srv := newStreamServer(t, h, cache, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.JSONEq(t, `{"from":"hub"}`, readFrame(t, conn))
}

func TestSensorStream_RejectsForeignOrigin(t *testing.T) {
	h := hub.NewHub(4, zap.NewNop())
	srv := newStreamServer(t, h, nil, []string{"http://localhost:3000"})

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, h.Count())
}
