package api

import (
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glucorisk/backend/internal/feed"
)

func TestLiveFeedReceivesPredictions(t *testing.T) {
	app := newTestApp(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer app.ShutdownWithTimeout(2 * time.Second)

	base := ln.Addr().String()
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+base+"/ws/predictions", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var status map[string]interface{}
	require.NoError(t, conn.ReadJSON(&status))
	assert.Equal(t, "subscribed", status["status"])

	resp, err := http.Post("http://"+base+"/prediksi", "application/json",
		strings.NewReader(`{"age":"61","polyuria":"Ya","polydipsia":"Ya"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ev feed.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "prediction", ev.Type)
	assert.Equal(t, 1, ev.Prediction)
	assert.Equal(t, "Fallback logic", ev.ModelUsed)
	assert.Equal(t, "Berisiko Diabetes", ev.Diagnosis)
	assert.Greater(t, ev.ID, int64(0))
}
