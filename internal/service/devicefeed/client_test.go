package devicefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ShotTrace/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFrames(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []models.DeviceMessageType
		wantErr bool
	}{
		{"single", `{"type":"round_end","round_id":"r1"}`, []models.DeviceMessageType{models.DeviceRoundEnd}, false},
		{"batch", `[{"type":"sample","round_id":"r1","sample":{"latitude":1}},{"type":"shot","round_id":"r1","shot":{}}]`,
			[]models.DeviceMessageType{models.DeviceSample, models.DeviceShot}, false},
		{"control frames dropped", `[{"type":"ack"},{"type":"stability","round_id":"r1"},null]`,
			[]models.DeviceMessageType{models.DeviceStability}, false},
		{"empty", "  ", nil, true},
		{"garbage", `{"type":`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrames([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			types := make([]models.DeviceMessageType, 0, len(got))
			for _, m := range got {
				types = append(types, m.Type)
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestClientStreamsFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	subscribed := make(chan subscribeFrame, 1)
	var auth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeFrame
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ack"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`[{"type":"shot","round_id":"r1","shot":{"id":"s1","event_timestamp":"2025-06-01T09:00:00Z"}},{"type":"round_end","round_id":"r1"}]`))
		// hold the socket until the client leaves
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	c := New(Config{
		URL:     "ws" + strings.TrimPrefix(srv.URL, "http"),
		Token:   "secret",
		Devices: []string{"watch-1"},
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Connect(ctx))
	assert.True(t, c.IsConnected())
	require.NoError(t, c.Subscribe(ctx))

	sub := <-subscribed
	assert.Equal(t, "subscribe", sub.Type)
	assert.Equal(t, []string{"watch-1"}, sub.Devices)
	assert.Equal(t, "Bearer secret", auth)

	msgs, _ := c.Read(ctx)
	first := <-msgs
	second := <-msgs
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, models.DeviceShot, first.Type)
	assert.Equal(t, "s1", first.Shot.ID)
	assert.False(t, first.ReceivedAt.IsZero())
	assert.Equal(t, models.DeviceRoundEnd, second.Type)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestSubscribeRequiresConnection(t *testing.T) {
	c := New(Config{URL: "ws://127.0.0.1:1"})
	assert.Error(t, c.Subscribe(context.Background()))
}
