package orderHandler

import (
	"Replicaide/internal/entity"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, app *fiber.App) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.ShutdownWithTimeout(time.Second) })

	return "ws://" + ln.Addr().String()
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, res, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSwitchingProtocols, res.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	return conn
}

func TestOrderUpdatesStream(t *testing.T) {
	app, svc, token := newTestApp(t)
	svc.sessions["s1"] = entity.VoiceSession{
		ID:             "s1",
		AppliedVersion: 4,
		Order:          &entity.Order{CustomerName: "Ana", Items: []entity.OrderItem{{Name: "Taco", Quantity: 1, Price: 3.5}}, Total: 3.5},
	}
	base := serve(t, app)

	conn := dial(t, base+"/api/v1/orders/sessions/s1/updates?access_token="+token)

	var first map[string]interface{}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "order_update", first["type"])
	assert.EqualValues(t, 4, first["version"])

	svc.updates <- entity.OrderUpdate{
		SessionID: "s1",
		Version:   6,
		Order:     entity.Order{CustomerName: "Ana", Items: []entity.OrderItem{{Name: "Taco", Quantity: 3, Price: 3.5}}, Total: 10.5},
	}

	var next map[string]interface{}
	require.NoError(t, conn.ReadJSON(&next))
	assert.EqualValues(t, 6, next["version"])
	assert.Equal(t, "$10.50", next["order"].(map[string]interface{})["formatted_total"])

	close(svc.updates)
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestOrderUpdatesUnknownSession(t *testing.T) {
	app, _, token := newTestApp(t)
	base := serve(t, app)

	_, res, err := websocket.DefaultDialer.Dial(base+"/api/v1/orders/sessions/nope/updates?access_token="+token, nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestOrderUpdatesRejectsMissingToken(t *testing.T) {
	app, svc, _ := newTestApp(t)
	svc.sessions["s1"] = entity.VoiceSession{ID: "s1"}
	base := serve(t, app)

	_, res, err := websocket.DefaultDialer.Dial(base+"/api/v1/orders/sessions/s1/updates", nil)
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestAgentRelay(t *testing.T) {
	app, svc, token := newTestApp(t)
	svc.sessions["s1"] = entity.VoiceSession{ID: "s1"}
	base := serve(t, app)

	conn := dial(t, base+"/api/v1/orders/sessions/s1/agent?access_token="+token)

	select {
	case <-svc.relayed:
	case <-time.After(2 * time.Second):
		t.Fatal("relay not started")
	}
	cb := svc.relayCallbacks()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("mic")))
	assert.Eventually(t, func() bool {
		audio := svc.conv.Audio()
		return len(audio) == 1 && string(audio[0]) == "mic"
	}, 2*time.Second, 10*time.Millisecond)

	cb.OnTranscript(entity.TranscriptEntry{Source: entity.SourceAgent, Text: "¿Algo más?"})
	messageType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, messageType)
	var transcript map[string]string
	require.NoError(t, jsoniter.Unmarshal(data, &transcript))
	assert.Equal(t, map[string]string{"type": "transcript", "source": "agent", "text": "¿Algo más?"}, transcript)

	cb.OnAudio([]byte("pcm"))
	messageType, data, err = conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, messageType)
	assert.Equal(t, []byte("pcm"), data)

	cb.OnDisconnect()
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	assert.Eventually(t, func() bool {
		svc.conv.mu.Lock()
		defer svc.conv.mu.Unlock()
		return svc.conv.ended
	}, 2*time.Second, 10*time.Millisecond)
}
