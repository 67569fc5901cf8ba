package orderHandler

import (
	"Replicaide/internal/api/order"
	orderService "Replicaide/internal/api/order/service"
	"Replicaide/internal/entity"
	"Replicaide/internal/middleware"
	contextPkg "Replicaide/pkg/context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var errRelayClosed = errors.New("relay connection closed")

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

func wsContext(conn *websocket.Conn) context.Context {
	requestID, _ := conn.Locals(middleware.RequestIDKey).(string)
	if requestID == "" {
		requestID = "unknown"
	}
	return contextPkg.WithRequestID(context.Background(), requestID)
}

// handleOrderUpdates streams applied extractions of one session until the
// client leaves or the session ends. Only the writer goroutine writes to
// the connection.
func (h *OrderHandler) handleOrderUpdates(conn *websocket.Conn) {
	c := wsContext(conn)
	sessionID := conn.Params("id")
	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(c),
		"session_id": sessionID,
	}

	h.log.WithFields(fields).Info("Order updates client connected")
	defer h.log.WithFields(fields).Info("Order updates client disconnected")

	updates, unsubscribe := h.orderService.Subscribe(sessionID)

	var current *entity.OrderUpdate
	if s, err := h.orderService.Session(c, sessionID); err == nil && s.Order != nil {
		current = &entity.OrderUpdate{SessionID: sessionID, Version: s.AppliedVersion, Order: *s.Order}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writeOrderUpdates(conn, current, updates)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithFields(fields).Warnf("Order updates read error: %v", err)
			}
			break
		}
	}

	unsubscribe()
	wg.Wait()
}

func (h *OrderHandler) writeOrderUpdates(conn *websocket.Conn, current *entity.OrderUpdate, updates <-chan entity.OrderUpdate) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	if current != nil {
		if err := writeJSON(conn, order.MakeUpdateMessage(*current)); err != nil {
			return
		}
	}

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				deadline := time.Now().Add(wsWriteTimeout)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"), deadline)
				_ = conn.SetReadDeadline(time.Now())
				return
			}
			if err := writeJSON(conn, order.MakeUpdateMessage(u)); err != nil {
				_ = conn.SetReadDeadline(time.Now())
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				_ = conn.SetReadDeadline(time.Now())
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v interface{}) error {
	data, err := jsoniter.Marshal(v)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// agentWriter serialises writes coming from the agent's read goroutine and
// drops them once the browser side is gone.
type agentWriter struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (w *agentWriter) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errRelayClosed
	}
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return w.conn.WriteMessage(messageType, data)
}

func (w *agentWriter) writeJSON(v interface{}) error {
	data, err := jsoniter.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

// hangUp tells the browser the agent left and unblocks the read loop.
func (w *agentWriter) hangUp(reason string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	deadline := time.Now().Add(wsWriteTimeout)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
	_ = w.conn.SetReadDeadline(time.Now())
}

func (w *agentWriter) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// handleAgentRelay bridges the browser microphone to the voice agent.
// Binary frames carry audio both ways; transcripts go back as JSON text
// frames.
func (h *OrderHandler) handleAgentRelay(conn *websocket.Conn) {
	c := wsContext(conn)
	sessionID := conn.Params("id")
	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(c),
		"session_id": sessionID,
	}

	h.log.WithFields(fields).Info("Agent relay client connected")
	defer h.log.WithFields(fields).Info("Agent relay client disconnected")

	w := &agentWriter{conn: conn}
	defer w.close()

	conv, err := h.orderService.RelayAgent(c, sessionID, orderService.AgentCallbacks{
		OnTranscript: func(e entity.TranscriptEntry) {
			_ = w.writeJSON(order.TranscriptMessage{Type: "transcript", Source: e.Source, Text: e.Text})
		},
		OnAudio: func(chunk []byte) {
			_ = w.write(websocket.BinaryMessage, chunk)
		},
		OnInterruption: func() {
			_ = w.writeJSON(map[string]string{"type": "interruption"})
		},
		OnError: func(err error) {
			_ = w.writeJSON(map[string]string{"type": "error", "error": err.Error()})
		},
		OnDisconnect: func() {
			w.hangUp("agent disconnected")
		},
	})
	if err != nil {
		h.log.WithFields(fields).Warnf("Agent relay could not start: %v", err)
		_ = w.writeJSON(map[string]string{"type": "error", "error": err.Error()})
		w.hangUp("agent unavailable")
		return
	}
	defer func() {
		w.close()
		_ = conv.EndSession()
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithFields(fields).Warnf("Agent relay read error: %v", err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			continue
		}
		if err := conv.SendAudio(message); err != nil {
			h.log.WithFields(fields).Warnf("Failed to forward audio to agent: %v", err)
			return
		}
	}
}
