package convai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const DefaultBaseURL = "wss://api.elevenlabs.io"

const (
	SourceUser  = "user"
	SourceAgent = "ai"
)

var ErrSessionClosed = errors.New("conversation already ended")

type Config struct {
	BaseURL string
	APIKey  string
	AgentID string
}

// SessionConfig overrides the agent defaults for one conversation.
type SessionConfig struct {
	Prompt       string
	FirstMessage string
	Language     string
	VoiceID      string
}

type Message struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Callbacks are invoked from the connection's read goroutine. OnDisconnect
// fires exactly once.
type Callbacks struct {
	OnConnect      func(conversationID string)
	OnMessage      func(Message)
	OnAudio        func(chunk []byte)
	OnInterruption func()
	OnError        func(error)
	OnDisconnect   func()
}

type IClient interface {
	StartSession(ctx context.Context, cfg SessionConfig, cb Callbacks) (IConversation, error)
}

type IConversation interface {
	SendAudio(chunk []byte) error
	EndSession() error
	ConversationID() string
}

type client struct {
	cfg          Config
	dialer       *websocket.Dialer
	writeTimeout time.Duration
	log          *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	return &client{
		cfg:          cfg,
		dialer:       &dialer,
		writeTimeout: 5 * time.Second,
		log:          log,
	}
}

func (c *client) endpoint() (string, error) {
	u, err := url.Parse(strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/convai/conversation")
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("agent_id", c.cfg.AgentID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *client) StartSession(ctx context.Context, cfg SessionConfig, cb Callbacks) (IConversation, error) {
	if c.cfg.AgentID == "" {
		return nil, errors.New("voice agent id is not configured")
	}

	endpoint, err := c.endpoint()
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if c.cfg.APIKey != "" {
		header.Set("xi-api-key", c.cfg.APIKey)
	}

	conn, _, err := c.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to voice agent: %w", err)
	}

	conv := &conversation{
		conn:         conn,
		cb:           cb,
		writeTimeout: c.writeTimeout,
		log:          c.log,
		done:         make(chan struct{}),
	}

	initMsg := initiationMessage{
		Type: eventConversationInitiation,
		Override: configOverride{
			Agent: agentOverride{
				FirstMessage: cfg.FirstMessage,
				Language:     cfg.Language,
			},
		},
	}
	if cfg.Prompt != "" {
		initMsg.Override.Agent.Prompt = &promptOverride{Prompt: cfg.Prompt}
	}
	if cfg.VoiceID != "" {
		initMsg.Override.TTS = &ttsOverride{VoiceID: cfg.VoiceID}
	}

	if err := conv.writeJSON(initMsg); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to send conversation config: %w", err)
	}

	go conv.readLoop()

	return conv, nil
}

type conversation struct {
	conn         *websocket.Conn
	cb           Callbacks
	writeTimeout time.Duration
	log          *logrus.Logger

	writeMu        sync.Mutex
	idMu           sync.RWMutex
	conversationID string

	closeOnce      sync.Once
	disconnectOnce sync.Once
	closing        bool
	done           chan struct{}
}

func (c *conversation) ConversationID() string {
	c.idMu.RLock()
	defer c.idMu.RUnlock()
	return c.conversationID
}

func (c *conversation) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closing {
		return ErrSessionClosed
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *conversation) SendAudio(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	return c.writeJSON(audioChunkMessage{
		UserAudioChunk: base64.StdEncoding.EncodeToString(chunk),
	})
}

// EndSession sends a normal closure frame and waits briefly for the agent to
// acknowledge it before dropping the connection.
func (c *conversation) EndSession() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		c.closing = true
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
		err = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.writeMu.Unlock()

		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
		}
		_ = c.conn.Close()
		c.disconnect()
	})

	if errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	return err
}

func (c *conversation) disconnect() {
	c.disconnectOnce.Do(func() {
		if c.cb.OnDisconnect != nil {
			c.cb.OnDisconnect()
		}
	})
}

func (c *conversation) readLoop() {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
		c.disconnect()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.writeMu.Lock()
			closing := c.closing
			c.writeMu.Unlock()

			if !closing && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.reportError(fmt.Errorf("voice agent connection lost: %w", err))
			}
			return
		}

		var ev inboundEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			c.reportError(fmt.Errorf("invalid voice agent event: %w", err))
			continue
		}

		c.dispatch(ev)
	}
}

func (c *conversation) dispatch(ev inboundEvent) {
	switch ev.Type {
	case eventInitiationMetadata:
		if ev.Metadata == nil {
			return
		}
		c.idMu.Lock()
		c.conversationID = ev.Metadata.ConversationID
		c.idMu.Unlock()
		if c.cb.OnConnect != nil {
			c.cb.OnConnect(ev.Metadata.ConversationID)
		}

	case eventPing:
		if ev.Ping == nil {
			return
		}
		if err := c.writeJSON(pongMessage{Type: eventPong, EventID: ev.Ping.EventID}); err != nil && !errors.Is(err, ErrSessionClosed) {
			c.reportError(fmt.Errorf("failed to answer ping: %w", err))
		}

	case eventUserTranscript:
		if ev.UserTranscription != nil && c.cb.OnMessage != nil {
			c.cb.OnMessage(Message{Source: SourceUser, Text: ev.UserTranscription.UserTranscript})
		}

	case eventAgentResponse:
		if ev.AgentResponse != nil && c.cb.OnMessage != nil {
			c.cb.OnMessage(Message{Source: SourceAgent, Text: ev.AgentResponse.AgentResponse})
		}

	case eventAudio:
		if ev.Audio == nil || c.cb.OnAudio == nil {
			return
		}
		chunk, err := base64.StdEncoding.DecodeString(ev.Audio.AudioBase64)
		if err != nil {
			c.reportError(fmt.Errorf("invalid agent audio chunk: %w", err))
			return
		}
		c.cb.OnAudio(chunk)

	case eventInterruption:
		if c.cb.OnInterruption != nil {
			c.cb.OnInterruption()
		}

	default:
		c.log.WithField("type", ev.Type).Debug("Ignoring voice agent event")
	}
}

func (c *conversation) reportError(err error) {
	c.log.WithField("error", err.Error()).Warn("Voice agent error")
	if c.cb.OnError != nil {
		c.cb.OnError(err)
	}
}
