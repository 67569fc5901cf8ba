package convai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeAgent struct {
	t        *testing.T
	init     chan map[string]any
	pong     chan map[string]any
	audio    chan map[string]any
	upgrader websocket.Upgrader
}

func newFakeAgent(t *testing.T) *fakeAgent {
	return &fakeAgent{
		t:     t,
		init:  make(chan map[string]any, 1),
		pong:  make(chan map[string]any, 1),
		audio: make(chan map[string]any, 1),
	}
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "/v1/convai/conversation", r.URL.Path)
	assert.Equal(f.t, "agent-1", r.URL.Query().Get("agent_id"))
	assert.Equal(f.t, "xi-key", r.Header.Get("xi-api-key"))

	conn, err := f.upgrader.Upgrade(w, r, nil)
	require.NoError(f.t, err)
	defer conn.Close()

	var initMsg map[string]any
	require.NoError(f.t, conn.ReadJSON(&initMsg))
	f.init <- initMsg

	send := func(raw string) {
		require.NoError(f.t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
	}

	send(`{"type":"conversation_initiation_metadata","conversation_initiation_metadata_event":{"conversation_id":"conv-9"}}`)
	send(`{"type":"ping","ping_event":{"event_id":7,"ping_ms":20}}`)

	var pong map[string]any
	require.NoError(f.t, conn.ReadJSON(&pong))
	f.pong <- pong

	send(`{"type":"user_transcript","user_transcription_event":{"user_transcript":"Two tacos please"}}`)
	send(`{"type":"agent_response","agent_response_event":{"agent_response":"Anything else?"}}`)
	send(`{"type":"audio","audio_event":{"audio_base_64":"` + base64.StdEncoding.EncodeToString([]byte("pcm")) + `","event_id":8}}`)

	var chunk map[string]any
	require.NoError(f.t, conn.ReadJSON(&chunk))
	f.audio <- chunk

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestConversationRoundTrip(t *testing.T) {
	agent := newFakeAgent(t)
	ts := httptest.NewServer(agent)
	defer ts.Close()

	var (
		mu          sync.Mutex
		messages    []Message
		audio       [][]byte
		disconnects int32
		connected   = make(chan string, 1)
		gotAudio    = make(chan struct{}, 1)
	)

	cli := New(Config{
		BaseURL: "ws" + strings.TrimPrefix(ts.URL, "http"),
		APIKey:  "xi-key",
		AgentID: "agent-1",
	}, quietLogger())

	conv, err := cli.StartSession(context.Background(), SessionConfig{
		Prompt:       "You are a restaurant assistant.",
		FirstMessage: "Hello!",
		Language:     "en",
		VoiceID:      "voice-1",
	}, Callbacks{
		OnConnect: func(id string) { connected <- id },
		OnMessage: func(m Message) {
			mu.Lock()
			messages = append(messages, m)
			mu.Unlock()
		},
		OnAudio: func(chunk []byte) {
			mu.Lock()
			audio = append(audio, chunk)
			mu.Unlock()
			gotAudio <- struct{}{}
		},
		OnDisconnect: func() { atomic.AddInt32(&disconnects, 1) },
	})
	require.NoError(t, err)

	initMsg := <-agent.init
	assert.Equal(t, "conversation_initiation_client_data", initMsg["type"])
	override := initMsg["conversation_config_override"].(map[string]any)
	agentCfg := override["agent"].(map[string]any)
	assert.Equal(t, "You are a restaurant assistant.", agentCfg["prompt"].(map[string]any)["prompt"])
	assert.Equal(t, "Hello!", agentCfg["first_message"])
	assert.Equal(t, "en", agentCfg["language"])
	assert.Equal(t, "voice-1", override["tts"].(map[string]any)["voice_id"])

	assert.Equal(t, "conv-9", <-connected)
	assert.Equal(t, "conv-9", conv.ConversationID())

	pong := <-agent.pong
	assert.Equal(t, "pong", pong["type"])
	assert.EqualValues(t, 7, pong["event_id"])

	select {
	case <-gotAudio:
	case <-time.After(2 * time.Second):
		t.Fatal("agent audio not delivered")
	}

	require.NoError(t, conv.SendAudio([]byte("mic")))
	chunk := <-agent.audio
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mic")), chunk["user_audio_chunk"])

	require.NoError(t, conv.EndSession())
	require.NoError(t, conv.EndSession())

	mu.Lock()
	assert.Equal(t, []Message{
		{Source: SourceUser, Text: "Two tacos please"},
		{Source: SourceAgent, Text: "Anything else?"},
	}, messages)
	assert.Equal(t, [][]byte{[]byte("pcm")}, audio)
	mu.Unlock()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&disconnects) == 1 }, time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, conv.SendAudio([]byte("late")), ErrSessionClosed)
}

func TestStartSessionRequiresAgentID(t *testing.T) {
	_, err := New(Config{}, quietLogger()).StartSession(context.Background(), SessionConfig{}, Callbacks{})
	assert.Error(t, err)
}

func TestInboundEventDecoding(t *testing.T) {
	var ev inboundEvent
	require.NoError(t, json.Unmarshal([]byte(`{"type":"interruption","interruption_event":{"event_id":3}}`), &ev))
	assert.Equal(t, eventInterruption, ev.Type)
}
