package orderService

import (
	"Replicaide/internal/api/order"
	"Replicaide/internal/entity"
	contextPkg "Replicaide/pkg/context"
	"Replicaide/pkg/convai"
	"context"

	"github.com/sirupsen/logrus"
)

// AgentCallbacks receive the relayed side of a voice agent conversation.
// Transcript turns are already appended to the session when OnTranscript
// runs.
type AgentCallbacks struct {
	OnTranscript   func(entity.TranscriptEntry)
	OnAudio        func(chunk []byte)
	OnInterruption func()
	OnError        func(error)
	OnDisconnect   func()
}

type relay struct {
	conv convai.IConversation
}

// RelayAgent opens a voice agent conversation configured from the session.
// Only one conversation is attached to a session; a new relay ends the
// previous one.
func (s *orderService) RelayAgent(c context.Context, id string, cb AgentCallbacks) (convai.IConversation, error) {
	requestID := contextPkg.GetRequestID(c)

	if s.agent == nil {
		return nil, order.ErrAgentUnavailable
	}

	session, err := s.sessions.Get(c, id)
	if err != nil {
		return nil, err
	}

	r := &relay{}
	bg := contextPkg.Detach(c)

	conv, err := s.agent.StartSession(c, convai.SessionConfig{
		Prompt:       session.Agent.Prompt,
		FirstMessage: session.Agent.FirstMessage,
		Language:     session.Agent.Language,
		VoiceID:      session.Agent.VoiceID,
	}, convai.Callbacks{
		OnConnect: func(conversationID string) {
			s.log.WithFields(logrus.Fields{
				"request_id":      requestID,
				"session_id":      id,
				"conversation_id": conversationID,
			}).Info("Voice agent connected")
		},
		OnMessage: func(m convai.Message) {
			entry := entity.TranscriptEntry{Source: transcriptSource(m.Source), Text: m.Text}
			if _, err := s.AppendMessage(bg, id, entry); err != nil {
				s.log.WithFields(logrus.Fields{
					"request_id": requestID,
					"session_id": id,
					"error":      err.Error(),
				}).Warn("Failed to record agent transcript")
				return
			}
			if cb.OnTranscript != nil {
				cb.OnTranscript(entry)
			}
		},
		OnAudio:        cb.OnAudio,
		OnInterruption: cb.OnInterruption,
		OnError: func(err error) {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Voice agent error")
			if cb.OnError != nil {
				cb.OnError(err)
			}
		},
		OnDisconnect: func() {
			s.releaseConversation(id, r)
			if cb.OnDisconnect != nil {
				cb.OnDisconnect()
			}
		},
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"session_id": id,
			"error":      err.Error(),
		}).Error("Failed to start voice agent conversation")
		return nil, order.ErrAgentUnavailable
	}

	s.convMu.Lock()
	r.conv = conv
	previous := s.conversations[id]
	s.conversations[id] = r
	s.convMu.Unlock()

	if previous != nil && previous.conv != nil {
		_ = previous.conv.EndSession()
	}

	return conv, nil
}

func (s *orderService) releaseConversation(id string, r *relay) {
	s.convMu.Lock()
	defer s.convMu.Unlock()

	if s.conversations[id] == r {
		delete(s.conversations, id)
	}
}

func (s *orderService) endConversation(id string) {
	s.convMu.Lock()
	r := s.conversations[id]
	delete(s.conversations, id)
	s.convMu.Unlock()

	if r != nil && r.conv != nil {
		if err := r.conv.EndSession(); err != nil {
			s.log.WithFields(logrus.Fields{
				"session_id": id,
				"error":      err.Error(),
			}).Warn("Failed to end voice agent conversation")
		}
	}
}

func transcriptSource(agentSource string) string {
	if agentSource == convai.SourceAgent {
		return entity.SourceAgent
	}
	return entity.SourceUser
}
