package convai

const (
	eventConversationInitiation = "conversation_initiation_client_data"
	eventInitiationMetadata     = "conversation_initiation_metadata"
	eventUserTranscript         = "user_transcript"
	eventAgentResponse          = "agent_response"
	eventAudio                  = "audio"
	eventPing                   = "ping"
	eventPong                   = "pong"
	eventInterruption           = "interruption"
)

type initiationMessage struct {
	Type     string         `json:"type"`
	Override configOverride `json:"conversation_config_override"`
}

type configOverride struct {
	Agent agentOverride `json:"agent"`
	TTS   *ttsOverride  `json:"tts,omitempty"`
}

type agentOverride struct {
	Prompt       *promptOverride `json:"prompt,omitempty"`
	FirstMessage string          `json:"first_message,omitempty"`
	Language     string          `json:"language,omitempty"`
}

type promptOverride struct {
	Prompt string `json:"prompt"`
}

type ttsOverride struct {
	VoiceID string `json:"voice_id"`
}

type audioChunkMessage struct {
	UserAudioChunk string `json:"user_audio_chunk"`
}

type pongMessage struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
}

type inboundEvent struct {
	Type string `json:"type"`

	Metadata *struct {
		ConversationID    string `json:"conversation_id"`
		AgentOutputFormat string `json:"agent_output_audio_format"`
	} `json:"conversation_initiation_metadata_event,omitempty"`

	UserTranscription *struct {
		UserTranscript string `json:"user_transcript"`
	} `json:"user_transcription_event,omitempty"`

	AgentResponse *struct {
		AgentResponse string `json:"agent_response"`
	} `json:"agent_response_event,omitempty"`

	Audio *struct {
		AudioBase64 string `json:"audio_base_64"`
		EventID     int64  `json:"event_id"`
	} `json:"audio_event,omitempty"`

	Ping *struct {
		EventID int64 `json:"event_id"`
		PingMs  int64 `json:"ping_ms"`
	} `json:"ping_event,omitempty"`
}
