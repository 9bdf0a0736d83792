package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shiksha-ai/server/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client to server message types
const (
	MessageTypeChat           MessageType = "chat"
	MessageTypeListeningStart MessageType = "listening_start"
	MessageTypeListeningEnd   MessageType = "listening_end"
	MessageTypePing           MessageType = "ping"
)

// Server to client message types
const (
	MessageTypeSession       MessageType = "session"
	MessageTypeChatResponse  MessageType = "chat_response"
	MessageTypeTranscription MessageType = "transcription"
	MessageTypeSpeakingStart MessageType = "speaking_start"
	MessageTypeSpeakingEnd   MessageType = "speaking_end"
	MessageTypePong          MessageType = "pong"
	MessageTypeError         MessageType = "error"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ClientMessage is any message a client sends as text. Fields not used by
// a type are ignored.
type ClientMessage struct {
	BaseMessage
	Message     string `json:"message,omitempty"`
	MessageType string `json:"messageType,omitempty"`
	Subject     string `json:"subject,omitempty"`
	// Speak asks for the reply to be synthesized and streamed as audio.
	Speak bool `json:"speak,omitempty"`
	// MimeType describes the binary audio frames that follow listening_start.
	MimeType string `json:"mimeType,omitempty"`
}

// SessionMessage announces the session bound to the connection.
type SessionMessage struct {
	BaseMessage
	SessionID string `json:"sessionId,omitempty"`
	Language  string `json:"language"`
}

// ChatResponseMessage carries a tutor reply.
type ChatResponseMessage struct {
	BaseMessage
	Chat entities.ChatResult `json:"chat"`
}

// TranscriptionMessage reports what was heard before it is sent to the tutor.
type TranscriptionMessage struct {
	BaseMessage
	Transcription entities.TranscriptionResult `json:"transcription"`
}

// SpeakingMessage brackets the binary audio frames of a spoken reply.
type SpeakingMessage struct {
	BaseMessage
	SessionID   string `json:"sessionId"`
	ContentType string `json:"contentType,omitempty"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"errorCode"`
	Message string `json:"message"`
}

// ParseClientMessage decodes and checks a text frame from a client.
func ParseClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch msg.Type {
	case MessageTypeChat:
		if msg.Message == "" {
			return nil, fmt.Errorf("message is required")
		}
	case MessageTypeListeningStart, MessageTypeListeningEnd, MessageTypePing:
	case "":
		return nil, fmt.Errorf("type is required")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}

	if msg.Timestamp == "" {
		msg.Timestamp = now()
	}
	return &msg, nil
}

func base(t MessageType) BaseMessage {
	return BaseMessage{Type: t, Timestamp: now()}
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: base(MessageTypeError),
		Code:        code,
		Message:     message,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage() *PongMessage {
	return &PongMessage{BaseMessage: base(MessageTypePong)}
}
