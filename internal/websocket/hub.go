package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/shiksha-ai/server/domain/entities"
	"github.com/shiksha-ai/server/internal/apperr"
	"github.com/shiksha-ai/server/internal/language"
	"github.com/shiksha-ai/server/internal/validation"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	// Audio frames sent back per binary message.
	audioChunkSize = 32 * 1024
)

var (
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Upper bound for one chat turn, model and speech synthesis included.
	turnTimeout = 90 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// ChatResponder answers chat messages.
type ChatResponder interface {
	SendMessage(ctx context.Context, userID string, in entities.ChatInput) (entities.ChatResult, error)
}

// SpeechProcessor turns learner audio into text and replies into audio.
type SpeechProcessor interface {
	Transcribe(ctx context.Context, userID string, in entities.SpeechInput) (entities.TranscriptionResult, error)
	Synthesize(ctx context.Context, userID string, in entities.SynthesisInput) (*entities.SpeechSynthesis, error)
}

// Hub maintains the set of connected chat clients.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Closed when Run returns.
	done chan struct{}

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	chat   ChatResponder
	speech SpeechProcessor
	logger *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(chat ChatResponder, speech SpeechProcessor, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		chat:       chat,
		speech:     speech,
		logger:     logger,
	}
}

// Run starts the hub's main loop. When ctx is cancelled every connection
// is closed and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("userID", client.userID),
				zap.String("sessionID", client.currentSession()))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered", zap.String("userID", client.userID))

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.conn.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("Hub stopped")
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	userID   string
	language language.Tag
	logger   *zap.Logger

	mutex     sync.Mutex
	sessionID string

	// Audio collected between listening_start and listening_end.
	listening bool
	audio     bytes.Buffer
	audioMime string
	speak     bool
}

// Connect upgrades the request and serves the connection until it closes.
// sessionID may be empty; the first chat message then starts a session.
func Connect(h *Hub, c echo.Context, userID, sessionID string, lang language.Tag) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:       h,
		conn:      conn,
		send:      make(chan WriteData, 256),
		userID:    userID,
		language:  lang,
		sessionID: sessionID,
		logger:    h.logger.With(zap.String("userID", userID)),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return nil
	}

	client.sendJSON(SessionMessage{
		BaseMessage: base(MessageTypeSession),
		SessionID:   sessionID,
		Language:    lang.Code,
	})

	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub. Text
// frames are handled in order, so one client never has two turns in flight.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
			close(c.send)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			// Pongs are not read while a turn runs.
			c.conn.SetReadDeadline(time.Now().Add(turnTimeout + pongWait))
			c.processMessage(message)
			c.conn.SetReadDeadline(time.Now().Add(pongWait))
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage handles one text frame from the client.
func (c *Client) processMessage(message []byte) {
	msg, err := ParseClientMessage(message)
	if err != nil {
		c.logger.Warn("Rejected client message", zap.Error(err))
		c.sendJSON(CreateErrorMessage(string(apperr.ValidationFailure), err.Error()))
		return
	}

	switch msg.Type {
	case MessageTypePing:
		c.sendJSON(CreatePongMessage())
	case MessageTypeChat:
		c.handleChat(msg)
	case MessageTypeListeningStart:
		c.handleListeningStart(msg)
	case MessageTypeListeningEnd:
		c.handleListeningEnd()
	}
}

// processBinaryAudioChunk buffers audio while the client is listening.
func (c *Client) processBinaryAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.listening {
		c.logger.Warn("Received binary audio chunk outside listening", zap.Int("size", len(data)))
		return
	}
	if int64(c.audio.Len()+len(data)) > validation.MaxAudioBytes {
		c.listening = false
		c.audio.Reset()
		c.sendJSON(CreateErrorMessage(string(apperr.PayloadTooLarge), "Audio is too large"))
		return
	}
	c.audio.Write(data)
}

func (c *Client) handleListeningStart(msg *ClientMessage) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.listening = true
	c.audio.Reset()
	c.audioMime = msg.MimeType
	c.speak = msg.Speak

	c.logger.Info("Listening started", zap.String("sessionID", c.sessionID))
}

// handleListeningEnd transcribes the buffered audio and sends the text to
// the tutor as a spoken question.
func (c *Client) handleListeningEnd() {
	c.mutex.Lock()
	if !c.listening {
		c.mutex.Unlock()
		c.sendJSON(CreateErrorMessage(string(apperr.ValidationFailure), "listening_end without listening_start"))
		return
	}
	c.listening = false
	audio := &entities.Asset{
		Data:     bytes.Clone(c.audio.Bytes()),
		MimeType: c.audioMime,
		Size:     int64(c.audio.Len()),
	}
	c.audio.Reset()
	speak := c.speak
	if audio.MimeType == "" && len(audio.Data) > 0 {
		audio.MimeType = mimetype.Detect(audio.Data).String()
	}
	c.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	in, err := validation.Speech(audio, c.language.Code)
	if err != nil {
		c.sendError(err)
		return
	}
	transcription, err := c.hub.speech.Transcribe(ctx, c.userID, in)
	if err != nil {
		c.sendError(err)
		return
	}
	c.sendJSON(TranscriptionMessage{
		BaseMessage:   base(MessageTypeTranscription),
		Transcription: transcription,
	})
	if transcription.Transcript == "" {
		return
	}

	c.respond(ctx, &ClientMessage{
		BaseMessage: base(MessageTypeChat),
		Message:     transcription.Transcript,
		MessageType: "pronunciation_help",
		Speak:       speak,
	})
}

func (c *Client) handleChat(msg *ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()
	c.respond(ctx, msg)
}

// respond runs one chat turn and, when asked, streams the spoken reply.
func (c *Client) respond(ctx context.Context, msg *ClientMessage) {
	in, err := validation.Chat(msg.Message, c.currentSession(), c.language.Code, msg.MessageType, msg.Subject)
	if err != nil {
		c.sendError(err)
		return
	}

	result, err := c.hub.chat.SendMessage(ctx, c.userID, in)
	if err != nil {
		c.sendError(err)
		return
	}
	c.setSession(result.SessionID)

	c.sendJSON(ChatResponseMessage{
		BaseMessage: base(MessageTypeChatResponse),
		Chat:        result,
	})

	c.logger.Info("Chat turn completed",
		zap.String("sessionID", result.SessionID),
		zap.Int("historyLength", result.HistoryLength))

	if msg.Speak {
		c.speakReply(ctx, result)
	}
}

func (c *Client) speakReply(ctx context.Context, result entities.ChatResult) {
	lang, err := language.Resolve(result.Language)
	if err != nil {
		lang = c.language
	}
	in, err := validation.Synthesis(result.Response, lang.Code)
	if err != nil {
		c.sendError(err)
		return
	}
	audio, err := c.hub.speech.Synthesize(ctx, c.userID, in)
	if err != nil {
		c.sendError(err)
		return
	}

	c.sendJSON(SpeakingMessage{
		BaseMessage: base(MessageTypeSpeakingStart),
		SessionID:   result.SessionID,
		ContentType: audio.ContentType,
	})
	for start := 0; start < len(audio.Audio); start += audioChunkSize {
		end := min(start+audioChunkSize, len(audio.Audio))
		c.sendData(WriteData{Type: websocket.BinaryMessage, Payload: audio.Audio[start:end]})
	}
	c.sendJSON(SpeakingMessage{
		BaseMessage: base(MessageTypeSpeakingEnd),
		SessionID:   result.SessionID,
	})
}

func (c *Client) currentSession() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.sessionID
}

func (c *Client) setSession(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sessionID = id
}

func (c *Client) sendError(err error) {
	kind := apperr.KindOf(err)
	if kind.Status() >= http.StatusInternalServerError {
		c.logger.Error("Chat turn failed", zap.Error(err))
	} else {
		c.logger.Warn("Chat turn rejected", zap.Error(err))
	}
	c.sendJSON(CreateErrorMessage(string(kind), apperr.Message(err)))
}

func (c *Client) sendJSON(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to encode message", zap.Error(err))
		return
	}
	c.sendData(WriteData{Type: websocket.TextMessage, Payload: payload})
}

// sendData queues a frame. Only the read goroutine sends, and it is also
// the only one that can cause send to be closed, so sends never race a close.
func (c *Client) sendData(d WriteData) {
	select {
	case c.send <- d:
	default:
		c.logger.Warn("Dropping outbound message, client too slow")
	}
}
