// Package bridge speaks HTTP with the external chat collaborator process.
// Inbound messages arrive as JSON posts and are handed to the core over a
// channel; outbound notifications are posted back to the collaborator.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LinkAnalyzer/internal/domain"
	"LinkAnalyzer/internal/ports"
)

const inboundBuffer = 64

// inboundPayload is the wire shape the collaborator posts for each message.
// Sender eligibility (which accounts' messages count) is decided by the
// collaborator before posting; the bridge does not second-guess it.
type inboundPayload struct {
	Text     string `json:"text"`
	SenderID string `json:"sender_id"`
	ChatID   string `json:"chat_id"`
	IsGroup  bool   `json:"is_group"`
}

// outboundPayload is the wire shape for notifications sent back.
type outboundPayload struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Bridge implements ports.ChatTransport over a small HTTP pair: a local
// listener for inbound messages and a POST endpoint for outbound text.
type Bridge struct {
	sendURL  string
	client   *http.Client
	messages chan domain.InboundMessage
	server   *http.Server
	logger   *slog.Logger
}

var _ ports.ChatTransport = (*Bridge)(nil)

// New prepares the bridge; Start must be called before messages flow.
func New(listenAddr, sendURL string, logger *slog.Logger) *Bridge {
	b := &Bridge{
		sendURL:  sendURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		messages: make(chan domain.InboundMessage, inboundBuffer),
		logger:   logger.With("component", "bridge"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/messages", b.handleMessage)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	b.server = &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return b
}

// Start serves the inbound listener until Shutdown.
func (b *Bridge) Start() error {
	b.logger.Info("bridge listening", "addr", b.server.Addr)
	if err := b.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("bridge listen: %w", err)
	}
	return nil
}

// Shutdown stops the listener and closes the message channel.
func (b *Bridge) Shutdown(ctx context.Context) error {
	err := b.server.Shutdown(ctx)
	close(b.messages)
	return err
}

// Messages exposes the inbound stream to the core.
func (b *Bridge) Messages() <-chan domain.InboundMessage {
	return b.messages
}

func (b *Bridge) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload inboundPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	// Status broadcasts are noise, not work.
	if payload.ChatID == "status@broadcast" {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		w.WriteHeader(http.StatusAccepted)
		return
	}

	msg := domain.InboundMessage{
		Text:     payload.Text,
		SenderID: payload.SenderID,
		ChatID:   payload.ChatID,
		IsGroup:  payload.IsGroup,
	}

	select {
	case b.messages <- msg:
		w.WriteHeader(http.StatusAccepted)
	default:
		b.logger.Warn("inbound buffer full, dropping message", "chat_id", payload.ChatID)
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}
}

// Send posts a plain-text notification back to the collaborator.
func (b *Bridge) Send(ctx context.Context, chatID, text string) error {
	if b.sendURL == "" {
		return fmt.Errorf("bridge send URL not configured")
	}

	body, err := json.Marshal(outboundPayload{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal outbound: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.sendURL, strings.NewReader(string(body)))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bridge send error: %s", resp.Status)
	}

	return nil
}
