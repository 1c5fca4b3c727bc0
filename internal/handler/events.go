package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/execcoach/coach/internal/ctxkeys"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/transport"
)

const maxEventBytes = 64 << 10

// EventDispatcher queues an event behind the user's earlier events.
type EventDispatcher interface {
	Dispatch(ev model.InboundEvent, done func(model.OutboundReply)) error
}

// KeyLimiter admits or rejects one request for a key.
type KeyLimiter interface {
	Allow(key string) bool
}

// EventsHandler accepts signed inbound events and answers with the reply.
type EventsHandler struct {
	verifier   *standardwebhooks.Webhook
	dispatcher EventDispatcher
	limiter    KeyLimiter
	timeout    time.Duration
}

// NewEventsHandler limits events per end user when limiter is not nil. One
// integrator host relays many users, so the client IP is the wrong key.
func NewEventsHandler(verifier *standardwebhooks.Webhook, dispatcher EventDispatcher, limiter KeyLimiter, timeout time.Duration) *EventsHandler {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EventsHandler{
		verifier:   verifier,
		dispatcher: dispatcher,
		limiter:    limiter,
		timeout:    timeout,
	}
}

func (h *EventsHandler) Receive(w http.ResponseWriter, r *http.Request) {
	requestID := ctxkeys.RequestID(r.Context())

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "event too large")
		return
	}

	err = h.verifier.Verify(payload, r.Header)
	if err != nil {
		slog.Warn("event signature rejected", "request_id", requestID, "error", err)
		writeError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	var ev model.InboundEvent
	err = json.Unmarshal(payload, &ev)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event body")
		return
	}

	ev.UserID = strings.TrimSpace(ev.UserID)
	if ev.UserID == "" || strings.TrimSpace(ev.Text) == "" {
		writeError(w, http.StatusBadRequest, "userId and text are required")
		return
	}
	if channel, _ := transport.SplitAddress(ev.UserID); channel != transport.ChannelWebhook {
		ev.UserID = transport.Address(transport.ChannelWebhook, ev.UserID)
	}

	if h.limiter != nil && !h.limiter.Allow(ev.UserID) {
		slog.Warn("event rate limit exceeded", "request_id", requestID, "external_id", ev.UserID)
		writeError(w, http.StatusTooManyRequests, "too many events for this user")
		return
	}

	replies := make(chan model.OutboundReply, 1)
	err = h.dispatcher.Dispatch(ev, func(reply model.OutboundReply) {
		replies <- reply
	})
	if errors.Is(err, transport.ErrDispatcherClosed) {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	if err != nil {
		slog.Error("event dispatch failed", "request_id", requestID, "external_id", ev.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "dispatch failed")
		return
	}

	timer := time.NewTimer(h.timeout)
	defer timer.Stop()

	select {
	case reply := <-replies:
		writeJSON(w, http.StatusOK, reply)
	case <-timer.C:
		slog.Warn("event reply timed out", "request_id", requestID, "external_id", ev.UserID)
		writeError(w, http.StatusGatewayTimeout, "reply timed out")
	case <-r.Context().Done():
	}
}
