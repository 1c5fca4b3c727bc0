// Package transport connects the coach to messaging channels: Telegram long
// polling and signed webhooks. Users are addressed by "<channel>:<id>".
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/execcoach/coach/internal/model"
)

const (
	ChannelTelegram = "telegram"
	ChannelWebhook  = "webhook"
)

var ErrUnknownChannel = errors.New("no sender for channel")

type Sender interface {
	Send(ctx context.Context, reply model.OutboundReply) error
}

// Router picks the sender from the channel prefix of the user id.
type Router struct {
	senders map[string]Sender
}

func NewRouter() *Router {
	return &Router{senders: make(map[string]Sender)}
}

func (r *Router) Register(channel string, sender Sender) {
	r.senders[channel] = sender
}

func (r *Router) Send(ctx context.Context, reply model.OutboundReply) error {
	channel, _ := SplitAddress(reply.UserID)
	sender, ok := r.senders[channel]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return sender.Send(ctx, reply)
}

// Address builds the external user id for a channel.
func Address(channel, id string) string {
	return channel + ":" + id
}

func SplitAddress(externalID string) (channel, id string) {
	channel, id, ok := strings.Cut(externalID, ":")
	if !ok {
		return "", externalID
	}
	return channel, id
}
