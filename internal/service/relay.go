package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/veilcare/counsel-relay-go/internal/model"
	"github.com/veilcare/counsel-relay-go/internal/platform"
)

// RoutingResolver maps the channel a message arrived in to its paired
// counterpart.
type RoutingResolver interface {
	ResolveRouting(ctx context.Context, channelID int64) (*model.Routing, error)
}

// MessageSender delivers the forwarded text.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *platform.InlineKeyboard) error
}

// Relay forwards each inbound channel message to its paired channel, tagged
// with the sender's display name: the alias on the counselor side, the
// counselor's name on the user side. The core API decides which.
type Relay struct {
	resolver RoutingResolver
	sender   MessageSender
}

func NewRelay(resolver RoutingResolver, sender MessageSender) *Relay {
	return &Relay{resolver: resolver, sender: sender}
}

// HandleGroupMessage forwards one text message. Empty and whitespace-only
// bodies are dropped before any routing lookup. A channel with no routing
// record is an error: nothing legitimately receives traffic without a prior
// successful session start.
func (r *Relay) HandleGroupMessage(ctx context.Context, channelID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	routing, err := r.resolver.ResolveRouting(ctx, channelID)
	if err != nil {
		return err
	}

	forward := fmt.Sprintf("*From: %s*\n%s", routing.DisplayName, text)
	if err := r.sender.SendMessage(ctx, routing.TargetChannelID, forward, nil); err != nil {
		return err
	}

	log.Debug().
		Int64("sourceChannelId", channelID).
		Int64("targetChannelId", routing.TargetChannelID).
		Msg("message relayed")
	return nil
}
