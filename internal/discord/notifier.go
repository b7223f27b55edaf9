// Package discord integrates the portal with a Discord guild: new requests
// are announced to an administrator channel with approve/decline buttons, and
// subscription management runs through /sub slash commands with modal forms
// and staged confirmations. All state between interactions travels in custom
// ids or the staging store; the package keeps none of its own.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

// messageSender is the slice of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier announces newly created requests to the configured administrator
// channel. It satisfies the request service's notification contract, which
// treats a failed announcement as a failed submission.
type Notifier struct {
	session   messageSender
	channelID string
}

// NewNotifier returns a Notifier posting to channelID through session.
func NewNotifier(session messageSender, channelID string) *Notifier {
	return &Notifier{session: session, channelID: channelID}
}

// RequestCreated posts the request embed with its approve/decline buttons.
func (n *Notifier) RequestCreated(ctx context.Context, req *domain.Request, details *tmdb.MediaDetails) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := n.session.ChannelMessageSendComplex(n.channelID, requestMessage(req, details)); err != nil {
		return fmt.Errorf("posting request %s to channel %s: %w", req.ID, n.channelID, err)
	}
	return nil
}
