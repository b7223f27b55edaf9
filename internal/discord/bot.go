package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/services"
)

// interactionTimeout bounds the backend work done for one interaction.
// Discord invalidates interaction tokens quickly, so waiting longer than this
// only produces responses nobody can see.
const interactionTimeout = 10 * time.Second

// Bot owns the gateway session and routes interactions to the request and
// subscription services. One Bot per process.
type Bot struct {
	// Requests resolves approve/decline button presses.
	Requests *services.RequestService
	// Workflow drives the staged /sub add and /sub remove flows.
	Workflow *services.SubscriptionWorkflow

	session *discordgo.Session
	appID   string
	guildID string
}

// NewBot builds a Bot around a fresh gateway session. The session is not
// opened yet; call Start.
func NewBot(token, appID, guildID string, requests *services.RequestService, workflow *services.SubscriptionWorkflow) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		Requests: requests,
		Workflow: workflow,
		session:  session,
		appID:    appID,
		guildID:  guildID,
	}, nil
}

// Session exposes the underlying gateway session, for wiring the notifier.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// Start opens the gateway connection and syncs the slash command set.
func (b *Bot) Start() error {
	b.session.AddHandler(b.onInteraction)
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	if err := registerCommands(b.session, b.appID, b.guildID); err != nil {
		b.session.Close()
		return err
	}
	log.Info().Str("guild_id", b.guildID).Msg("discord bot connected")
	return nil
}

// Close tears down the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

// onInteraction is the single dispatch point for every gateway interaction.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.onCommand(ctx, s, i)
	case discordgo.InteractionModalSubmit:
		b.onModalSubmit(ctx, s, i)
	case discordgo.InteractionMessageComponent:
		b.onComponent(ctx, s, i)
	}
}

func (b *Bot) onCommand(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	if data.Name != commandSub || len(data.Options) == 0 {
		return
	}

	switch sub := data.Options[0]; sub.Name {
	case "add":
		b.respond(s, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: addModal(),
		})
	case "remove":
		b.respond(s, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: removeModal(),
		})
	case "info":
		if len(sub.Options) == 0 {
			return
		}
		b.onInfo(ctx, s, i, sub.Options[0].StringValue())
	}
}

func (b *Bot) onInfo(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, username string) {
	info, err := b.Workflow.Info(ctx, username)
	if err != nil {
		b.replyEphemeral(s, i, userMessage(err))
		return
	}
	b.respond(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{infoEmbed(username, info, time.Now().UTC())},
		},
	})
}

func (b *Bot) onModalSubmit(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	command, action, _, ok := parseCustomID(data.CustomID)
	if !ok || command != commandSub {
		return
	}

	username := modalValue(data, fieldUsername)

	switch action {
	case actionAddModal:
		months, err := strconv.Atoi(strings.TrimSpace(modalValue(data, fieldDuration)))
		if err != nil {
			b.replyEphemeral(s, i, "Error: the duration must be a positive number.")
			return
		}
		staged, err := b.Workflow.StageSubscription(ctx, username, months, modalValue(data, fieldPayment))
		if err != nil {
			b.replyEphemeral(s, i, userMessage(err))
			return
		}
		b.respond(s, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: subscriptionConfirmMessage(staged),
		})

	case actionRemoveModal:
		staged, err := b.Workflow.StageRemoval(ctx, username, modalValue(data, fieldReason))
		if err != nil {
			b.replyEphemeral(s, i, userMessage(err))
			return
		}
		b.respond(s, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: removalConfirmMessage(staged),
		})
	}
}

func (b *Bot) onComponent(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	command, action, subject, ok := parseCustomID(i.MessageComponentData().CustomID)
	if !ok {
		return
	}

	switch command {
	case commandRequest:
		b.onRequestButton(ctx, s, i, action, subject)
	case commandSub:
		b.onSubscriptionButton(ctx, s, i, action, subject)
	}
}

// onRequestButton applies an approve/decline press to the request record and
// rewrites the announcement message in place so the channel shows the
// outcome and the buttons disappear.
func (b *Bot) onRequestButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, action, requestID string) {
	status := domain.StatusAccepted
	if action == actionDecline {
		status = domain.StatusRejected
	} else if action != actionApprove {
		return
	}

	resolver := interactionUser(i)
	resolved, err := b.Requests.Resolve(ctx, requestID, status, resolver)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("request resolution failed")
		b.updateMessage(s, i, userMessage(err), nil)
		return
	}
	log.Info().Str("request_id", requestID).Str("status", string(resolved.Status)).
		Str("resolved_by", resolver).Msg("request resolved")

	var embeds []*discordgo.MessageEmbed
	if i.Message != nil && len(i.Message.Embeds) > 0 {
		embeds = []*discordgo.MessageEmbed{resolvedEmbed(i.Message.Embeds[0], status, resolver)}
	}
	b.respond(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     embeds,
			Components: []discordgo.MessageComponent{},
		},
	})
}

func (b *Bot) onSubscriptionButton(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, action, accountID string) {
	switch action {
	case actionCancel:
		b.Workflow.Cancel(accountID)
		b.updateMessage(s, i, "Operation cancelled.", nil)

	case actionConfirmSave:
		saved, err := b.Workflow.ConfirmSubscription(ctx, accountID)
		if err != nil {
			b.updateMessage(s, i, userMessage(err), nil)
			return
		}
		log.Info().Str("account_id", accountID).Str("username", saved.AccountUsername).
			Time("end_date", saved.EndDate).Msg("subscription saved")
		b.updateMessage(s, i, fmt.Sprintf("✅ Subscription for **%s** saved!", saved.AccountUsername), nil)

	case actionConfirmDrop:
		terminated, err := b.Workflow.ConfirmRemoval(ctx, accountID)
		if err != nil {
			b.updateMessage(s, i, userMessage(err), nil)
			return
		}
		log.Info().Str("account_id", accountID).Str("username", terminated.AccountUsername).
			Str("reason", terminated.RemovalReason).Msg("subscription and account removed")
		b.updateMessage(s, i, fmt.Sprintf("✅ The media server account of **%s** has been permanently deleted.", terminated.AccountUsername), nil)
	}
}

// interactionUser returns the display name of whoever triggered i. Guild
// interactions carry a member, DMs a bare user.
func interactionUser(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.Username
	}
	if i.User != nil {
		return i.User.Username
	}
	return "unknown"
}

// userMessage maps service errors to the text shown in the channel. Sentinel
// and duplicate errors carry wording meant for users; anything else gets a
// generic line so internals never leak into Discord.
func userMessage(err error) string {
	var dup *services.DuplicateRequestError
	switch {
	case errors.As(err, &dup):
		return "Error: " + dup.Error() + "."
	case errors.Is(err, services.ErrAccountNotFound):
		return "Error: no media server account with that name."
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return "Error: no subscription record exists for this user."
	case errors.Is(err, services.ErrConfirmationExpired):
		return "Error: this confirmation has expired. Please start over."
	case errors.Is(err, services.ErrRequestNotFound):
		return "Error: this request was not found."
	case errors.Is(err, services.ErrInvalidDuration):
		return "Error: the duration must be a positive number."
	case errors.Is(err, services.ErrEmptyPayment):
		return "Error: a payment method or note is required."
	case errors.Is(err, services.ErrEmptyReason):
		return "Error: a removal reason is required."
	default:
		return "An internal error occurred. Please try again."
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, resp *discordgo.InteractionResponse) {
	if err := s.InteractionRespond(i.Interaction, resp); err != nil {
		log.Error().Err(err).Str("interaction_id", i.ID).Msg("interaction response failed")
	}
}

func (b *Bot) replyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	b.respond(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// updateMessage rewrites the message that carried the pressed button,
// clearing its embeds and buttons unless replacements are given.
func (b *Bot) updateMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed) {
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	b.respond(s, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     embeds,
			Components: []discordgo.MessageComponent{},
		},
	})
}
