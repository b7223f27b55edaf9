package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/services"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

func TestCustomIDRoundTrip(t *testing.T) {
	id := buildCustomID(commandRequest, actionApprove, "req-123")
	if id != "request:approve:req-123" {
		t.Fatalf("unexpected id %q", id)
	}

	command, action, data, ok := parseCustomID(id)
	if !ok || command != commandRequest || action != actionApprove || data != "req-123" {
		t.Fatalf("parse mismatch: %q %q %q %v", command, action, data, ok)
	}

	// Modal ids carry no data segment.
	command, action, data, ok = parseCustomID(buildCustomID(commandSub, actionAddModal, ""))
	if !ok || command != commandSub || action != actionAddModal || data != "" {
		t.Fatalf("dataless parse mismatch: %q %q %q %v", command, action, data, ok)
	}

	if _, _, _, ok := parseCustomID("garbage"); ok {
		t.Fatalf("malformed id must not parse")
	}
}

func sampleRequest() (*domain.Request, *tmdb.MediaDetails) {
	req := &domain.Request{
		ID:            "req-1",
		RequesterID:   "user-1",
		RequesterName: "alice",
		RequestDate:   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Status:        domain.StatusPending,
		MediaType:     domain.MediaMovie,
		MediaID:       603,
		MediaTitle:    "Taxi Driver",
	}
	details := &tmdb.MediaDetails{
		ID:          603,
		Title:       "Taxi Driver",
		Overview:    "A lonely veteran drives a cab.",
		ReleaseDate: "1976-02-08",
		PosterPath:  "/poster.jpg",
	}
	return req, details
}

func TestRequestMessage(t *testing.T) {
	req, details := sampleRequest()
	msg := requestMessage(req, details)

	if len(msg.Embeds) != 1 {
		t.Fatalf("expected one embed, got %d", len(msg.Embeds))
	}
	embed := msg.Embeds[0]
	if embed.Title != "Taxi Driver" {
		t.Fatalf("embed title %q", embed.Title)
	}
	if embed.URL != "https://www.themoviedb.org/movie/603" {
		t.Fatalf("embed url %q", embed.URL)
	}
	if !strings.Contains(embed.Footer.Text, req.ID) {
		t.Fatalf("footer should carry the request id: %q", embed.Footer.Text)
	}
	if embed.Image == nil || !strings.HasSuffix(embed.Image.URL, "/poster.jpg") {
		t.Fatalf("poster missing from embed")
	}

	row, ok := msg.Components[0].(discordgo.ActionsRow)
	if !ok || len(row.Components) != 2 {
		t.Fatalf("expected a two-button row")
	}
	approve := row.Components[0].(discordgo.Button)
	if approve.CustomID != "request:approve:req-1" {
		t.Fatalf("approve custom id %q", approve.CustomID)
	}
	decline := row.Components[1].(discordgo.Button)
	if decline.CustomID != "request:decline:req-1" {
		t.Fatalf("decline custom id %q", decline.CustomID)
	}
}

func TestResolvedEmbedKeepsOriginalFields(t *testing.T) {
	req, details := sampleRequest()
	original := requestMessage(req, details).Embeds[0]
	fieldsBefore := len(original.Fields)

	updated := resolvedEmbed(original, domain.StatusAccepted, "adminX")
	if updated.Color != colorAccepted {
		t.Fatalf("accepted color not applied: %#x", updated.Color)
	}
	if len(updated.Fields) != fieldsBefore+1 {
		t.Fatalf("expected one appended status field")
	}
	status := updated.Fields[len(updated.Fields)-1]
	if !strings.Contains(status.Value, "adminX") {
		t.Fatalf("status line should name the resolver: %q", status.Value)
	}
	// The original must not be mutated.
	if len(original.Fields) != fieldsBefore {
		t.Fatalf("original embed mutated")
	}

	declined := resolvedEmbed(original, domain.StatusRejected, "adminX")
	if declined.Color != colorRejected {
		t.Fatalf("rejected color not applied: %#x", declined.Color)
	}
}

func TestSubscriptionConfirmMessageWarnsOnOverwrite(t *testing.T) {
	staged := &services.StagedSubscription{
		Draft: domain.Subscription{
			AccountID:       "acc-1",
			AccountUsername: "alice",
			DurationMonths:  3,
			PaymentMethod:   "paypal",
			StartDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			EndDate:         time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
			Status:          domain.SubActive,
		},
	}

	fresh := subscriptionConfirmMessage(staged)
	if fresh.Embeds[0].Color != colorConfirm {
		t.Fatalf("fresh draft should use the confirm color")
	}

	staged.Overwrites = true
	warned := subscriptionConfirmMessage(staged)
	if warned.Embeds[0].Color != colorWarning {
		t.Fatalf("overwrite should switch to the warning color")
	}
	last := warned.Embeds[0].Fields[len(warned.Embeds[0].Fields)-1]
	if !strings.Contains(last.Value, "overwrites") {
		t.Fatalf("overwrite note missing: %q", last.Value)
	}

	row := warned.Components[0].(discordgo.ActionsRow)
	save := row.Components[0].(discordgo.Button)
	if save.CustomID != "sub:confirm_save:acc-1" {
		t.Fatalf("save custom id %q", save.CustomID)
	}
}

func TestInfoEmbedStates(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	active := &domain.Subscription{
		AccountID:       "acc-1",
		AccountUsername: "alice",
		DurationMonths:  3,
		PaymentMethod:   "paypal",
		StartDate:       time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC),
		Status:          domain.SubActive,
	}

	embed := infoEmbed("alice", &services.SubscriptionInfo{Subscription: active, Valid: true}, now)
	if embed.Color != colorAccepted {
		t.Fatalf("active info color %#x", embed.Color)
	}

	expired := *active
	expired.EndDate = time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	embed = infoEmbed("alice", &services.SubscriptionInfo{Subscription: &expired}, now)
	if embed.Color != colorExpired {
		t.Fatalf("expired info color %#x", embed.Color)
	}

	removed := *active
	removed.Status = domain.SubDeleted
	removed.RemovalReason = "fraud"
	embed = infoEmbed("alice", &services.SubscriptionInfo{Subscription: &removed}, now)
	if embed.Color != colorInactive {
		t.Fatalf("removed info color %#x", embed.Color)
	}
	last := embed.Fields[len(embed.Fields)-1]
	if last.Value != "fraud" {
		t.Fatalf("removal reason missing: %q", last.Value)
	}

	embed = infoEmbed("bob", &services.SubscriptionInfo{}, now)
	if embed.Color != colorNeutral {
		t.Fatalf("record-less info color %#x", embed.Color)
	}
}

func TestModalValue(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: "sub:add_modal",
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: fieldUsername, Value: "Alice"},
			}},
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.TextInput{CustomID: fieldDuration, Value: "3"},
			}},
		},
	}

	if got := modalValue(data, fieldUsername); got != "Alice" {
		t.Fatalf("username = %q", got)
	}
	if got := modalValue(data, fieldDuration); got != "3" {
		t.Fatalf("duration = %q", got)
	}
	if got := modalValue(data, fieldPayment); got != "" {
		t.Fatalf("missing field should be empty, got %q", got)
	}
}

type stubSender struct {
	channelID string
	sent      []*discordgo.MessageSend
	err       error
}

func (s *stubSender) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	s.channelID = channelID
	s.sent = append(s.sent, data)
	if s.err != nil {
		return nil, s.err
	}
	return &discordgo.Message{}, nil
}

func TestNotifier(t *testing.T) {
	sender := &stubSender{}
	n := NewNotifier(sender, "chan-1")
	req, details := sampleRequest()

	if err := n.RequestCreated(context.Background(), req, details); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if sender.channelID != "chan-1" || len(sender.sent) != 1 {
		t.Fatalf("message not posted to configured channel")
	}

	sender.err = errors.New("channel gone")
	if err := n.RequestCreated(context.Background(), req, details); err == nil {
		t.Fatalf("send failure must propagate")
	}
}

func TestUserMessage(t *testing.T) {
	dup := &services.DuplicateRequestError{Status: domain.StatusPending}
	if got := userMessage(dup); !strings.Contains(got, "in progress") {
		t.Fatalf("duplicate message %q", got)
	}
	if got := userMessage(services.ErrConfirmationExpired); !strings.Contains(got, "start over") {
		t.Fatalf("expiry message %q", got)
	}
	if got := userMessage(errors.New("boom")); strings.Contains(got, "boom") {
		t.Fatalf("internal error text leaked: %q", got)
	}
}
