package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/services"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

// Embed accent colors, one per lifecycle state.
const (
	colorPending  = 0xe94560
	colorAccepted = 0x28a745
	colorRejected = 0xdc3545
	colorConfirm  = 0xf0ad4e
	colorWarning  = 0xffc107
	colorExpired  = 0xffc107
	colorInactive = 0x6c757d
	colorNeutral  = 0x17a2b8
)

const (
	tmdbTitleURL  = "https://www.themoviedb.org/%s/%d"
	tmdbPosterURL = "https://image.tmdb.org/t/p/w500%s"
)

// requestMessage renders a newly created request as an embed with
// approve/decline buttons for administrators. The request id rides in the
// button custom ids and the footer, so resolution needs no other state.
func requestMessage(req *domain.Request, details *tmdb.MediaDetails) *discordgo.MessageSend {
	overview := details.Overview
	if overview == "" {
		overview = "No description available."
	}

	embed := &discordgo.MessageEmbed{
		Title:       details.DisplayTitle(),
		URL:         fmt.Sprintf(tmdbTitleURL, string(req.MediaType), details.ID),
		Description: overview,
		Color:       colorPending,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Requested by", Value: req.RequesterName, Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Request ID: " + req.ID},
		Timestamp: req.RequestDate.Format(time.RFC3339),
	}
	if year := details.Year(); year > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Year", Value: fmt.Sprintf("%d", year), Inline: true,
		})
	}
	if details.PosterPath != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: fmt.Sprintf(tmdbPosterURL, details.PosterPath)}
	}

	return &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Uploaded",
					Style:    discordgo.SuccessButton,
					CustomID: buildCustomID(commandRequest, actionApprove, req.ID),
					Emoji:    &discordgo.ComponentEmoji{Name: "✅"},
				},
				discordgo.Button{
					Label:    "Decline",
					Style:    discordgo.DangerButton,
					CustomID: buildCustomID(commandRequest, actionDecline, req.ID),
					Emoji:    &discordgo.ComponentEmoji{Name: "❌"},
				},
			}},
		},
	}
}

// resolvedEmbed derives the post-resolution embed from the original request
// message: the accent color flips and a status line naming the resolver is
// appended. The original fields are kept so the audit trail stays in place.
func resolvedEmbed(original *discordgo.MessageEmbed, status domain.RequestStatus, resolvedBy string) *discordgo.MessageEmbed {
	updated := *original
	updated.Fields = append([]*discordgo.MessageEmbedField{}, original.Fields...)

	var color int
	var line string
	if status == domain.StatusAccepted {
		color, line = colorAccepted, "✅ Uploaded by "+resolvedBy
	} else {
		color, line = colorRejected, "❌ Declined by "+resolvedBy
	}
	updated.Color = color
	updated.Fields = append(updated.Fields, &discordgo.MessageEmbedField{
		Name: "Status", Value: line,
	})
	return &updated
}

// subscriptionConfirmMessage renders the stage-review step for a
// create/renew: a summary embed plus save/cancel buttons keyed by account id.
func subscriptionConfirmMessage(staged *services.StagedSubscription) *discordgo.InteractionResponseData {
	d := staged.Draft
	embed := &discordgo.MessageEmbed{
		Title: "Subscription confirmation",
		Color: colorConfirm,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Account", Value: d.AccountUsername},
			{Name: "Duration", Value: fmt.Sprintf("%d month(s)", d.DurationMonths), Inline: true},
			{Name: "End date", Value: d.EndDate.Format("2006-01-02"), Inline: true},
			{Name: "Payment", Value: d.PaymentMethod, Inline: true},
		},
	}
	if staged.Overwrites {
		embed.Color = colorWarning
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "⚠️ Note",
			Value: "A subscription already exists for this account. Saving overwrites the old record.",
		})
	}

	return &discordgo.InteractionResponseData{
		Content: "Please confirm:",
		Flags:   discordgo.MessageFlagsEphemeral,
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Save",
					Style:    discordgo.SuccessButton,
					CustomID: buildCustomID(commandSub, actionConfirmSave, d.AccountID),
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.DangerButton,
					CustomID: buildCustomID(commandSub, actionCancel, d.AccountID),
				},
			}},
		},
	}
}

// removalConfirmMessage renders the stage-review step for a removal. The
// destructive button is deliberately the prominent one so the reviewer sees
// what a confirm actually does.
func removalConfirmMessage(staged *services.StagedRemoval) *discordgo.InteractionResponseData {
	embed := &discordgo.MessageEmbed{
		Title: "DELETION CONFIRMATION",
		Color: colorRejected,
		Description: fmt.Sprintf(
			"**Warning!** This permanently deletes the media server account of **%s**.",
			staged.AccountUsername),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Reason", Value: staged.Reason},
		},
	}

	return &discordgo.InteractionResponseData{
		Content: "Please confirm the permanent deletion:",
		Flags:   discordgo.MessageFlagsEphemeral,
		Embeds:  []*discordgo.MessageEmbed{embed},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Delete permanently",
					Style:    discordgo.DangerButton,
					CustomID: buildCustomID(commandSub, actionConfirmDrop, staged.AccountID),
				},
				discordgo.Button{
					Label:    "Cancel",
					Style:    discordgo.SecondaryButton,
					CustomID: buildCustomID(commandSub, actionCancel, staged.AccountID),
				},
			}},
		},
	}
}

// infoEmbed renders the combined directory/subscription state for one
// username, with color and wording tracking the computed validity.
func infoEmbed(username string, info *services.SubscriptionInfo, now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{Title: "Info for: " + username}

	if info.Account != nil {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Server status", Value: "✅ Account exists", Inline: true},
			&discordgo.MessageEmbedField{Name: "Account ID", Value: "`" + info.Account.ID + "`", Inline: true},
		)
	} else {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Server status", Value: "❌ Account no longer exists", Inline: true},
		)
	}

	sub := info.Subscription
	switch {
	case sub == nil:
		embed.Color = colorNeutral
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Subscription", Value: "ℹ️ No subscription record found"})
	case sub.Status.Terminal():
		embed.Color = colorInactive
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Subscription", Value: "❌ Removed on " + sub.EndDate.Format("2006-01-02")})
		if sub.RemovalReason != "" {
			embed.Fields = append(embed.Fields,
				&discordgo.MessageEmbedField{Name: "Reason", Value: sub.RemovalReason})
		}
	case info.Valid:
		daysLeft := int(sub.EndDate.Sub(now).Hours()/24) + 1
		embed.Color = colorAccepted
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Subscription", Value: "✅ Active"},
			&discordgo.MessageEmbedField{Name: "Ends in", Value: fmt.Sprintf("%d day(s)", daysLeft), Inline: true},
			&discordgo.MessageEmbedField{Name: "Payment", Value: sub.PaymentMethod, Inline: true},
		)
	default:
		embed.Color = colorExpired
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Subscription", Value: "🕒 Expired"},
			&discordgo.MessageEmbedField{Name: "Ended on", Value: sub.EndDate.Format("2006-01-02"), Inline: true},
			&discordgo.MessageEmbedField{Name: "Payment", Value: sub.PaymentMethod, Inline: true},
		)
	}
	return embed
}
