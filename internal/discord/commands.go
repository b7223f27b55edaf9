package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// commands is the full slash command set, synced on startup with a bulk
// overwrite so removed commands disappear from the guild.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "sub",
		Description: "Manages user subscriptions.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:        "add",
				Description: "Creates or renews a subscription for a user.",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "remove",
				Description: "Removes a subscription and deletes the user account.",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
			},
			{
				Name:        "info",
				Description: "Shows a user's subscription details.",
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Name:        "username",
						Description: "The media server username to look up.",
						Type:        discordgo.ApplicationCommandOptionString,
						Required:    true,
					},
				},
			},
		},
	},
}

// registerCommands syncs the command set against the configured guild.
func registerCommands(s *discordgo.Session, appID, guildID string) error {
	if _, err := s.ApplicationCommandBulkOverwrite(appID, guildID, commands); err != nil {
		return fmt.Errorf("registering %d application commands: %w", len(commands), err)
	}
	return nil
}

// Modal form layouts for the /sub subcommands. Field custom ids double as
// lookup keys when the submission comes back.
const (
	fieldUsername = "server_username"
	fieldDuration = "duration_months"
	fieldPayment  = "payment_method"
	fieldReason   = "removal_reason"
)

func textInputRow(customID, label string, style discordgo.TextInputStyle) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
		discordgo.TextInput{
			CustomID: customID,
			Label:    label,
			Style:    style,
			Required: true,
		},
	}}
}

// addModal is the form shown for /sub add.
func addModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: buildCustomID(commandSub, actionAddModal, ""),
		Title:    "Create new subscription",
		Components: []discordgo.MessageComponent{
			textInputRow(fieldUsername, "Media server username", discordgo.TextInputShort),
			textInputRow(fieldDuration, "Duration in months (e.g. 1, 3, 12)", discordgo.TextInputShort),
			textInputRow(fieldPayment, "Payment method / note", discordgo.TextInputShort),
		},
	}
}

// removeModal is the form shown for /sub remove.
func removeModal() *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: buildCustomID(commandSub, actionRemoveModal, ""),
		Title:    "Delete subscription & user",
		Components: []discordgo.MessageComponent{
			textInputRow(fieldUsername, "Media server username", discordgo.TextInputShort),
			textInputRow(fieldReason, "Reason for the deletion", discordgo.TextInputParagraph),
		},
	}
}

// modalValue extracts the submitted value of the text input with the given
// custom id. Missing fields yield the empty string and fail validation in the
// workflow instead of here.
func modalValue(data discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if in, ok := c.(*discordgo.TextInput); ok && in.CustomID == customID {
				return in.Value
			}
		}
	}
	return ""
}
