package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	ticketOpenID  = "ticket_open"
	ticketCloseID = "ticket_close"

	ticketPrefix       = "ticket-"
	transcriptLimit    = 100
	transcriptMaxChunk = 1900
)

func (b *Bot) handleTicketPanel(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	embed := b.commandEmbed("🎫 Support",
		"Need help? Press the button below to open a private ticket with the staff.",
		colorBlue, nil)

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Open ticket", Style: discordgo.PrimaryButton, CustomID: ticketOpenID, Emoji: discordgo.ComponentEmoji{Name: "📩"}},
					},
				},
			},
		},
	})
}

// ticketChannelName builds the per-user ticket channel name. Discord
// lowercases channel names, so the guard below compares lowercase too.
func ticketChannelName(username string) string {
	name := strings.ToLower(username)
	name = strings.ReplaceAll(name, " ", "-")
	return ticketPrefix + name
}

func (b *Bot) handleTicketOpen(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.Member == nil || interaction.Member.User == nil {
		return
	}
	opener := interaction.Member.User
	name := ticketChannelName(opener.Username)

	channels, err := session.GuildChannels(interaction.GuildID)
	if err != nil {
		b.logger.Warn("channel list failed", zap.Error(err))
		b.respond(session, interaction, "❌ Could not open a ticket.", true)
		return
	}
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildText && channel.Name == name {
			b.respond(session, interaction, fmt.Sprintf("❌ You already have a ticket: <#%s>", channel.ID), true)
			return
		}
	}

	parentID := b.findOrCreateCategory(session, interaction.GuildID, channels)

	overwrites := []*discordgo.PermissionOverwrite{
		{ID: interaction.GuildID, Type: discordgo.PermissionOverwriteTypeRole, Deny: discordgo.PermissionViewChannel},
		{ID: opener.ID, Type: discordgo.PermissionOverwriteTypeMember, Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages},
	}
	if b.cfg.Roles.Support != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: b.cfg.Roles.Support, Type: discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}
	if b.cfg.Roles.Admin != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID: b.cfg.Roles.Admin, Type: discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	channel, err := session.GuildChannelCreateComplex(interaction.GuildID, discordgo.GuildChannelCreateData{
		Name:                 name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		b.logger.Warn("ticket channel create failed", zap.Error(err))
		b.respond(session, interaction, "❌ Could not open a ticket.", true)
		return
	}

	welcome := b.commandEmbed("🎫 Ticket",
		fmt.Sprintf("<@%s>, describe your problem and the staff will answer.\nClose the ticket with the button below when you are done.", opener.ID),
		colorBlue, nil)
	_, _ = session.ChannelMessageSendComplex(channel.ID, &discordgo.MessageSend{
		Content: fmt.Sprintf("<@%s>", opener.ID),
		Embeds:  []*discordgo.MessageEmbed{welcome},
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Close ticket", Style: discordgo.DangerButton, CustomID: ticketCloseID, Emoji: discordgo.ComponentEmoji{Name: "🔒"}},
				},
			},
		},
	})

	b.respond(session, interaction, fmt.Sprintf("✅ Ticket opened: <#%s>", channel.ID), true)
}

// findOrCreateCategory returns the ID of the configured ticket category,
// creating it when absent. Empty string leaves the channel uncategorized.
func (b *Bot) findOrCreateCategory(session *discordgo.Session, guildID string, channels []*discordgo.Channel) string {
	wanted := b.cfg.Channels.TicketCategory
	if wanted == "" {
		return ""
	}
	for _, channel := range channels {
		if channel.Type == discordgo.ChannelTypeGuildCategory && strings.EqualFold(channel.Name, wanted) {
			return channel.ID
		}
	}
	created, err := session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: wanted,
		Type: discordgo.ChannelTypeGuildCategory,
	})
	if err != nil {
		b.logger.Warn("ticket category create failed", zap.Error(err))
		return ""
	}
	return created.ID
}

func (b *Bot) handleTicketClose(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	channel, err := session.Channel(interaction.ChannelID)
	if err != nil || channel == nil || !strings.HasPrefix(channel.Name, ticketPrefix) {
		b.respond(session, interaction, "❌ This is not a ticket channel.", true)
		return
	}

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})

	// Anchor after ID 0 so the window starts at the oldest messages, not
	// the newest.
	messages, err := session.ChannelMessages(interaction.ChannelID, transcriptLimit, "", "0", "")
	if err != nil {
		b.logger.Warn("transcript fetch failed", zap.Error(err))
		messages = nil
	}
	lines := transcriptLines(messages)

	if b.cfg.Channels.TicketArchive != "" {
		b.archiveTicket(session, interaction, channel, lines)
	}

	b.followup(session, interaction, "✅ Ticket closed.")
	if _, err := session.ChannelDelete(interaction.ChannelID); err != nil {
		b.logger.Warn("ticket channel delete failed", zap.Error(err))
	}
}

func (b *Bot) archiveTicket(session *discordgo.Session, interaction *discordgo.InteractionCreate, channel *discordgo.Channel, lines []string) {
	closer := interaction.Member
	closerID, closerMention := "?", "?"
	var closerRoles []string
	if closer != nil && closer.User != nil {
		closerID = closer.User.ID
		closerMention = "<@" + closerID + ">"
		closerRoles = roleNames(b.guildRoles(interaction.GuildID), closer, interaction.GuildID)
	}
	roleValue := "None"
	if len(closerRoles) > 0 {
		roleValue = strings.Join(closerRoles, ", ")
	}

	summary := b.commandEmbed("📪 Ticket closed", "", colorRed, []*discordgo.MessageEmbedField{
		{Name: "Ticket", Value: channel.Name, Inline: true},
		{Name: "Closed by", Value: fmt.Sprintf("%s (%s)", closerMention, closerID), Inline: true},
		{Name: "Roles", Value: roleValue, Inline: true},
		{Name: "Messages", Value: fmt.Sprintf("%d", len(lines)), Inline: true},
	})
	_, _ = session.ChannelMessageSendEmbed(b.cfg.Channels.TicketArchive, summary)

	for _, chunk := range chunkTranscript(lines, transcriptMaxChunk) {
		_, _ = session.ChannelMessageSend(b.cfg.Channels.TicketArchive, "```\n"+chunk+"\n```")
	}
}

// transcriptLines renders the fetched history oldest-first, skipping bot
// messages. The API's ordering varies with the paging anchor, so the
// messages are sorted here rather than assumed.
func transcriptLines(messages []*discordgo.Message) []string {
	ordered := make([]*discordgo.Message, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || msg.Author == nil || msg.Author.Bot {
			continue
		}
		ordered = append(ordered, msg)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var lines []string
	for _, msg := range ordered {
		stamp := msg.Timestamp.Format("02.01 15:04")
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", stamp, msg.Author.Username, msg.Content))
	}
	return lines
}

// chunkTranscript packs lines into chunks that stay under the Discord
// message limit once wrapped in a code block. A single oversized line is
// truncated rather than split.
func chunkTranscript(lines []string, limit int) []string {
	var chunks []string
	var current strings.Builder
	for _, line := range lines {
		if len(line) > limit {
			line = line[:limit]
		}
		if current.Len() > 0 && current.Len()+1+len(line) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
