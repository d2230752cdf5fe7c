package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		b.handleCommand(session, interaction)
	case discordgo.InteractionMessageComponent:
		b.handleComponent(session, interaction)
	}
}

func (b *Bot) handleCommand(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	if interaction.GuildID == "" {
		b.respond(session, interaction, "❌ Commands only work inside the server.", true)
		return
	}

	ctx := context.Background()
	data := interaction.ApplicationCommandData()
	options := optionMap(data.Options)

	switch data.Name {
	case "help":
		b.handleHelp(session, interaction)
	case "ping":
		b.handlePing(session, interaction)
	case "rules":
		b.handleRules(session, interaction)
	case "admins":
		b.handleAdmins(session, interaction)
	case "cb":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin, b.cfg.Roles.Mod) {
			return
		}
		b.handleCustomEmbed(session, interaction, options)
	case "clear":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin, b.cfg.Roles.Mod) {
			return
		}
		b.handleClear(session, interaction, options)
	case "ban":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin) {
			return
		}
		b.handleBan(session, interaction, options)
	case "kick":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin) {
			return
		}
		b.handleKick(session, interaction, options)
	case "warn":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin, b.cfg.Roles.Mod) {
			return
		}
		b.handleWarn(ctx, session, interaction, options)
	case "infoplayer":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin, b.cfg.Roles.Mod) {
			return
		}
		b.handleInfoPlayer(ctx, session, interaction, options)
	case "stat":
		b.handleStat(ctx, session, interaction, options)
	case "top":
		b.handleTop(ctx, session, interaction)
	case "marry":
		b.handleMarry(ctx, session, interaction, options)
	case "ticket":
		if !b.requireRoles(session, interaction, b.cfg.Roles.Admin) {
			return
		}
		b.handleTicketPanel(session, interaction)
	case "ai":
		b.handleAI(ctx, session, interaction, options)
	default:
		b.respond(session, interaction, "❌ Unknown command.", true)
	}
}

func (b *Bot) handleComponent(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	customID := interaction.MessageComponentData().CustomID
	switch {
	case customID == ticketOpenID:
		b.handleTicketOpen(session, interaction)
	case customID == ticketCloseID:
		b.handleTicketClose(session, interaction)
	case strings.HasPrefix(customID, marryAcceptPrefix) || strings.HasPrefix(customID, marryDeclinePrefix):
		b.handleMarriageDecision(context.Background(), session, interaction, customID)
	}
}

func memberHasAnyRole(member *discordgo.Member, roleIDs ...string) bool {
	if member == nil {
		return false
	}
	for _, want := range roleIDs {
		if want == "" {
			continue
		}
		for _, id := range member.Roles {
			if id == want {
				return true
			}
		}
	}
	return false
}

// requireRoles rejects the interaction unless the member holds one of the
// given staff roles. Unconfigured (empty) role IDs never grant access.
func (b *Bot) requireRoles(session *discordgo.Session, interaction *discordgo.InteractionCreate, roleIDs ...string) bool {
	if memberHasAnyRole(interaction.Member, roleIDs...) {
		return true
	}
	b.respond(session, interaction, "❌ You do not have permission to use this command.", true)
	return false
}

func (b *Bot) handleHelp(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	fields := []*discordgo.MessageEmbedField{
		{Name: "👤 Everyone", Value: "`/help` `/ping` `/rules` `/admins` `/stat` `/top` `/marry` `/ai`", Inline: false},
		{Name: "🛡️ Moderation", Value: "`/clear` `/warn` `/infoplayer` `/cb`", Inline: false},
		{Name: "🔨 Admin", Value: "`/ban` `/kick` `/ticket`", Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("📚 Commands", "", colorBlue, fields), true)
}

func (b *Bot) handlePing(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	latency := session.HeartbeatLatency().Milliseconds()
	b.respond(session, interaction, fmt.Sprintf("🏓 Pong! Latency: %d ms", latency), true)
}

func (b *Bot) handleRules(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	fields := []*discordgo.MessageEmbedField{
		{Name: "1️⃣", Value: "Respect other members", Inline: false},
		{Name: "2️⃣", Value: "No spam or advertising", Inline: false},
		{Name: "3️⃣", Value: "No NSFW content", Inline: false},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("📜 RULES", "", colorRed, fields), true)
}

func (b *Bot) handleAdmins(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	staffRoles := map[string]struct{}{}
	if b.cfg.Roles.Admin != "" {
		staffRoles[b.cfg.Roles.Admin] = struct{}{}
	}
	if b.cfg.Roles.Mod != "" {
		staffRoles[b.cfg.Roles.Mod] = struct{}{}
	}

	members := b.listMembers(interaction.GuildID)
	roles := b.guildRoles(interaction.GuildID)

	var lines []string
	for _, member := range members {
		if member == nil || member.User == nil {
			continue
		}
		staff := false
		for _, roleID := range member.Roles {
			if _, ok := staffRoles[roleID]; ok {
				staff = true
				break
			}
		}
		if !staff {
			continue
		}
		top := ""
		if position := highestRolePosition(roles, member); position >= 0 {
			for _, roleID := range member.Roles {
				if role := roles[roleID]; role != nil && role.Position == position {
					top = role.Name
					break
				}
			}
		}
		lines = append(lines, fmt.Sprintf("• <@%s> — %s", member.User.ID, top))
	}

	description := strings.Join(lines, "\n")
	if description == "" {
		description = "Nobody"
	}
	b.respondEmbed(session, interaction, b.commandEmbed("👮 Staff", description, colorGold, nil), true)
}

func (b *Bot) listMembers(guildID string) []*discordgo.Member {
	guild, err := b.session.State.Guild(guildID)
	if err == nil && guild != nil && len(guild.Members) > 0 {
		return guild.Members
	}
	members, _ := b.session.GuildMembers(guildID, "", 1000)
	return members
}

func embedColor(name string) int {
	switch strings.ToLower(name) {
	case "red":
		return colorRed
	case "blue":
		return colorBlue
	case "green":
		return colorGreen
	case "gold":
		return colorGold
	case "purple":
		return colorPurple
	case "orange":
		return colorOrange
	default:
		return colorGray
	}
}

func (b *Bot) handleCustomEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	color, title, text := "", "", ""
	if opt, ok := options["color"]; ok {
		color = opt.StringValue()
	}
	if opt, ok := options["title"]; ok {
		title = opt.StringValue()
	}
	if opt, ok := options["text"]; ok {
		text = opt.StringValue()
	}

	embed := b.commandEmbed(title, text, embedColor(color), nil)
	if interaction.Member != nil && interaction.Member.User != nil {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Sent by: " + interaction.Member.User.Username}
	}
	b.respondEmbed(session, interaction, embed, true)
}

func (b *Bot) handleClear(session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	amount := 0
	if opt, ok := options["amount"]; ok {
		amount = int(opt.IntValue())
	}
	if amount < 1 || amount > 100 {
		b.respond(session, interaction, "❌ Amount must be between 1 and 100.", true)
		return
	}

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})

	messages, err := session.ChannelMessages(interaction.ChannelID, amount, "", "", "")
	if err != nil {
		b.followup(session, interaction, "❌ Could not fetch messages.")
		return
	}
	ids := make([]string, 0, len(messages))
	for _, msg := range messages {
		ids = append(ids, msg.ID)
	}
	if err := session.ChannelMessagesBulkDelete(interaction.ChannelID, ids); err != nil {
		b.followup(session, interaction, "❌ Could not delete messages.")
		return
	}
	b.followup(session, interaction, fmt.Sprintf("✅ Deleted %d messages", len(ids)))
}

func (b *Bot) followup(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string) {
	_, _ = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

// targetMember resolves the user option to a guild member and checks the
// role hierarchy against the invoking moderator.
func (b *Bot) targetMember(session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) (*discordgo.Member, bool) {
	opt, ok := options[name]
	if !ok {
		b.respond(session, interaction, "❌ Missing member.", true)
		return nil, false
	}
	user := opt.UserValue(session)
	if user == nil {
		b.respond(session, interaction, "❌ Missing member.", true)
		return nil, false
	}
	target := b.memberForUser(interaction.GuildID, user.ID)
	if target == nil {
		b.respond(session, interaction, "❌ Member not found.", true)
		return nil, false
	}
	if !b.outranks(interaction.GuildID, interaction.Member, target) {
		b.respond(session, interaction, "❌ You cannot act on this member.", true)
		return nil, false
	}
	return target, true
}

func reasonOption(options map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if opt, ok := options["reason"]; ok {
		if value := opt.StringValue(); value != "" {
			return value
		}
	}
	return "Not specified"
}

func (b *Bot) handleBan(session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target, ok := b.targetMember(session, interaction, options, "member")
	if !ok {
		return
	}
	reason := reasonOption(options)

	if err := session.GuildBanCreateWithReason(interaction.GuildID, target.User.ID, reason, 0); err != nil {
		b.logger.Warn("ban failed", zap.Error(err))
		b.respond(session, interaction, "❌ Ban failed.", true)
		return
	}
	b.respondEmbed(session, interaction, b.commandEmbed("🔨 Ban", fmt.Sprintf("<@%s> was banned", target.User.ID), colorRed, nil), true)
}

func (b *Bot) handleKick(session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target, ok := b.targetMember(session, interaction, options, "member")
	if !ok {
		return
	}
	reason := reasonOption(options)

	if err := session.GuildMemberDeleteWithReason(interaction.GuildID, target.User.ID, reason); err != nil {
		b.logger.Warn("kick failed", zap.Error(err))
		b.respond(session, interaction, "❌ Kick failed.", true)
		return
	}
	b.respondEmbed(session, interaction, b.commandEmbed("👢 Kick", fmt.Sprintf("<@%s> was kicked", target.User.ID), colorOrange, nil), true)
}

func (b *Bot) handleWarn(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target, ok := b.targetMember(session, interaction, options, "member")
	if !ok {
		return
	}
	reason := ""
	if opt, found := options["reason"]; found {
		reason = opt.StringValue()
	}
	if reason == "" {
		b.respond(session, interaction, "❌ A reason is required.", true)
		return
	}

	moderatorID := ""
	if interaction.Member != nil && interaction.Member.User != nil {
		moderatorID = interaction.Member.User.ID
	}

	result, err := b.moderation.IssueWarn(ctx, interaction.GuildID, target.User.ID, moderatorID, reason)
	if err != nil {
		b.logger.Warn("warn failed", zap.Error(err))
		b.respond(session, interaction, "❌ Warn failed.", true)
		return
	}

	policy := b.moderation.Policy()
	fields := []*discordgo.MessageEmbedField{
		{Name: "Reason", Value: reason, Inline: true},
		{Name: "Moderator", Value: "<@" + moderatorID + ">", Inline: true},
		{Name: "Active warns", Value: fmt.Sprintf("%d/%d", result.ActiveCount, policy.MaxActiveWarns), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("⚠️ Warning", fmt.Sprintf("<@%s> was warned", target.User.ID), colorOrange, fields), true)

	if !result.Autoban {
		return
	}
	if err := session.GuildBanCreateWithReason(interaction.GuildID, target.User.ID, policy.AutobanReason, 0); err != nil {
		b.logger.Warn("autoban failed", zap.Error(err))
		return
	}
	_, _ = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{
			b.commandEmbed("🔨 Autoban", fmt.Sprintf("<@%s> was banned after %d warnings", target.User.ID, policy.MaxActiveWarns), colorRed, nil),
		},
		Flags: discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) handleInfoPlayer(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	opt, ok := options["member"]
	if !ok || opt.UserValue(session) == nil {
		b.respond(session, interaction, "❌ Missing member.", true)
		return
	}
	user := opt.UserValue(session)
	member := b.memberForUser(interaction.GuildID, user.ID)

	view, err := b.analytics.ModeratorView(ctx, interaction.GuildID, user.ID, 5)
	if err != nil {
		b.logger.Warn("infoplayer failed", zap.Error(err))
		b.respond(session, interaction, "❌ Lookup failed.", true)
		return
	}

	policy := b.moderation.Policy()
	roles := b.guildRoles(interaction.GuildID)
	names := roleNames(roles, member, interaction.GuildID)
	roleValue := "None"
	if len(names) > 0 {
		roleValue = strings.Join(names, ", ")
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "🆔 ID", Value: user.ID, Inline: true},
		{Name: "💬 Messages", Value: fmt.Sprintf("%d", view.Messages), Inline: true},
		{Name: "⚠️ Active warns", Value: fmt.Sprintf("%d/%d", view.ActiveWarns, policy.MaxActiveWarns), Inline: true},
		{Name: "📊 Total warns", Value: fmt.Sprintf("%d", view.TotalWarns), Inline: true},
		{Name: fmt.Sprintf("🎭 Roles [%d]", len(names)), Value: roleValue, Inline: false},
	}
	if len(view.RecentWarns) > 0 {
		var lines []string
		for _, warn := range view.RecentWarns {
			lines = append(lines, fmt.Sprintf("• %s — <@%s> (%s)", warn.Reason, warn.ModeratorID, warn.CreatedAt.Format("02.01")))
		}
		fields = append(fields, &discordgo.MessageEmbedField{Name: "📋 Recent warns", Value: strings.Join(lines, "\n"), Inline: false})
	}

	b.respondEmbed(session, interaction, b.commandEmbed("📊 "+user.Username, "", colorBlue, fields), true)
}

func (b *Bot) handleStat(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	userID := ""
	username := ""
	if opt, ok := options["member"]; ok {
		if user := opt.UserValue(session); user != nil {
			userID = user.ID
			username = user.Username
		}
	}
	if userID == "" && interaction.Member != nil && interaction.Member.User != nil {
		userID = interaction.Member.User.ID
		username = interaction.Member.User.Username
	}
	if userID == "" {
		b.respond(session, interaction, "❌ No user in context.", true)
		return
	}

	profile, err := b.analytics.Profile(ctx, interaction.GuildID, userID)
	if err != nil {
		b.logger.Warn("stat failed", zap.Error(err))
		b.respond(session, interaction, "❌ Lookup failed.", true)
		return
	}

	fields := []*discordgo.MessageEmbedField{
		{Name: "💰 Coins", Value: fmt.Sprintf("%.2f", profile.Balance), Inline: true},
		{Name: "🏆 Rank", Value: fmt.Sprintf("#%d", profile.Rank), Inline: true},
		{Name: "⭐ Level", Value: fmt.Sprintf("%d (%d/%d XP)", profile.Level, profile.XP, profile.Level*100), Inline: true},
		{Name: "💬 Messages", Value: fmt.Sprintf("%d", profile.Messages), Inline: true},
		{Name: "🎙️ Voice minutes", Value: fmt.Sprintf("%d", profile.VoiceMinutes), Inline: true},
	}
	b.respondEmbed(session, interaction, b.commandEmbed("📊 "+username, "", colorGreen, fields), true)
}

func (b *Bot) handleTop(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	entries, err := b.analytics.Leaderboard(ctx, interaction.GuildID, 10)
	if err != nil {
		b.logger.Warn("leaderboard failed", zap.Error(err))
		b.respond(session, interaction, "❌ Lookup failed.", true)
		return
	}
	if len(entries) == 0 {
		b.respondEmbed(session, interaction, b.commandEmbed("🏆 Leaderboard", "Nobody has coins yet.", colorGold, nil), false)
		return
	}

	var lines []string
	for i, entry := range entries {
		lines = append(lines, fmt.Sprintf("**#%d** <@%s> — %.2f coins (lvl %d)", i+1, entry.UserID, entry.Balance, entry.Level))
	}
	b.respondEmbed(session, interaction, b.commandEmbed("🏆 Leaderboard", strings.Join(lines, "\n"), colorGold, nil), false)
}

func (b *Bot) handleAI(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	if b.chat == nil {
		b.respond(session, interaction, "❌ The assistant is not configured.", true)
		return
	}

	prompt := ""
	if opt, ok := options["prompt"]; ok {
		prompt = opt.StringValue()
	}
	if prompt == "" {
		b.respond(session, interaction, "❌ A prompt is required.", true)
		return
	}

	userID := ""
	if interaction.Member != nil && interaction.Member.User != nil {
		userID = interaction.Member.User.ID
	}
	if opt, ok := options["reset"]; ok && opt.BoolValue() {
		b.chat.Reset(userID)
	}

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	answer, err := b.chat.Ask(ctx, userID, prompt)
	if err != nil {
		b.logger.Warn("chat completion failed", zap.Error(err))
		_, _ = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
			Content: "❌ The assistant did not answer.",
		})
		return
	}
	_, _ = session.FollowupMessageCreate(interaction.Interaction, true, &discordgo.WebhookParams{
		Content: truncateContent(answer, 2000),
	})
}

// truncateContent caps a message at limit characters without splitting a
// rune. The platform limit counts characters, not bytes.
func truncateContent(content string, limit int) string {
	if len(content) <= limit {
		return content
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
