package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Request804/DiscordbotReque/internal/analytics"
	"github.com/Request804/DiscordbotReque/internal/chat"
	"github.com/Request804/DiscordbotReque/internal/config"
	"github.com/Request804/DiscordbotReque/internal/economy"
	"github.com/Request804/DiscordbotReque/internal/moderation"
	"github.com/Request804/DiscordbotReque/internal/storage"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorBlue   = 0x3498DB
	colorRed    = 0xE74C3C
	colorGreen  = 0x2ECC71
	colorGold   = 0xF1C40F
	colorPurple = 0x9B59B6
	colorOrange = 0xE67E22
	colorGray   = 0x607D8B
)

type Bot struct {
	cfg        config.Config
	logger     *zap.Logger
	store      *storage.Store
	economy    *economy.Service
	moderation *moderation.Service
	analytics  *analytics.Service
	chat       *chat.Proxy
	sessions   *economy.SessionTracker
	session    *discordgo.Session
	proposals  *proposalRegistry

	sweepCancel context.CancelFunc
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, economySvc *economy.Service, moderationSvc *moderation.Service, analyticsSvc *analytics.Service, chatProxy *chat.Proxy, sessions *economy.SessionTracker) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	return &Bot{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		economy:    economySvc,
		moderation: moderationSvc,
		analytics:  analyticsSvc,
		chat:       chatProxy,
		sessions:   sessions,
		session:    session,
		proposals:  newProposalRegistry(time.Minute),
	}, nil
}

func (b *Bot) Start() error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onVoiceStateUpdate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	if err := b.registerCommands(); err != nil {
		return err
	}

	sweepCtx, cancel := context.WithCancel(context.Background())
	b.sweepCancel = cancel
	b.moderation.StartSweeper(sweepCtx)

	return nil
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.sweepCancel != nil {
		b.sweepCancel()
	}
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready", zap.String("user", session.State.User.Username))
}

func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if msg.Author == nil || msg.Author.Bot {
		return
	}
	if msg.GuildID == "" {
		return
	}

	ctx := context.Background()
	words := len(strings.Fields(msg.Content))
	result, err := b.economy.RecordMessage(ctx, msg.GuildID, msg.Author.ID, words)
	if err != nil {
		b.logger.Warn("message accrual failed", zap.Error(err))
		return
	}
	b.notifyRewards(msg.Author.ID, result.Milestone, result.LevelUps, result.NewLevel)
}

func (b *Bot) onVoiceStateUpdate(session *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.UserID == "" || event.GuildID == "" {
		return
	}

	if event.ChannelID != "" {
		if !b.sessions.Active(event.GuildID, event.UserID) {
			b.sessions.Start(event.GuildID, event.UserID, time.Now())
		}
		return
	}

	elapsed, ok := b.sessions.Stop(event.GuildID, event.UserID, time.Now())
	if !ok {
		return
	}
	minutes := int64(elapsed / time.Minute)
	if minutes <= 0 {
		return
	}

	ctx := context.Background()
	result, err := b.economy.RecordVoice(ctx, event.GuildID, event.UserID, minutes)
	if err != nil {
		b.logger.Warn("voice accrual failed", zap.Error(err))
		return
	}
	b.notifyRewards(event.UserID, result.Milestone, result.LevelUps, result.NewLevel)
}

// notifyRewards delivers milestone and level-up notices by direct message.
// Delivery failures (closed DMs) are ignored, and nothing is retried.
func (b *Bot) notifyRewards(userID string, milestone, levelUps, newLevel int) {
	if milestone > 0 {
		b.sendDM(userID, fmt.Sprintf("🎉 You crossed %d coins!", milestone))
	}
	if levelUps > 0 {
		b.sendDM(userID, fmt.Sprintf("⬆️ You reached level %d!", newLevel))
	}
}

func (b *Bot) sendDM(userID, content string) {
	channel, err := b.session.UserChannelCreate(userID)
	if err != nil {
		return
	}
	_, _ = b.session.ChannelMessageSend(channel.ID, content)
}

func (b *Bot) memberForUser(guildID, userID string) *discordgo.Member {
	member, err := b.session.State.Member(guildID, userID)
	if err == nil && member != nil {
		return member
	}
	member, _ = b.session.GuildMember(guildID, userID)
	return member
}

func (b *Bot) guildRoles(guildID string) map[string]*discordgo.Role {
	guild, err := b.session.State.Guild(guildID)
	if err != nil || guild == nil {
		guild, _ = b.session.Guild(guildID)
	}
	if guild == nil {
		return nil
	}
	roles := make(map[string]*discordgo.Role, len(guild.Roles))
	for _, role := range guild.Roles {
		roles[role.ID] = role
	}
	return roles
}

func highestRolePosition(roles map[string]*discordgo.Role, member *discordgo.Member) int {
	position := -1
	if member == nil {
		return position
	}
	for _, roleID := range member.Roles {
		if role := roles[roleID]; role != nil && role.Position > position {
			position = role.Position
		}
	}
	return position
}

// outranks reports whether the actor's highest role sits strictly above the
// target's. Equal positions do not outrank.
func (b *Bot) outranks(guildID string, actor, target *discordgo.Member) bool {
	roles := b.guildRoles(guildID)
	if roles == nil {
		return false
	}
	return highestRolePosition(roles, actor) > highestRolePosition(roles, target)
}

func roleNames(roles map[string]*discordgo.Role, member *discordgo.Member, guildID string) []string {
	var names []string
	if member == nil {
		return names
	}
	for _, roleID := range member.Roles {
		role := roles[roleID]
		if role == nil || role.ID == guildID {
			continue
		}
		names = append(names, role.Name)
	}
	return names
}

func (b *Bot) respond(session *discordgo.Session, interaction *discordgo.InteractionCreate, content string, ephemeral bool) {
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   flags,
		},
	})
}

func (b *Bot) respondEmbed(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, ephemeral bool) {
	if embed == nil {
		b.respond(session, interaction, "No response available.", ephemeral)
		return
	}
	flags := discordgo.MessageFlags(0)
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  flags,
		},
	})
}

func (b *Bot) commandEmbed(title, description string, color int, fields []*discordgo.MessageEmbedField) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		result[opt.Name] = opt
	}
	return result
}
