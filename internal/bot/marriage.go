package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	marryAcceptPrefix  = "marry_accept:"
	marryDeclinePrefix = "marry_decline:"
)

type proposal struct {
	guildID    string
	proposerID string
	targetID   string
	createdAt  time.Time
}

// proposalRegistry holds pending marriage proposals in memory, keyed by the
// interaction that opened them. Entries expire after ttl and a restart
// forgets them all.
type proposalRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]proposal
}

func newProposalRegistry(ttl time.Duration) *proposalRegistry {
	return &proposalRegistry{ttl: ttl, entries: make(map[string]proposal)}
}

// add stores the proposal and drops any entries that have already
// expired, so ignored proposals do not pile up.
func (r *proposalRegistry) add(key string, p proposal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range r.entries {
		if p.createdAt.Sub(v.createdAt) > r.ttl {
			delete(r.entries, k)
		}
	}
	r.entries[key] = p
}

// take removes and returns the proposal, reporting false when it is
// unknown or has already expired.
func (r *proposalRegistry) take(key string, now time.Time) (proposal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[key]
	if !ok {
		return proposal{}, false
	}
	delete(r.entries, key)
	if now.Sub(p.createdAt) > r.ttl {
		return proposal{}, false
	}
	return p, true
}

func (r *proposalRegistry) peek(key string, now time.Time) (proposal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.entries[key]
	if !ok || now.Sub(p.createdAt) > r.ttl {
		return proposal{}, false
	}
	return p, true
}

func (b *Bot) handleMarry(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, options map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	if interaction.Member == nil || interaction.Member.User == nil {
		return
	}
	proposer := interaction.Member.User

	opt, ok := options["partner"]
	if !ok {
		b.respond(session, interaction, "❌ Missing partner.", true)
		return
	}
	partner := opt.UserValue(session)
	if partner == nil {
		b.respond(session, interaction, "❌ Missing partner.", true)
		return
	}
	if partner.ID == proposer.ID {
		b.respond(session, interaction, "❌ You cannot marry yourself.", true)
		return
	}
	if partner.Bot {
		b.respond(session, interaction, "❌ Bots do not marry.", true)
		return
	}

	if _, married, err := b.store.GetMarriage(ctx, interaction.GuildID, proposer.ID); err != nil {
		b.logger.Warn("marriage lookup failed", zap.Error(err))
		b.respond(session, interaction, "❌ Lookup failed.", true)
		return
	} else if married {
		b.respond(session, interaction, "❌ You are already married.", true)
		return
	}
	if _, married, err := b.store.GetMarriage(ctx, interaction.GuildID, partner.ID); err != nil {
		b.logger.Warn("marriage lookup failed", zap.Error(err))
		b.respond(session, interaction, "❌ Lookup failed.", true)
		return
	} else if married {
		b.respond(session, interaction, fmt.Sprintf("❌ <@%s> is already married.", partner.ID), true)
		return
	}

	key := interaction.ID
	b.proposals.add(key, proposal{
		guildID:    interaction.GuildID,
		proposerID: proposer.ID,
		targetID:   partner.ID,
		createdAt:  time.Now(),
	})

	embed := b.commandEmbed("💍 Proposal",
		fmt.Sprintf("<@%s> proposes to <@%s>!\nYou have 60 seconds to answer.", proposer.ID, partner.ID),
		colorPurple, nil)

	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("<@%s>", partner.ID),
			Embeds:  []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{Label: "Accept", Style: discordgo.SuccessButton, CustomID: marryAcceptPrefix + key, Emoji: discordgo.ComponentEmoji{Name: "💖"}},
						discordgo.Button{Label: "Decline", Style: discordgo.DangerButton, CustomID: marryDeclinePrefix + key, Emoji: discordgo.ComponentEmoji{Name: "💔"}},
					},
				},
			},
		},
	})
}

func (b *Bot) handleMarriageDecision(ctx context.Context, session *discordgo.Session, interaction *discordgo.InteractionCreate, customID string) {
	accept := strings.HasPrefix(customID, marryAcceptPrefix)
	key := strings.TrimPrefix(strings.TrimPrefix(customID, marryAcceptPrefix), marryDeclinePrefix)

	if interaction.Member == nil || interaction.Member.User == nil {
		return
	}
	clicker := interaction.Member.User.ID

	now := time.Now()
	pending, ok := b.proposals.peek(key, now)
	if !ok {
		b.updateProposalMessage(session, interaction, b.commandEmbed("💍 Proposal", "This proposal has expired.", colorGray, nil))
		return
	}
	if clicker != pending.targetID {
		b.respond(session, interaction, "❌ Only the proposed partner can answer.", true)
		return
	}

	pending, ok = b.proposals.take(key, now)
	if !ok {
		b.updateProposalMessage(session, interaction, b.commandEmbed("💍 Proposal", "This proposal has expired.", colorGray, nil))
		return
	}

	if !accept {
		b.updateProposalMessage(session, interaction,
			b.commandEmbed("💔 Declined", fmt.Sprintf("<@%s> declined the proposal.", pending.targetID), colorGray, nil))
		return
	}

	// Marital status may have changed while the proposal sat open.
	if _, married, err := b.store.GetMarriage(ctx, pending.guildID, pending.proposerID); err != nil || married {
		b.updateProposalMessage(session, interaction,
			b.commandEmbed("💔 Too late", fmt.Sprintf("<@%s> is no longer available.", pending.proposerID), colorGray, nil))
		return
	}
	if _, married, err := b.store.GetMarriage(ctx, pending.guildID, pending.targetID); err != nil || married {
		b.updateProposalMessage(session, interaction,
			b.commandEmbed("💔 Too late", fmt.Sprintf("<@%s> is no longer available.", pending.targetID), colorGray, nil))
		return
	}

	if err := b.store.CreateMarriage(ctx, pending.guildID, pending.proposerID, pending.targetID, now); err != nil {
		b.logger.Warn("marriage create failed", zap.Error(err))
		b.updateProposalMessage(session, interaction,
			b.commandEmbed("💔 Error", "The ceremony failed, try again.", colorRed, nil))
		return
	}

	b.updateProposalMessage(session, interaction,
		b.commandEmbed("💒 Married!", fmt.Sprintf("<@%s> and <@%s> are now married! 🎉", pending.proposerID, pending.targetID), colorPurple, nil))
}

// updateProposalMessage rewrites the proposal message in place and strips
// the buttons so it cannot be answered twice.
func (b *Bot) updateProposalMessage(session *discordgo.Session, interaction *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	_ = session.InteractionRespond(interaction.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    "",
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: []discordgo.MessageComponent{},
		},
	})
}
