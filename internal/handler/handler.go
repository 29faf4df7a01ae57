// Package handler wires Discord gateway events and slash commands to the
// moderation core. It stays thin: parse, delegate, reply once.
package handler

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/automod"
	"stan-guard/internal/logger"
	"stan-guard/internal/moderation"
	"stan-guard/internal/platform/discord"
	"stan-guard/internal/service"
	"stan-guard/internal/storage"
)

type Handler struct {
	adapter   *discord.Adapter
	orch      *moderation.Orchestrator
	settings  *service.SettingsService
	members   *service.MemberService
	engine    *automod.Engine
	tracker   *automod.JoinTracker
	sanctions *storage.SanctionRepository
	prompts   *promptRegistry
}

func New(
	adapter *discord.Adapter,
	orch *moderation.Orchestrator,
	settings *service.SettingsService,
	members *service.MemberService,
	engine *automod.Engine,
	sanctions *storage.SanctionRepository,
) *Handler {
	return &Handler{
		adapter:   adapter,
		orch:      orch,
		settings:  settings,
		members:   members,
		engine:    engine,
		tracker:   automod.NewJoinTracker(),
		sanctions: sanctions,
		prompts:   newPromptRegistry(),
	}
}

// Register attaches every gateway handler to the session.
func (h *Handler) Register() {
	session := h.adapter.Session()
	session.AddHandler(h.onReady)
	session.AddHandler(h.onGuildCreate)
	session.AddHandler(h.onGuildDelete)
	session.AddHandler(h.onMessageCreate)
	session.AddHandler(h.onGuildMemberAdd)
	session.AddHandler(h.onGuildMemberRemove)
	session.AddHandler(h.onInteraction)
}

// reply sends the single ephemeral response every command interaction gets,
// success or failure.
func (h *Handler) reply(i *discordgo.InteractionCreate, content string) {
	err := h.adapter.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Errorf("Interaction reply failed: %v", err)
	}
}

// failureReply maps a pipeline error to the actor-facing message. Causes
// not meant for end users collapse into a generic failure.
func failureReply(err error) string {
	var validation *moderation.ValidationError
	var authorization *moderation.AuthorizationError

	switch {
	case errors.Is(err, moderation.ErrMaxWarnings):
		return "This member already has the maximum number of warnings."
	case errors.As(err, &validation):
		return "Invalid request: " + validation.Reason + "."
	case errors.As(err, &authorization):
		return "Not allowed: " + authorization.Reason + "."
	default:
		logger.Errorf("Moderation action failed: %v", err)
		return "The action could not be completed."
	}
}
