package handler

import (
	"github.com/bwmarrin/discordgo"

	"stan-guard/internal/logger"
)

var commandDefinitions = []*discordgo.ApplicationCommand{
	{
		Name:        "warn",
		Description: "Warn a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to warn", true),
			stringOption("reason", "Reason for the warning", false),
			stringOption("duration", "How long the warning stands, e.g. 1d 6h", false),
		},
	},
	{
		Name:        "deletewarn",
		Description: "Remove a member's most recent warning",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to clear", true),
		},
	},
	{
		Name:        "warnlist",
		Description: "List a member's standing warnings",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to inspect", true),
		},
	},
	{
		Name:        "mute",
		Description: "Mute a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to mute", true),
			stringOption("reason", "Reason for the mute", false),
			stringOption("duration", "How long to mute, e.g. 30m", false),
		},
	},
	{
		Name:        "unmute",
		Description: "Lift a member's mute",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to unmute", true),
		},
	},
	{
		Name:        "mutelist",
		Description: "List currently muted members",
	},
	{
		Name:        "kick",
		Description: "Kick a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to kick", true),
			stringOption("reason", "Reason for the kick", false),
		},
	},
	{
		Name:        "ban",
		Description: "Ban a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to ban", true),
			stringOption("reason", "Reason for the ban", false),
		},
	},
	{
		Name:        "unban",
		Description: "Lift a ban by user id",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("user_id", "Id of the banned user", true),
		},
	},
	{
		Name:        "banlist",
		Description: "List currently banned users",
	},
	{
		Name:        "report",
		Description: "Report a member to the moderators",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to report", true),
			stringOption("reason", "What happened", false),
		},
	},
	{
		Name:        "verify",
		Description: "Verify a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to verify", true),
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "What to do with the member",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Give gendered role", Value: "assign"},
					{Name: "Deny access", Value: "deny"},
					{Name: "Change gendered role", Value: "swap"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "gender",
				Description: "Which role to give",
				Required:    false,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Man", Value: "male"},
					{Name: "Woman", Value: "female"},
				},
			},
		},
	},
	{
		Name:        "clear",
		Description: "Delete the most recent messages in this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "count",
				Description: "How many messages to delete (max 100)",
				Required:    true,
			},
		},
	},
	{
		Name:        "settings",
		Description: "Show or change this server's moderation settings",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("key", "Setting to change; omit to show all", false),
			stringOption("value", "New value; omit to be prompted", false),
		},
	},
}

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

// RegisterCommands overwrites the application's global slash commands.
func (h *Handler) RegisterCommands() error {
	session := h.adapter.Session()
	_, err := session.ApplicationCommandBulkOverwrite(session.State.User.ID, "", commandDefinitions)
	return err
}

func (h *Handler) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.GuildID == "" || i.Member == nil {
		h.reply(i, "This command only works inside a server.")
		return
	}

	data := i.ApplicationCommandData()
	logger.Debugf("Command /%s by %s in guild %s", data.Name, i.Member.User.ID, i.GuildID)

	switch data.Name {
	case "warn":
		h.handleWarn(i, data)
	case "deletewarn":
		h.handleDeleteWarn(i, data)
	case "warnlist":
		h.handleWarnList(i, data)
	case "mute":
		h.handleMute(i, data)
	case "unmute":
		h.handleUnmute(i, data)
	case "mutelist":
		h.handleMuteList(i)
	case "kick":
		h.handleKick(i, data)
	case "ban":
		h.handleBan(i, data)
	case "unban":
		h.handleUnban(i, data)
	case "banlist":
		h.handleBanList(i)
	case "report":
		h.handleReport(i, data)
	case "verify":
		h.handleVerify(i, data)
	case "clear":
		h.handleClear(i, data)
	case "settings":
		h.handleSettings(i, data)
	default:
		h.reply(i, "Unknown command.")
	}
}

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		options[opt.Name] = opt
	}
	return options
}

func stringValue(options map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := options[name]; ok {
		return opt.StringValue()
	}
	return ""
}
