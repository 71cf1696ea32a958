package discord

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandCalls = "calls"
	// OptionHash narrows /calls to hashes starting with the given hex prefix.
	OptionHash = "hash"
)

// CommandCreator is the part of *discordgo.Session used for registration.
type CommandCreator interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
}

var commandDefinitions = map[string]*discordgo.ApplicationCommand{
	CommandCalls: {
		Name:        CommandCalls,
		Description: "List open multisig calls and their threads",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        OptionHash,
				Description: "Call hash or hex prefix",
				Required:    false,
			},
		},
	},
}

// RegisterSlashCommands registers the named commands for a guild, all known
// commands when names is empty. Already registered commands are skipped.
func RegisterSlashCommands(s CommandCreator, appID, guildID string, names ...string) error {
	if guildID == "" {
		return fmt.Errorf("discord: guildID is required to register slash commands")
	}
	if len(names) == 0 {
		names = []string{CommandCalls}
	}

	var failures []string
	for _, name := range names {
		definition, ok := commandDefinitions[name]
		if !ok {
			log.Printf("discord: unknown slash command %q", name)
			continue
		}
		if _, err := s.ApplicationCommandCreate(appID, guildID, definition); err != nil {
			if isDuplicateCommandError(err) {
				log.Printf("discord: slash command %q already registered", name)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("discord: slash command registration errors: %s", strings.Join(failures, "; "))
	}
	return nil
}

// HashOption returns the trimmed, lower-cased hash filter of a /calls invocation.
func HashOption(data discordgo.ApplicationCommandInteractionData) string {
	for _, opt := range data.Options {
		if opt.Name == OptionHash && opt.Type == discordgo.ApplicationCommandOptionString {
			return strings.ToLower(strings.TrimSpace(opt.StringValue()))
		}
	}
	return ""
}

func isDuplicateCommandError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		if strings.Contains(strings.ToLower(restErr.Message.Message), "already exists") {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "50035") && strings.Contains(msg, "already exists")
}
