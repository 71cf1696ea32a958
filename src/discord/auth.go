package discord

import "github.com/bwmarrin/discordgo"

// HasRole checks whether the interaction member has a role, fetching the member
// from the guild when the interaction did not carry one. Empty roleID always returns true.
func HasRole(s *discordgo.Session, i *discordgo.InteractionCreate, roleID string) bool {
	if roleID == "" {
		return true
	}
	member := i.Member
	if member == nil {
		if i.User == nil || i.GuildID == "" {
			return false
		}
		fetched, err := s.GuildMember(i.GuildID, i.User.ID)
		if err != nil {
			return false
		}
		member = fetched
	}
	for _, role := range member.Roles {
		if role == roleID {
			return true
		}
	}
	return false
}
