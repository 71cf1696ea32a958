package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

const (
	MaxThreadNameLen     = 100
	MaxEmbedTitleLen     = 256
	MaxEmbedDescLen      = 4096
	MaxEmbedFieldNameLen = 256
	MaxEmbedFieldLen     = 1024
	MaxEmbedAuthorLen    = 256
	MaxButtonLabelLen    = 80
	maxButtonsPerRow     = 5
)

// BuildEmbed renders a card as a single embed, truncating to Discord's limits.
func BuildEmbed(card multisig.Card) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       truncateForDiscord(card.Title, MaxEmbedTitleLen),
		Description: truncateForDiscord(card.Description, MaxEmbedDescLen),
		Color:       int(card.Color),
	}
	if card.Author != "" {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: truncateForDiscord(card.Author, MaxEmbedAuthorLen)}
	}
	for _, f := range card.Fields {
		value := f.Value
		if value == "" {
			// empty field values are rejected by the API
			value = "-"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  truncateForDiscord(f.Name, MaxEmbedFieldNameLen),
			Value: truncateForDiscord(value, MaxEmbedFieldLen),
		})
	}
	return embed
}

// BuildLinkButtons turns card links into rows of link buttons.
func BuildLinkButtons(links []multisig.Link) []discordgo.MessageComponent {
	if len(links) == 0 {
		return nil
	}

	var rows []discordgo.MessageComponent
	var current []discordgo.MessageComponent
	for _, link := range links {
		if link.URL == "" {
			continue
		}
		current = append(current, discordgo.Button{
			Label: truncateForDiscord(link.Label, MaxButtonLabelLen),
			Style: discordgo.LinkButton,
			URL:   link.URL,
		})
		if len(current) == maxButtonsPerRow {
			rows = append(rows, discordgo.ActionsRow{Components: current})
			current = nil
		}
	}
	if len(current) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: current})
	}
	return rows
}

func truncateForDiscord(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}
