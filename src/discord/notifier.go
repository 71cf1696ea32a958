package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

// Session is the subset of *discordgo.Session the notifier drives.
type Session interface {
	ForumThreadStartComplex(channelID string, threadData *discordgo.ThreadStart, messageData *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelEditComplex(channelID string, data *discordgo.ChannelEdit, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

var _ multisig.Notifier = (*Notifier)(nil)

// Notifier opens one forum post per call in ChannelID. The thread id doubles as
// the starter message id, so it is the only handle kept.
type Notifier struct {
	session   Session
	channelID string
}

func NewNotifier(s Session, channelID string) *Notifier {
	return &Notifier{session: s, channelID: channelID}
}

func (n *Notifier) CreateThread(ctx context.Context, cmd multisig.CreateThread) (multisig.ThreadHandle, error) {
	thread, err := n.session.ForumThreadStartComplex(
		n.channelID,
		&discordgo.ThreadStart{Name: truncateForDiscord(cmd.Topic, MaxThreadNameLen)},
		&discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{BuildEmbed(cmd.Card)},
			Components: BuildLinkButtons(cmd.Card.Links),
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return "", fmt.Errorf("discord: start forum post %s: %w", cmd.Topic, err)
	}
	if thread == nil || thread.ID == "" {
		return "", fmt.Errorf("discord: start forum post %s: no thread returned", cmd.Topic)
	}
	return multisig.ThreadHandle(thread.ID), nil
}

func (n *Notifier) UpdateThread(ctx context.Context, cmd multisig.UpdateThread) error {
	id := string(cmd.Thread)
	embeds := []*discordgo.MessageEmbed{BuildEmbed(cmd.Card)}
	edit := &discordgo.MessageEdit{
		ID:      id,
		Channel: id,
		Embeds:  &embeds,
	}
	if buttons := BuildLinkButtons(cmd.Card.Links); len(buttons) > 0 {
		edit.Components = &buttons
	}
	if _, err := n.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: edit thread %s: %w", id, err)
	}
	return nil
}

func (n *Notifier) CloseThread(ctx context.Context, cmd multisig.CloseThread) error {
	id := string(cmd.Thread)
	_, err := n.session.ChannelMessageSendComplex(id, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{BuildEmbed(cmd.Card)},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: post result to %s: %w", id, err)
	}

	archived, locked := true, true
	_, err = n.session.ChannelEditComplex(id, &discordgo.ChannelEdit{
		Archived: &archived,
		Locked:   &locked,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: archive thread %s: %w", id, err)
	}
	return nil
}

// DeleteThread removes the forum post. A post that is already gone counts as deleted.
func (n *Notifier) DeleteThread(ctx context.Context, thread multisig.ThreadHandle) error {
	id := string(thread)
	_, err := n.session.ChannelDelete(id, discordgo.WithContext(ctx))
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("discord: delete thread %s: %w", id, err)
	}
	return nil
}

// ThreadURL links to a thread in a guild.
func ThreadURL(guildID string, thread multisig.ThreadHandle) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s", guildID, thread)
}
