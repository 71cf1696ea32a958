package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

const MaxDiscordMessageLen = 2000

// FilterCalls keeps the states whose hash hex starts with prefix. The 0x is optional.
func FilterCalls(states []multisig.CallState, prefix string) []multisig.CallState {
	prefix = strings.TrimPrefix(strings.ToLower(prefix), "0x")
	if prefix == "" {
		return states
	}
	var out []multisig.CallState
	for _, st := range states {
		if strings.HasPrefix(st.CallHash.Hex(), prefix) {
			out = append(out, st)
		}
	}
	return out
}

// BuildCallsResponse lists open calls as thread mentions, one per line.
func BuildCallsResponse(states []multisig.CallState) *discordgo.InteractionResponseData {
	content := "No open multisig calls."
	if len(states) > 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "**Open multisig calls (%d)**\n", len(states))
		for i, st := range states {
			line := fmt.Sprintf("<#%s> `%s` by %s, %d voter(s)\n", st.Thread, shortHash(st.CallHash), st.Proposer, len(st.Voters))
			if b.Len()+len(line) > MaxDiscordMessageLen-20 {
				fmt.Fprintf(&b, "...and %d more", len(states)-i)
				break
			}
			b.WriteString(line)
		}
		content = strings.TrimRight(b.String(), "\n")
	}
	return &discordgo.InteractionResponseData{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}
}

func shortHash(h multisig.CallHash) string {
	s := h.String()
	if len(s) <= 14 {
		return s
	}
	return s[:10] + "…" + s[len(s)-4:]
}
