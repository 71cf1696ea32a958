package multisig

import (
	"fmt"
	"math/big"
	"strings"
)

// DefaultDisplayScale turns raw weights into whole tokens for display.
var DefaultDisplayScale = big.NewInt(1_000_000)

const (
	FieldAyes     = "Aye Votes"
	FieldNays     = "Nay Votes"
	FieldVoters   = "Voters"
	FieldCallHash = "Call Hash"
	FieldCall     = "Call"
	FieldResult   = "Result"
)

// Renderer builds thread cards. Fields the notifier must carry are fixed here;
// styling is left to the adapter.
type Renderer struct {
	Scale   *big.Int
	VoteURL func(hash CallHash) string
}

// Scaled divides a raw weight by the display scale, truncating.
func (r Renderer) Scaled(w *big.Int) string {
	if w == nil {
		return "0"
	}
	scale := r.Scale
	if scale == nil || scale.Sign() <= 0 {
		scale = DefaultDisplayScale
	}
	return new(big.Int).Quo(w, scale).String()
}

func (r Renderer) VoterList(voters map[string]Vote) string {
	lines := make([]string, 0, len(voters))
	for _, who := range SortedVoters(voters) {
		v := voters[who]
		lines = append(lines, fmt.Sprintf("%s - %s - %s", who, r.Scaled(v.Weight), v.Kind))
	}
	return strings.Join(lines, "\n")
}

// OpenCard renders the starter message of a call thread.
func (r Renderer) OpenCard(coreID uint32, executor, author string, hash CallHash, call Call, tally Tally, voters map[string]Vote) Card {
	card := Card{
		Title:       "New Multisig Call",
		Description: fmt.Sprintf("Core ID: %d, account: %s", coreID, executor),
		Author:      "Author: " + author,
		Color:       ColorPending,
		Fields: []CardField{
			{Name: FieldAyes, Value: r.Scaled(tally.Ayes)},
			{Name: FieldNays, Value: r.Scaled(tally.Nays)},
			{Name: FieldVoters, Value: r.VoterList(voters)},
			{Name: FieldCallHash, Value: hash.String()},
			{Name: FieldCall, Value: callText(call)},
		},
	}
	if r.VoteURL != nil {
		if u := r.VoteURL(hash); u != "" {
			card.Links = append(card.Links, Link{Label: "Vote", URL: u})
		}
	}
	return card
}

// ClosedCard renders the final result message.
func (r Renderer) ClosedCard(ev Executed) Card {
	color, result := ColorSuccess, "Successful"
	if !ev.Outcome.OK {
		color, result = ColorFailure, "Error"
		if ev.Outcome.Error != "" {
			result += ": " + ev.Outcome.Error
		}
	}
	return Card{
		Title:       "Multisig Call Executed",
		Description: fmt.Sprintf("Core ID: %d, account: %s", ev.CoreID, ev.Executor),
		Author:      "Last voter: " + ev.Voter,
		Color:       color,
		Fields: []CardField{
			{Name: FieldCallHash, Value: ev.CallHash.String()},
			{Name: FieldCall, Value: callText(ev.Call)},
			{Name: FieldResult, Value: result},
		},
	}
}

func callText(c Call) string {
	if c.Decoded != "" {
		return c.Decoded
	}
	if len(c.Raw) > 0 {
		return fmt.Sprintf("0x%x", c.Raw)
	}
	return "unknown"
}

// startTally is the tally shown before any aggregate is reported: the proposer's vote only.
func startTally(v Vote) Tally {
	t := Tally{Ayes: new(big.Int), Nays: new(big.Int)}
	if v.Kind == Nay {
		t.Nays.Set(weightOf(v))
	} else {
		t.Ayes.Set(weightOf(v))
	}
	return t
}
