package multisig

import "context"

// Notifier executes thread commands against the chat platform.
type Notifier interface {
	CreateThread(ctx context.Context, cmd CreateThread) (ThreadHandle, error)
	UpdateThread(ctx context.Context, cmd UpdateThread) error
	CloseThread(ctx context.Context, cmd CloseThread) error
	// DeleteThread removes a thread whose call could not be recorded.
	DeleteThread(ctx context.Context, thread ThreadHandle) error
}

type CreateThread struct {
	Topic string
	Card  Card
}

type UpdateThread struct {
	Thread ThreadHandle
	Card   Card
}

// CloseThread posts Card into the thread, then archives and locks it.
type CloseThread struct {
	Thread  ThreadHandle
	Card    Card
	Outcome Outcome
}

type CardColor int

const (
	ColorPending CardColor = 0x9b59b6
	ColorSuccess CardColor = 0x1f8b4c
	ColorFailure CardColor = 0xe74c3c
)

type CardField struct {
	Name  string
	Value string
}

type Link struct {
	Label string
	URL   string
}

// Card is the rendered content of one thread message.
type Card struct {
	Title       string
	Description string
	Author      string
	Color       CardColor
	Fields      []CardField
	Links       []Link
}

// Field returns the value of the named field.
func (c Card) Field(name string) (string, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
