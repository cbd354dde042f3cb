package convo

import (
	"context"
	"log/slog"
	"time"
)

// Event is a single inbound WhatsApp interaction, normalized by the transport
// layer. Exactly one of Text, ButtonID, ListID or Form carries the payload.
type Event struct {
	UserID     string
	EventID    string
	Text       string
	ButtonID   string
	ListID     string
	Form       map[string]string
	PushName   string
	ReceivedAt time.Time
}

// Kind labels the event for metrics.
func (e Event) Kind() string {
	switch {
	case len(e.Form) > 0:
		return "form"
	case e.ButtonID != "":
		return "button"
	case e.ListID != "":
		return "list"
	default:
		return "text"
	}
}

// payload returns whichever field carries the user's input, buttons and list
// rows taking precedence over free text.
func (e Event) payload() string {
	if e.ButtonID != "" {
		return e.ButtonID
	}
	if e.ListID != "" {
		return e.ListID
	}
	return e.Text
}

type ActionKind string

const (
	ActionPrompt           ActionKind = "prompt"
	ActionReminder         ActionKind = "reminder"
	ActionDecisionResult   ActionKind = "decision_result"
	ActionAnswer           ActionKind = "answer"
	ActionEscalationNotice ActionKind = "escalation_notice"
)

// Button is a quick-reply option attached to an outgoing message.
type Button struct {
	ID    string
	Label string
}

// Action is one outgoing message the transport layer must deliver. Actions
// returned from a single event are sent in order.
type Action struct {
	Kind    ActionKind
	Text    string
	Buttons []Button
}

func prompt(text string, buttons ...Button) Action {
	return Action{Kind: ActionPrompt, Text: text, Buttons: buttons}
}

// EscalationTicket is handed to the support queue when the bot gives up.
type EscalationTicket struct {
	ID        string
	Phone     string
	Question  string
	Queue     string
	CreatedAt time.Time
}

// Handoff delivers escalation tickets to the human support channel. Notify
// must not block the conversation; slow transports should queue internally.
type Handoff interface {
	Notify(ctx context.Context, t EscalationTicket)
}

// LogHandoff records tickets in the log. It stands in when no ticketing
// transport is configured.
type LogHandoff struct {
	Logger *slog.Logger
}

func (h *LogHandoff) Notify(_ context.Context, t EscalationTicket) {
	h.Logger.Info("escalation ticket",
		"ticket_id", t.ID,
		"phone", t.Phone,
		"queue", t.Queue,
		"question", t.Question,
	)
}
