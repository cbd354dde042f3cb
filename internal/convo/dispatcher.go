package convo

import (
	"context"
	"log/slog"

	"loanbot/internal/metrics"
)

// Sender delivers outgoing messages to one phone identifier. The WhatsApp
// client implements it.
type Sender interface {
	SendText(ctx context.Context, phone, text string) error
	SendButtons(ctx context.Context, phone, body string, buttons []Button) error
}

// Dispatcher feeds inbound events to the engine and ships the resulting
// actions back out through the sender.
type Dispatcher struct {
	engine  *Engine
	sender  Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewDispatcher(engine *Engine, sender Sender, metricRegistry *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		engine:  engine,
		sender:  sender,
		metrics: metricRegistry,
		logger:  logger.With("component", "dispatcher"),
	}
}

// ProcessEvent handles one normalized inbound event end to end.
func (d *Dispatcher) ProcessEvent(ctx context.Context, evt Event) {
	d.metrics.WAIncomingMessages.WithLabelValues(evt.Kind()).Inc()

	actions, err := d.engine.HandleEvent(ctx, evt)
	if err != nil {
		d.logger.Error("event handling failed", "user", evt.UserID, "event_id", evt.EventID, "error", err)
		d.metrics.Errors.WithLabelValues("convo").Inc()
		return
	}
	d.deliver(ctx, evt.UserID, actions)
}

// SweepIdle runs one inactivity pass and delivers the due reminders. Wired to
// the cron scheduler.
func (d *Dispatcher) SweepIdle(ctx context.Context) {
	reminders, err := d.engine.SweepIdle(ctx)
	if err != nil {
		d.logger.Error("idle sweep failed", "error", err)
		d.metrics.Errors.WithLabelValues("convo").Inc()
		return
	}
	for _, r := range reminders {
		d.deliver(ctx, r.Phone, []Action{r.Action})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, phone string, actions []Action) {
	for _, a := range actions {
		var err error
		if len(a.Buttons) > 0 {
			err = d.sender.SendButtons(ctx, phone, a.Text, a.Buttons)
		} else {
			err = d.sender.SendText(ctx, phone, a.Text)
		}
		if err != nil {
			d.logger.Error("send failed", "user", phone, "kind", a.Kind, "error", err)
			d.metrics.Errors.WithLabelValues("wa").Inc()
			continue
		}
		d.metrics.WAOutgoingActions.WithLabelValues(string(a.Kind)).Inc()
	}
}
