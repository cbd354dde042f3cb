package wa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
	_ "modernc.org/sqlite"

	"loanbot/internal/convo"
	"loanbot/internal/metrics"
)

// Config holds configuration to initialise the WhatsApp client.
type Config struct {
	StorePath string
	LogLevel  string
	Metrics   *metrics.Metrics
}

// EventProcessor consumes normalized inbound events. The conversation
// dispatcher implements it.
type EventProcessor interface {
	ProcessEvent(ctx context.Context, evt convo.Event)
}

// Client wraps the WhatsMeow client and associated dependencies.
type Client struct {
	client    *whatsmeow.Client
	logger    *slog.Logger
	metrics   *metrics.Metrics
	processor EventProcessor
}

// New creates a new WhatsApp client instance backed by an SQLite store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.StorePath == "" {
		return nil, errors.New("store path is required")
	}

	if err := ensureDir(filepath.Dir(cfg.StorePath)); err != nil {
		return nil, fmt.Errorf("ensure store dir: %w", err)
	}

	storeLogger := waLog.Stdout("whatsmeow/sqlstore", cfg.LogLevel, true)
	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout=10000&_pragma=foreign_keys(ON)", cfg.StorePath), storeLogger)
	if err != nil {
		return nil, fmt.Errorf("create sqlstore: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	waLogger := waLog.Stdout("whatsmeow/client", cfg.LogLevel, true)
	client := whatsmeow.NewClient(deviceStore, waLogger)

	wc := &Client{
		client:  client,
		logger:  logger.With("component", "wa"),
		metrics: cfg.Metrics,
	}
	client.AddEventHandler(wc.handleEvent)

	return wc, nil
}

// Start connects the client and handles login/QR pairing flow.
func (c *Client) Start(ctx context.Context) error {
	if c.client.Store.ID == nil {
		c.logger.Info("pairing required, waiting for QR scan")
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("get qr channel: %w", err)
		}

		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					c.logger.Info("scan the QR code with WhatsApp", "qr", evt.Code)
				} else {
					c.logger.Info("pairing event received", "event", evt.Event)
				}
			}
		}()
	}

	if err := c.client.Connect(); err != nil {
		return fmt.Errorf("connect wa client: %w", err)
	}

	c.logger.Info("whatsapp client connected")
	return nil
}

// Close disconnects the WhatsApp client.
func (c *Client) Close() {
	if c.client != nil {
		c.client.Disconnect()
	}
}

// SetEventProcessor registers the inbound event consumer.
func (c *Client) SetEventProcessor(processor EventProcessor) {
	c.processor = processor
}

func (c *Client) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		c.handleMessage(v)
	case *events.Connected:
		c.logger.Info("device connected")
	case *events.Disconnected:
		c.logger.Warn("device disconnected")
	}
}

func (c *Client) handleMessage(evt *events.Message) {
	if evt.Message == nil || evt.Info.IsFromMe || evt.Info.IsGroup {
		return
	}

	event, ok := extractEvent(evt)
	if !ok {
		c.logger.Info("ignoring unsupported message type", "from", evt.Info.Sender.String())
		return
	}

	c.logger.Info("received message",
		"from", event.UserID,
		"kind", event.Kind(),
		"event_id", event.EventID,
	)

	if c.processor != nil {
		go c.processor.ProcessEvent(context.Background(), event)
	}
}

// extractEvent normalizes the supported WhatsApp payload shapes: plain and
// extended text, quick-reply buttons, list rows, template button replies and
// native flow form submissions.
func extractEvent(evt *events.Message) (convo.Event, bool) {
	out := convo.Event{
		UserID:     evt.Info.Sender.ToNonAD().User,
		EventID:    string(evt.Info.ID),
		PushName:   evt.Info.PushName,
		ReceivedAt: evt.Info.Timestamp,
	}
	msg := evt.Message

	switch {
	case msg.GetConversation() != "":
		out.Text = msg.GetConversation()
	case msg.ExtendedTextMessage != nil:
		out.Text = msg.GetExtendedTextMessage().GetText()
	case msg.ButtonsResponseMessage != nil:
		out.ButtonID = msg.GetButtonsResponseMessage().GetSelectedButtonID()
	case msg.TemplateButtonReplyMessage != nil:
		out.ButtonID = msg.GetTemplateButtonReplyMessage().GetSelectedID()
	case msg.ListResponseMessage != nil:
		out.ListID = msg.GetListResponseMessage().GetSingleSelectReply().GetSelectedRowID()
	case msg.InteractiveResponseMessage != nil:
		flow := msg.GetInteractiveResponseMessage().GetNativeFlowResponseMessage()
		if flow == nil {
			return convo.Event{}, false
		}
		form := map[string]string{}
		if err := json.Unmarshal([]byte(flow.GetParamsJSON()), &form); err != nil {
			return convo.Event{}, false
		}
		out.Form = form
	default:
		return convo.Event{}, false
	}
	return out, true
}

func userJID(phone string) types.JID {
	return types.NewJID(phone, types.DefaultUserServer)
}

// SendText sends a plain text message to the given phone identifier.
func (c *Client) SendText(ctx context.Context, phone, text string) error {
	message := &waProto.Message{
		Conversation: proto.String(text),
	}
	if _, err := c.client.SendMessage(ctx, userJID(phone), message); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// SendButtons sends a message with quick-reply buttons. WhatsApp caps the
// buttons at three per message.
func (c *Client) SendButtons(ctx context.Context, phone, body string, buttons []convo.Button) error {
	if len(buttons) == 0 {
		return c.SendText(ctx, phone, body)
	}
	if len(buttons) > 3 {
		buttons = buttons[:3]
	}

	rendered := make([]*waProto.ButtonsMessage_Button, 0, len(buttons))
	for _, b := range buttons {
		rendered = append(rendered, &waProto.ButtonsMessage_Button{
			ButtonID: proto.String(b.ID),
			ButtonText: &waProto.ButtonsMessage_Button_ButtonText{
				DisplayText: proto.String(b.Label),
			},
			Type: waProto.ButtonsMessage_Button_RESPONSE.Enum(),
		})
	}

	message := &waProto.Message{
		ButtonsMessage: &waProto.ButtonsMessage{
			ContentText: proto.String(body),
			Buttons:     rendered,
			HeaderType:  waProto.ButtonsMessage_EMPTY.Enum(),
		},
	}
	if _, err := c.client.SendMessage(ctx, userJID(phone), message); err != nil {
		return fmt.Errorf("send buttons: %w", err)
	}
	return nil
}

func ensureDir(dir string) error {
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}
