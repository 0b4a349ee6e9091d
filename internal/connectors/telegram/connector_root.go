package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dwizi/addrwatch/internal/gateway"
)

// CommandGateway handles slash commands routed off the update stream.
type CommandGateway interface {
	HandleMessage(ctx context.Context, input gateway.MessageInput) (gateway.MessageOutput, error)
}

// Collector receives non-command text from watched chats.
type Collector interface {
	OnText(ctx context.Context, chatID int64, text string)
}

// WatchControl flips the per-chat watch flag when the bot joins or
// leaves a chat.
type WatchControl interface {
	SetWatching(chatID int64, watching bool)
}

type Connector struct {
	token       string
	apiBase     string
	dataDir     string
	pollSeconds int
	commandSync bool
	autoWatch   bool
	gateway     CommandGateway
	collector   Collector
	watches     WatchControl
	httpClient  *http.Client
	logger      *slog.Logger
	botUsername string
	offset      int64
}

type Option func(*Connector)

func WithCommandSync(enabled bool) Option {
	return func(connector *Connector) {
		connector.commandSync = enabled
	}
}

// WithAutoWatch makes the connector start watching a chat as soon as
// the bot is added to it, without waiting for /watch.
func WithAutoWatch(enabled bool) Option {
	return func(connector *Connector) {
		connector.autoWatch = enabled
	}
}

func New(token, apiBase, dataDir string, pollSeconds int, collector Collector, watches WatchControl, logger *slog.Logger, opts ...Option) *Connector {
	if strings.TrimSpace(apiBase) == "" {
		apiBase = "https://api.telegram.org"
	}
	if pollSeconds < 1 {
		pollSeconds = 25
	}
	connector := &Connector{
		token:       strings.TrimSpace(token),
		apiBase:     strings.TrimRight(strings.TrimSpace(apiBase), "/"),
		dataDir:     strings.TrimSpace(dataDir),
		pollSeconds: pollSeconds,
		commandSync: true,
		collector:   collector,
		watches:     watches,
		httpClient: &http.Client{
			Timeout: time.Duration(pollSeconds+10) * time.Second,
		},
		logger: logger,
		offset: 0,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(connector)
		}
	}
	return connector
}

func (c *Connector) Name() string {
	return "telegram"
}

// SetGateway wires the command gateway after construction. The gateway
// needs the connector as its courier, so it cannot exist first.
func (c *Connector) SetGateway(commandGateway CommandGateway) {
	c.gateway = commandGateway
}
