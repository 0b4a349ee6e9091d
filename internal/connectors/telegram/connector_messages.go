package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/dwizi/addrwatch/internal/chatlog"
	"github.com/dwizi/addrwatch/internal/gateway"
)

func (c *Connector) handleMessage(ctx context.Context, message telegramMessage) error {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}
	if text == "" {
		return nil
	}
	c.logInbound(message, text)

	output, err := c.gateway.HandleMessage(ctx, gateway.MessageInput{
		ChatID:   message.Chat.ID,
		SenderID: message.From.ID,
		Text:     text,
	})
	if err != nil {
		return err
	}
	if output.Handled {
		reply := strings.TrimSpace(output.Reply)
		if reply == "" {
			return nil
		}
		c.logOutbound(message, reply)
		return c.sendMessage(ctx, message.Chat.ID, reply)
	}

	// Everything that is not a command feeds collection. The collector
	// ignores chats that are not being watched.
	if c.collector != nil {
		c.collector.OnText(ctx, message.Chat.ID, text)
	}
	return nil
}

func (c *Connector) logInbound(message telegramMessage, text string) {
	if err := chatlog.Append(chatlog.Entry{
		DataDir:   c.dataDir,
		Connector: "telegram",
		ChatID:    message.Chat.ID,
		ChatTitle: message.Chat.Title,
		Direction: "inbound",
		SenderID:  message.From.ID,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		c.logger.Error("inbound log append failed", "error", err, "chat_id", message.Chat.ID)
	}
}

func (c *Connector) logOutbound(message telegramMessage, text string) {
	if err := chatlog.Append(chatlog.Entry{
		DataDir:   c.dataDir,
		Connector: "telegram",
		ChatID:    message.Chat.ID,
		ChatTitle: message.Chat.Title,
		Direction: "outbound",
		Text:      text,
		Timestamp: time.Now().UTC(),
	}); err != nil {
		c.logger.Error("outbound log append failed", "error", err, "chat_id", message.Chat.ID)
	}
}
