package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

func (c *Connector) Start(ctx context.Context) error {
	if c.token == "" {
		c.logger.Info("connector disabled, token missing")
		<-ctx.Done()
		return nil
	}
	if c.gateway == nil {
		c.logger.Info("connector disabled, gateway missing")
		<-ctx.Done()
		return nil
	}

	c.logger.Info("connector started", "api_base", c.apiBase)
	if username, err := c.fetchBotUsername(ctx); err == nil {
		c.botUsername = username
		if c.botUsername != "" {
			c.logger.Info("telegram bot identity loaded", "username", c.botUsername)
		}
	} else {
		c.logger.Warn("telegram bot username lookup failed", "error", err)
	}
	if c.commandSync {
		if err := c.syncCommands(ctx); err != nil {
			c.logger.Warn("telegram command sync failed", "error", err)
		} else {
			c.logger.Info("telegram commands synced")
		}
	}

	for {
		if ctx.Err() != nil {
			c.logger.Info("connector stopped")
			return nil
		}
		if err := c.pollOnce(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error("poll failed", "error", err)
			select {
			case <-ctx.Done():
				c.logger.Info("connector stopped")
				return nil
			case <-time.After(1500 * time.Millisecond):
			}
		}
	}
}

func (c *Connector) pollOnce(ctx context.Context) error {
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d&offset=%d", c.apiBase, c.token, c.pollSeconds, c.offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	var payload getUpdatesResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return fmt.Errorf("decode getUpdates: %w", err)
	}
	if !payload.OK {
		return fmt.Errorf("telegram getUpdates failed")
	}

	for _, update := range payload.Result {
		if update.UpdateID >= c.offset {
			c.offset = update.UpdateID + 1
		}
		if update.MyChatMember != nil {
			c.handleMembership(*update.MyChatMember)
			continue
		}
		message := update.Message
		if message == nil {
			// Channel posts carry no sender; SenderID stays zero.
			message = update.ChannelPost
		}
		if message == nil {
			continue
		}
		if err := c.handleMessage(ctx, *message); err != nil {
			c.logger.Error("handle message failed", "error", err, "update_id", update.UpdateID)
		}
	}
	return nil
}

// handleMembership auto-watches chats the bot is added to and drops the
// watch flag when it is removed.
func (c *Connector) handleMembership(member telegramChatMember) {
	if c.watches == nil {
		return
	}
	switch member.NewMember.Status {
	case "member", "administrator":
		if !c.autoWatch || !isGroupChat(member.Chat.Type) {
			return
		}
		c.watches.SetWatching(member.Chat.ID, true)
		c.logger.Info("auto-watch enabled", "chat_id", member.Chat.ID, "title", member.Chat.Title)
	case "left", "kicked":
		c.watches.SetWatching(member.Chat.ID, false)
		c.logger.Info("watch cleared after removal", "chat_id", member.Chat.ID)
	}
}

// isGroupChat reports whether a chat type is one the bot collects from
// when added. Private chats never auto-watch; a "member" status there
// just means the user unblocked the bot.
func isGroupChat(chatType string) bool {
	switch chatType {
	case "group", "supergroup", "channel":
		return true
	}
	return false
}
