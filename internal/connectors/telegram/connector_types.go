package telegram

import "regexp"

type getUpdatesResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

type telegramUpdate struct {
	UpdateID     int64               `json:"update_id"`
	Message      *telegramMessage    `json:"message"`
	ChannelPost  *telegramMessage    `json:"channel_post"`
	MyChatMember *telegramChatMember `json:"my_chat_member"`
}

type telegramMessage struct {
	MessageID int64        `json:"message_id"`
	From      telegramUser `json:"from"`
	Chat      telegramChat `json:"chat"`
	Text      string       `json:"text"`
	Caption   string       `json:"caption"`
}

type telegramChat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title"`
}

type telegramUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// telegramChatMember is the my_chat_member update: the bot's own
// membership in a chat changed.
type telegramChatMember struct {
	Chat      telegramChat `json:"chat"`
	NewMember struct {
		Status string `json:"status"`
	} `json:"new_chat_member"`
}

var telegramCommandSanitizer = regexp.MustCompile(`[^a-z0-9_]+`)
