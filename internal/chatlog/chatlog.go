package chatlog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is one transcript line for a watched chat. Entries append to
// <DataDir>/logs/chats/<connector>/<chatID>.md so an operator can audit
// where a collected address came from.
type Entry struct {
	DataDir   string
	Connector string
	ChatID    int64
	ChatTitle string
	// Direction is "inbound" for chat traffic and "outbound" for bot
	// replies.
	Direction string
	SenderID  int64
	Text      string
	Timestamp time.Time
}

var pathSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

func Append(entry Entry) error {
	dataDir := strings.TrimSpace(entry.DataDir)
	if dataDir == "" {
		return nil
	}
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return nil
	}

	connector := sanitizeSegment(entry.Connector)
	if connector == "" {
		connector = "unknown"
	}
	timestamp := entry.Timestamp.UTC()
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	baseDir := filepath.Join(dataDir, "logs", "chats", connector)
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}
	logPath := filepath.Join(baseDir, strconv.FormatInt(entry.ChatID, 10)+".md")

	header := ""
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		header = fmt.Sprintf("# Chat Log\n\n- connector: `%s`\n- chat_id: `%d`\n- title: `%s`\n\n", connector, entry.ChatID, strings.TrimSpace(entry.ChatTitle))
	}

	direction := strings.TrimSpace(strings.ToLower(entry.Direction))
	if direction == "" {
		direction = "inbound"
	}
	sender := "channel"
	if direction == "outbound" {
		sender = "bot"
	}
	if entry.SenderID != 0 {
		sender = strconv.FormatInt(entry.SenderID, 10)
	}
	body := fmt.Sprintf(
		"## %s `%s`\n- direction: `%s`\n- sender: `%s`\n\n%s\n\n",
		timestamp.Format(time.RFC3339),
		strings.ToUpper(direction),
		direction,
		sender,
		text,
	)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	if header != "" {
		if _, err := file.WriteString(header); err != nil {
			return err
		}
	}
	if _, err := file.WriteString(body); err != nil {
		return err
	}
	return nil
}

func sanitizeSegment(value string) string {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.ReplaceAll(trimmed, " ", "-")
	trimmed = pathSanitizer.ReplaceAllString(trimmed, "-")
	trimmed = strings.Trim(trimmed, "-.")
	return strings.ToLower(trimmed)
}
