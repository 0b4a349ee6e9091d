package gateway

import "strings"

type SlashCommand struct {
	Name        string
	Description string
}

// SlashCommands lists the commands registered with the chat platform so
// clients can offer completion.
func SlashCommands() []SlashCommand {
	return []SlashCommand{
		{
			Name:        "watch",
			Description: "Start collecting addresses in this chat",
		},
		{
			Name:        "stop",
			Description: "Stop collecting in this chat",
		},
		{
			Name:        "status",
			Description: "Show collection counts for this chat",
		},
		{
			Name:        "makelist",
			Description: "Export the collected address list",
		},
		{
			Name:        "whoami",
			Description: "Show your user id",
		},
		{
			Name:        "help",
			Description: "List available commands",
		},
	}
}

func NormalizeCommandName(command string) string {
	normalized := strings.ToLower(strings.TrimSpace(command))
	if normalized == "" {
		return ""
	}
	return strings.ReplaceAll(normalized, "_", "-")
}
