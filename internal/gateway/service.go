package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dwizi/addrwatch/internal/collect"
	"github.com/dwizi/addrwatch/internal/report"
)

// documentBlockThreshold is the number of report blocks past which the
// export is sent as a single attached file instead of a message series.
const documentBlockThreshold = 4

// Courier delivers gateway output back through the chat platform.
type Courier interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, filename string, data []byte) error
}

type Service struct {
	registry   *collect.Registry
	builder    *report.Builder
	courier    Courier
	operatorID int64
	logger     *slog.Logger
}

type MessageInput struct {
	ChatID int64
	// SenderID is zero for channel posts, which carry no author.
	SenderID int64
	Text     string
}

type MessageOutput struct {
	Handled bool
	Reply   string
}

func New(registry *collect.Registry, builder *report.Builder, courier Courier, operatorID int64, logger *slog.Logger) *Service {
	return &Service{
		registry:   registry,
		builder:    builder,
		courier:    courier,
		operatorID: operatorID,
		logger:     logger,
	}
}

// HandleMessage dispatches a slash command. Non-command text is not
// handled here; the connector routes it to collection instead.
func (s *Service) HandleMessage(ctx context.Context, input MessageInput) (MessageOutput, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return MessageOutput{}, nil
	}

	command, _ := splitCommand(text)
	switch command {
	case "whoami":
		return s.handleWhoami(input), nil
	case "help":
		return s.handleHelp(), nil
	case "watch":
		if !s.fromOperator(input) {
			return MessageOutput{Handled: true}, nil
		}
		return s.handleWatch(input), nil
	case "stop":
		if !s.fromOperator(input) {
			return MessageOutput{Handled: true}, nil
		}
		return s.handleStop(input), nil
	case "status":
		if !s.fromOperator(input) {
			return MessageOutput{Handled: true}, nil
		}
		return s.handleStatus(input), nil
	case "makelist":
		if !s.fromOperator(input) {
			return MessageOutput{Handled: true}, nil
		}
		return s.handleMakeList(ctx, input)
	default:
		return MessageOutput{}, nil
	}
}

// fromOperator reports whether the input may run privileged commands.
// Channel posts have no sender id, so the chat admin who can post there
// is trusted the same way the operator is.
func (s *Service) fromOperator(input MessageInput) bool {
	if input.SenderID == 0 {
		return true
	}
	return input.SenderID == s.operatorID
}

func (s *Service) handleWhoami(input MessageInput) MessageOutput {
	if input.SenderID == 0 {
		return MessageOutput{Handled: true, Reply: "This message carries no sender id (channel post)."}
	}
	return MessageOutput{Handled: true, Reply: fmt.Sprintf("Your user id: %d", input.SenderID)}
}

func (s *Service) handleHelp() MessageOutput {
	lines := []string{"Commands:"}
	for _, command := range SlashCommands() {
		lines = append(lines, fmt.Sprintf("/%s - %s", command.Name, command.Description))
	}
	return MessageOutput{Handled: true, Reply: strings.Join(lines, "\n")}
}

func (s *Service) handleWatch(input MessageInput) MessageOutput {
	s.registry.SetWatching(input.ChatID, true)
	s.logger.Info("watch enabled", "chat_id", input.ChatID)
	return MessageOutput{Handled: true, Reply: "Watching this chat for addresses and names."}
}

func (s *Service) handleStop(input MessageInput) MessageOutput {
	s.registry.SetWatching(input.ChatID, false)
	s.logger.Info("watch disabled", "chat_id", input.ChatID)
	return MessageOutput{Handled: true, Reply: "Stopped watching this chat."}
}

func (s *Service) handleStatus(input MessageInput) MessageOutput {
	snapshot := s.registry.Snapshot(input.ChatID)
	pending, resolved, unresolved := 0, 0, 0
	for _, entry := range snapshot.Names {
		switch entry.Outcome {
		case collect.OutcomePending:
			pending++
		case collect.OutcomeResolved:
			resolved++
		case collect.OutcomeUnresolved:
			unresolved++
		}
	}
	state := "not watching"
	if snapshot.Watching {
		state = "watching"
	}
	reply := fmt.Sprintf(
		"Chat %d: %s\nAddresses: %d\nNames: %d (%d resolved, %d pending, %d unresolved)",
		input.ChatID, state, len(snapshot.Addresses), len(snapshot.Names), resolved, pending, unresolved,
	)
	return MessageOutput{Handled: true, Reply: reply}
}

// handleMakeList exports the chat's address list to the operator's
// direct chat. Long reports go out as one attached file rather than a
// flood of messages.
func (s *Service) handleMakeList(ctx context.Context, input MessageInput) (MessageOutput, error) {
	snapshot := s.registry.Snapshot(input.ChatID)
	blocks := s.builder.Build(snapshot)
	reportID := "report-" + uuid.NewString()

	var deliveryErr error
	if len(blocks) > documentBlockThreshold {
		content := strings.Join(stripPartPrefixes(blocks), "\n")
		filename := fmt.Sprintf("%s.txt", reportID)
		deliveryErr = s.courier.SendDocument(ctx, s.operatorID, filename, []byte(content))
	} else {
		for _, block := range blocks {
			if deliveryErr = s.courier.SendText(ctx, s.operatorID, block); deliveryErr != nil {
				break
			}
		}
	}
	if deliveryErr != nil {
		s.logger.Error("report delivery failed",
			"error", deliveryErr,
			"report_id", reportID,
			"chat_id", input.ChatID,
		)
		return MessageOutput{
			Handled: true,
			Reply:   fmt.Sprintf("Report %s could not be delivered. Check that the operator has started a chat with the bot, then run /makelist again.", reportID),
		}, nil
	}

	s.logger.Info("report exported",
		"report_id", reportID,
		"chat_id", input.ChatID,
		"blocks", len(blocks),
	)
	return MessageOutput{Handled: true, Reply: fmt.Sprintf("Report %s sent to the operator.", reportID)}, nil
}

// stripPartPrefixes drops the "[part i/N]" lines when blocks are
// rejoined into one document.
func stripPartPrefixes(blocks []string) []string {
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if strings.HasPrefix(block, "[part ") {
			if idx := strings.Index(block, "\n"); idx >= 0 {
				block = block[idx+1:]
			}
		}
		out = append(out, block)
	}
	return out
}

func splitCommand(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ""
	}
	if !strings.HasPrefix(trimmed, "/") {
		return "", ""
	}
	trimmed = strings.TrimPrefix(trimmed, "/")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return "", ""
	}
	command := strings.ToLower(fields[0])
	if idx := strings.Index(command, "@"); idx >= 0 {
		command = command[:idx]
	}
	command = NormalizeCommandName(command)

	if len(fields) == 1 {
		return command, ""
	}
	return command, strings.TrimSpace(strings.Join(fields[1:], " "))
}
