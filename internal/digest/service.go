package digest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dwizi/addrwatch/internal/collect"
	"github.com/dwizi/addrwatch/internal/report"
)

var digestCronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const defaultTimezone = "UTC"

// Courier delivers digest output to the operator.
type Courier interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Service periodically exports the address list of every watched chat
// to the operator. An empty cron expression disables it.
type Service struct {
	registry   *collect.Registry
	builder    *report.Builder
	courier    Courier
	operatorID int64
	cronExpr   string
	timezone   string
	logger     *slog.Logger
}

func New(registry *collect.Registry, builder *report.Builder, courier Courier, operatorID int64, cronExpr, timezone string, logger *slog.Logger) *Service {
	return &Service{
		registry:   registry,
		builder:    builder,
		courier:    courier,
		operatorID: operatorID,
		cronExpr:   normalizeCronExpr(cronExpr),
		timezone:   strings.TrimSpace(timezone),
		logger:     logger,
	}
}

func (s *Service) Name() string {
	return "digest"
}

func (s *Service) Start(ctx context.Context) error {
	if s.cronExpr == "" {
		s.logger.Info("digest disabled, no schedule configured")
		<-ctx.Done()
		return nil
	}
	// Fail fast on a bad expression instead of at the first tick.
	if _, err := NextRun(s.cronExpr, s.timezone, time.Now().UTC()); err != nil {
		return fmt.Errorf("digest schedule: %w", err)
	}
	s.logger.Info("digest started", "schedule", s.cronExpr, "timezone", s.timezone)

	for {
		next, err := NextRun(s.cronExpr, s.timezone, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("digest schedule: %w", err)
		}
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("digest stopped")
			return nil
		case <-timer.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce exports every watched chat. A failed send for one chat does
// not stop the others.
func (s *Service) runOnce(ctx context.Context) {
	chats := s.registry.WatchingChats()
	if len(chats) == 0 {
		s.logger.Info("digest tick, no watched chats")
		return
	}
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	exported := 0
	for _, chatID := range chats {
		snapshot := s.registry.Snapshot(chatID)
		if len(snapshot.Addresses) == 0 && len(snapshot.Names) == 0 {
			continue
		}
		exported++
		blocks := s.builder.Build(snapshot)
		if err := s.courier.SendText(ctx, s.operatorID, fmt.Sprintf("Digest for chat %d:", chatID)); err != nil {
			s.logger.Error("digest header send failed", "error", err, "chat_id", chatID)
			continue
		}
		for _, block := range blocks {
			if err := s.courier.SendText(ctx, s.operatorID, block); err != nil {
				s.logger.Error("digest block send failed", "error", err, "chat_id", chatID)
				break
			}
		}
	}
	s.logger.Info("digest sent", "chats", exported)
}

// NextRun resolves the next tick for the expression in the provided
// IANA timezone, returned in UTC.
func NextRun(cronExpr, timezone string, from time.Time) (time.Time, error) {
	cronExpr = normalizeCronExpr(cronExpr)
	if cronExpr == "" {
		return time.Time{}, nil
	}
	base := from
	if base.IsZero() {
		base = time.Now().UTC()
	}
	if strings.TrimSpace(timezone) == "" {
		timezone = defaultTimezone
	}
	location, err := time.LoadLocation(strings.TrimSpace(timezone))
	if err != nil {
		return time.Time{}, fmt.Errorf("load timezone: %w", err)
	}
	spec, err := digestCronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression: %w", err)
	}
	return spec.Next(base.In(location)).UTC(), nil
}

func normalizeCronExpr(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
