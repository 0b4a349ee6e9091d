package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dwizi/addrwatch/internal/collect"
	"github.com/dwizi/addrwatch/internal/config"
	"github.com/dwizi/addrwatch/internal/connectors"
	"github.com/dwizi/addrwatch/internal/connectors/telegram"
	"github.com/dwizi/addrwatch/internal/digest"
	"github.com/dwizi/addrwatch/internal/extract"
	"github.com/dwizi/addrwatch/internal/gateway"
	"github.com/dwizi/addrwatch/internal/report"
	"github.com/dwizi/addrwatch/internal/resolve"
)

type Runtime struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *collect.Registry
	collector  *collect.Collector
	connectors []connectors.Connector
}

func New(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	registry := collect.NewRegistry()
	extractor := extract.New(cfg.NameSuffix)

	var resolver collect.Resolver
	switch cfg.ResolverMode {
	case config.ResolverModeFull:
		resolver = resolve.NewENSResolver(cfg.EthNodeURL, cfg.ENSRegistry, logger.With("component", "resolver"))
	case config.ResolverModeOff, config.ResolverModeChecksum:
		// No on-chain lookups; names stay unresolved.
	}

	collector := collect.NewCollector(
		registry,
		extractor,
		resolver,
		time.Duration(cfg.ResolveTimeoutSec)*time.Second,
		logger.With("component", "collector"),
	)

	var checksum func(string) (string, error)
	if cfg.ResolverMode != config.ResolverModeOff {
		checksum = resolve.ChecksumAddress
	}
	builder := report.NewBuilder(checksum, cfg.ReportBlockBytes)

	connector := telegram.New(
		cfg.TelegramToken,
		cfg.TelegramAPI,
		cfg.DataDir,
		cfg.TelegramPoll,
		collector,
		registry,
		logger.With("connector", "telegram"),
		telegram.WithCommandSync(cfg.CommandSyncEnabled),
		telegram.WithAutoWatch(cfg.AutoWatchEnabled),
	)

	// The gateway replies through the connector, so it is wired in
	// after both exist.
	commandGateway := gateway.New(registry, builder, connector, cfg.OperatorID, logger.With("component", "gateway"))
	connector.SetGateway(commandGateway)

	runtimeConnectors := []connectors.Connector{connector}
	if cfg.DigestCron != "" {
		runtimeConnectors = append(runtimeConnectors, digest.New(
			registry,
			builder,
			connector,
			cfg.OperatorID,
			cfg.DigestCron,
			cfg.DigestTimezone,
			logger.With("component", "digest"),
		))
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		collector:  collector,
		connectors: runtimeConnectors,
	}, nil
}
