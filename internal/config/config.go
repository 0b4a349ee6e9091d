package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Resolver modes: "off" skips name resolution entirely, "checksum"
// formats addresses without touching the network, "full" also resolves
// names on chain.
const (
	ResolverModeOff      = "off"
	ResolverModeChecksum = "checksum"
	ResolverModeFull     = "full"
)

type Config struct {
	Environment string
	DataDir     string

	TelegramToken string
	TelegramAPI   string
	TelegramPoll  int

	OperatorID int64

	ResolverMode       string
	EthNodeURL         string
	ENSRegistry        string
	ResolveTimeoutSec  int
	NameSuffix         string
	ReportBlockBytes   int
	AutoWatchEnabled   bool
	CommandSyncEnabled bool

	DigestCron     string
	DigestTimezone string
}

func FromEnv() Config {
	return Config{
		Environment: stringOrDefault("ADDRWATCH_ENV", "development"),
		DataDir:     stringOrDefault("ADDRWATCH_DATA_DIR", "/data"),

		TelegramToken: os.Getenv("ADDRWATCH_TELEGRAM_TOKEN"),
		TelegramAPI:   stringOrDefault("ADDRWATCH_TELEGRAM_API_BASE", "https://api.telegram.org"),
		TelegramPoll:  intOrDefault("ADDRWATCH_TELEGRAM_POLL_SECONDS", 25),

		OperatorID: int64OrDefault("ADDRWATCH_OPERATOR_ID", 0),

		ResolverMode:       resolverModeOrDefault("ADDRWATCH_RESOLVER_MODE", ResolverModeChecksum),
		EthNodeURL:         strings.TrimSpace(os.Getenv("ADDRWATCH_ETH_NODE_URL")),
		ENSRegistry:        strings.TrimSpace(os.Getenv("ADDRWATCH_ENS_REGISTRY")),
		ResolveTimeoutSec:  intOrDefault("ADDRWATCH_RESOLVE_TIMEOUT_SECONDS", 10),
		NameSuffix:         stringOrDefault("ADDRWATCH_NAME_SUFFIX", "eth"),
		ReportBlockBytes:   intOrDefault("ADDRWATCH_REPORT_BLOCK_BYTES", 3500),
		AutoWatchEnabled:   boolOrDefault("ADDRWATCH_AUTO_WATCH_ENABLED", true),
		CommandSyncEnabled: boolOrDefault("ADDRWATCH_COMMAND_SYNC_ENABLED", true),

		DigestCron:     strings.TrimSpace(os.Getenv("ADDRWATCH_DIGEST_CRON")),
		DigestTimezone: stringOrDefault("ADDRWATCH_DIGEST_TIMEZONE", "UTC"),
	}
}

// Validate rejects configurations the runtime cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TelegramToken) == "" {
		return fmt.Errorf("ADDRWATCH_TELEGRAM_TOKEN is required")
	}
	if c.OperatorID == 0 {
		return fmt.Errorf("ADDRWATCH_OPERATOR_ID is required")
	}
	if c.ResolverMode == ResolverModeFull && c.EthNodeURL == "" {
		return fmt.Errorf("ADDRWATCH_ETH_NODE_URL is required when resolver mode is %q", ResolverModeFull)
	}
	return nil
}

func stringOrDefault(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func intOrDefault(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 1 {
		return fallback
	}
	return parsed
}

func int64OrDefault(name string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolOrDefault(name string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func resolverModeOrDefault(name, fallback string) string {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	switch value {
	case ResolverModeOff, ResolverModeChecksum, ResolverModeFull:
		return value
	default:
		return fallback
	}
}
