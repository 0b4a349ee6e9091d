package collect

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dwizi/addrwatch/internal/extract"
)

// Resolver turns a name into an address. An empty address with a nil
// error means the name has no record. Implementations are expected to
// be slow (network) and may fail; the pipeline absorbs both.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// Collector is the per-message pipeline: extract identifiers from text,
// merge them into the chat's state, and kick off background resolution
// for names seen for the first time. Message handling never waits on a
// resolution.
type Collector struct {
	registry  *Registry
	extractor *extract.Extractor
	resolver  Resolver
	timeout   time.Duration
	logger    *slog.Logger
	inflight  sync.WaitGroup
}

func NewCollector(registry *Registry, extractor *extract.Extractor, resolver Resolver, timeout time.Duration, logger *slog.Logger) *Collector {
	if timeout < time.Second {
		timeout = 10 * time.Second
	}
	return &Collector{
		registry:  registry,
		extractor: extractor,
		resolver:  resolver,
		timeout:   timeout,
		logger:    logger,
	}
}

// OnText feeds one inbound message into the pipeline. It is a no-op for
// chats that are not watching. Feeding the same text twice leaves the
// chat state unchanged and schedules no duplicate resolutions.
func (c *Collector) OnText(ctx context.Context, chatID int64, text string) {
	state := c.registry.Ensure(chatID)
	if !state.Watching() {
		return
	}

	newAddresses := 0
	for _, address := range c.extractor.Addresses(text) {
		if state.AddAddress(address) {
			newAddresses++
		}
	}

	newNames := 0
	for _, name := range c.extractor.Names(text) {
		_, schedule := state.LookupOrSchedule(name)
		if !schedule {
			continue
		}
		newNames++
		if c.resolver == nil {
			state.Settle(name, "")
			continue
		}
		c.scheduleResolution(state, chatID, name)
	}

	if newAddresses > 0 || newNames > 0 {
		c.logger.Info("identifiers collected",
			"chat_id", chatID,
			"new_addresses", newAddresses,
			"new_names", newNames,
		)
	}
}

// scheduleResolution runs the backend call detached from the message
// path. The goroutine carries its own deadline so a hung backend cannot
// pile up workers, and the outcome lands whenever it lands: an export
// racing a resolution sees either pending or the settled value.
func (c *Collector) scheduleResolution(state *ChatState, chatID int64, name string) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		resolveCtx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		address, err := c.resolver.Resolve(resolveCtx, name)
		if err != nil {
			c.logger.Warn("name resolution failed", "chat_id", chatID, "name", name, "error", err)
			state.Settle(name, "")
			return
		}
		state.Settle(name, address)
	}()
}

// Drain waits for in-flight resolutions, bounded by ctx. Used on
// shutdown so background settles are not cut off mid-write.
func (c *Collector) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
