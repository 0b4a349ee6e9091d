package connectors

import "context"

// Connector is a chat platform adapter. Start blocks until the context
// is cancelled.
type Connector interface {
	Name() string
	Start(ctx context.Context) error
}
