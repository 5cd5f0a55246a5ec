package agentclient

import (
	"os"
	"sync"
)

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns the process-wide Client, constructed on first use from
// ANTHROPIC_API_KEY. Later calls return the same instance, so the
// circuit breaker's state is shared across every caller in the process
// (§9's one permitted piece of module-level mutable state).
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = New(os.Getenv("ANTHROPIC_API_KEY"))
	})
	return defaultClient
}
