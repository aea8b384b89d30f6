// Package delivery defines the contract for inbound adapters run by the application.
package delivery

import "context"

// Delivery is a long-running inbound adapter such as the HTTP server or the expiry worker.
type Delivery interface {
	// Serve blocks until the delivery stops or fails.
	Serve(ctx context.Context) error
}
