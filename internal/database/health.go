package database

import (
	"context"
	"fmt"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function, such as a redis client's ping, to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Check pings every named dependency and reports the first failure.
func Check(ctx context.Context, deps map[string]Pinger) error {
	for name, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
