// Package timeouts defines shared timeout constants used across the process.
package timeouts

import "time"

// GRPCDial caps the wait for a gRPC peer to report SERVING.
const GRPCDial = 5 * time.Second

// Shutdown limits how long telemetry flushing may take on exit.
const Shutdown = 5 * time.Second

// RollupRetryMaxInterval caps the pause between rollup node retries.
const RollupRetryMaxInterval = 10 * time.Second

// RollupRetryMaxElapsed is how long the rollup node may stay unreachable
// before the loop gives up.
const RollupRetryMaxElapsed = time.Minute
