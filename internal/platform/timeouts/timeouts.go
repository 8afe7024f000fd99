// Package timeouts defines shared timeout constants used across turnwatch.
// Centralizing these values prevents drift between components and makes the
// durations discoverable.
package timeouts

import "time"

// RemoteFetch caps one conditional GET against the game state server.
const RemoteFetch = 10 * time.Second

// TransportSend caps one outbound chat API call.
const TransportSend = 10 * time.Second

// UpdatePoll is the long-poll window the chat transport holds open while
// waiting for inbound updates.
const UpdatePoll = 30 * time.Second

// Shutdown limits how long the process waits for in-flight work during
// graceful shutdown.
const Shutdown = 5 * time.Second
