// Package timeouts defines shared timeout constants used across questrunner
// components.
package timeouts

import "time"

// GRPCDial caps the wait time when dialing the combat automation engine.
const GRPCDial = 2 * time.Second

// EngineCall caps a single lease protocol request. The tick loop never waits
// on the engine longer than this.
const EngineCall = 500 * time.Millisecond

// EngineProbe caps the liveness probe consulted before each encounter.
const EngineProbe = 250 * time.Millisecond

// Shutdown limits how long the runtime waits for in-flight work
// during graceful shutdown.
const Shutdown = 5 * time.Second
