// Package tools exposes the runner's control surface as MCP tools: status,
// start/step/stop/skip, quest simulation, external signals, priority list
// management with clipboard exchange, quest search and the validation report.
package tools
