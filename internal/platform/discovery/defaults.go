// Package discovery centralizes the in-network address conventions of the
// questrunner deployment.
package discovery

import (
	"strconv"
	"strings"
)

const (
	// ServiceRunner is the questrunner health gRPC identity.
	ServiceRunner = "questrunner"
	// ServiceRotation is the combat automation engine gRPC identity.
	ServiceRotation = "rotation"
)

var grpcPorts = map[string]int{
	ServiceRunner:   8095,
	ServiceRotation: 8096,
}

// DefaultGRPCAddr returns the canonical in-network gRPC address for a service.
func DefaultGRPCAddr(service string) string {
	return defaultAddr(strings.TrimSpace(service), grpcPorts)
}

// OrDefaultGRPCAddr returns value when set, otherwise the service convention.
func OrDefaultGRPCAddr(value, service string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	return DefaultGRPCAddr(service)
}

// DefaultGRPCPort returns the conventional listen port for a gRPC service, or 0.
func DefaultGRPCPort(service string) int {
	return grpcPorts[strings.TrimSpace(service)]
}

func defaultAddr(service string, ports map[string]int) string {
	port, ok := ports[service]
	if !ok || port <= 0 {
		return ""
	}
	return service + ":" + strconv.Itoa(port)
}
