package discovery

import "testing"

func TestDefaultGRPCAddr(t *testing.T) {
	cases := map[string]string{
		ServiceRunner:   "questrunner:8095",
		ServiceRotation: "rotation:8096",
		"unknown":       "",
	}
	for service, want := range cases {
		if got := DefaultGRPCAddr(service); got != want {
			t.Fatalf("DefaultGRPCAddr(%q) = %q, want %q", service, got, want)
		}
	}
}

func TestOrDefaultGRPCAddr(t *testing.T) {
	if got := OrDefaultGRPCAddr(" custom:9000 ", ServiceRotation); got != "custom:9000" {
		t.Fatalf("expected explicit grpc addr to win, got %q", got)
	}
	if got := OrDefaultGRPCAddr("", ServiceRotation); got != "rotation:8096" {
		t.Fatalf("expected default grpc addr, got %q", got)
	}
}

func TestDefaultGRPCPort(t *testing.T) {
	if got := DefaultGRPCPort(ServiceRunner); got != 8095 {
		t.Fatalf("DefaultGRPCPort = %d, want 8095", got)
	}
	if got := DefaultGRPCPort("missing"); got != 0 {
		t.Fatalf("DefaultGRPCPort(missing) = %d, want 0", got)
	}
}
