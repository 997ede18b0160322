// Package controller defines the contract the orchestrator uses to drive
// subsystems (movement, gathering, combat) and a signal-driven implementation
// for subsystems whose work happens outside this process.
package controller

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/louisbranch/questrunner/internal/services/runner/domain/quest"
)

// Controller is a subsystem the orchestrator can start and stop. Stop must be
// idempotent and must release anything the controller holds.
type Controller[T any] interface {
	Start(ctx context.Context, request T) error
	Stop(reason string)
	IsRunning() bool
}

// Destination is a movement request: a teleport, a position, or both.
type Destination struct {
	Aetheryte string
	Position  *quest.Position
}

// GatherRequest names the node and items to gather.
type GatherRequest struct {
	DataID uint32
	Items  []uint32
}

// Fight describes a combat encounter.
type Fight struct {
	DataID  uint32
	Enemies []uint32
}

// ErrEmptyRequest is returned when a controller is started with nothing to do.
var ErrEmptyRequest = errors.New("controller request is empty")

// Signaled is a controller whose work is performed by an external
// collaborator. It stays running from Start until Complete or Stop.
type Signaled[T any] struct {
	name     string
	validate func(T) error
	logf     func(string, ...any)

	mu      sync.Mutex
	running bool
	request T
}

// Option configures a Signaled controller.
type Option[T any] func(*Signaled[T])

// WithValidator rejects requests before they start.
func WithValidator[T any](validate func(T) error) Option[T] {
	return func(s *Signaled[T]) { s.validate = validate }
}

// WithLogger overrides the log function.
func WithLogger[T any](logf func(string, ...any)) Option[T] {
	return func(s *Signaled[T]) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// NewSignaled builds a named signal-driven controller.
func NewSignaled[T any](name string, opts ...Option[T]) *Signaled[T] {
	s := &Signaled[T]{name: name, logf: log.Printf}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the controller name.
func (s *Signaled[T]) Name() string { return s.name }

// Start records the request and marks the controller running. A running
// controller is restarted with the new request.
func (s *Signaled[T]) Start(ctx context.Context, request T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.validate != nil {
		if err := s.validate(request); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logf("%s controller restarted", s.name)
	}
	s.running = true
	s.request = request
	return nil
}

// Stop marks the controller idle.
func (s *Signaled[T]) Stop(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	var zero T
	s.request = zero
	s.logf("%s controller stopped: reason=%s", s.name, reason)
}

// Complete reports that the external collaborator finished the request. It
// returns false when nothing was running.
func (s *Signaled[T]) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	var zero T
	s.request = zero
	return true
}

// IsRunning reports whether a request is in flight.
func (s *Signaled[T]) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Request returns the in-flight request so the external collaborator can
// act on it.
func (s *Signaled[T]) Request() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request, s.running
}

// ValidateDestination rejects a destination with neither a teleport nor a
// position.
func ValidateDestination(d Destination) error {
	if d.Aetheryte == "" && d.Position == nil {
		return ErrEmptyRequest
	}
	return nil
}

// NewMovement returns the movement controller.
func NewMovement(logf func(string, ...any)) *Signaled[Destination] {
	return NewSignaled("movement", WithValidator(ValidateDestination), WithLogger[Destination](logf))
}

// NewGathering returns the gathering controller.
func NewGathering(logf func(string, ...any)) *Signaled[GatherRequest] {
	return NewSignaled("gathering", WithLogger[GatherRequest](logf))
}
