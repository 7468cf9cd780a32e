package health

import (
	"context"
	"time"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	store   Pinger
	name    string
	timeout time.Duration
}

// NewService constructs a health service checking the named store.
func NewService(store Pinger, name string) *Service {
	return &Service{store: store, name: name, timeout: 2 * time.Second}
}

// Status is the health payload.
type Status struct {
	OK    bool   `json:"ok"`
	Store string `json:"store,omitempty"`
	Error string `json:"error,omitempty"`
}

// Check pings the store within a short deadline.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Store: s.name}
	if s.store == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		st.OK = false
		st.Error = "store unreachable"
	}
	return st
}
