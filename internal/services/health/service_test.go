package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckReportsStore(t *testing.T) {
	ok := NewService(pingFunc(func(context.Context) error { return nil }), "sqlite")
	if st := ok.Check(context.Background()); !st.OK || st.Store != "sqlite" {
		t.Fatalf("unexpected status %+v", st)
	}

	down := NewService(pingFunc(func(context.Context) error { return errors.New("refused") }), "postgres")
	st := down.Check(context.Background())
	if st.OK || st.Error == "" {
		t.Fatalf("expected unhealthy status, got %+v", st)
	}
}

func TestCheckWithoutStore(t *testing.T) {
	if st := NewService(nil, "").Check(context.Background()); !st.OK {
		t.Fatalf("expected ok without store")
	}
}
