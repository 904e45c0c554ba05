package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/wpbridge/internal/wordpress"
)

func TestMonitor_Check(t *testing.T) {
	src := newFakeSource(1)
	m := NewMonitor(newTestService(src), nil)

	if _, ok := m.Status(); ok {
		t.Fatal("status should be unknown before the first probe")
	}

	st := m.Check(context.Background())
	if !st.OK {
		t.Fatalf("expected healthy source, got %+v", st)
	}
	if st.SourceURL == "" || st.CheckedAt.IsZero() {
		t.Errorf("incomplete status: %+v", st)
	}

	src.pingErr = &wordpress.Error{Kind: wordpress.KindMalformed, Err: errors.New("html")}
	m.Check(context.Background())
	st = m.Check(context.Background())
	if st.OK {
		t.Fatal("expected unhealthy source")
	}
	if st.Class != ClassMalformed || st.Hint == "" {
		t.Errorf("class = %q hint = %q", st.Class, st.Hint)
	}
	if st.Failures != 2 {
		t.Errorf("Failures = %d, want 2", st.Failures)
	}

	src.pingErr = nil
	st = m.Check(context.Background())
	if !st.OK || st.Failures != 0 {
		t.Errorf("expected recovery, got %+v", st)
	}

	last, ok := m.Status()
	if !ok || !last.OK {
		t.Errorf("Status() = %+v, %v", last, ok)
	}
}
