package reaper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type mockJobStore struct {
	deleteCalls []time.Time
	deleted     int64
	deleteErr   error
}

func (m *mockJobStore) DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.deleteCalls = append(m.deleteCalls, cutoff)
	return m.deleted, m.deleteErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_DefaultRetention(t *testing.T) {
	r := New(&mockJobStore{}, 0, testLogger())
	if r.retention != DefaultRetention {
		t.Errorf("expected default retention %v, got %v", DefaultRetention, r.retention)
	}
}

func TestRunOnce_CutoffRespectsRetention(t *testing.T) {
	mock := &mockJobStore{deleted: 3}
	r := New(mock, 48*time.Hour, testLogger())

	before := time.Now().Add(-48 * time.Hour)
	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Now().Add(-48 * time.Hour)

	if len(mock.deleteCalls) != 1 {
		t.Fatalf("expected 1 delete call, got %d", len(mock.deleteCalls))
	}
	cutoff := mock.deleteCalls[0]
	if cutoff.Before(before) || cutoff.After(after) {
		t.Errorf("cutoff %v outside expected window [%v, %v]", cutoff, before, after)
	}
}

func TestRunOnce_PropagatesError(t *testing.T) {
	mock := &mockJobStore{deleteErr: errors.New("db down")}
	r := New(mock, time.Hour, testLogger())

	if err := r.RunOnce(context.Background()); err == nil {
		t.Error("expected error to propagate")
	}
}

func TestStartStop(t *testing.T) {
	r := New(&mockJobStore{}, time.Hour, testLogger())

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		r.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
