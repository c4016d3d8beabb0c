package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSettings struct {
	enabled  bool
	category string
}

func (f fakeSettings) CalendarSyncEnabled() bool { return f.enabled }
func (f fakeSettings) CalendarCategory() string  { return f.category }

func testGateway(t *testing.T, backend Backend, settings SyncSettings, opts ...Option) *Gateway {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	g := NewGateway(backend, settings, opts...)
	t.Cleanup(g.Close)
	return g
}

func TestUpsertBlockValidationSkipsBackend(t *testing.T) {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	tests := []struct {
		name     string
		settings fakeSettings
		title    string
		start    time.Time
		end      time.Time
		want     error
	}{
		{name: "disabled", settings: fakeSettings{enabled: false}, title: "x", start: start, end: start.Add(time.Hour), want: ErrSyncDisabled},
		{name: "empty title", settings: fakeSettings{enabled: true}, title: "  ", start: start, end: start.Add(time.Hour), want: ErrMissingTitle},
		{name: "end equals start", settings: fakeSettings{enabled: true}, title: "x", start: start, end: start, want: ErrInvalidRange},
		{name: "end before start", settings: fakeSettings{enabled: true}, title: "x", start: start, end: start.Add(-time.Minute), want: ErrInvalidRange},
		{name: "zero start", settings: fakeSettings{enabled: true}, title: "x", end: start, want: ErrInvalidRange},
	}
	for _, tt := range tests {
		backend := NewMemoryBackend()
		g := testGateway(t, backend, tt.settings)

		id, err := g.UpsertBlock(context.Background(), "keep-me", tt.title, "", tt.start, tt.end)
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
		if id != "keep-me" {
			t.Fatalf("%s: expected existing id returned, got %q", tt.name, id)
		}
		if saves, _ := backend.Calls(); saves != 0 {
			t.Fatalf("%s: expected no backend calls, got %d", tt.name, saves)
		}
	}
}

func TestUpsertBlockCreatesAndUpdates(t *testing.T) {
	backend := NewMemoryBackend()
	g := testGateway(t, backend, fakeSettings{enabled: true, category: ""})
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)

	id, err := g.UpsertBlock(context.Background(), "", "Review", "body", start, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	block, ok := backend.Entry(id)
	if !ok {
		t.Fatalf("expected entry %q stored", id)
	}
	if block.Subject != "Focus: Review" || block.Category != DefaultCategory || block.BusyStatus != BusyStatusBusy || block.ReminderSet {
		t.Fatalf("unexpected block %+v", block)
	}

	again, err := g.UpsertBlock(context.Background(), id, "Review v2", "body", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if again != id || backend.Len() != 1 {
		t.Fatalf("expected in-place update, got id %q and %d entries", again, backend.Len())
	}
}

func TestUpsertBlockBackendFailureKeepsID(t *testing.T) {
	backend := NewMemoryBackend()
	backend.FailSave = func(string, Block) error { return errors.New("profile missing") }
	g := testGateway(t, backend, fakeSettings{enabled: true, category: "Deep"})
	start := time.Now()

	id, err := g.UpsertBlock(context.Background(), "old-id", "x", "", start, start.Add(time.Minute))
	if err == nil {
		t.Fatal("expected backend error")
	}
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Op != "UpsertBlock" {
		t.Fatalf("expected BackendError, got %T %v", err, err)
	}
	if id != "old-id" {
		t.Fatalf("expected old id, got %q", id)
	}
	if msg := UserMessage(err); !strings.Contains(msg, "profile missing") {
		t.Fatalf("unexpected user message %q", msg)
	}
}

func TestUnavailableBackend(t *testing.T) {
	g := testGateway(t, Unavailable{}, fakeSettings{enabled: true})
	start := time.Now()

	_, err := g.UpsertBlock(context.Background(), "", "x", "", start, start.Add(time.Minute))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if UserMessage(err) != "Calendar is not available. Check the calendar backend configuration." {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
}

func TestDeleteBlockTrivialSuccess(t *testing.T) {
	backend := NewMemoryBackend()
	disabled := testGateway(t, backend, fakeSettings{enabled: false})
	if err := disabled.DeleteBlock(context.Background(), "anything"); err != nil {
		t.Fatalf("disabled delete: %v", err)
	}

	enabled := testGateway(t, backend, fakeSettings{enabled: true})
	if err := enabled.DeleteBlock(context.Background(), ""); err != nil {
		t.Fatalf("empty id delete: %v", err)
	}
	if _, removes := backend.Calls(); removes != 0 {
		t.Fatalf("expected no remove calls, got %d", removes)
	}

	err := enabled.DeleteBlock(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if UserMessage(err) != "Calendar entry not found." {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
}

func TestTestConnection(t *testing.T) {
	backend := NewMemoryBackend()
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)
	var saved Block
	backend.FailSave = func(_ string, b Block) error {
		saved = b
		return nil
	}
	g := testGateway(t, backend, fakeSettings{enabled: true}, WithClock(func() time.Time { return now }))

	if err := g.TestConnection(context.Background()); err != nil {
		t.Fatalf("test connection: %v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("expected test block removed, %d left", backend.Len())
	}
	if !saved.Start.Equal(now.Add(5*time.Minute)) || saved.End.Sub(saved.Start) != 5*time.Minute {
		t.Fatalf("unexpected test block range %v - %v", saved.Start, saved.End)
	}

	backend.FailRemove = func(string) error { return ErrPermission }
	if err := g.TestConnection(context.Background()); !errors.Is(err, ErrPermission) {
		t.Fatalf("expected delete failure to fail the test, got %v", err)
	}
}

type hangingBackend struct {
	release chan struct{}
}

func (h hangingBackend) Name() string    { return "hang" }
func (h hangingBackend) Available() bool { return true }
func (h hangingBackend) Save(context.Context, string, Block) (string, error) {
	<-h.release
	return "late", nil
}
func (h hangingBackend) Remove(context.Context, string) error {
	<-h.release
	return nil
}

func TestHungBackendTimesOut(t *testing.T) {
	backend := hangingBackend{release: make(chan struct{})}
	g := NewGateway(backend, fakeSettings{enabled: true},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTimeout(20*time.Millisecond))
	t.Cleanup(func() {
		close(backend.release)
		g.Close()
	})

	start := time.Now()
	_, err := g.UpsertBlock(context.Background(), "", "x", "", start, start.Add(time.Minute))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if UserMessage(err) != "Calendar did not respond in time." {
		t.Fatalf("unexpected message %q", UserMessage(err))
	}
}

func TestUserMessagePassesValidationErrors(t *testing.T) {
	if UserMessage(ErrMissingTitle) != ErrMissingTitle.Error() {
		t.Fatal("expected validation error text unchanged")
	}
	if UserMessage(nil) != "" {
		t.Fatal("expected empty message for nil")
	}
}

// goroutineBackend records the goroutine each collaborator call ran on.
type goroutineBackend struct {
	*MemoryBackend
	mu    sync.Mutex
	calls map[string]string
}

func (b *goroutineBackend) record(op string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[op] = goroutineID()
}

func (b *goroutineBackend) Available() bool {
	b.record("available")
	return b.MemoryBackend.Available()
}

func (b *goroutineBackend) Save(ctx context.Context, entryID string, block Block) (string, error) {
	b.record("save")
	return b.MemoryBackend.Save(ctx, entryID, block)
}

func goroutineID() string {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func TestAvailabilityCheckedOnWorker(t *testing.T) {
	backend := &goroutineBackend{MemoryBackend: NewMemoryBackend(), calls: map[string]string{}}
	g := testGateway(t, backend, fakeSettings{enabled: true})
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.Local)

	if _, err := g.UpsertBlock(context.Background(), "", "Review", "", start, start.Add(time.Hour)); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	backend.mu.Lock()
	defer backend.mu.Unlock()
	available, save := backend.calls["available"], backend.calls["save"]
	if available == "" || save == "" {
		t.Fatalf("expected both calls recorded, got %v", backend.calls)
	}
	if available != save {
		t.Fatalf("Available ran on goroutine %s, Save on %s", available, save)
	}
	if caller := goroutineID(); available == caller {
		t.Fatalf("Available ran on the caller goroutine %s", caller)
	}
}
