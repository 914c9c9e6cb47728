package logging_test

import (
	"context"
	"testing"
	"time"

	"siegeline/server/logging"
	"siegeline/server/logging/sinks"
)

func fixedClock(t time.Time) logging.ClockFunc {
	return func() time.Time { return t }
}

func TestRouterDeliversToSink(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sink := sinks.NewMemorySink()
	router := logging.NewRouter(fixedClock(now), logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: sink},
	})

	router.Publish(context.Background(), logging.Event{
		Type:     "command.path_requested",
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCommand,
	})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != "command.path_requested" {
		t.Fatalf("unexpected event type %q", events[0].Type)
	}
	if !events[0].Time.Equal(now) {
		t.Fatalf("expected router-stamped time %v, got %v", now, events[0].Time)
	}
	if stats := router.Stats(); stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "b", Severity: logging.SeverityError})
	router.Close(context.Background())

	events := sink.Events()
	if len(events) != 1 || events[0].Type != "b" {
		t.Fatalf("expected only the error event, got %v", events)
	}
}

func TestRouterStampsConfiguredFields(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"server": "sl-1"}
	router := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}})

	router.Publish(context.Background(), logging.Event{Type: "a", Severity: logging.SeverityInfo})
	router.Close(context.Background())

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := events[0].Extra["server"]; got != "sl-1" {
		t.Fatalf("expected stamped field, got %v", got)
	}
}

func TestRouterPublishAfterCloseIsIgnored(t *testing.T) {
	sink := sinks.NewMemorySink()
	router := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{{Name: "memory", Sink: sink}})
	router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityError})

	if sink.Len() != 0 {
		t.Fatalf("expected no events after close, got %d", sink.Len())
	}
	// Double close stays a no-op.
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestWithFieldsDoesNotOverwriteEventKeys(t *testing.T) {
	var got logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) { got = event })
	p := logging.WithFields(base, map[string]any{"region": "eu", "shard": "1"})

	p.Publish(context.Background(), logging.Event{
		Type:  "a",
		Extra: map[string]any{"shard": "override"},
	})

	if got.Extra["region"] != "eu" {
		t.Fatalf("expected stamped region, got %v", got.Extra["region"])
	}
	if got.Extra["shard"] != "override" {
		t.Fatalf("expected event's own key preserved, got %v", got.Extra["shard"])
	}
}

func TestMetricsStore(t *testing.T) {
	m := logging.NewMetrics()
	m.TelemetryAdd("a", 2)
	m.TelemetryAdd("a", 3)
	m.TelemetryStore("b", 7)

	if m.Value("a") != 5 || m.Value("b") != 7 {
		t.Fatalf("unexpected values a=%d b=%d", m.Value("a"), m.Value("b"))
	}
	snap := m.Snapshot()
	if len(snap) != 2 || snap["a"] != 5 {
		t.Fatalf("unexpected snapshot %v", snap)
	}

	var nilMetrics *logging.Metrics
	nilMetrics.TelemetryAdd("x", 1)
	if nilMetrics.Value("x") != 0 {
		t.Fatal("expected nil metrics to read zero")
	}
}

func TestConfigHasSink(t *testing.T) {
	cfg := logging.DefaultConfig()
	if !cfg.HasSink("console") {
		t.Fatal("expected console enabled by default")
	}
	if cfg.HasSink("file") {
		t.Fatal("expected unlisted sink disabled")
	}
	cfg.EnabledSinks = nil
	if cfg.HasSink("console") {
		t.Fatal("expected no sinks when the list is empty")
	}
}
