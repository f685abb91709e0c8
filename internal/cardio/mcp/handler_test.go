package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/2beens/cardioprogress/internal/cardio"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type fakeReader struct {
	snapshotCalls int
	lastOpts      cardio.SeriesOptions
	workouts      []cardio.WorkoutSummary
}

func (f *fakeReader) Snapshot(_ context.Context, r cardio.TimeRange) cardio.CardioProgressSnapshot {
	f.snapshotCalls++
	return cardio.CardioProgressSnapshot{Range: r}
}

func (f *fakeReader) Series(_ context.Context, _ cardio.TimeRange, focus cardio.Focus, opts cardio.SeriesOptions) cardio.CardioSeriesResponse {
	f.lastOpts = opts
	return cardio.CardioSeriesResponse{Focus: focus}
}

func (f *fakeReader) Kpis(context.Context, cardio.TimeRange) []cardio.CardioKpi {
	return cardio.UnavailableKpis()
}

func (f *fakeReader) RecentWorkouts(context.Context, cardio.TimeRange) []cardio.WorkoutSummary {
	return f.workouts
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content, got %d", len(res.Content))
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestHandler_GetSnapshotTool(t *testing.T) {
	t.Run("returns_snapshot", func(t *testing.T) {
		reader := &fakeReader{}
		fn := NewHandler(reader).GetSnapshotTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, RangeInput{Range: "threeMonths"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected IsError: %s", textOf(t, res))
		}
		var snapshot cardio.CardioProgressSnapshot
		if err := json.Unmarshal([]byte(textOf(t, res)), &snapshot); err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snapshot.Range != cardio.RangeThreeMonths {
			t.Fatalf("range = %q", snapshot.Range)
		}
	})

	t.Run("invalid_range", func(t *testing.T) {
		reader := &fakeReader{}
		fn := NewHandler(reader).GetSnapshotTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, RangeInput{Range: "year"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if got := textOf(t, res); got != "Invalid range: use week, threeMonths or sixMonths" {
			t.Fatalf("content text = %q", got)
		}
		if reader.snapshotCalls != 0 {
			t.Fatalf("provider must not be called on invalid input")
		}
	})
}

func TestHandler_GetSeriesTool(t *testing.T) {
	t.Run("passes_compare", func(t *testing.T) {
		reader := &fakeReader{}
		fn := NewHandler(reader).GetSeriesTool()
		compare := false
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, SeriesInput{
			Range:   "week",
			Focus:   "distance",
			Compare: &compare,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.IsError {
			t.Fatalf("unexpected IsError: %s", textOf(t, res))
		}
		if reader.lastOpts.Compare == nil || *reader.lastOpts.Compare {
			t.Fatalf("compare=false was not passed through")
		}
	})

	t.Run("invalid_focus", func(t *testing.T) {
		fn := NewHandler(&fakeReader{}).GetSeriesTool()
		res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, SeriesInput{Range: "week", Focus: "pace"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.IsError {
			t.Fatalf("expected IsError")
		}
		if got := textOf(t, res); got != "Invalid focus: use activeMinutes, distance, calories or steps" {
			t.Fatalf("content text = %q", got)
		}
	})
}

func TestHandler_GetKpisTool(t *testing.T) {
	fn := NewHandler(&fakeReader{}).GetKpisTool()
	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, RangeInput{Range: "sixMonths"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kpis []cardio.CardioKpi
	if err := json.Unmarshal([]byte(textOf(t, res)), &kpis); err != nil {
		t.Fatalf("decode kpis: %v", err)
	}
	if len(kpis) != 4 {
		t.Fatalf("expected 4 kpis, got %d", len(kpis))
	}
	if kpis[0].Value != cardio.UnavailableValue {
		t.Fatalf("value = %q", kpis[0].Value)
	}
}

func TestHandler_GetRecentWorkoutsTool(t *testing.T) {
	end := time.Date(2024, time.May, 14, 7, 45, 0, 0, time.UTC)
	reader := &fakeReader{workouts: []cardio.WorkoutSummary{
		{ID: "run-1", Activity: "Run", Start: end.Add(-45 * time.Minute), End: end, DurationMinutes: 45},
	}}
	fn := NewHandler(reader).GetRecentWorkoutsTool()
	res, _, err := fn(context.Background(), &mcp.CallToolRequest{}, RangeInput{Range: "week"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var workouts []cardio.WorkoutSummary
	if err := json.Unmarshal([]byte(textOf(t, res)), &workouts); err != nil {
		t.Fatalf("decode workouts: %v", err)
	}
	if len(workouts) != 1 || workouts[0].ID != "run-1" {
		t.Fatalf("unexpected workouts: %+v", workouts)
	}
}

func TestNewServer(t *testing.T) {
	if NewServer(&fakeReader{}) == nil {
		t.Fatalf("expected server")
	}
}
