package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/2beens/cardioprogress/internal/cardio"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// cardioReader is the read side of the progress provider.
type cardioReader interface {
	Snapshot(ctx context.Context, r cardio.TimeRange) cardio.CardioProgressSnapshot
	Series(ctx context.Context, r cardio.TimeRange, focus cardio.Focus, opts cardio.SeriesOptions) cardio.CardioSeriesResponse
	Kpis(ctx context.Context, r cardio.TimeRange) []cardio.CardioKpi
	RecentWorkouts(ctx context.Context, r cardio.TimeRange) []cardio.WorkoutSummary
}

// Handler turns MCP tool calls into provider reads and formats the results.
type Handler struct {
	provider cardioReader
}

func NewHandler(provider cardioReader) *Handler {
	return &Handler{
		provider: provider,
	}
}

// RangeInput is the input of every tool that only needs a time range.
type RangeInput struct {
	Range string `json:"range" jsonschema:"Time range: week, threeMonths or sixMonths"`
}

// SeriesInput is the input for get_cardio_series.
type SeriesInput struct {
	Range   string `json:"range" jsonschema:"Time range: week, threeMonths or sixMonths"`
	Focus   string `json:"focus" jsonschema:"Charted metric: activeMinutes, distance, calories or steps"`
	Compare *bool  `json:"compare,omitempty" jsonschema:"Include the previous period (default true)"`
}

// GetSnapshotTool returns the MCP tool handler for get_cardio_snapshot.
func (h *Handler) GetSnapshotTool() func(context.Context, *mcp.CallToolRequest, RangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, any, error) {
		r, err := cardio.ParseTimeRange(in.Range)
		if err != nil {
			return errorResult("Invalid range: use week, threeMonths or sixMonths"), nil, nil
		}
		return jsonResult(h.provider.Snapshot(ctx, r)), nil, nil
	}
}

// GetSeriesTool returns the MCP tool handler for get_cardio_series.
func (h *Handler) GetSeriesTool() func(context.Context, *mcp.CallToolRequest, SeriesInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in SeriesInput) (*mcp.CallToolResult, any, error) {
		r, err := cardio.ParseTimeRange(in.Range)
		if err != nil {
			return errorResult("Invalid range: use week, threeMonths or sixMonths"), nil, nil
		}
		focus, err := cardio.ParseFocus(in.Focus)
		if err != nil {
			return errorResult("Invalid focus: use activeMinutes, distance, calories or steps"), nil, nil
		}
		series := h.provider.Series(ctx, r, focus, cardio.SeriesOptions{Compare: in.Compare})
		return jsonResult(series), nil, nil
	}
}

// GetKpisTool returns the MCP tool handler for get_cardio_kpis.
func (h *Handler) GetKpisTool() func(context.Context, *mcp.CallToolRequest, RangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, any, error) {
		r, err := cardio.ParseTimeRange(in.Range)
		if err != nil {
			return errorResult("Invalid range: use week, threeMonths or sixMonths"), nil, nil
		}
		return jsonResult(h.provider.Kpis(ctx, r)), nil, nil
	}
}

// GetRecentWorkoutsTool returns the MCP tool handler for get_recent_cardio_workouts.
func (h *Handler) GetRecentWorkoutsTool() func(context.Context, *mcp.CallToolRequest, RangeInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, in RangeInput) (*mcp.CallToolResult, any, error) {
		r, err := cardio.ParseTimeRange(in.Range)
		if err != nil {
			return errorResult("Invalid range: use week, threeMonths or sixMonths"), nil, nil
		}
		return jsonResult(h.provider.RecentWorkouts(ctx, r)), nil, nil
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Error encoding response: %s", err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(raw)}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
