package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer builds an MCP server exposing the cardio progress reads. The
// backend mounts it at /mcp over streamable HTTP.
func NewServer(provider cardioReader) *mcp.Server {
	h := NewHandler(provider)
	s := mcp.NewServer(&mcp.Implementation{
		Name:    "cardio-progress",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_cardio_snapshot",
		Description: "Returns the full cardio progress snapshot for a range (week, threeMonths, sixMonths): series for every metric, KPIs with trends, workouts grouped by day, personal bests and the target line. Use when you need the whole progress picture.",
	}, h.GetSnapshotTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_cardio_series",
		Description: "Returns the bucketed series of one metric (activeMinutes, distance, calories, steps) for a range, with the previous period unless compare is false. Use when charting or comparing progress over time.",
	}, h.GetSeriesTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_cardio_kpis",
		Description: "Returns the four KPI cards (active minutes, distance, calories, steps) for a range, each with its display value, previous period value and trend.",
	}, h.GetKpisTool())

	mcp.AddTool(s, &mcp.Tool{
		Name:        "get_recent_cardio_workouts",
		Description: "Returns the most recent workouts (up to six, newest first) in the current period of a range.",
	}, h.GetRecentWorkoutsTool())

	return s
}
