package progress

import (
	"fmt"
	"io"

	"github.com/2beens/cardioprogress/internal/cardio"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var focusTitles = map[cardio.Focus]string{
	cardio.FocusActiveMinutes: "Active minutes",
	cardio.FocusDistance:      "Distance (km)",
	cardio.FocusCalories:      "Calories (kcal)",
	cardio.FocusSteps:         "Steps",
}

// generateLineChart draws the current period against the previous one, plus
// the target line when the focus has one.
func generateLineChart(r cardio.TimeRange, series cardio.CardioSeriesResponse, target *cardio.CardioTargetLine) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(opts.Title{
			Title:    focusTitles[series.Focus],
			Subtitle: fmt.Sprintf("%s, current vs previous period", r),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
	)

	xAxis := make([]string, 0, len(series.Current))
	for _, p := range series.Current {
		xAxis = append(xAxis, cardio.DateKey(p.Date))
	}
	line.SetXAxis(xAxis)

	line.AddSeries("current", lineItems(series.Current))
	if series.Previous != nil {
		line.AddSeries("previous", lineItems(series.Previous))
	}
	if target != nil {
		targetItems := make([]opts.LineData, len(series.Current))
		for i := range targetItems {
			targetItems[i] = opts.LineData{Value: target.Value}
		}
		line.AddSeries("target", targetItems)
	}

	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func lineItems(points []cardio.SeriesPoint) []opts.LineData {
	items := make([]opts.LineData, 0, len(points))
	for _, p := range points {
		items = append(items, opts.LineData{Value: p.Value})
	}
	return items
}

func renderChart(w io.Writer, r cardio.TimeRange, series cardio.CardioSeriesResponse, target *cardio.CardioTargetLine) error {
	return generateLineChart(r, series, target).Render(w)
}
