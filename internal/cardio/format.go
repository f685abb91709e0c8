package cardio

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	UnavailableValue = "N/A"
	stepsAbbrevAbove = 10_000
)

var displayLanguage = language.English

func printer() *message.Printer {
	return message.NewPrinter(displayLanguage)
}

// MinutesToDisplay renders minutes as zero padded "HHh MMm", e.g. 125 -> "02h 05m".
func MinutesToDisplay(minutes float64) string {
	total := int(math.Round(math.Max(0, minutes)))
	return fmt.Sprintf("%02dh %02dm", total/60, total%60)
}

// KilometersToDisplay renders kilometers with exactly one decimal.
func KilometersToDisplay(km float64) string {
	return printer().Sprintf("%.1f", math.Max(0, km))
}

// CaloriesToDisplay renders calories as a rounded, grouped integer.
func CaloriesToDisplay(calories float64) string {
	return printer().Sprintf("%d", int64(math.Round(math.Max(0, calories))))
}

// StepsToDisplay abbreviates totals above 10,000 to thousands ("NK"),
// otherwise renders a rounded, grouped integer.
func StepsToDisplay(steps float64) string {
	steps = math.Max(0, steps)
	if steps > stepsAbbrevAbove {
		return fmt.Sprintf("%dK", int64(math.Round(steps/1000)))
	}
	return printer().Sprintf("%d", int64(math.Round(steps)))
}

type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

const trendEpsilon = 0.01

type Trend struct {
	Direction TrendDirection `json:"direction"`
	// Delta is the absolute difference between the periods.
	Delta float64 `json:"delta"`
}

func DetermineTrend(current, previous float64) Trend {
	current = math.Max(0, current)
	previous = math.Max(0, previous)
	difference := current - previous
	if math.Abs(difference) < trendEpsilon {
		return Trend{Direction: TrendFlat}
	}

	if difference > 0 {
		return Trend{Direction: TrendUp, Delta: difference}
	}
	return Trend{Direction: TrendDown, Delta: -difference}
}
