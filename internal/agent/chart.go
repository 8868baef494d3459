package agent

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fincoach/coach/internal/memory"
)

// maxChartSlices caps donut segments so small categories don't turn the
// chart into confetti.
const maxChartSlices = 6

// parseGBPValue turns a formatted amount like "£1,234.56" back into a
// float for plotting. Malformed values plot as zero rather than
// dropping the whole chart.
func parseGBPValue(s string) float64 {
	s = strings.ReplaceAll(s, "£", "")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// buildChart derives a render-ready chart from a tool's fact payload.
// Only the tools with a natural visual shape produce one; everything
// else returns nil and the client shows text alone.
func buildChart(tool toolName, facts map[string]any) *memory.Chart {
	switch tool {
	case toolInsights:
		return donutFromInsights(facts)
	case toolHealth:
		return radarFromHealth(facts)
	case toolTrends:
		return lineFromTrends(facts)
	default:
		return nil
	}
}

func donutFromInsights(facts map[string]any) *memory.Chart {
	cats, _ := facts["top_categories"].([]map[string]any)
	if len(cats) == 0 {
		return nil
	}
	months, _ := facts["analysis_months"].(int)
	chart := &memory.Chart{
		Type:  "donut",
		Title: fmt.Sprintf("Spending by category (last %d months)", months),
	}
	for i, c := range cats {
		if i == maxChartSlices {
			break
		}
		chart.Labels = append(chart.Labels, stringField(c, "category"))
		chart.Values = append(chart.Values, parseGBPValue(stringField(c, "total_over_period")))
	}
	return chart
}

func splitPillarScore(s string) (got, max float64) {
	gotStr, maxStr, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0
	}
	got, _ = strconv.ParseFloat(gotStr, 64)
	max, _ = strconv.ParseFloat(maxStr, 64)
	return got, max
}

func radarFromHealth(facts map[string]any) *memory.Chart {
	pillars, _ := facts["pillars"].([]map[string]any)
	if len(pillars) == 0 {
		return nil
	}
	score, _ := facts["overall_score"].(int)
	chart := &memory.Chart{
		Type:  "radar",
		Title: fmt.Sprintf("Financial health: %d/100 (grade %s)", score, stringField(facts, "overall_grade")),
	}
	for _, p := range pillars {
		chart.Labels = append(chart.Labels, stringField(p, "name"))
		got, max := splitPillarScore(stringField(p, "score"))
		chart.Values = append(chart.Values, got)
		chart.MaxValues = append(chart.MaxValues, max)
	}
	return chart
}

func lineFromTrends(facts map[string]any) *memory.Chart {
	timeline, _ := facts["timeline"].([]map[string]any)
	if len(timeline) < 2 {
		return nil
	}
	chart := &memory.Chart{Type: "line", Title: "Income vs spend by month"}
	for _, point := range timeline {
		chart.Labels = append(chart.Labels, stringField(point, "month"))
		chart.Income = append(chart.Income, parseGBPValue(stringField(point, "income")))
		chart.Spend = append(chart.Spend, parseGBPValue(stringField(point, "spend")))
	}
	return chart
}
