package assistant

import "strconv"

// ChartKind selects the rendering style for a derived chart.
type ChartKind string

const (
	ChartLine     ChartKind = "line"
	ChartBar      ChartKind = "bar"
	ChartDoughnut ChartKind = "doughnut"
)

// StyleHints are presentation hints consumed by the charting UI.
type StyleHints struct {
	BorderColor     string  `json:"border_color,omitempty"`
	BackgroundColor string  `json:"background_color,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

// Dataset is one named series of values aligned with the chart labels.
type Dataset struct {
	Name   string     `json:"name"`
	Values []float64  `json:"values"`
	Style  StyleHints `json:"style"`
}

// ChartSeries is chart-ready data derived from a result payload. Every
// dataset has exactly as many values as the chart has labels.
type ChartSeries struct {
	Kind   ChartKind `json:"kind"`
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Series []Dataset `json:"series"`
}

var (
	blueLine   = StyleHints{BorderColor: "rgb(59, 130, 246)", BackgroundColor: "rgba(59, 130, 246, 0.1)", Tension: 0.1}
	greenBar   = StyleHints{BorderColor: "rgb(34, 197, 94)", BackgroundColor: "rgba(34, 197, 94, 0.8)"}
	blueBar    = StyleHints{BorderColor: "rgb(59, 130, 246)", BackgroundColor: "rgba(59, 130, 246, 0.8)"}
	orangeLine = StyleHints{BorderColor: "rgb(249, 115, 22)", BackgroundColor: "rgba(249, 115, 22, 0.1)", Tension: 0.1}
	purpleLine = StyleHints{BorderColor: "rgb(168, 85, 247)", BackgroundColor: "rgba(168, 85, 247, 0.1)", Tension: 0.1}
)

// insightsChart derives a daily time-series line chart. Record order is
// kept as returned by the source, which is chronological.
func insightsChart(records []Record) *ChartSeries {
	if len(records) == 0 {
		return nil
	}

	chart := &ChartSeries{
		Kind:  ChartLine,
		Title: "Daily Performance Trend",
	}
	spend := Dataset{Name: "Spend ($)", Style: blueLine}
	impressions := Dataset{Name: "Impressions", Style: purpleLine}
	clicks := Dataset{Name: "Clicks", Style: orangeLine}

	for _, rec := range records {
		chart.Labels = append(chart.Labels, recordDate(rec))
		spend.Values = append(spend.Values, toFloat(rec["spend"]))
		impressions.Values = append(impressions.Values, toFloat(rec["impressions"]))
		clicks.Values = append(clicks.Values, toFloat(rec["clicks"]))
	}

	chart.Series = []Dataset{spend, impressions, clicks}
	return chart
}

// campaignChart derives a per-campaign chart when the message asked for a
// specific metric. No matching keyword means no chart.
func campaignChart(records []Record, lowerQuery string) *ChartSeries {
	if len(records) == 0 {
		return nil
	}

	switch {
	case containsAny(lowerQuery, []string{"ctr", "click"}):
		chart := &ChartSeries{
			Kind:  ChartBar,
			Title: "CTR by Campaign",
		}
		ctr := Dataset{Name: "CTR (%)", Style: greenBar}
		for _, rec := range records {
			chart.Labels = append(chart.Labels, recordName(rec))
			ctr.Values = append(ctr.Values, toFloat(rec["ctr"]))
		}
		chart.Series = []Dataset{ctr}
		return chart

	case containsAny(lowerQuery, []string{"impression", "reach"}):
		chart := &ChartSeries{
			Kind:  ChartDoughnut,
			Title: "Impressions by Campaign",
		}
		impressions := Dataset{Name: "Impressions", Style: blueBar}
		for _, rec := range records {
			chart.Labels = append(chart.Labels, recordName(rec))
			impressions.Values = append(impressions.Values, toFloat(rec["impressions"]))
		}
		chart.Series = []Dataset{impressions}
		return chart
	}

	return nil
}

// CampaignPerformanceChart derives the combined CTR and spend bar chart
// used by the campaign analysis endpoint. Spend converts to dollars.
func CampaignPerformanceChart(records []Record) *ChartSeries {
	if len(records) == 0 {
		return nil
	}

	chart := &ChartSeries{
		Kind:  ChartBar,
		Title: "Campaign Performance Overview",
	}
	ctr := Dataset{Name: "CTR (%)", Style: greenBar}
	spend := Dataset{Name: "Spend ($)", Style: blueBar}
	for _, rec := range records {
		chart.Labels = append(chart.Labels, recordName(rec))
		ctr.Values = append(ctr.Values, toFloat(rec["ctr"]))
		spend.Values = append(spend.Values, toFloat(rec["spend"])/100)
	}
	chart.Series = []Dataset{ctr, spend}
	return chart
}

func recordDate(rec Record) string {
	if d, ok := rec["date_start"].(string); ok && d != "" {
		return d
	}
	if d, ok := rec["date"].(string); ok {
		return d
	}
	return ""
}

func recordName(rec Record) string {
	if n, ok := rec["name"].(string); ok {
		return n
	}
	return ""
}

// toFloat coerces a record field to a number. Graph returns most numerics
// as strings; anything absent or malformed counts as zero.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0
		}
		return f
	case int:
		return float64(x)
	case int64:
		return float64(x)
	}
	return 0
}
