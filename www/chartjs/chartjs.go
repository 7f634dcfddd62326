package chartjs

import "math"

// Palette cycled through by AddDataset, one color per city.
var Palette = []string{
	"#ffc107d4",
	"#f44336d4",
	"#2196f3d4",
	"#4caf50d4",
	"#9c27b0d4",
	"#ff9800d4",
}

// NewChart builds an empty line chart over the given x-axis labels,
// normally one label per date. Datasets are added with AddDataset.
func NewChart(title string, labels []string) Chart {
	chart := Chart{
		Type: "line",
		Data: ChartData{
			Labels:   labels,
			Datasets: []ChartDataset{},
		},
		Options: ChartOptions{
			Responsive: true,
			Plugins: ChartPlugins{
				Legend: ChartLegend{Display: true},
				Title:  ChartTitle{Display: false},
			},
			Scales: map[string]ChartScale{
				"YAxis1": {
					Type:     "linear",
					Display:  true,
					Position: "left",
					Title:    ChartScaleTitle{Display: true, Text: ""}},
			},
		},
	}

	if title != "" {
		chart.Options.Plugins.Title = ChartTitle{Display: true, Text: title}
	}

	return chart
}

// AddDataset appends a dataset sized to the chart's labels and returns
// its data slice for the caller to fill. Missing points stay nil, which
// chart.js renders as a gap.
func (c *Chart) AddDataset(label string) []*float64 {
	data := make([]*float64, len(c.Data.Labels))
	c.Data.Datasets = append(c.Data.Datasets, ChartDataset{
		Label:       label,
		Data:        data,
		BorderWidth: 1,
		Tension:     0.4,
		Fill:        false,
		BorderColor: Palette[len(c.Data.Datasets)%len(Palette)],
		YAxisID:     "YAxis1",
	})
	return data
}

func (cs ChartScale) WithTitle(title string) ChartScale {
	cs.Title.Text = title
	return cs
}

func (cs ChartScale) WithMinAndMax(min, max float64) ChartScale {
	cs.Min = &min
	cs.Max = &max
	return cs
}

func FixedFloat64(num float64, precision int) *float64 {
	p := math.Pow(10, float64(precision))
	rounded := math.Round(num * p)
	result := rounded / p
	return &result
}
