// Package chart renders a mission set and its conflict report as a
// self-contained HTML page with 3D trajectory plots.
package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"skylane/internal/domain"
	"skylane/internal/mission"
)

// Palette for the simulated trajectories; the primary is always drawn first
// in a fixed highlight colour.
var (
	primaryColor = "#ff5252"
	otherColors  = []string{"#31688e", "#35b779", "#fde725", "#482777", "#26828e", "#b5de2b", "#3e4989", "#6ece58"}
)

// Render writes the HTML visualisation of the mission set to w. The report
// may be empty; conflict waypoints are overlaid as markers when present.
func Render(w io.Writer, set mission.Set, report domain.Report, title string) error {
	line := charts.NewLine3D()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Skylane Mission",
			Theme:     "dark",
			Width:     "1100px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle(set, report),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Show: opts.Bool(true)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Show: opts.Bool(true)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Show: opts.Bool(true)}),
		charts.WithGrid3DOpts(opts.Grid3D{Show: opts.Bool(true), BoxWidth: 160, BoxDepth: 160}),
	)

	line.AddSeries(set.Primary.ID, trajectoryData(set.Primary),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: primaryColor}))
	for i, other := range set.Others {
		color := otherColors[i%len(otherColors)]
		line.AddSeries(other.ID, trajectoryData(other),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}))
	}

	page := components.NewPage()
	page.AddCharts(line)
	if len(report.Records) > 0 {
		page.AddCharts(conflictScatter(set, report))
	}
	return page.Render(w)
}

func subtitle(set mission.Set, report domain.Report) string {
	verdict := "clear"
	if report.ConflictFound {
		verdict = fmt.Sprintf("%d conflict record(s)", len(report.Records))
	}
	return fmt.Sprintf("primary=%s others=%d verdict=%s", set.Primary.ID, len(set.Others), verdict)
}

func trajectoryData(t domain.Trajectory) []opts.Chart3DData {
	data := make([]opts.Chart3DData, 0, len(t.Points))
	for _, p := range t.Points {
		data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
	}
	return data
}

// conflictScatter plots the primary waypoints involved in each conflict
// record, sized by how many records touch them.
func conflictScatter(set mission.Set, report domain.Report) *charts.Scatter3D {
	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  "dark",
			Width:  "1100px",
			Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{Title: "Conflict locations"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Show: opts.Bool(true)}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Show: opts.Bool(true)}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Show: opts.Bool(true)}),
	)
	data := make([]opts.Chart3DData, 0, len(report.Records))
	for _, rec := range report.Records {
		if rec.PrimaryIndex < 0 || rec.PrimaryIndex >= len(set.Primary.Points) {
			continue
		}
		p := set.Primary.Points[rec.PrimaryIndex]
		data = append(data, opts.Chart3DData{
			Name:  fmt.Sprintf("%s vs %s", string(rec.Kind), rec.OtherID),
			Value: []interface{}{p.X, p.Y, p.Z},
		})
	}
	scatter.AddSeries("conflicts", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: primaryColor}))
	return scatter
}
