package util

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"crowdmap/models/site"
)

// PlotSites renders an HTML scatter chart of sites by coordinates, one series
// per crowd level.
func PlotSites(w io.Writer, sites []site.Site) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Crowd Map",
			Width:     "900px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Sites by crowd level",
			Subtitle: fmt.Sprintf("%d sites", len(sites)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: "{b}"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "lng", Type: "value", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "lat", Type: "value", Scale: opts.Bool(true)}),
	)

	for _, level := range site.CrowdLevels {
		points := make([]opts.ScatterData, 0)
		for _, s := range sites {
			if s.CrowdLevel != level {
				continue
			}
			points = append(points, opts.ScatterData{
				Name:       s.Name,
				Value:      []float64{s.Location.Lng, s.Location.Lat},
				Symbol:     "circle",
				SymbolSize: 8 + 4*level.Ordinal(),
			})
		}
		scatter.AddSeries(string(level), points)
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
