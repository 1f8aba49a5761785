package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/tilestitch/internal/optimizer"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// RenderTileScatter writes an HTML page placing each solved tile at the
// world position of its local origin (first two axes), coloured by its mean
// residual. The anchor tile is drawn as its own series.
func RenderTileScatter(w io.Writer, res *optimizer.Result) error {
	if res == nil || len(res.Tiles) == 0 {
		return ErrNoData
	}

	var tiles, anchor []opts.ScatterData
	maxResidual := 0.0
	for _, st := range res.Tiles {
		origin := st.Transform.Translation()
		pt := opts.ScatterData{
			Name:  st.Ref.String(),
			Value: []interface{}{origin[0], origin[1], st.MeanResidual},
		}
		if st.Ref.ID == res.Diagnostics.FixedTile {
			anchor = append(anchor, pt)
		} else {
			tiles = append(tiles, pt)
		}
		maxResidual = max(maxResidual, st.MeanResidual)
	}

	d := res.Diagnostics
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Tile alignment", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Solved tile positions",
			Subtitle: fmt.Sprintf("tiles=%d lost=%d avg=%.2fpx max=%.2fpx", len(res.Tiles), len(d.LostTiles), d.AvgDisplacement, d.MaxDisplacement),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxResidual),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries("anchor", anchor, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 16}))
	scatter.AddSeries("tiles", tiles, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render tile scatter: %w", err)
	}
	return nil
}
