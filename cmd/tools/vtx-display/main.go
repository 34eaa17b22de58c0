// Package main renders the result of a vertex search: it builds a small
// synthetic event, runs the vertexer over it, and saves one plot per readout
// view showing the projected track polylines and the fitted vertex nodes.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/PetrilloAtWork/pmatrack/internal/detgeo"
	"github.com/PetrilloAtWork/pmatrack/internal/pma"
)

// Config holds the display tool settings.
type Config struct {
	OutputDir      string
	MinTrackLength float64
	MaxDistToTrack float64
}

func parseFlags() Config {
	var cfg Config
	flag.StringVar(&cfg.OutputDir, "out", "vtx-plots", "directory for the per-view PNG files")
	flag.Float64Var(&cfg.MinTrackLength, "min-track-length", 3.0, "minimum track length entering the vertex search")
	flag.Float64Var(&cfg.MaxDistToTrack, "max-dist", 4.0, "maximum track-to-vertex distance")
	flag.Parse()
	return cfg
}

var palette = []color.Color{
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

func main() {
	cfg := parseFlags()

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatalf("cannot create output dir: %v", err)
	}

	g := pma.NewGraph(detgeo.Default())
	trks := demoEvent(g)

	vcfg := pma.DefaultVertexerConfig()
	vcfg.MinTrackLength = cfg.MinTrackLength
	vcfg.Vtx.MaxDistToTrack = cfg.MaxDistToTrack

	nvtx, err := pma.NewVertexer(vcfg).Run(&trks)
	if err != nil {
		log.Fatalf("vertex search failed: %v", err)
	}
	log.Printf("[vtx-display] %d vertices from %d tracks", nvtx, len(trks))

	for _, view := range []detgeo.View{detgeo.ViewU, detgeo.ViewV, detgeo.ViewZ} {
		file := filepath.Join(cfg.OutputDir, fmt.Sprintf("view_%s.png", view))
		if err := plotView(g, trks, view, file); err != nil {
			log.Fatalf("cannot plot view %s: %v", view, err)
		}
		log.Printf("[vtx-display] wrote %s", file)
	}
}

// demoEvent fills the graph with a star of tracks meeting at a common point,
// plus an unrelated spectator track.
func demoEvent(g *pma.Graph) pma.TrkCandidates {
	vtx := r3.Vec{X: 12, Y: -3, Z: 40}
	dirs := []r3.Vec{
		{X: 1, Y: 0.2, Z: 0.1},
		{X: -0.3, Y: 1, Z: 0.4},
		{X: 0.5, Y: -0.6, Z: 1},
	}
	var trks pma.TrkCandidates
	for i, d := range dirs {
		d = r3.Scale(1/r3.Norm(d), d)
		pts := []r3.Vec{
			r3.Add(vtx, r3.Scale(-8, d)),
			r3.Add(vtx, r3.Scale(-3, d)),
			r3.Add(vtx, r3.Scale(3, d)),
			r3.Add(vtx, r3.Scale(8, d)),
		}
		trks = append(trks, pma.TrkCandidate{Trk: pma.NewTrack(g, pts, 0, 0), Key: i + 1})
	}

	spectator := pma.NewTrack(g, []r3.Vec{
		{X: -20, Y: 10, Z: 5}, {X: -14, Y: 11, Z: 9}, {X: -8, Y: 12, Z: 13},
	}, 1, 0)
	trks = append(trks, pma.TrkCandidate{Trk: spectator, Key: len(dirs) + 1})
	return trks
}

// plotView draws every track's node polyline projected into the view, and
// marks the shared vertex nodes.
func plotView(g *pma.Graph, trks pma.TrkCandidates, view detgeo.View, file string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("view %s", view)
	p.X.Label.Text = "wire coordinate"
	p.Y.Label.Text = "drift coordinate"

	for i, tc := range trks {
		pts := trackXYs(g, tc.Trk, view)
		if len(pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("trk %d", tc.Key), line)
	}

	var vtxPts plotter.XYs
	for _, n := range g.Junctions() {
		if pt, ok := g.NodeProj(n, view); ok {
			vtxPts = append(vtxPts, plotter.XY{X: pt.W, Y: pt.D})
		}
	}
	if len(vtxPts) > 0 {
		sc, err := plotter.NewScatter(vtxPts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Radius = vg.Points(4)
		sc.GlyphStyle.Color = color.Black
		p.Add(sc)
		p.Legend.Add("vertex", sc)
	}

	return p.Save(8*vg.Inch, 6*vg.Inch, file)
}

func trackXYs(g *pma.Graph, trk *pma.Track, view detgeo.View) plotter.XYs {
	var pts plotter.XYs
	for _, n := range trk.Nodes() {
		pt, ok := g.NodeProj(n, view)
		if !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: pt.W, Y: pt.D})
	}
	return pts
}
