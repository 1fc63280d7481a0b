// Package plotting draws solved center of mass trajectories with gonum/plot.
package plotting

import (
	"bufio"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/zmp"
)

// TopView plots the support triangles, the footholds, and the CoM and ZMP paths in the ground
// plane.
func TopView(triangles []supportpolygon.Triangle, footholds []legs.Foothold, points []zmp.TrajectoryPoint) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "CoM and ZMP"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	for i, tr := range triangles {
		xys := make(plotter.XYs, len(tr.Vertices))
		for j, v := range tr.Vertices {
			xys[j] = plotter.XY{X: v.Pos.X, Y: v.Pos.Y}
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, errors.Wrapf(err, "support triangle %d", i)
		}
		poly.Color = nil
		poly.LineStyle.Color = plotutil.Color(i)
		poly.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(poly)
	}

	if len(footholds) > 0 {
		xys := make(plotter.XYs, len(footholds))
		for i, f := range footholds {
			xys[i] = plotter.XY{X: f.Pos.X, Y: f.Pos.Y}
		}
		feet, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, err
		}
		feet.GlyphStyle.Shape = draw.CrossGlyph{}
		p.Add(feet)
		p.Legend.Add("footholds", feet)
	}

	com := make(plotter.XYs, len(points))
	zmpPath := make(plotter.XYs, len(points))
	for i, pt := range points {
		com[i] = plotter.XY{X: pt.Pos.X, Y: pt.Pos.Y}
		zmpPath[i] = plotter.XY{X: pt.ZMP.X, Y: pt.ZMP.Y}
	}
	if err := addLine(p, "CoM", com, 0, 2.5); err != nil {
		return nil, err
	}
	if err := addLine(p, "ZMP", zmpPath, 1, 1.5); err != nil {
		return nil, err
	}
	p.Legend.Top = true
	return p, nil
}

// Timeline plots one axis of the CoM and ZMP over time.
func Timeline(points []zmp.TrajectoryPoint, axis string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "CoM and ZMP " + axis
	p.X.Label.Text = "time (s)"
	p.Y.Label.Text = axis + " (m)"
	p.Add(plotter.NewGrid())

	com := make(plotter.XYs, len(points))
	zmpPath := make(plotter.XYs, len(points))
	for i, pt := range points {
		com[i].X, zmpPath[i].X = pt.Time, pt.Time
		switch axis {
		case "x":
			com[i].Y, zmpPath[i].Y = pt.Pos.X, pt.ZMP.X
		case "y":
			com[i].Y, zmpPath[i].Y = pt.Pos.Y, pt.ZMP.Y
		default:
			return nil, errors.Errorf("unknown axis %q", axis)
		}
	}
	if err := addLine(p, "CoM", com, 0, 2.5); err != nil {
		return nil, err
	}
	if err := addLine(p, "ZMP", zmpPath, 1, 1.5); err != nil {
		return nil, err
	}
	return p, nil
}

func addLine(p *plot.Plot, name string, xys plotter.XYs, colorIdx int, width float64) error {
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return errors.Wrapf(err, "%s line", name)
	}
	line.LineStyle.Width = vg.Points(width)
	line.LineStyle.Color = plotutil.Color(colorIdx)
	p.Add(line)
	p.Legend.Add(name, line)
	return nil
}

// SavePNG renders the plot at 300 dpi into filename, creating its directory.
func SavePNG(p *plot.Plot, widthIn, heightIn float64, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.Wrap(err, "cannot create directory")
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(300),
	)
	p.Draw(draw.New(c))

	//nolint:gosec
	f, err := os.Create(filename)
	if err != nil {
		return errors.Wrap(err, "cannot create png")
	}
	defer func() {
		_ = f.Close()
	}()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return errors.Wrap(err, "cannot write png")
	}
	return bw.Flush()
}
