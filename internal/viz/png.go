package viz

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/quadbench/internal/comparison"
)

var lineColors = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// ExportPNG writes one position chart per axis into outDir, each overlaying
// every controller's trace on the setpoint reference. stepDt converts ticks
// to seconds on the x axis.
func ExportPNG(traj *comparison.Trajectory, stepDt float64, outDir string) error {
	if traj.Ticks() == 0 {
		return fmt.Errorf("viz: empty trajectory")
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	for axis := 0; axis < 3; axis++ {
		p := plot.New()
		p.Title.Text = fmt.Sprintf("position %s", axisNames[axis])
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = fmt.Sprintf("%s (m)", axisNames[axis])
		p.Legend.Top = true

		ref, err := plotter.NewLine(axisPoints(traj.Setpoints, axis, stepDt))
		if err != nil {
			return err
		}
		ref.LineStyle.Width = vg.Points(1)
		ref.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		ref.Color = color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff}
		p.Add(ref)
		p.Legend.Add("setpoint", ref)

		for w, name := range traj.Names {
			line, err := plotter.NewLine(axisPoints(traj.SystemOutputs[w], axis, stepDt))
			if err != nil {
				return err
			}
			line.LineStyle.Width = vg.Points(2)
			line.Color = lineColors[w%len(lineColors)]
			p.Add(line)
			p.Legend.Add(name, line)
		}

		name := fmt.Sprintf("position_%s.png", axisNames[axis])
		if err := savePNG(p, filepath.Join(outDir, name)); err != nil {
			return err
		}
	}

	return nil
}

func axisPoints(series [][]float64, axis int, stepDt float64) plotter.XYs {
	pts := make(plotter.XYs, len(series))
	for k := range series {
		pts[k].X = float64(k) * stepDt
		pts[k].Y = series[k][axis]
	}
	return pts
}

func savePNG(p *plot.Plot, path string) error {
	c := vgimg.NewWith(
		vgimg.UseWH(8*vg.Inch, 6*vg.Inch),
		vgimg.UseDPI(150),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(bw); err != nil {
		return fmt.Errorf("viz: write png: %w", err)
	}
	return nil
}
