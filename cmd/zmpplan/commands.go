package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/mohakhalili/towr/gait"
	"github.com/mohakhalili/towr/legs"
	"github.com/mohakhalili/towr/logging"
	"github.com/mohakhalili/towr/plotting"
	"github.com/mohakhalili/towr/supportpolygon"
	"github.com/mohakhalili/towr/zmp"
)

// plan is a solved gait.
type plan struct {
	formulation *zmp.Formulation
	qp          *zmp.QPSolution
	nlp         *zmp.NLPSolution
}

func (p *plan) coeffs() []float64 {
	if p.nlp != nil {
		return p.nlp.Coeffs
	}
	return p.qp.Coeffs
}

func (p *plan) footholds() []legs.Foothold {
	if p.nlp != nil {
		return p.nlp.Footholds
	}
	return p.formulation.Request.Steps
}

func formulate(ctx context.Context, path string, logger logging.Logger) (*zmp.Optimizer, *zmp.Formulation, error) {
	cfg, err := gait.Read(path)
	if err != nil {
		return nil, nil, err
	}
	req, opts, err := cfg.Request()
	if err != nil {
		return nil, nil, err
	}
	o, err := zmp.NewOptimizer(logger, opts)
	if err != nil {
		return nil, nil, err
	}
	f, err := o.Formulate(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return o, f, nil
}

func solve(c *cli.Context, logger logging.Logger) (*plan, error) {
	o, f, err := formulate(c.Context, c.String(flagGait), logger)
	if err != nil {
		return nil, err
	}
	qpSol, err := o.SolveQP(c.Context, f)
	if err != nil {
		return nil, err
	}
	p := &plan{formulation: f, qp: qpSol}
	if c.Bool(flagNLP) {
		if p.nlp, err = o.SolveNLP(c.Context, f, qpSol.Coeffs); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func solveAction(c *cli.Context, logger logging.Logger) error {
	p, err := solve(c, logger)
	if err != nil {
		return err
	}
	f := p.formulation
	printf(c, "QP: %v after %d iterations, cost %.6f, %d active inequalities",
		p.qp.Status, p.qp.Iterations, p.qp.Cost, len(p.qp.ActiveInequalities))
	if p.nlp != nil {
		printf(c, "NLP: %s after %d evaluations, objective %.6f", p.nlp.Status, p.nlp.Evaluations, p.nlp.Objective)
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Spline", "Start", "Duration", "Support", "Pos x", "Pos y", "ZMP x", "ZMP y"})
	for _, sp := range f.Sequence.Splines() {
		start := f.Sequence.StartTime(sp.ID)
		s, err := f.Sequence.Evaluate(p.coeffs(), f.Request.StartPosition, f.Request.StartVelocity, start)
		if err != nil {
			return err
		}
		z := f.ZMPOf(s, start)
		support := "3 legs"
		if sp.FourLegSupport {
			support = "4 legs"
		}
		t.AppendRow(table.Row{
			sp.ID,
			fmt.Sprintf("%.2f", start),
			fmt.Sprintf("%.2f", sp.Duration),
			support,
			fmt.Sprintf("%.4f", s.Pos.X),
			fmt.Sprintf("%.4f", s.Pos.Y),
			fmt.Sprintf("%.4f", z.X),
			fmt.Sprintf("%.4f", z.Y),
		})
	}
	printf(c, "%s", t.Render())

	if p.nlp != nil {
		ft := table.NewWriter()
		ft.AppendHeader(table.Row{"Step", "Leg", "Planned x", "Planned y", "Refined x", "Refined y"})
		for i, step := range f.Request.Steps {
			refined := p.nlp.Footholds[i]
			ft.AppendRow(table.Row{
				i,
				step.Leg,
				fmt.Sprintf("%.4f", step.Pos.X),
				fmt.Sprintf("%.4f", step.Pos.Y),
				fmt.Sprintf("%.4f", refined.Pos.X),
				fmt.Sprintf("%.4f", refined.Pos.Y),
			})
		}
		printf(c, "%s", ft.Render())
	}
	return nil
}

func plotAction(c *cli.Context, logger logging.Logger) error {
	p, err := solve(c, logger)
	if err != nil {
		return err
	}
	points, err := p.formulation.Trajectory(p.coeffs(), c.Float64(flagDt))
	if err != nil {
		return err
	}
	triangles, _, err := supportpolygon.FromFootholds(p.formulation.Request.StartStance, p.footholds(), p.formulation.Request.Margins)
	if err != nil {
		return err
	}
	width, height := c.Float64(flagWidth), c.Float64(flagHeight)
	dir := c.String(flagOut)

	top, err := plotting.TopView(triangles, p.footholds(), points)
	if err != nil {
		return err
	}
	if err := plotting.SavePNG(top, width, height, filepath.Join(dir, "top.png")); err != nil {
		return err
	}
	for _, axis := range []string{"x", "y"} {
		pl, err := plotting.Timeline(points, axis)
		if err != nil {
			return err
		}
		if err := plotting.SavePNG(pl, width, height, filepath.Join(dir, "timeline_"+axis+".png")); err != nil {
			return err
		}
	}
	printf(c, "wrote plots to %s", dir)
	return nil
}

func linesAction(c *cli.Context, logger logging.Logger) error {
	_, f, err := formulate(c.Context, c.String(flagGait), logger)
	if err != nil {
		return err
	}
	printf(c, "%s", f.Sequence.String())
	printf(c, "%s", supportpolygon.Table(f.Triangles))
	printf(c, "%d equality and %d inequality constraints over %d coefficients",
		f.Equality.Cols(), f.Inequality.Cols(), f.Sequence.OptCoeffCount())
	return nil
}

func schemaAction(c *cli.Context) error {
	out, err := json.MarshalIndent(gait.Schema(), "", "  ")
	if err != nil {
		return err
	}
	printf(c, "%s", out)
	return nil
}

// printf prints a message with no decoration.
func printf(c *cli.Context, format string, a ...interface{}) {
	fmt.Fprintf(c.App.Writer, format+"\n", a...)
}
