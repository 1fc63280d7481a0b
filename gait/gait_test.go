package gait

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"github.com/mohakhalili/towr/legs"
)

const stepsGait = `{
  "stance": {
    "LF": {"x": 0.3, "y": 0.2},
    "RF": {"x": 0.3, "y": -0.2},
    "LH": {"x": -0.3, "y": 0.2},
    "RH": {"x": -0.3, "y": -0.2}
  },
  "steps": [
    {"leg": "RH", "pos": {"x": -0.2, "y": -0.2}},
    {"leg": "RF", "pos": {"x": 0.4, "y": -0.2}}
  ],
  "weights": {"x": 1, "y": 2},
  "robot_height": 0.45,
  "options": {"parallel": true}
}`

func TestFromReaderSteps(t *testing.T) {
	cfg, err := FromReader(strings.NewReader(stepsGait))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.Steps, test.ShouldHaveLength, 2)
	test.That(t, cfg.Steps[1].Leg, test.ShouldEqual, legs.RF)

	req, opts, err := cfg.Request()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.Parallel, test.ShouldBeTrue)
	test.That(t, req.RobotHeight, test.ShouldEqual, 0.45)
	test.That(t, req.Weights.Y, test.ShouldEqual, 2.)
	// start at the centroid of the stance when no start position is given.
	test.That(t, req.StartPosition.X, test.ShouldAlmostEqual, 0)
	test.That(t, req.StartPosition.Y, test.ShouldAlmostEqual, 0)
	test.That(t, req.StartStance[legs.LH].X, test.ShouldAlmostEqual, -0.3)
	// initial stance, two swings, final stance. RH then RF share a side, no stance in between.
	test.That(t, req.Splines, test.ShouldHaveLength, 4)
	test.That(t, req.Margins.Front, test.ShouldEqual, 0.1)
}

func TestReadExampleWalk(t *testing.T) {
	cfg, err := Read(filepath.Join("..", "etc", "gaits", "walk.json"))
	test.That(t, err, test.ShouldBeNil)

	steps := cfg.Footholds()
	test.That(t, steps, test.ShouldHaveLength, 8)
	test.That(t, steps[0].Leg, test.ShouldEqual, legs.LH)
	test.That(t, steps[0].Pos.X, test.ShouldAlmostEqual, -0.2)
	test.That(t, steps[4].Leg, test.ShouldEqual, legs.LH)
	test.That(t, steps[4].Pos.X, test.ShouldAlmostEqual, -0.1)
	test.That(t, steps[7].Pos.Y, test.ShouldAlmostEqual, -0.2)

	req, opts, err := cfg.Request()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.FootholdTolerance, test.ShouldEqual, 0.03)
	test.That(t, req.Steps, test.ShouldResemble, steps)
	test.That(t, req.Margins.Diag, test.ShouldEqual, 0.02)
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("GAIT_HEIGHT", "0.61")
	path := filepath.Join(t.TempDir(), "gait.json")
	content := strings.Replace(stepsGait, `"robot_height": 0.45`, `"robot_height": ${GAIT_HEIGHT}`, 1)
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)

	cfg, err := Read(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.RobotHeight, test.ShouldEqual, 0.61)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate(t *testing.T) {
	for name, tc := range map[string]struct {
		old, new string
		msg      string
	}{
		"missing leg":   {`"RH": {"x": -0.3, "y": -0.2}`, `"XX": {"x": -0.3, "y": -0.2}`, "unknown leg"},
		"no height":     {`"robot_height": 0.45`, `"robot_height": 0`, "robot_height"},
		"unknown field": {`"weights"`, `"weight"`, "unknown field"},
		"both": {
			`"weights"`,
			`"walk": {"order": ["LF"], "cycles": 1}, "weights"`,
			"only one of",
		},
		"bad timing": {`"weights"`, `"timing": {"t_swing": 0, "splines_per_step": 1}, "weights"`, "swing duration"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := FromReader(strings.NewReader(strings.Replace(stepsGait, tc.old, tc.new, 1)))
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.msg)
		})
	}
}

func TestSchema(t *testing.T) {
	out, err := json.Marshal(Schema())
	test.That(t, err, test.ShouldBeNil)
	for _, field := range []string{"robot_height", "splines_per_step", "stride", "options"} {
		test.That(t, string(out), test.ShouldContainSubstring, field)
	}
}
