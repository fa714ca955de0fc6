// Package trajectory loads recorded joint motions and resamples them to a
// fixed frame clock for playback.
package trajectory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gonum.org/v1/gonum/interp"

	"robotviz/internal/logging"
)

// ErrInvalidLog reports a motion log that fails validation.
var ErrInvalidLog = errors.New("trajectory: invalid motion log")

// Trajectory is a time-stamped sequence of joint configurations. Times
// are milliseconds, strictly increasing; every configuration has the same
// width.
type Trajectory struct {
	TimesMs []float64   `json:"times_ms"`
	Configs [][]float64 `json:"configs"`
}

// Load reads a JSON motion log from path.
func Load(path string) (*Trajectory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("trajectory: read %s: %w", path, err)
	}
	var t Trajectory
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrInvalidLog, path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	logging.Logger().Info("trajectory loaded",
		"path", path, "samples", len(t.TimesMs), "dof", t.DOF(), "duration_ms", t.Duration())
	return &t, nil
}

// Validate checks the log's structural invariants.
func (t *Trajectory) Validate() error {
	if len(t.TimesMs) == 0 {
		return fmt.Errorf("%w: no samples", ErrInvalidLog)
	}
	if len(t.TimesMs) != len(t.Configs) {
		return fmt.Errorf("%w: %d timestamps for %d configs", ErrInvalidLog, len(t.TimesMs), len(t.Configs))
	}
	width := len(t.Configs[0])
	if width == 0 {
		return fmt.Errorf("%w: empty configuration", ErrInvalidLog)
	}
	for i, c := range t.Configs {
		if len(c) != width {
			return fmt.Errorf("%w: config %d has width %d, want %d", ErrInvalidLog, i, len(c), width)
		}
	}
	for i := 1; i < len(t.TimesMs); i++ {
		if t.TimesMs[i] <= t.TimesMs[i-1] {
			return fmt.Errorf("%w: timestamps not increasing at sample %d", ErrInvalidLog, i)
		}
	}
	return nil
}

// DOF reports the configuration width.
func (t *Trajectory) DOF() int {
	if len(t.Configs) == 0 {
		return 0
	}
	return len(t.Configs[0])
}

// Duration reports the log's time span in milliseconds.
func (t *Trajectory) Duration() float64 {
	if len(t.TimesMs) < 2 {
		return 0
	}
	return t.TimesMs[len(t.TimesMs)-1] - t.TimesMs[0]
}

// Resample interpolates the motion onto a uniform clock at fps frames per
// second, from the first sample to the last. Joints are interpolated
// independently: Akima splines when the log has at least three samples,
// piecewise linear otherwise.
func (t *Trajectory) Resample(fps float64) (*Trajectory, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("trajectory: fps %v must be positive", fps)
	}
	if len(t.TimesMs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 samples to resample", ErrInvalidLog)
	}

	dof := t.DOF()
	predictors := make([]interp.FittablePredictor, dof)
	ys := make([]float64, len(t.TimesMs))
	for j := 0; j < dof; j++ {
		for i, c := range t.Configs {
			ys[i] = c[j]
		}
		var fp interp.FittablePredictor
		if len(t.TimesMs) >= 3 {
			fp = &interp.AkimaSpline{}
		} else {
			fp = &interp.PiecewiseLinear{}
		}
		if err := fp.Fit(t.TimesMs, ys); err != nil {
			return nil, fmt.Errorf("trajectory: fit joint %d: %w", j, err)
		}
		predictors[j] = fp
	}

	first := t.TimesMs[0]
	last := t.TimesMs[len(t.TimesMs)-1]
	stepMs := 1000.0 / fps
	frames := int((last-first)/stepMs) + 1

	out := &Trajectory{
		TimesMs: make([]float64, frames),
		Configs: make([][]float64, frames),
	}
	for i := 0; i < frames; i++ {
		ts := first + float64(i)*stepMs
		if ts > last {
			ts = last
		}
		out.TimesMs[i] = ts
		q := make([]float64, dof)
		for j := 0; j < dof; j++ {
			q[j] = predictors[j].Predict(ts)
		}
		out.Configs[i] = q
	}
	return out, nil
}
