package trajectory

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeLog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeLog(t, `{"times_ms":[0,100,200],"configs":[[0,0],[0.5,1],[1,2]]}`)
	tr, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tr.DOF() != 2 {
		t.Errorf("DOF() = %d, want 2", tr.DOF())
	}
	if tr.Duration() != 200 {
		t.Errorf("Duration() = %v, want 200", tr.Duration())
	}
	if len(tr.TimesMs) != 3 || len(tr.Configs) != 3 {
		t.Errorf("got %d times, %d configs, want 3, 3", len(tr.TimesMs), len(tr.Configs))
	}
}

func TestLoadRejectsBadLogs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"times_ms":[0`},
		{"no samples", `{"times_ms":[],"configs":[]}`},
		{"count mismatch", `{"times_ms":[0,100],"configs":[[1]]}`},
		{"empty config", `{"times_ms":[0],"configs":[[]]}`},
		{"ragged widths", `{"times_ms":[0,100],"configs":[[1,2],[3]]}`},
		{"non-increasing times", `{"times_ms":[0,100,100],"configs":[[1],[2],[3]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeLog(t, tt.body))
			if !errors.Is(err, ErrInvalidLog) {
				t.Errorf("Load() error = %v, want ErrInvalidLog", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Load() on missing file succeeded, want error")
	}
}

func TestResampleLinear(t *testing.T) {
	tr := &Trajectory{
		TimesMs: []float64{0, 1000},
		Configs: [][]float64{{0}, {2}},
	}
	out, err := tr.Resample(4)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	wantTimes := []float64{0, 250, 500, 750, 1000}
	wantVals := []float64{0, 0.5, 1, 1.5, 2}
	if len(out.TimesMs) != len(wantTimes) {
		t.Fatalf("got %d frames, want %d", len(out.TimesMs), len(wantTimes))
	}
	for i := range wantTimes {
		if math.Abs(out.TimesMs[i]-wantTimes[i]) > 1e-9 {
			t.Errorf("TimesMs[%d] = %v, want %v", i, out.TimesMs[i], wantTimes[i])
		}
		if math.Abs(out.Configs[i][0]-wantVals[i]) > 1e-9 {
			t.Errorf("Configs[%d][0] = %v, want %v", i, out.Configs[i][0], wantVals[i])
		}
	}
}

func TestResamplePassesThroughSamples(t *testing.T) {
	tr := &Trajectory{
		TimesMs: []float64{0, 500, 1000},
		Configs: [][]float64{{0, 1}, {1, -1}, {0, 3}},
	}
	out, err := tr.Resample(2)
	if err != nil {
		t.Fatalf("Resample: %v", err)
	}
	if len(out.Configs) != 3 {
		t.Fatalf("got %d frames, want 3", len(out.Configs))
	}
	for i, want := range tr.Configs {
		for j := range want {
			if math.Abs(out.Configs[i][j]-want[j]) > 1e-9 {
				t.Errorf("Configs[%d][%d] = %v, want %v", i, j, out.Configs[i][j], want[j])
			}
		}
	}
}

func TestResampleErrors(t *testing.T) {
	tr := &Trajectory{TimesMs: []float64{0, 100}, Configs: [][]float64{{1}, {2}}}
	if _, err := tr.Resample(0); err == nil {
		t.Error("Resample(0) succeeded, want error")
	}
	single := &Trajectory{TimesMs: []float64{0}, Configs: [][]float64{{1}}}
	if _, err := single.Resample(30); !errors.Is(err, ErrInvalidLog) {
		t.Errorf("Resample() on single sample error = %v, want ErrInvalidLog", err)
	}
}
