package record

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/webp"

	"robotviz/internal/kinematics"
	"robotviz/internal/spatial"
	"robotviz/internal/trajectory"
	"robotviz/internal/urdf"
)

// pendulumModel is a 1-DOF arm: a revolute joint swings a triangle visual
// above the base, with a bare tip link as the end effector.
func pendulumModel() *urdf.Model {
	tri := func() *urdf.Visual {
		return &urdf.Visual{
			Verts: []mgl64.Vec3{{0, 0, 0}, {0.2, 0, 0}, {0, 0.2, 0}},
			Tris:  [][3]int{{0, 1, 2}},
		}
	}
	origin := func(x, y, z float64) mgl64.Mat4 {
		return spatial.FromParts(mgl64.Ident3(), mgl64.Vec3{x, y, z})
	}
	return &urdf.Model{
		Name: "pendulum",
		Links: []*urdf.Link{
			{Name: "base", Visual: tri()},
			{Name: "arm", Visual: tri()},
			{Name: "tip"},
		},
		Joints: []*urdf.Joint{
			{Name: "swing", Type: urdf.Revolute, Parent: "base", Child: "arm",
				Origin: origin(0, 0, 0.1), Axis: mgl64.Vec3{0, 0, 1}},
			{Name: "tip_mount", Type: urdf.Fixed, Parent: "arm", Child: "tip",
				Origin: origin(0.3, 0, 0), Axis: mgl64.Vec3{1, 0, 0}},
		},
	}
}

func pendulumTree(t *testing.T) *kinematics.Tree {
	t.Helper()
	tree, err := kinematics.New(pendulumModel())
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestBuildPlanRepeatMode(t *testing.T) {
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 500, 1500},
		Configs: [][]float64{{0}, {1}, {2}},
	}
	plan, err := buildPlan(traj, 2, false)
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	wantRepeats := []int{1, 1, 2}
	if len(plan) != len(wantRepeats) {
		t.Fatalf("got %d frames, want %d", len(plan), len(wantRepeats))
	}
	for i, want := range wantRepeats {
		if plan[i].repeat != want {
			t.Errorf("plan[%d].repeat = %d, want %d", i, plan[i].repeat, want)
		}
		if plan[i].tsMs != traj.TimesMs[i] {
			t.Errorf("plan[%d].tsMs = %v, want %v", i, plan[i].tsMs, traj.TimesMs[i])
		}
	}
}

func TestBuildPlanResampled(t *testing.T) {
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 1000},
		Configs: [][]float64{{0}, {1}},
	}
	plan, err := buildPlan(traj, 4, true)
	if err != nil {
		t.Fatalf("buildPlan: %v", err)
	}
	if len(plan) != 5 {
		t.Fatalf("got %d frames, want 5", len(plan))
	}
	for i, f := range plan {
		if f.repeat != 1 {
			t.Errorf("plan[%d].repeat = %d, want 1", i, f.repeat)
		}
		want := float64(i) * 250
		if math.Abs(f.tsMs-want) > 1e-9 {
			t.Errorf("plan[%d].tsMs = %v, want %v", i, f.tsMs, want)
		}
	}
}

func TestGhostConfigs(t *testing.T) {
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 1, 2, 3, 4},
		Configs: [][]float64{{0}, {1}, {2}, {3}, {4}},
	}
	got := ghostConfigs(traj, 2)
	if len(got) != 3 {
		t.Fatalf("got %d ghosts, want 3", len(got))
	}
	for i, want := range []float64{0, 2, 4} {
		if got[i][0] != want {
			t.Errorf("ghost[%d] = %v, want %v", i, got[i][0], want)
		}
	}
	if ghostConfigs(traj, 0) != nil {
		t.Error("ghostConfigs with 0 spacing should be nil")
	}
}

func TestMotionBoundsCoversAllPoses(t *testing.T) {
	tree := pendulumTree(t)
	plan := []frame{{q: []float64{0}}, {q: []float64{math.Pi / 2}}}
	lo, hi, err := motionBounds(tree, plan, nil)
	if err != nil {
		t.Fatalf("motionBounds: %v", err)
	}
	// The rotated arm reaches x=-0.2; the base keeps x=+0.2 in range.
	if math.Abs(lo.X()+0.2) > 1e-9 || math.Abs(hi.X()-0.2) > 1e-9 {
		t.Errorf("x bounds [%v, %v], want [-0.2, 0.2]", lo.X(), hi.X())
	}
	if math.Abs(hi.Z()-0.1) > 1e-9 {
		t.Errorf("hi.Z = %v, want 0.1", hi.Z())
	}
}

func TestFrameRendererGhostInstances(t *testing.T) {
	tree := pendulumTree(t)
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 100, 200},
		Configs: [][]float64{{0}, {0.5}, {1}},
	}
	cfg := Config{Size: 24, Supersample: 1}
	ghosts := ghostConfigs(traj, 2)
	fr, err := newFrameRenderer(cfg, tree, traj, ghosts, mgl64.Vec3{-0.5, -0.5, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	if err != nil {
		t.Fatalf("newFrameRenderer: %v", err)
	}
	if got := len(fr.robot.Instances()); got != 3 {
		t.Errorf("Instances() count = %d, want 3 (live + 2 ghosts)", got)
	}
}

func TestRecordWritesVideo(t *testing.T) {
	tree := pendulumTree(t)
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 100, 200},
		Configs: [][]float64{{0}, {0.8}, {1.6}},
	}
	out := filepath.Join(t.TempDir(), "motion.avi")
	sum, err := Record(Config{
		OutputPath:  out,
		Size:        32,
		Supersample: 1,
		Workers:     2,
		FPS:         10,
		Overlay:     true,
		GhostEvery:  2,
		TracePath:   true,
	}, tree, traj)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if sum.Frames != 3 {
		t.Errorf("Frames = %d, want 3", sum.Frames)
	}
	if sum.FPS != 10 {
		t.Errorf("FPS = %v, want 10", sum.FPS)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(data) < 12 || string(data[:4]) != "RIFF" || string(data[8:12]) != "AVI " {
		t.Error("output is not an AVI file")
	}
}

func TestRecordResampledFrameCount(t *testing.T) {
	tree := pendulumTree(t)
	traj := &trajectory.Trajectory{
		TimesMs: []float64{0, 1000},
		Configs: [][]float64{{0}, {1.2}},
	}
	out := filepath.Join(t.TempDir(), "smooth.avi")
	sum, err := Record(Config{
		OutputPath: out,
		Size:       24,
		Workers:    1,
		FPS:        5,
		Resample:   true,
	}, tree, traj)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if sum.Frames != 6 {
		t.Errorf("Frames = %d, want 6 (5 fps over 1s inclusive)", sum.Frames)
	}
}

func TestRecordRejectsBadInput(t *testing.T) {
	tree := pendulumTree(t)
	good := &trajectory.Trajectory{TimesMs: []float64{0, 100}, Configs: [][]float64{{0}, {1}}}
	if _, err := Record(Config{}, tree, good); err == nil {
		t.Error("Record without output path succeeded")
	}
	wide := &trajectory.Trajectory{TimesMs: []float64{0, 100}, Configs: [][]float64{{0, 0}, {1, 1}}}
	if _, err := Record(Config{OutputPath: "x.avi"}, tree, wide); err == nil {
		t.Error("Record with mismatched joint count succeeded")
	}
	bad := &trajectory.Trajectory{TimesMs: []float64{100, 100}, Configs: [][]float64{{0}, {1}}}
	if _, err := Record(Config{OutputPath: "x.avi"}, tree, bad); !errors.Is(err, trajectory.ErrInvalidLog) {
		t.Errorf("Record with bad log error = %v, want ErrInvalidLog", err)
	}
}

func TestSnapshotAndWriteWebP(t *testing.T) {
	tree := pendulumTree(t)
	img, err := Snapshot(SnapshotOptions{Size: 32, Supersample: 1, MarkEndEffector: true}, tree, []float64{0.4})
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("snapshot size %v, want 32x32", img.Bounds())
	}
	drawn := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 {
			drawn++
		}
	}
	if drawn == 0 {
		t.Error("snapshot is fully transparent")
	}

	path := filepath.Join(t.TempDir(), "pose", "arm.webp")
	if err := WriteWebP(path, img); err != nil {
		t.Fatalf("WriteWebP: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()
	decoded, err := webp.Decode(f)
	if err != nil {
		t.Fatalf("webp.Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 32 {
		t.Errorf("decoded width = %d, want 32", decoded.Bounds().Dx())
	}
}
