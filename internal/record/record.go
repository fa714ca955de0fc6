// Package record turns a joint trajectory into a rendered video. Frames
// are rasterized by a worker pool, each worker holding its own scene and
// robot over the shared kinematic tree, then written in order.
package record

import (
	"fmt"
	"image/color"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/kinematics"
	"robotviz/internal/logging"
	"robotviz/internal/robot"
	"robotviz/internal/scene"
	"robotviz/internal/texture"
	"robotviz/internal/trajectory"
	"robotviz/internal/video"
)

const defaultGhostOpacity = 0.2

// Config holds all shared resources for a recording run.
type Config struct {
	// OutputPath is the AVI file to write.
	OutputPath string

	// Size and Supersample are passed through to the scene sink.
	Size        int
	Supersample int
	Camera      scene.Camera
	Textures    texture.Resolver
	Floor       bool
	// Background fills each frame. Zero value means white; the codec has
	// no alpha channel.
	Background color.NRGBA

	// Color and Opacity override the robot's link materials.
	Color   string
	Opacity float64

	// FPS is the playback rate. Zero derives it from the log timestamps.
	FPS float64
	// Resample interpolates the motion onto the frame clock. When false,
	// frames are duplicated to match the log's real timing.
	Resample bool
	// Overlay stamps each frame with its trajectory timestamp.
	Overlay bool

	// GhostEvery draws every Nth log sample as a static translucent pose,
	// leaving a trail of the motion in every frame. Zero disables.
	GhostEvery   int
	GhostOpacity float64
	// TracePath draws the end-effector path of the whole log.
	TracePath bool

	Workers int
}

// Summary reports what a finished run produced.
type Summary struct {
	Path    string
	Frames  int
	FPS     float64
	Elapsed time.Duration
}

// frame is one scheduled render: the configuration to pose, the timestamp
// to overlay, and how many times the image repeats in the file.
type frame struct {
	q      []float64
	tsMs   float64
	repeat int
}

// Record renders traj into cfg.OutputPath.
func Record(cfg Config, tree *kinematics.Tree, traj *trajectory.Trajectory) (*Summary, error) {
	if cfg.OutputPath == "" {
		return nil, fmt.Errorf("record: no output path")
	}
	if err := traj.Validate(); err != nil {
		return nil, err
	}
	if traj.DOF() != tree.DOF() {
		return nil, fmt.Errorf("record: log has %d joints, robot has %d", traj.DOF(), tree.DOF())
	}
	if cfg.Size <= 0 {
		cfg.Size = 512
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Background == (color.NRGBA{}) {
		cfg.Background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}

	fps := cfg.FPS
	if fps <= 0 {
		fps = video.FPSFromTimestamps(traj.TimesMs)
	}

	plan, err := buildPlan(traj, fps, cfg.Resample)
	if err != nil {
		return nil, err
	}
	ghosts := ghostConfigs(traj, cfg.GhostEvery)

	lo, hi, err := motionBounds(tree, plan, ghosts)
	if err != nil {
		return nil, err
	}

	logging.Logger().Info("recording started",
		"path", cfg.OutputPath, "frames", len(plan), "fps", fps, "workers", cfg.Workers)

	total := len(plan)
	encoded := make([][]byte, total)
	errs := make([]error, total)
	var processed atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				p := processed.Load()
				if p > 0 {
					rate := float64(p) / time.Since(start).Seconds()
					logging.Logger().Info("rendering",
						"frames", p, "total", total, "per_sec", fmt.Sprintf("%.1f", rate))
				}
			}
		}
	}()

	// Worker pool
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fr, err := newFrameRenderer(cfg, tree, traj, ghosts, lo, hi)
			if err != nil {
				for idx := range jobs {
					errs[idx] = err
				}
				return
			}
			for idx := range jobs {
				encoded[idx], errs[idx] = fr.render(plan[idx])
				processed.Add(1)
			}
		}()
	}
	for i := range plan {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	close(done)

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	wr, err := video.NewWriter(cfg.OutputPath, fps, cfg.Size, cfg.Size)
	if err != nil {
		return nil, err
	}
	for i, f := range plan {
		for r := 0; r < f.repeat; r++ {
			if err := wr.AddEncoded(encoded[i]); err != nil {
				wr.Close()
				return nil, err
			}
		}
	}
	if err := wr.Close(); err != nil {
		return nil, err
	}

	return &Summary{
		Path:    cfg.OutputPath,
		Frames:  wr.Frames(),
		FPS:     fps,
		Elapsed: time.Since(start),
	}, nil
}

// buildPlan maps log samples to output frames. Resampling produces one
// frame per clock tick; otherwise each sample repeats for its real
// duration, matching the log's pacing at the cost of jerky playback.
func buildPlan(traj *trajectory.Trajectory, fps float64, resample bool) ([]frame, error) {
	if resample && len(traj.TimesMs) >= 2 {
		rt, err := traj.Resample(fps)
		if err != nil {
			return nil, err
		}
		plan := make([]frame, len(rt.TimesMs))
		for i := range rt.TimesMs {
			plan[i] = frame{q: rt.Configs[i], tsMs: rt.TimesMs[i], repeat: 1}
		}
		return plan, nil
	}
	plan := make([]frame, len(traj.TimesMs))
	for i := range traj.TimesMs {
		repeat := 1
		if i > 0 {
			repeat = video.FramesToRepeat(traj.TimesMs[i], traj.TimesMs[i-1], fps)
		}
		plan[i] = frame{q: traj.Configs[i], tsMs: traj.TimesMs[i], repeat: repeat}
	}
	return plan, nil
}

// ghostConfigs picks every Nth log sample for the static trail.
func ghostConfigs(traj *trajectory.Trajectory, every int) [][]float64 {
	if every <= 0 {
		return nil
	}
	var out [][]float64
	for i := 0; i < len(traj.Configs); i += every {
		out = append(out, traj.Configs[i])
	}
	return out
}

// motionBounds sweeps a throwaway robot through every rendered pose and
// returns the union of its scene bounds. Fitting all frames to one box
// keeps the camera still for the whole video.
func motionBounds(tree *kinematics.Tree, plan []frame, ghosts [][]float64) (lo, hi mgl64.Vec3, err error) {
	sink := scene.NewSoft(scene.SoftConfig{Size: 16, Supersample: 1})
	rob, rerr := robot.New(tree, sink, robot.Config{})
	if rerr != nil {
		return lo, hi, rerr
	}
	first := true
	sweep := func(q []float64) error {
		if uerr := rob.Update(q); uerr != nil {
			return uerr
		}
		blo, bhi, ok := sink.Bounds()
		if !ok {
			return nil
		}
		for a := 0; a < 3; a++ {
			if first || blo[a] < lo[a] {
				lo[a] = blo[a]
			}
			if first || bhi[a] > hi[a] {
				hi[a] = bhi[a]
			}
		}
		first = false
		return nil
	}
	for _, f := range plan {
		if err = sweep(f.q); err != nil {
			return lo, hi, err
		}
	}
	for _, gq := range ghosts {
		if err = sweep(gq); err != nil {
			return lo, hi, err
		}
	}
	if first {
		return lo, hi, fmt.Errorf("record: no geometry to frame")
	}
	return lo, hi, nil
}

// frameRenderer is one worker's private scene and robot.
type frameRenderer struct {
	sink    *scene.SoftSink
	robot   *robot.Robot
	overlay bool
}

func newFrameRenderer(cfg Config, tree *kinematics.Tree, traj *trajectory.Trajectory, ghosts [][]float64, lo, hi mgl64.Vec3) (*frameRenderer, error) {
	sink := scene.NewSoft(scene.SoftConfig{
		Size:        cfg.Size,
		Supersample: cfg.Supersample,
		Camera:      cfg.Camera,
		Textures:    cfg.Textures,
		Floor:       cfg.Floor,
		Background:  cfg.Background,
	})
	sink.FitBounds(lo, hi)

	rob, err := robot.New(tree, sink, robot.Config{Color: cfg.Color, Opacity: cfg.Opacity})
	if err != nil {
		return nil, err
	}

	ghostOp := cfg.GhostOpacity
	if ghostOp <= 0 {
		ghostOp = defaultGhostOpacity
	}
	for i, gq := range ghosts {
		style := scene.Material{Color: scene.MustColor("gray"), Opacity: ghostOp}
		id := i + 1
		if err := rob.AddInstanceMeshes(id, &style); err != nil {
			return nil, err
		}
		if err := rob.UpdateInstance(id, gq); err != nil {
			return nil, err
		}
	}

	if cfg.TracePath && len(traj.Configs) >= 2 {
		if _, err := rob.DrawEndEffectorPath(traj.Configs, robot.PathOptions{}); err != nil {
			return nil, err
		}
	}

	if err := rob.AddInstanceMeshes(robot.DefaultInstance, nil); err != nil {
		return nil, err
	}
	return &frameRenderer{sink: sink, robot: rob, overlay: cfg.Overlay}, nil
}

// render poses the live instance, rasterizes, and JPEG-encodes.
func (fr *frameRenderer) render(f frame) ([]byte, error) {
	if err := fr.robot.Update(f.q); err != nil {
		return nil, err
	}
	img := fr.sink.Render()
	if fr.overlay {
		video.OverlayTimestamp(img, f.tsMs, video.OverlayOptions{})
	}
	return video.EncodeFrame(img)
}
