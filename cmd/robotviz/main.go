package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"robotviz/internal/config"
	"robotviz/internal/kinematics"
	"robotviz/internal/logging"
	"robotviz/internal/record"
	"robotviz/internal/scene"
	"robotviz/internal/texture"
	"robotviz/internal/trajectory"
	"robotviz/internal/urdf"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to config.json file")
	urdfPath := flag.String("urdf", "", "Robot description (URDF) to draw")
	trajPath := flag.String("trajectory", "", "JSON motion log; renders a video instead of a snapshot")
	output := flag.String("output", "", "Output file (default: description name + .webp or .avi)")
	pose := flag.String("pose", "", "Snapshot joint configuration, comma-separated radians (default: zeros)")
	camera := flag.String("camera", "", "View as az,el or az,el,fov degrees (default: 45,30)")
	colorFlag := flag.String("color", "", "Override link colors with one name or #rrggbb")
	opacity := flag.Float64("opacity", 0, "Mesh opacity 0-1 (default: from description)")
	size := flag.Int("size", 0, "Output image edge in pixels (default: 512)")
	workers := flag.Int("workers", 0, "Render worker goroutines (default: NumCPU)")
	fps := flag.Float64("fps", 0, "Playback rate (default: derived from log timestamps)")
	ghostEvery := flag.Int("ghost", 0, "Draw every Nth log sample as a translucent trail pose")
	overlay := flag.Bool("overlay", false, "Stamp frames with the log timestamp")
	resample := flag.Bool("resample", false, "Interpolate the motion onto the frame clock")
	floor := flag.Bool("floor", false, "Draw a checkerboard ground plane")
	trace := flag.Bool("trace", false, "Draw the end-effector path of the whole log")
	markFrame := flag.Bool("frame", false, "Draw the end-effector frame axes on snapshots")
	verbose := flag.Bool("v", false, "Log render internals to stderr")

	flag.Parse()

	if *verbose {
		logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	// Load config
	var cfg config.Config
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// CLI flags override config file
	err := cfg.Resolve(config.Flags{
		URDF:       *urdfPath,
		Trajectory: *trajPath,
		Output:     *output,
		Camera:     *camera,
		Color:      *colorFlag,
		Size:       *size,
		Workers:    *workers,
		GhostEvery: *ghostEvery,
		FPS:        *fps,
		Opacity:    *opacity,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *overlay {
		cfg.Overlay = true
	}
	if *resample {
		cfg.Resample = true
	}
	if *floor {
		cfg.Floor = true
	}
	if *trace {
		cfg.TracePath = true
	}

	if cfg.URDF == "" {
		fmt.Fprintln(os.Stderr, "Error: no robot description. Use -urdf or config.json.")
		os.Exit(1)
	}

	// Load robot description
	model, err := urdf.Load(cfg.URDF)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading description: %v\n", err)
		os.Exit(1)
	}
	tree, err := kinematics.New(model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building kinematics: %v\n", err)
		os.Exit(1)
	}

	// Build texture index
	texIndex := texture.BuildIndex(cfg.MeshDir)
	texCache := texture.NewCache(texIndex)

	fmt.Printf("Robot: %s (%d links, %d joints, %d DOF)\n",
		model.Name, len(model.Links), len(model.Joints), tree.DOF())
	fmt.Printf("Textures: %d indexed\n", texIndex.Len())

	cam := scene.Camera{
		AzimuthDeg:   cfg.Camera.Azimuth,
		ElevationDeg: cfg.Camera.Elevation,
		Perspective:  cfg.Camera.Perspective,
		FOVDeg:       cfg.Camera.FOV,
	}
	var background color.NRGBA
	if cfg.Background != "" {
		c, err := scene.ParseColor(cfg.Background)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		background = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}

	if cfg.Trajectory != "" {
		runVideo(cfg, tree, cam, background, texCache)
		return
	}
	runSnapshot(cfg, tree, cam, background, texCache, *pose, *markFrame)
}

func runVideo(cfg config.Config, tree *kinematics.Tree, cam scene.Camera, background color.NRGBA, textures texture.Resolver) {
	traj, err := trajectory.Load(cfg.Trajectory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading trajectory: %v\n", err)
		os.Exit(1)
	}

	out := cfg.Output
	if out == "" {
		out = outputName(cfg.URDF, ".avi")
	}

	fmt.Printf("Trajectory: %d samples, %.1fs, %d joints\n",
		len(traj.TimesMs), traj.Duration()/1000, traj.DOF())
	fmt.Printf("Output: %s, Workers: %d\n", out, cfg.Workers)
	fmt.Println("------------------------------------------------------------")

	sum, err := record.Record(record.Config{
		OutputPath:  out,
		Size:        cfg.RenderSize,
		Supersample: cfg.Supersample,
		Camera:      cam,
		Textures:    textures,
		Floor:       cfg.Floor,
		Background:  background,
		Color:       cfg.Color,
		Opacity:     cfg.Opacity,
		FPS:         cfg.FPS,
		Resample:    cfg.Resample,
		Overlay:     cfg.Overlay,
		GhostEvery:  cfg.GhostEvery,
		TracePath:   cfg.TracePath,
		Workers:     cfg.Workers,
	}, tree, traj)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", sum.Elapsed.Seconds())
	fmt.Printf("Video: %s (%d frames at %.1f fps)\n", sum.Path, sum.Frames, sum.FPS)
}

func runSnapshot(cfg config.Config, tree *kinematics.Tree, cam scene.Camera, background color.NRGBA, textures texture.Resolver, pose string, markFrame bool) {
	q := tree.Neutral()
	if pose != "" {
		var err error
		q, err = parsePose(pose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(q) != tree.DOF() {
			fmt.Fprintf(os.Stderr, "Error: pose has %d values, robot has %d joints\n", len(q), tree.DOF())
			os.Exit(1)
		}
	}

	start := time.Now()
	img, err := record.Snapshot(record.SnapshotOptions{
		Size:            cfg.RenderSize,
		Supersample:     cfg.Supersample,
		Camera:          cam,
		Textures:        textures,
		Floor:           cfg.Floor,
		Background:      background,
		Color:           cfg.Color,
		Opacity:         cfg.Opacity,
		MarkEndEffector: markFrame,
	}, tree, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	out := cfg.Output
	if out == "" {
		out = outputName(cfg.URDF, ".webp")
	}
	if err := record.WriteWebP(out, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Snapshot: %s (%dpx, %.2fs)\n", out, cfg.RenderSize, time.Since(start).Seconds())
}

func outputName(urdfPath, ext string) string {
	base := filepath.Base(urdfPath)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ext
}

func parsePose(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("pose %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}
