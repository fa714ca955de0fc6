package record

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/kinematics"
	"robotviz/internal/robot"
	"robotviz/internal/scene"
	"robotviz/internal/texture"
)

// SnapshotOptions configures a single-pose render. The zero value gives a
// 512px transparent-background image of the uncolored robot.
type SnapshotOptions struct {
	Size        int
	Supersample int
	Camera      scene.Camera
	Textures    texture.Resolver
	Floor       bool
	Background  color.NRGBA

	Color   string
	Opacity float64

	// MarkEndEffector draws an axes triad at the end-effector pose.
	MarkEndEffector bool
}

// Snapshot renders the robot at configuration q.
func Snapshot(opts SnapshotOptions, tree *kinematics.Tree, q []float64) (*image.NRGBA, error) {
	sink := scene.NewSoft(scene.SoftConfig{
		Size:        opts.Size,
		Supersample: opts.Supersample,
		Camera:      opts.Camera,
		Textures:    opts.Textures,
		Floor:       opts.Floor,
		Background:  opts.Background,
	})
	rob, err := robot.New(tree, sink, robot.Config{Color: opts.Color, Opacity: opts.Opacity})
	if err != nil {
		return nil, err
	}
	if err := rob.Update(q); err != nil {
		return nil, err
	}
	if opts.MarkEndEffector {
		if err := rob.DrawEndEffectorFrame(q, "", mgl64.Mat4{}); err != nil {
			return nil, err
		}
	}
	return sink.Render(), nil
}

// WriteWebP writes img to path, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("record: create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("record: create %s: %w", path, err)
	}
	defer f.Close()
	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("record: webp encode %s: %w", path, err)
	}
	return nil
}
