package main

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"robotviz/internal/kinematics"
	"robotviz/internal/spatial"
	"robotviz/internal/urdf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: urdfinspect <robot.urdf> [...]")
		os.Exit(1)
	}

	for _, arg := range os.Args[1:] {
		model, err := urdf.Load(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Parse error %s: %v\n", arg, err)
			continue
		}
		tree, err := kinematics.New(model)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Kinematics error %s: %v\n", arg, err)
			continue
		}

		fmt.Printf("\n=== %s (links=%d joints=%d dof=%d root=%s) ===\n",
			arg, len(model.Links), len(model.Joints), tree.DOF(), tree.Root())

		fmt.Println("--- JOINTS ---")
		for _, j := range model.Joints {
			t := spatial.Translation(j.Origin)
			extra := ""
			if j.Type.Movable() {
				extra = fmt.Sprintf(" axis=(%g,%g,%g)", j.Axis.X(), j.Axis.Y(), j.Axis.Z())
			}
			fmt.Printf("  %s: %s %s -> %s origin=(%.3f,%.3f,%.3f)%s\n",
				j.Name, j.Type, j.Parent, j.Child, t.X(), t.Y(), t.Z(), extra)
		}

		fmt.Println("--- LINKS (local geometry) ---")
		printLinks(model)

		fmt.Println("--- FK AT ZERO (world space) ---")
		fk, err := tree.ForwardKinematics(tree.Neutral())
		if err != nil {
			fmt.Fprintf(os.Stderr, "FK error %s: %v\n", arg, err)
			continue
		}
		for _, l := range model.Links {
			pose := fk[l.Name]
			p := spatial.Translation(pose)
			if l.Visual == nil || len(l.Visual.Verts) == 0 {
				fmt.Printf("  %s: at (%.3f,%.3f,%.3f)\n", l.Name, p.X(), p.Y(), p.Z())
				continue
			}
			world := make([]mgl64.Vec3, len(l.Visual.Verts))
			copy(world, l.Visual.Verts)
			spatial.TransformPoints(pose, world)
			lo, hi := boundsOf(world)
			fmt.Printf("  %s: at (%.3f,%.3f,%.3f) x=[%.3f..%.3f] y=[%.3f..%.3f] z=[%.3f..%.3f]\n",
				l.Name, p.X(), p.Y(), p.Z(),
				lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
		}
	}
}

func printLinks(model *urdf.Model) {
	for _, l := range model.Links {
		if l.Visual == nil || len(l.Visual.Verts) == 0 {
			fmt.Printf("  %s: no visual\n", l.Name)
			continue
		}
		v := l.Visual
		info := ""
		if v.HasColor {
			info += fmt.Sprintf(" color=(%.2f,%.2f,%.2f,%.2f)", v.Color[0], v.Color[1], v.Color[2], v.Color[3])
		}
		if v.Texture != "" {
			info += fmt.Sprintf(" tex=%q", v.Texture)
		}
		lo, hi := boundsOf(v.Verts)
		fmt.Printf("  %s: v=%d t=%d bbox=(%.3f,%.3f,%.3f)%s\n",
			l.Name, len(v.Verts), len(v.Tris),
			hi[0]-lo[0], hi[1]-lo[1], hi[2]-lo[2], info)
	}
}

func boundsOf(verts []mgl64.Vec3) (lo, hi mgl64.Vec3) {
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range verts {
		for k := 0; k < 3; k++ {
			if v[k] < lo[k] {
				lo[k] = v[k]
			}
			if v[k] > hi[k] {
				hi[k] = v[k]
			}
		}
	}
	return lo, hi
}
