package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func writeRaw(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestIndexResolvePath(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, filepath.Join(dir, "textures", "checker.jpg"), []byte("x"))
	writeRaw(t, filepath.Join(dir, "textures", "checker.png"), []byte("x"))
	writeRaw(t, filepath.Join(dir, "wood.jpeg"), []byte("x"))
	writeRaw(t, filepath.Join(dir, "notes.txt"), []byte("x"))

	idx := BuildIndex(dir)
	if idx.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", idx.Len())
	}

	// Alpha-capable format wins the stem.
	path, ok := idx.ResolvePath("checker")
	if !ok || filepath.Ext(path) != ".png" {
		t.Errorf("ResolvePath(checker) = %q, %v; want .png path", path, ok)
	}

	// package:// URIs resolve relative to the model dir.
	path, ok = idx.ResolvePath("package://mybot/textures/checker.png")
	if !ok || path != filepath.Join(dir, "textures", "checker.png") {
		t.Errorf("package URI resolved to %q, %v", path, ok)
	}

	// Stem match is case-insensitive and ignores directories.
	if _, ok := idx.ResolvePath(`C:\meshes\WOOD.JPEG`); !ok {
		t.Error("stem lookup failed for WOOD.JPEG")
	}

	if _, ok := idx.ResolvePath("missing"); ok {
		t.Error("ResolvePath(missing) should fail")
	}
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "red.png")
	writePNG(t, p, color.NRGBA{R: 200, G: 10, B: 20, A: 255})

	img, err := LoadImage(p)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if img.Pix[0] != 200 || img.Pix[1] != 10 || img.Pix[2] != 20 {
		t.Errorf("decoded pixel = %v", img.Pix[:4])
	}

	if _, err := LoadImage(filepath.Join(dir, "absent.png")); err == nil {
		t.Error("LoadImage on missing file should fail")
	}
}

func TestAverageColor(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Pix[0], img.Pix[3] = 100, 255
	img.Pix[4], img.Pix[7] = 200, 255

	r, g, b := AverageColor(img)
	if r != 150 || g != 0 || b != 0 {
		t.Errorf("AverageColor = (%d, %d, %d), want (150, 0, 0)", r, g, b)
	}

	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	r, g, b = AverageColor(empty)
	if r != 160 || g != 160 || b != 170 {
		t.Errorf("empty fallback = (%d, %d, %d)", r, g, b)
	}
}

func TestCheckerboard(t *testing.T) {
	light := color.NRGBA{R: 230, G: 230, B: 230, A: 255}
	dark := color.NRGBA{R: 140, G: 140, B: 140, A: 255}
	img := Checkerboard(4, 2, light, dark)

	at := func(x, y int) uint8 { return img.Pix[img.PixOffset(x, y)] }
	if at(0, 0) != 230 || at(2, 0) != 140 || at(2, 2) != 230 || at(0, 2) != 140 {
		t.Errorf("checker pattern wrong: %d %d %d %d", at(0, 0), at(2, 0), at(2, 2), at(0, 2))
	}
}

func TestCacheResolve(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "plate.png"), color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	cache := NewCache(BuildIndex(dir))

	first := cache.Resolve("plate.png")
	if first == nil {
		t.Fatal("Resolve(plate.png) = nil")
	}
	if second := cache.Resolve("plate.png"); second != first {
		t.Error("second Resolve returned a different image")
	}

	if img := cache.Resolve("missing.png"); img != nil {
		t.Errorf("Resolve(missing.png) = %v, want nil", img)
	}
	// Negative result is cached too.
	if img := cache.Resolve("missing.png"); img != nil {
		t.Error("cached negative lookup returned an image")
	}
}
