// Command gg3ddemo renders a gg3d scene to an image file.
//
// Usage:
//
//	gg3ddemo [-scene file.yaml|file.toml] [-backend auto|software|wgpu] [-output demo.png] [-v]
//
// Without -scene a built-in scene is rendered. The output format follows
// the file extension: .png, .bmp, .tif or .tiff.
package main

import (
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gogpu/gg3d"
	"github.com/gogpu/gg3d/backend"
	_ "github.com/gogpu/gg3d/backend/software"
	_ "github.com/gogpu/gg3d/backend/wgpu"
	"github.com/gogpu/gg3d/internal/scenefile"
)

//go:embed scene.yaml
var builtinScene []byte

func main() {
	var (
		scenePath   = flag.String("scene", "", "scene file (.yaml, .yml or .toml); built-in scene if empty")
		backendName = flag.String("backend", "auto", "render backend: auto, "+strings.Join(backend.Available(), ", "))
		output      = flag.String("output", "demo.png", "output file (.png, .bmp, .tif, .tiff)")
		verbose     = flag.Bool("v", false, "log renderer activity to stderr")
	)
	flag.Parse()

	if *verbose {
		gg3d.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if err := run(*scenePath, *backendName, *output); err != nil {
		log.Fatalf("gg3ddemo: %v", err)
	}
}

func run(scenePath, backendName, output string) error {
	scene, err := loadScene(scenePath)
	if err != nil {
		return err
	}
	encode, err := encoderFor(output)
	if err != nil {
		return err
	}

	size := scene.Size()
	target, err := openTarget(backendName, size)
	if err != nil {
		return err
	}
	defer target.Close()

	r, err := gg3d.NewRenderer(target)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := scene.Apply(r); err != nil {
		return fmt.Errorf("apply scene: %w", err)
	}
	if err := r.Render(); err != nil {
		return err
	}
	img, err := target.Image()
	if err != nil {
		return fmt.Errorf("read back %s target: %w", target.Name(), err)
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("Rendered %d triangles with %s to %s (%dx%d)",
		r.TriangleCount(), target.Name(), output, size.X, size.Y)
	return nil
}

func loadScene(path string) (*scenefile.Scene, error) {
	if path == "" {
		return scenefile.Parse(builtinScene, scenefile.FormatYAML)
	}
	return scenefile.Load(path)
}

func openTarget(name string, size image.Point) (backend.Target, error) {
	if name == "auto" {
		return backend.OpenDefault(size.X, size.Y)
	}
	return backend.Open(name, size.X, size.Y)
}

type encoder func(w io.Writer, img image.Image) error

func encoderFor(path string) (encoder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	case ".tif", ".tiff":
		return func(w io.Writer, img image.Image) error {
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		}, nil
	default:
		return nil, errors.New("unsupported output format " + filepath.Ext(path))
	}
}
