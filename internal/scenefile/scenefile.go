// Package scenefile loads gg3d scenes from YAML or TOML files.
//
// A scene names a viewport, one camera and the geometry to stage. Angles
// are written in degrees and converted to radians on load. A surface
// without a color is colored by its classified kind.
//
//	viewport: {width: 800, height: 600}
//	camera: {pos: [0, 100, -300], pitch: -10, yaw: 0, fov_y: 60}
//	objects:
//	  - {pos: [0, 0, 200], height: 160}
package scenefile

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/gg3d"
)

// Format identifies a scene file encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for file extensions other than .yaml,
// .yml and .toml.
var ErrUnknownFormat = errors.New("scenefile: unknown format")

// ErrInvalidScene is returned when a decoded scene is malformed.
var ErrInvalidScene = errors.New("scenefile: invalid scene")

// Scene is the file representation of one frame.
type Scene struct {
	Viewport Viewport  `yaml:"viewport" toml:"viewport"`
	Camera   *Camera   `yaml:"camera,omitempty" toml:"camera,omitempty"`
	BirdsEye *BirdsEye `yaml:"birds_eye,omitempty" toml:"birds_eye,omitempty"`
	Surfaces []Surface `yaml:"surfaces,omitempty" toml:"surfaces,omitempty"`
	Objects  []Object  `yaml:"objects,omitempty" toml:"objects,omitempty"`
	Hitboxes []Hitbox  `yaml:"hitboxes,omitempty" toml:"hitboxes,omitempty"`

	// WallHitboxes stages the collision prism of every wall surface.
	WallHitboxes bool `yaml:"wall_hitboxes,omitempty" toml:"wall_hitboxes,omitempty"`
}

// Viewport is a pixel rectangle with a lower-left origin.
type Viewport struct {
	X      int `yaml:"x,omitempty" toml:"x,omitempty"`
	Y      int `yaml:"y,omitempty" toml:"y,omitempty"`
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

// Camera is a perspective camera with angles in degrees.
type Camera struct {
	Pos   []float32 `yaml:"pos" toml:"pos"`
	Pitch float32   `yaml:"pitch,omitempty" toml:"pitch,omitempty"`
	Yaw   float32   `yaml:"yaw,omitempty" toml:"yaw,omitempty"`
	FovY  float32   `yaml:"fov_y" toml:"fov_y"`
}

// BirdsEye is a top-down camera.
type BirdsEye struct {
	Pos  []float32 `yaml:"pos" toml:"pos"`
	Span float32   `yaml:"span" toml:"span"`
}

// Surface is one triangle. Color is optional.
type Surface struct {
	Vertices [][]float32 `yaml:"vertices" toml:"vertices"`
	Color    []float32   `yaml:"color,omitempty" toml:"color,omitempty"`
}

// Object is a box standing on Pos.
type Object struct {
	Pos    []float32 `yaml:"pos" toml:"pos"`
	Height float32   `yaml:"height" toml:"height"`
}

// Hitbox is a cylinder standing on Pos.
type Hitbox struct {
	Pos    []float32 `yaml:"pos" toml:"pos"`
	Height float32   `yaml:"height" toml:"height"`
	Radius float32   `yaml:"radius" toml:"radius"`
}

// FormatOf returns the format implied by path's extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, path)
	}
}

// Load reads and decodes the scene file at path.
func Load(path string) (*Scene, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: read %s: %w", path, err)
	}
	s, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes data in the given format.
func Parse(data []byte, format Format) (*Scene, error) {
	var s Scene
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if s.Camera != nil && s.BirdsEye != nil {
		return nil, fmt.Errorf("%w: camera and birds_eye are mutually exclusive", ErrInvalidScene)
	}
	return &s, nil
}

// Apply sets r's viewport and camera from the scene and stages its
// geometry. Geometry already staged on r is kept. The first invalid
// entry stops Apply and is reported with its index.
func (s *Scene) Apply(r *gg3d.Renderer) error {
	if err := r.SetViewport(s.Viewport.toViewport()); err != nil {
		return err
	}
	switch {
	case s.Camera != nil:
		c, err := s.Camera.toCamera()
		if err != nil {
			return err
		}
		if err := r.SetCamera(c); err != nil {
			return err
		}
	case s.BirdsEye != nil:
		pos, err := vec3(s.BirdsEye.Pos, "birds_eye.pos")
		if err != nil {
			return err
		}
		if err := r.SetBirdsEyeCamera(gg3d.BirdsEyeCamera{Pos: pos, SpanY: s.BirdsEye.Span}); err != nil {
			return err
		}
	}

	for i := range s.Surfaces {
		surface, err := s.Surfaces[i].toSurface()
		if err != nil {
			return fmt.Errorf("surfaces[%d]: %w", i, err)
		}
		if err := r.AddSurface(surface); err != nil {
			return fmt.Errorf("surfaces[%d]: %w", i, err)
		}
		if !s.WallHitboxes || surface.Normal() == (mgl32.Vec3{}) {
			continue
		}
		if gg3d.ClassifySurface(surface.Vertices).IsWall() {
			if err := r.AddWallHitbox(surface); err != nil {
				return fmt.Errorf("surfaces[%d]: wall hitbox: %w", i, err)
			}
		}
	}
	for i, o := range s.Objects {
		pos, err := vec3(o.Pos, "pos")
		if err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
		if err := r.AddObject(pos, o.Height); err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
	}
	for i, h := range s.Hitboxes {
		pos, err := vec3(h.Pos, "pos")
		if err != nil {
			return fmt.Errorf("hitboxes[%d]: %w", i, err)
		}
		if err := r.AddHitbox(pos, h.Height, h.Radius); err != nil {
			return fmt.Errorf("hitboxes[%d]: %w", i, err)
		}
	}
	return nil
}

// Size returns the smallest target size that holds the viewport.
func (s *Scene) Size() image.Point {
	return image.Pt(max(s.Viewport.X+s.Viewport.Width, 1), max(s.Viewport.Y+s.Viewport.Height, 1))
}

func (v Viewport) toViewport() gg3d.Viewport {
	return gg3d.Viewport{Pos: image.Pt(v.X, v.Y), Size: image.Pt(v.Width, v.Height)}
}

func (c *Camera) toCamera() (gg3d.Camera, error) {
	pos, err := vec3(c.Pos, "camera.pos")
	if err != nil {
		return gg3d.Camera{}, err
	}
	return gg3d.Camera{
		Pos:   pos,
		Pitch: mgl32.DegToRad(c.Pitch),
		Yaw:   mgl32.DegToRad(c.Yaw),
		FovY:  mgl32.DegToRad(c.FovY),
	}, nil
}

func (s *Surface) toSurface() (gg3d.Surface, error) {
	if len(s.Vertices) != 3 {
		return gg3d.Surface{}, fmt.Errorf("%w: %d vertices, want 3", ErrInvalidScene, len(s.Vertices))
	}
	var vertices [3]mgl32.Vec3
	for i, v := range s.Vertices {
		p, err := vec3(v, fmt.Sprintf("vertices[%d]", i))
		if err != nil {
			return gg3d.Surface{}, err
		}
		vertices[i] = p
	}
	if s.Color == nil {
		return gg3d.NewSurface(vertices), nil
	}
	color, err := vec3(s.Color, "color")
	if err != nil {
		return gg3d.Surface{}, err
	}
	return gg3d.Surface{Vertices: vertices, Color: color}, nil
}

func vec3(v []float32, field string) (mgl32.Vec3, error) {
	if len(v) != 3 {
		return mgl32.Vec3{}, fmt.Errorf("%w: %s has %d components, want 3", ErrInvalidScene, field, len(v))
	}
	return mgl32.Vec3{v[0], v[1], v[2]}, nil
}
