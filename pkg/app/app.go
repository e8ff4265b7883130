package app

import (
	"errors"
	"fmt"

	"github.com/taigrr/softrender/pkg/assets"
	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/render"
	"github.com/taigrr/softrender/pkg/texture"
)

// ErrNoModel is returned by Render when no model has been loaded.
var ErrNoModel = errors.New("no model loaded")

// Application owns a rasterizer and the mesh it draws. It is configured once
// from a Config and then driven by its methods.
type Application struct {
	cfg        Config
	registry   *assets.Registry
	raster     *render.Rasterizer
	mesh       *models.Mesh
	background uint32
}

// New validates cfg and builds an Application around a fresh rasterizer.
// The model named in cfg is not loaded yet; call LoadModel.
func New(cfg Config, registry *assets.Registry) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if registry == nil {
		registry = assets.NewRegistry()
	}

	mode, _ := render.ParseRenderMode(cfg.Mode)
	background, _ := ParseColor(cfg.Background)
	lineColor, _ := ParseColor(cfg.LineColor)

	r := render.NewRasterizer(cfg.Width, cfg.Height)
	r.SetMode(mode)
	r.SetCameraPosition(vec(cfg.Camera))
	r.SetCameraTarget(vec(cfg.Target))
	r.SetLightDirection(vec(cfg.Light))
	r.SetLineColor(lineColor)
	r.CullBackfaces(cfg.CullBackfaces)
	if cfg.Seed != nil {
		r.SetSeed(*cfg.Seed)
	}

	logging.Logger().Info("application initialized",
		"width", cfg.Width,
		"height", cfg.Height,
		"mode", mode,
	)
	return &Application{
		cfg:        cfg,
		registry:   registry,
		raster:     r,
		background: background,
	}, nil
}

// Rasterizer exposes the underlying rasterizer.
func (a *Application) Rasterizer() *render.Rasterizer { return a.raster }

// Mesh returns the loaded mesh, or nil.
func (a *Application) Mesh() *models.Mesh { return a.mesh }

// LoadModel reads the mesh at path, applying the Fit and SmoothNormals
// options. A mesh that came with its own texture keeps it.
func (a *Application) LoadModel(path string) error {
	mesh, err := a.registry.LoadMesh(path, assets.MeshOptions{SmoothNormals: a.cfg.SmoothNormals})
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	if a.cfg.Fit > 0 {
		mesh.Fit(a.cfg.Fit)
	}
	a.mesh = mesh

	switch a.raster.Visibility(mesh) {
	case render.Outside:
		logging.Logger().Warn("model is outside the view volume", "path", path, "camera", a.raster.Camera().Position())
	case render.Partial:
		logging.Logger().Info("model extends past the view volume", "path", path)
	}
	return nil
}

// SetTexture loads the image at path and uses it for textured modes in
// place of any texture the mesh carries.
func (a *Application) SetTexture(path string) error {
	tex, err := a.registry.LoadTexture(path)
	if err != nil {
		return fmt.Errorf("load texture: %w", err)
	}
	a.raster.SetTexture(tex)
	return nil
}

// SetCameraPosition moves the camera.
func (a *Application) SetCameraPosition(p math3d.Vec3) {
	a.raster.SetCameraPosition(p)
}

// SetCameraTarget changes the camera look-at point.
func (a *Application) SetCameraTarget(t math3d.Vec3) {
	a.raster.SetCameraTarget(t)
}

// SetRenderMode selects the mode for the next Render.
func (a *Application) SetRenderMode(m render.RenderMode) {
	a.raster.SetMode(m)
}

// Render clears the buffers to the background color and draws the mesh.
func (a *Application) Render() (render.Stats, error) {
	if a.mesh == nil {
		return render.Stats{}, ErrNoModel
	}
	a.raster.Clear(a.background)
	stats := a.raster.Render(a.mesh)
	logging.Logger().Info("rendered",
		"mode", a.raster.Mode(),
		"drawn", stats.Drawn,
		"skipped", stats.Skipped,
		"fallbacks", stats.Fallbacks,
	)
	return stats, nil
}

// Frame returns a copy of the last rendered image.
func (a *Application) Frame() *texture.Texture {
	return a.raster.Frame()
}

// SaveImage writes the last rendered image to path in the format chosen by
// its extension.
func (a *Application) SaveImage(path string) error {
	opts := assets.SaveOptions{RLE: a.cfg.RLE, JPEGQuality: a.cfg.JPEGQuality}
	if err := a.registry.SaveImage(path, a.raster.Frame(), opts); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// Run performs the whole job described by the config: load the model and
// optional texture, then render and save one image or a turntable sequence.
// It returns the paths written.
func (a *Application) Run() ([]string, error) {
	if err := a.LoadModel(a.cfg.Model); err != nil {
		return nil, err
	}
	if a.cfg.Texture != "" {
		if err := a.SetTexture(a.cfg.Texture); err != nil {
			return nil, err
		}
	}

	if a.cfg.Frames > 1 {
		return a.RenderTurntable(a.cfg.Output, a.cfg.Frames, a.cfg.OrbitDegrees)
	}
	if _, err := a.Render(); err != nil {
		return nil, err
	}
	if err := a.SaveImage(a.cfg.Output); err != nil {
		return nil, err
	}
	return []string{a.cfg.Output}, nil
}
