// softrender - CPU mesh rasterizer
// Render OBJ and glTF models to TGA, PNG, JPEG, BMP or TIFF images without a
// GPU, in wireframe, flat, textured, per-pixel lit or random-color modes.
//
// Usage:
//
//	softrender render model.obj --mode shaded --texture skin.tga -o out.png
//	softrender render model.glb --frames 36 --orbit-degrees 360 -o spin.tga
//	softrender textures examples
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/softrender/pkg/app"
	"github.com/taigrr/softrender/pkg/assets"
	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/render"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "softrender",
		Short: "Rasterize 3D meshes into image files on the CPU",
		Long: "softrender projects a triangulated mesh through a look-at camera and a\n" +
			"45 degree perspective and fills it into a color and depth buffer.",
		SilenceUsage: true,
	}
	root.AddCommand(newRenderCmd(), newTexturesCmd(), newVersionCmd())
	return root
}

// renderOptions holds the raw flag values of the render command. Vectors and
// colors stay strings until they are merged into an app.Config.
type renderOptions struct {
	configPath string
	texture    string
	output     string
	width      int
	height     int
	mode       string
	camera     string
	target     string
	light      string
	background string
	lineColor  string
	seed       uint64
	fit        float64
	smooth     bool
	cull       bool
	rle        bool
	frames     int
	orbit      float64

	preview      bool
	previewWidth int
	watch        bool
	verbose      bool
	logFile      string
}

func newRenderCmd() *cobra.Command {
	var o renderOptions
	cmd := &cobra.Command{
		Use:   "render <model>",
		Short: "Render a mesh to an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			closeLog, err := o.setupLogging(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeLog()

			if err := o.run(cmd, args[0]); err != nil {
				return err
			}
			if o.watch {
				return o.watchLoop(cmd, args[0])
			}
			return nil
		},
	}

	defaults := app.DefaultConfig()
	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "TOML or YAML file with render settings")
	f.StringVarP(&o.texture, "texture", "t", "", "texture image (TGA, PNG, JPEG, BMP, TIFF, WebP)")
	f.StringVarP(&o.output, "output", "o", defaults.Output, "output image; the extension picks the format")
	f.IntVar(&o.width, "width", defaults.Width, "image width in pixels")
	f.IntVar(&o.height, "height", defaults.Height, "image height in pixels")
	f.StringVarP(&o.mode, "mode", "m", defaults.Mode, "wireframe, solid, textured, shaded or colorful")
	f.StringVar(&o.camera, "camera", "0,0,5", "camera position x,y,z")
	f.StringVar(&o.target, "target", "0,0,0", "camera target x,y,z")
	f.StringVar(&o.light, "light", "1,1,1", "direction towards the light x,y,z")
	f.StringVar(&o.background, "background", defaults.Background, "clear color as #rrggbb[aa]")
	f.StringVar(&o.lineColor, "line-color", defaults.LineColor, "wireframe color as #rrggbb[aa]")
	f.Uint64Var(&o.seed, "seed", 0, "random seed for colorful mode")
	f.Float64Var(&o.fit, "fit", 0, "center the model and scale its largest side to this size")
	f.BoolVar(&o.smooth, "smooth-normals", false, "generate vertex normals for meshes without them")
	f.BoolVar(&o.cull, "cull", false, "skip triangles facing away from the camera")
	f.BoolVar(&o.rle, "rle", false, "run-length encode TGA output")
	f.IntVar(&o.frames, "frames", defaults.Frames, "render a turntable sequence of this many frames")
	f.Float64Var(&o.orbit, "orbit-degrees", defaults.OrbitDegrees, "turntable sweep in degrees")
	f.BoolVar(&o.preview, "preview", false, "print the rendered image to the terminal")
	f.IntVar(&o.previewWidth, "preview-width", 80, "terminal columns used by --preview")
	f.BoolVarP(&o.watch, "watch", "w", false, "re-render when the model, texture or config changes")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log progress at debug level")
	f.StringVar(&o.logFile, "log-file", "", "also append logs to this file")
	return cmd
}

// config builds the job configuration: defaults, then the config file, then
// every flag the user set explicitly.
func (o *renderOptions) config(cmd *cobra.Command, model string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if o.configPath != "" {
		if err := app.LoadConfig(o.configPath, &cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	set := func(name string, apply func() error) error {
		if !flags.Changed(name) {
			return nil
		}
		return apply()
	}
	vector := func(dst *[]float64, s string) func() error {
		return func() error {
			v, err := app.ParseVec3(s)
			if err != nil {
				return err
			}
			*dst = v
			return nil
		}
	}
	assign := func(apply func()) func() error {
		return func() error { apply(); return nil }
	}

	steps := []struct {
		flag  string
		apply func() error
	}{
		{"texture", assign(func() { cfg.Texture = o.texture })},
		{"output", assign(func() { cfg.Output = o.output })},
		{"width", assign(func() { cfg.Width = o.width })},
		{"height", assign(func() { cfg.Height = o.height })},
		{"mode", assign(func() { cfg.Mode = o.mode })},
		{"camera", vector(&cfg.Camera, o.camera)},
		{"target", vector(&cfg.Target, o.target)},
		{"light", vector(&cfg.Light, o.light)},
		{"background", assign(func() { cfg.Background = o.background })},
		{"line-color", assign(func() { cfg.LineColor = o.lineColor })},
		{"seed", assign(func() { cfg.Seed = &o.seed })},
		{"fit", assign(func() { cfg.Fit = o.fit })},
		{"smooth-normals", assign(func() { cfg.SmoothNormals = o.smooth })},
		{"cull", assign(func() { cfg.CullBackfaces = o.cull })},
		{"rle", assign(func() { cfg.RLE = o.rle })},
		{"frames", assign(func() { cfg.Frames = o.frames })},
		{"orbit-degrees", assign(func() { cfg.OrbitDegrees = o.orbit })},
	}
	for _, s := range steps {
		if err := set(s.flag, s.apply); err != nil {
			return cfg, fmt.Errorf("--%s: %w", s.flag, err)
		}
	}

	cfg.Model = model
	if err := cfg.ExpandPaths(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (o *renderOptions) run(cmd *cobra.Command, model string) error {
	cfg, err := o.config(cmd, model)
	if err != nil {
		return err
	}
	a, err := app.New(cfg, assets.NewRegistry())
	if err != nil {
		return err
	}

	paths, err := a.Run()
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}

	if o.preview {
		return render.Preview(cmd.OutOrStdout(), a.Frame(), o.previewWidth)
	}
	return nil
}

// setupLogging installs a text logger on stderr and, with --log-file, on the
// file as well. The returned function closes the file.
func (o *renderOptions) setupLogging(stderr io.Writer) (func(), error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	writers := []io.Writer{stderr}
	closeFn := func() {}
	if o.logFile != "" {
		if err := os.MkdirAll(filepath.Dir(o.logFile), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, f)
		closeFn = func() { f.Close() }
	}

	logging.SetLogger(logging.NewText(level, writers...))
	return closeFn, nil
}

func newTexturesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "textures <dir>",
		Short: "Write checkerboard and gradient test textures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := app.GenerateTestTextures(args[0], assets.NewRegistry())
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "softrender", version)
		},
	}
}
