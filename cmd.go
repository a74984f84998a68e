package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soocke/pixel-clicker-go/app"
	"github.com/soocke/pixel-clicker-go/assets"
	"github.com/soocke/pixel-clicker-go/config"
	"github.com/soocke/pixel-clicker-go/debug"
	"github.com/soocke/pixel-clicker-go/domain/capture"
	"github.com/soocke/pixel-clicker-go/domain/geometry"
	"github.com/soocke/pixel-clicker-go/domain/match"
	"github.com/soocke/pixel-clicker-go/ui/images"
	"github.com/soocke/pixel-clicker-go/ui/preview"
)

// options carries state shared by all commands.
type options struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	o := &options{v: config.NewViper()}
	root := &cobra.Command{
		Use:           "pixel-clicker",
		Short:         "Find template images in a window and click them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWith(o.v, o.configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", o.configPath, err)
			}
			o.cfg = cfg
			o.logger = NewLogger(os.Stdout, cfg.Debug)
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "config.json", "JSON config file")
	pf.Bool("debug", false, "enable debug logging and runtime stats")
	pf.String("window", "", "window title substring (overrides config)")
	_ = o.v.BindPFlag("debug", pf.Lookup("debug"))
	_ = o.v.BindPFlag("window", pf.Lookup("window"))

	root.AddCommand(
		newWindowsCmd(o),
		newMonitorsCmd(o),
		newFindCmd(o),
		newGrabCmd(o),
		newWatchCmd(o),
		newInitCmd(o),
	)
	return root
}

// requireWindow fails early when no window title is configured, since an
// empty substring would match any window.
func (o *options) requireWindow() error {
	if strings.TrimSpace(o.cfg.Window) == "" {
		return errors.New("no window configured: set \"window\" in the config or pass --window")
	}
	return nil
}

func newWindowsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "windows",
		Short: "List capturable top-level windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.BuildContainer(o.cfg, o.logger)
			if err != nil {
				return err
			}
			defer c.Close()
			list, err := c.Directory.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPID\tACTIVE\tCLIENT\tCLASS\tTITLE")
			for _, h := range list {
				fmt.Fprintf(tw, "%#x\t%d\t%t\t%s\t%s\t%s\n", h.ID, h.PID, h.Active, h.Region(), h.Class, h.Title)
			}
			return tw.Flush()
		},
	}
}

func newMonitorsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "monitors",
		Short: "List active displays and their bounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			displays := capture.Displays()
			if len(displays) == 0 {
				return errors.New("no active displays")
			}
			for i, b := range displays {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i, geometry.RegionOf(b))
			}
			return nil
		},
	}
}

func newFindCmd(o *options) *cobra.Command {
	var (
		cropFlag  string
		scaleFlag string
		autoScale bool
		threshold float64
		click     bool
		out       string
	)
	cmd := &cobra.Command{
		Use:   "find TEMPLATE",
		Short: "Capture the window once and locate a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.requireWindow(); err != nil {
				return err
			}
			crop, err := parseCrop(cropFlag)
			if err != nil {
				return err
			}
			scales, err := parseScales(scaleFlag)
			if err != nil {
				return err
			}
			c, err := app.BuildContainer(o.cfg, o.logger)
			if err != nil {
				return err
			}
			defer c.Close()

			mode := app.ClickNone
			if click {
				mode = app.ClickCenter
			}
			m := app.Manifest{Targets: []app.Target{{
				Name:      "find",
				Path:      args[0],
				Threshold: threshold,
				Crop:      crop,
				Scales:    scales,
				AutoScale: autoScale,
				Click:     mode,
			}}}
			if err := m.Validate(); err != nil {
				return err
			}
			t := m.Targets[0]

			ok, err := c.Engine.TakeScreenshot(cmd.Context(), crop)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("window %q not found", o.cfg.Window)
			}
			box, res, err := c.Engine.FindElement(t)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "score=%.4f scale=%.2f scales_evaluated=%d\n", res.Score, res.Scale, res.ScalesEvaluated)
			if box == nil {
				fmt.Fprintln(w, "not found")
			} else {
				fmt.Fprintf(w, "found top_left=%d,%d bottom_right=%d,%d\n",
					box.TopLeft.X, box.TopLeft.Y, box.BottomRight.X, box.BottomRight.Y)
				if click {
					if err := c.Engine.ClickBox(*box, t); err != nil {
						return err
					}
				}
			}
			if out != "" {
				return saveAnnotated(out, c.Engine.Frame(), res, box != nil)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cropFlag, "crop", "", "crop ratio x,y,w,h of the client area")
	f.StringVar(&scaleFlag, "scales", "", "scale sweep lo,hi")
	f.BoolVar(&autoScale, "auto-scale", false, "derive the scale sweep from the window width")
	f.Float64Var(&threshold, "threshold", 0, "match threshold (default from config)")
	f.BoolVar(&click, "click", false, "click the match center")
	f.StringVar(&out, "out", "", "write the searched frame with the best location outlined")
	return cmd
}

func newGrabCmd(o *options) *cobra.Command {
	var (
		x, y, w, h int
		out        string
	)
	cmd := &cobra.Command{
		Use:   "grab",
		Short: "Save a region of the window as a template image",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			if err := o.requireWindow(); err != nil {
				return err
			}
			c, err := app.BuildContainer(o.cfg, o.logger)
			if err != nil {
				return err
			}
			defer c.Close()
			ok, err := c.Engine.TakeScreenshot(cmd.Context(), nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("window %q not found", o.cfg.Window)
			}
			f := c.Engine.Frame()
			// Coordinates are client pixels; the frame may be downscaled.
			sx := func(v int) int { return int(float64(v) * f.Scale) }
			img, r, err := images.ExtractRegion(f.Image, sx(x), sx(y), sx(w), sx(h))
			if err != nil {
				return err
			}
			if err := images.SavePNG(out, img); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%dx%d at %d,%d)\n", out, r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&x, "x", 0, "center x in client pixels")
	fl.IntVar(&y, "y", 0, "center y in client pixels")
	fl.IntVar(&w, "w", 32, "width in client pixels")
	fl.IntVar(&h, "h", 32, "height in client pixels")
	fl.StringVar(&out, "out", "", "output PNG path")
	return cmd
}

func newWatchCmd(o *options) *cobra.Command {
	var showPreview bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll the window and act on the target manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := app.LoadManifest(o.cfg.TargetsFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("window") {
				m.Window = ""
			}
			if m.Window == "" {
				if err := o.requireWindow(); err != nil {
					return err
				}
			}
			c, err := app.BuildContainer(o.cfg, o.logger)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if o.cfg.StopHotkey {
				app.WatchStopHotkey(ctx, o.logger, stop)
			}
			if o.cfg.Debug {
				debug.StartRuntimeLogger(ctx, 10*time.Second, o.logger, engineAttrs(c.Engine))
				debug.StartMemLogger(ctx, 30*time.Second, o.logger)
			}

			p := app.NewPoller(c.Engine, m, o.logger)
			if !showPreview {
				return p.Run(ctx)
			}
			done := make(chan error, 1)
			go func() { done <- p.Run(ctx) }()
			preview.Run(ctx, "pixel-clicker: "+o.cfg.Window, func() *preview.Snapshot {
				return snapshotOf(p.Latest())
			}, stop)
			stop()
			return <-done
		},
	}
	cmd.Flags().BoolVar(&showPreview, "preview", false, "show a live preview window")
	cmd.Flags().String("targets", "", "target manifest (overrides config)")
	_ = o.v.BindPFlag("targets_file", cmd.Flags().Lookup("targets"))
	return cmd
}

func newInitCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config and an example target manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if _, err := os.Stat(o.configPath); errors.Is(err, fs.ErrNotExist) {
				if err := o.cfg.Save(o.configPath); err != nil {
					return err
				}
				fmt.Fprintln(w, "wrote", o.configPath)
			} else {
				fmt.Fprintln(w, "kept existing", o.configPath)
			}
			wrote, err := assets.WriteExampleTargets(o.cfg.TargetsFile)
			if err != nil {
				return err
			}
			if wrote {
				fmt.Fprintln(w, "wrote", o.cfg.TargetsFile)
			} else {
				fmt.Fprintln(w, "kept existing", o.cfg.TargetsFile)
			}
			return nil
		},
	}
}

func engineAttrs(e *app.Engine) debug.AttrsFunc {
	return func() []slog.Attr {
		st := e.Stats()
		return []slog.Attr{
			slog.Uint64("searches", st.Searches),
			slog.Uint64("matches", st.Matches),
			slog.Uint64("clicks", st.Clicks),
			slog.Uint64("captures", st.Capture.Captures),
			slog.Uint64("capture_failures", st.Capture.Failures),
			slog.Float64("avg_capture_us", st.Capture.AvgCaptureMicros),
			slog.Int("templates", st.Cache.Entries),
		}
	}
}

// parseCrop reads "x,y,w,h" ratios. Empty means the full frame.
func parseCrop(s string) (*geometry.CropRatio, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloats(s, 4)
	if err != nil {
		return nil, fmt.Errorf("crop: %w", err)
	}
	c := &geometry.CropRatio{X: v[0], Y: v[1], W: v[2], H: v[3]}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// parseScales reads "lo,hi". Empty means native scale only.
func parseScales(s string) (*match.ScaleRange, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloats(s, 2)
	if err != nil {
		return nil, fmt.Errorf("scales: %w", err)
	}
	if v[0] <= 0 || v[1] < v[0] {
		return nil, fmt.Errorf("scales: invalid range %v..%v", v[0], v[1])
	}
	return &match.ScaleRange{Lo: v[0], Hi: v[1]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma separated values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

var (
	matchColor = color.RGBA{G: 220, A: 255}
	missColor  = color.RGBA{R: 255, G: 160, A: 255}
)

// saveAnnotated writes the normalized frame with the best location outlined,
// green when it cleared the threshold.
func saveAnnotated(path string, f *capture.Frame, res match.Result, matched bool) error {
	if f == nil {
		return app.ErrNoFrame
	}
	c := missColor
	if matched {
		c = matchColor
	}
	r := image.Rectangle{Min: res.Location, Max: res.Location.Add(res.Size)}
	return images.SavePNG(path, images.Outline(f.Image, r, c, 2))
}

// snapshotOf converts a cycle report into what the preview draws. Boxes are
// in screen space; the raw frame covers the window's client area.
func snapshotOf(rep *app.CycleReport) *preview.Snapshot {
	if rep == nil {
		return nil
	}
	s := &preview.Snapshot{At: rep.At, Status: rep.State.String()}
	if rep.Frame != nil {
		s.Frame = rep.Frame.Image
	}
	origin := image.Pt(rep.Window.X, rep.Window.Y)
	for _, t := range rep.Targets {
		line := fmt.Sprintf("%s: score=%.3f scale=%.2f", t.Name, t.Result.Score, t.Result.Scale)
		switch {
		case t.Skipped:
			line = t.Name + ": skipped"
		case t.Err != nil:
			line = t.Name + ": " + t.Err.Error()
		case t.Box != nil:
			s.Marks = append(s.Marks, preview.Marker{Label: t.Name, Rect: t.Box.Region().Rect().Sub(origin)})
			if t.Clicked {
				line += " clicked"
			}
		}
		s.Lines = append(s.Lines, line)
	}
	if rep.Err != nil {
		s.Lines = append(s.Lines, "error: "+rep.Err.Error())
	}
	return s
}
