package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"math"
	"os"
	"strconv"
	"strings"

	"gcodeview/pkg/gcode"
	"gcodeview/pkg/render"
	"gcodeview/pkg/viewer"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// controls stands in for the page's layer slider and feature checkboxes.
type controls struct {
	maxLayer int
	current  int
}

func (c *controls) SetRange(maxLayer int) { c.maxLayer = maxLayer }
func (c *controls) SetCurrent(layer int)  { c.current = layer }
func (c *controls) SetChecked(f gcode.FeatureType, on bool) {
	log.WithField("feature", f).Debugf("visible: %v", on)
}

func _main() error {
	var (
		out        = flag.String("out", "", "write a PNG snapshot to this file")
		width      = flag.Int("width", 800, "snapshot width")
		height     = flag.Int("height", 600, "snapshot height")
		layer      = flag.Int("layer", -1, "reveal layers up to this one (default: all)")
		hide       = flag.String("hide", "", "comma separated feature types to hide, e.g. fill,support")
		showTravel = flag.Bool("show-travel", false, "draw travel moves")
		probe      = flag.String("probe", "", "list segments near x,y on the revealed layer")
		orbit      = flag.Float64("orbit", 0, "orbit the camera by this many degrees before the snapshot")
		verbose    = flag.Bool("v", false, "verbose logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] gcode-file\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if flag.NArg() < 1 {
		flag.Usage()
		return nil
	}

	filename := flag.Arg(0)
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("file read error: %w", err)
	}

	ui := &controls{}
	v := viewer.New(viewer.WithLayerControl(ui), viewer.WithFeatureToggles(ui))
	defer v.Close()

	surface := render.NewImageSurface(*width, *height)
	v.Initialize(surface)

	stats := v.ParseAndDisplay(context.Background(), string(data))
	fmt.Printf("file:      %s\n", filename)
	fmt.Printf("size:      %.1f KB\n", float64(stats.Bytes)/1024)
	fmt.Printf("lines:     %d\n", stats.Lines)
	fmt.Printf("segments:  %d\n", stats.Segments)
	fmt.Printf("layers:    %d\n", ui.maxLayer+1)
	if !stats.Bounds.Empty() {
		size := stats.Bounds.Size()
		fmt.Printf("extent:    %.2f x %.2f x %.2f\n", size.X, size.Y, size.Z)
	}

	if *layer >= 0 {
		v.SetLayerReveal(*layer)
	}
	if *showTravel {
		v.SetFeatureVisible(gcode.Travel, true)
	}
	for _, name := range strings.Split(*hide, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, ok := gcode.ParseFeatureType(name)
		if !ok {
			return fmt.Errorf("unknown feature type %q", name)
		}
		v.SetFeatureVisible(f, false)
	}

	if *probe != "" {
		x, y, err := parsePoint(*probe)
		if err != nil {
			return err
		}
		for _, s := range v.Probe(x, y, 1) {
			fmt.Printf("line %d: %v layer %d (%.2f, %.2f) -> (%.2f, %.2f)\n",
				s.Line, s.Feature, s.Layer, s.Start.X, s.Start.Y, s.End.X, s.End.Y)
		}
	}

	if *out == "" {
		return nil
	}
	if *orbit != 0 {
		v.Orbit(*orbit*math.Pi/180, 0)
	}
	v.Tick()
	img := v.Snapshot()
	if img == nil {
		return fmt.Errorf("nothing drawn")
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", *out, err)
	}
	log.WithField("file", *out).Info("snapshot written")
	return nil
}

func parsePoint(s string) (float64, float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("probe wants x,y, got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("probe x: %w", err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("probe y: %w", err)
	}
	return x, y, nil
}

func main() {
	prefixed := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}
	log.SetFormatter(prefixed)
	log.SetOutput(os.Stderr)
	if err := _main(); err != nil {
		log.Fatal(err)
	}
}
