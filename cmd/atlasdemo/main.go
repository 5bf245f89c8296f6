// Command atlasdemo packs the glyphs of a string into a font atlas and
// writes every atlas surface as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gogpu/fontatlas"
	"github.com/gogpu/fontatlas/text"
	"github.com/gogpu/fontatlas/text/raster"
)

func main() {
	var (
		fontPath = flag.String("font", "", "font file (default: Go Regular)")
		system   = flag.String("system", "", "system font name, e.g. Arial.ttf")
		size     = flag.Float64("size", 32, "point size")
		sample   = flag.String("text", "The quick brown fox jumps over the lazy dog", "text to pack")
		out      = flag.String("out", ".", "output directory")
		width    = flag.Int("width", 256, "atlas surface width")
		height   = flag.Int("height", 256, "atlas surface height")
		multi    = flag.Bool("multi", true, "allow additional atlas surfaces")
		save     = flag.String("save", "", "write the asset to this file")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		fontatlas.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	src := text.SourceRef{Data: goregular.TTF}
	population := text.PopulationDynamic
	switch {
	case *system != "":
		src = text.SourceRef{SystemName: *system}
		population = text.PopulationDynamicFromOS
	case *fontPath != "":
		src = text.SourceRef{Path: *fontPath}
	}

	asset, err := text.NewFontAsset("demo", raster.New(), src,
		text.WithPointSize(float32(*size)),
		text.WithAtlasSize(*width, *height),
		text.WithMultiAtlas(*multi, 0),
		text.WithPopulation(population))
	if err != nil {
		log.Fatalf("Failed to create asset: %v", err)
	}
	if err := asset.FaceError(); err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}

	e, err := fontatlas.New()
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer e.Close()
	if err := e.Register(asset); err != nil {
		log.Fatalf("Failed to register asset: %v", err)
	}

	resolved, missing := 0, 0
	for _, r := range *sample {
		h, ok, err := e.ResolveGlyph(r, asset, xfont.StyleNormal, xfont.WeightNormal)
		if err != nil {
			log.Fatalf("Failed to resolve %q: %v", r, err)
		}
		if !ok {
			missing++
			continue
		}
		resolved++
		_ = e.Release(h)
	}
	released := e.Materials().Pending()
	if _, err := e.PreRender(); err != nil {
		log.Fatalf("PreRender failed: %v", err)
	}

	for i, s := range asset.Surfaces() {
		name := filepath.Join(*out, fmt.Sprintf("atlas_%d.png", i))
		if err := writePNG(name, s.Pixels()); err != nil {
			log.Fatalf("Failed to save: %v", err)
		}
		log.Printf("Surface %d saved to %s (%dx%d)\n", i, name, s.Width(), s.Height())
	}

	if *save != "" {
		f, err := os.Create(*save)
		if err != nil {
			log.Fatalf("Failed to save asset: %v", err)
		}
		if err := asset.Save(f); err != nil {
			_ = f.Close()
			log.Fatalf("Failed to save asset: %v", err)
		}
		if err := f.Close(); err != nil {
			log.Fatalf("Failed to save asset: %v", err)
		}
		log.Printf("Asset saved to %s\n", *save)
	}

	log.Printf("Resolved %d, missing %d, glyphs %d, characters %d, surfaces %d, variants released %d\n",
		resolved, missing, asset.GlyphCount(), asset.CharacterCount(), asset.AtlasTextureCount(), released)
	ligs, pairs, m2b, m2m := asset.Features().Counts()
	log.Printf("Features: %d ligatures, %d pairs, %d mark-to-base, %d mark-to-mark\n", ligs, pairs, m2b, m2m)
}

func writePNG(name string, img image.Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
