// Command griddemo renders a row of styled terminal cells to a PNG
// using the CPU reference shader, for inspecting decoration geometry
// without a GPU surface.
package main

import (
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/tapthaker/ghostty-android-sub001/font"
	"github.com/tapthaker/ghostty-android-sub001/grid"
	"github.com/tapthaker/ghostty-android-sub001/render"
)

func main() {
	var (
		text     = flag.String("text", "DemoText", "text to render, one style per cell")
		size     = flag.Float64("size", 32, "font size in pixels")
		fontPath = flag.String("font", "", "TTF font file (default: Go Regular)")
		output   = flag.String("output", "grid.png", "output file")
	)
	flag.Parse()

	var (
		src *font.Source
		err error
	)
	if *fontPath != "" {
		src, err = font.NewSourceFromFile(*fontPath)
	} else {
		src, err = font.NewSource(goregular.TTF)
	}
	if err != nil {
		log.Fatalf("Failed to load font: %v", err)
	}
	coll, err := font.NewCollection(src)
	if err != nil {
		log.Fatalf("Failed to build collection: %v", err)
	}
	rast, err := coll.NewRasterizer(*size)
	if err != nil {
		log.Fatalf("Failed to create rasterizer: %v", err)
	}

	styles := []grid.Attributes{
		0,
		grid.AttrBold,
		grid.AttrItalic,
		grid.Attributes(0).WithUnderline(grid.UnderlineSingle),
		grid.Attributes(0).WithUnderline(grid.UnderlineDouble),
		grid.Attributes(0).WithUnderline(grid.UnderlineCurly),
		grid.AttrStrikethrough,
		grid.AttrInverse,
		grid.AttrDim,
	}

	m := rast.Metrics()
	cellW, cellH := int(m.CellWidth), int(m.CellHeight)
	runes := []rune(*text)
	img := image.NewRGBA(image.Rect(0, 0, cellW*len(runes), cellH))

	fg := grid.RGBA(230, 230, 230, 255)
	bg := grid.RGBA(20, 20, 30, 255)

	for i, cp := range runes {
		attrs := styles[i%len(styles)]
		p := render.ParamsFromMetrics(m)
		p.FG, p.BG, p.Attrs = fg, bg, attrs

		g, err := rast.Glyph(cp, attrs.Variant())
		if err != nil {
			log.Printf("No glyph for %q: %v", cp, err)
			g = nil
		}
		drawCell(img, i*cellW, cellW, cellH, p, g)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("Failed to encode PNG: %v", err)
	}
	log.Printf("Rendered %d cells to %s (%dx%d)", len(runes), *output, img.Rect.Dx(), img.Rect.Dy())
}

// drawCell shades one cell column of the image, sampling glyph coverage
// at pixel centers the way the fragment shader does.
func drawCell(img *image.RGBA, x0, cellW, cellH int, p render.DecorationParams, g *font.Glyph) {
	for y := 0; y < cellH; y++ {
		for x := 0; x < cellW; x++ {
			cov := coverageAt(g, x, y)
			c := render.ShadePixel(p, float64(x)+0.5, float64(y)+0.5, cov).U8()
			img.SetRGBA(x0+x, y, rgba(c))
		}
	}
}

func coverageAt(g *font.Glyph, x, y int) float64 {
	if g == nil || g.Mask == nil {
		return 0
	}
	mx := g.Mask.Rect.Min.X + x - g.Left
	my := g.Mask.Rect.Min.Y + y - g.Top
	if !image.Pt(mx, my).In(g.Mask.Rect) {
		return 0
	}
	return float64(g.Mask.AlphaAt(mx, my).A) / 255
}

func rgba(c grid.Color) color.RGBA {
	return color.RGBA{c.R, c.G, c.B, c.A}
}
