package scratch

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

//go:embed assets/mark.svg
var assetFiles embed.FS

const (
	shineSpacing = 60.0
	shineWidth   = 14.0
	shineAngle   = -30.0
	foilCaption  = "SCRATCH HERE"
)

type foilStop struct {
	at  float64
	clr color.RGBA
}

var foilStops = []foilStop{
	{0, color.RGBA{0x33, 0x33, 0x33, 0xff}},
	{0.35, color.RGBA{0x55, 0x55, 0x55, 0xff}},
	{0.5, color.RGBA{0x99, 0x99, 0x99, 0xff}},
	{0.65, color.RGBA{0x55, 0x55, 0x55, 0xff}},
	{1, color.RGBA{0x22, 0x22, 0x22, 0xff}},
}

var (
	shineColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 46}
	captionColor = color.NRGBA{R: 255, G: 255, B: 255, A: 230}
)

// paintFoil draws the opaque foil: a diagonal metallic gradient, repeated
// shine bands, the caption and the mark.
func paintFoil(dst *image.RGBA, width, height int, ratio float64) {
	b := dst.Bounds()
	pw, ph := float64(b.Dx()), float64(b.Dy())
	span := pw*pw + ph*ph
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			t := 0.0
			if span > 0 {
				t = (float64(x)*pw + float64(y)*ph) / span
			}
			dst.SetRGBA(x, y, gradientAt(t))
		}
	}

	paintShine(dst, width, height, ratio)
	paintCaption(dst, width, height, ratio)
	paintMark(dst, width, height, ratio)

	// overlays are composited with rounding; pin the foil fully opaque
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
}

func gradientAt(t float64) color.RGBA {
	if t <= foilStops[0].at {
		return foilStops[0].clr
	}
	for i := 1; i < len(foilStops); i++ {
		hi := foilStops[i]
		if t > hi.at {
			continue
		}
		lo := foilStops[i-1]
		f := (t - lo.at) / (hi.at - lo.at)
		lerp := func(a, b uint8) uint8 {
			return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
		}
		return color.RGBA{lerp(lo.clr.R, hi.clr.R), lerp(lo.clr.G, hi.clr.G), lerp(lo.clr.B, hi.clr.B), 0xff}
	}
	return foilStops[len(foilStops)-1].clr
}

// paintShine draws thin translucent bands every shineSpacing logical pixels,
// tilted by shineAngle.
func paintShine(dst *image.RGBA, width, height int, ratio float64) {
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	filler := rasterx.NewFiller(b.Dx(), b.Dy(), scanner)
	filler.SetColor(shineColor)

	rad := shineAngle * math.Pi / 180
	length := float64(width+height) * 2
	// band direction is the vertical axis rotated by shineAngle
	dx, dy := -math.Sin(rad)*length, math.Cos(rad)*length
	wx, wy := math.Cos(rad)*shineWidth, math.Sin(rad)*shineWidth

	for x := -float64(height); x < float64(width+height); x += shineSpacing {
		ox, oy := x-dx/2, float64(height)/2-dy/2
		pts := [4][2]float64{
			{ox, oy},
			{ox + dx, oy + dy},
			{ox + dx + wx, oy + dy + wy},
			{ox + wx, oy + wy},
		}
		filler.Start(rasterx.ToFixedP(pts[0][0]*ratio, pts[0][1]*ratio))
		for _, p := range pts[1:] {
			filler.Line(rasterx.ToFixedP(p[0]*ratio, p[1]*ratio))
		}
		filler.Stop(true)
	}
	filler.Draw()
}

func paintCaption(dst *image.RGBA, width, height int, ratio float64) {
	face := basicfont.Face7x13
	adv := font.MeasureString(face, foilCaption).Ceil()
	if adv > width {
		return
	}
	x := (float64(width) - float64(adv)) / 2
	y := float64(height)/2 + float64(face.Ascent)/2
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(captionColor),
		Face: face,
		Dot:  fixed.P(int(x*ratio), int(y*ratio)),
	}
	d.DrawString(foilCaption)
}

func paintMark(dst *image.RGBA, width, height int, ratio float64) {
	size := int(math.Min(float64(width), float64(height)) * 0.18 * ratio)
	if size < 8 {
		return
	}
	img, err := renderMark(size)
	if err != nil {
		return
	}
	margin := int(6 * ratio)
	r := image.Rect(margin, margin, margin+size, margin+size)
	draw.Draw(dst, r, img, image.Point{}, draw.Over)
}

var (
	markCache   = map[int]image.Image{}
	markCacheMu sync.RWMutex
)

func renderMark(size int) (image.Image, error) {
	markCacheMu.RLock()
	if img, ok := markCache[size]; ok {
		markCacheMu.RUnlock()
		return img, nil
	}
	markCacheMu.RUnlock()

	data, err := assetFiles.ReadFile("assets/mark.svg")
	if err != nil {
		return nil, fmt.Errorf("read mark asset: %w", err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG(data)))
	if err != nil {
		return nil, fmt.Errorf("parse mark svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	markCacheMu.Lock()
	markCache[size] = img
	markCacheMu.Unlock()
	return img, nil
}

// sanitizeSVG normalizes style values the svg parser rejects.
func sanitizeSVG(svg []byte) []byte {
	out := bytes.ReplaceAll(svg, []byte("fill: #"), []byte("fill:#"))
	out = bytes.ReplaceAll(out, []byte("stroke: #"), []byte("stroke:#"))
	out = bytes.ReplaceAll(out, []byte("stop-color: #"), []byte("stop-color:#"))
	return out
}
