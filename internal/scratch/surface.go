package scratch

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

var (
	ErrInvalidSize          = errors.New("scratch surface: invalid size")
	ErrContainerUnavailable = errors.New("scratch surface: container unavailable")
)

// clearedAlpha is the alpha below which a sampled pixel counts as scratched.
const clearedAlpha = 8

// Surface is the foil mask. Pixels live at physical resolution
// (logical size times the device pixel ratio); every public method takes
// logical coordinates.
type Surface struct {
	mask     *image.RGBA
	coverage *image.RGBA
	width    int
	height   int
	ratio    float64

	filler  *rasterx.Filler
	stroker *rasterx.Stroker
}

// Init sizes the mask to width x height logical pixels and paints the foil.
// The ratio is re-read on every call.
func (s *Surface) Init(width, height int, ratio float64) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	if ratio < 1 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	pw := int(math.Ceil(float64(width) * ratio))
	ph := int(math.Ceil(float64(height) * ratio))

	s.width, s.height, s.ratio = width, height, ratio
	s.mask = image.NewRGBA(image.Rect(0, 0, pw, ph))
	s.coverage = image.NewRGBA(image.Rect(0, 0, pw, ph))

	scanner := rasterx.NewScannerGV(pw, ph, s.coverage, s.coverage.Bounds())
	s.filler = rasterx.NewFiller(pw, ph, scanner)
	s.stroker = rasterx.NewStroker(pw, ph, scanner)

	paintFoil(s.mask, width, height, ratio)
	return nil
}

// Ready reports whether Init has succeeded.
func (s *Surface) Ready() bool {
	return s != nil && s.mask != nil
}

func (s *Surface) Width() int         { return s.width }
func (s *Surface) Height() int        { return s.height }
func (s *Surface) Ratio() float64     { return s.ratio }
func (s *Surface) Image() *image.RGBA { return s.mask }

// Repaint restores a full foil at the current size.
func (s *Surface) Repaint() {
	if !s.Ready() {
		return
	}
	clearPixels(s.mask)
	paintFoil(s.mask, s.width, s.height, s.ratio)
}

// Clear makes the whole mask transparent.
func (s *Surface) Clear() {
	if !s.Ready() {
		return
	}
	clearPixels(s.mask)
}

// EraseDisc removes foil in a disc of the given logical radius.
func (s *Surface) EraseDisc(x, y, radius float64) {
	if !s.Ready() || radius <= 0 {
		return
	}
	r := radius * s.ratio
	cx, cy := x*s.ratio, y*s.ratio
	box := s.bbox(cx-r, cy-r, cx+r, cy+r)
	if box.Empty() {
		return
	}
	s.beginCoverage(box)
	s.filler.Clear()
	rasterx.AddCircle(cx, cy, r, s.filler)
	s.filler.Draw()
	s.filler.Clear()
	s.applyCoverage(box)
}

// EraseSegment removes foil along a round-capped line of width 2*radius.
func (s *Surface) EraseSegment(x0, y0, x1, y1, radius float64) {
	if !s.Ready() || radius <= 0 {
		return
	}
	if x0 == x1 && y0 == y1 {
		s.EraseDisc(x1, y1, radius)
		return
	}
	r := radius * s.ratio
	ax, ay := x0*s.ratio, y0*s.ratio
	bx, by := x1*s.ratio, y1*s.ratio
	box := s.bbox(math.Min(ax, bx)-r, math.Min(ay, by)-r, math.Max(ax, bx)+r, math.Max(ay, by)+r)
	if box.Empty() {
		return
	}
	s.beginCoverage(box)
	s.stroker.Clear()
	s.stroker.SetStroke(fixed.Int26_6(2*r*64), fixed.Int26_6(4*64), rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round)
	s.stroker.Start(rasterx.ToFixedP(ax, ay))
	s.stroker.Line(rasterx.ToFixedP(bx, by))
	s.stroker.Stop(false)
	s.stroker.Draw()
	s.stroker.Clear()
	s.applyCoverage(box)
}

// AlphaAt returns the mask alpha under a logical point, 0 outside.
func (s *Surface) AlphaAt(x, y float64) uint8 {
	if !s.Ready() {
		return 0
	}
	px, py := int(x*s.ratio), int(y*s.ratio)
	if !(image.Point{X: px, Y: py}).In(s.mask.Bounds()) {
		return 0
	}
	return s.mask.RGBAAt(px, py).A
}

// Sample walks the logical grid with the given stride and returns the
// fraction of points whose alpha is below clearedAlpha.
func (s *Surface) Sample(step int) float64 {
	if !s.Ready() {
		return 0
	}
	if step <= 0 {
		step = 1
	}
	total, cleared := 0, 0
	for y := 0; y < s.height; y += step {
		for x := 0; x < s.width; x += step {
			total++
			if s.AlphaAt(float64(x), float64(y)) < clearedAlpha {
				cleared++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(cleared) / float64(total)
}

func (s *Surface) bbox(x0, y0, x1, y1 float64) image.Rectangle {
	r := image.Rect(int(math.Floor(x0))-1, int(math.Floor(y0))-1, int(math.Ceil(x1))+1, int(math.Ceil(y1))+1)
	return r.Intersect(s.mask.Bounds())
}

func (s *Surface) beginCoverage(box image.Rectangle) {
	clearRect(s.coverage, box)
	s.filler.SetColor(color.White)
}

// applyCoverage scales every mask pixel by the inverse of the rasterized
// coverage, so fully covered pixels become transparent.
func (s *Surface) applyCoverage(box image.Rectangle) {
	for y := box.Min.Y; y < box.Max.Y; y++ {
		mi := s.mask.PixOffset(box.Min.X, y)
		ci := s.coverage.PixOffset(box.Min.X, y)
		for x := box.Min.X; x < box.Max.X; x++ {
			c := uint32(s.coverage.Pix[ci+3])
			if c != 0 {
				keep := 255 - c
				for k := 0; k < 4; k++ {
					s.mask.Pix[mi+k] = uint8(uint32(s.mask.Pix[mi+k]) * keep / 255)
				}
			}
			mi += 4
			ci += 4
		}
	}
	clearRect(s.coverage, box)
}

func clearPixels(img *image.RGBA) {
	for i := range img.Pix {
		img.Pix[i] = 0
	}
}

func clearRect(img *image.RGBA, r image.Rectangle) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		j := img.PixOffset(r.Max.X, y)
		for k := i; k < j; k++ {
			img.Pix[k] = 0
		}
	}
}
