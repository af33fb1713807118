// Package imagequality scores captured identity-document photos before they
// are uploaded: sharpness, glare and whether all four card corners are framed.
package imagequality

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

const (
	// BlurNormalizer maps the Laplacian variance onto [0,1].
	BlurNormalizer = 2500.0
	// GlareLuma is the luma at or above which a pixel counts as blown out.
	GlareLuma = 240.0
	// CornerFraction is the size of each corner patch relative to the image.
	CornerFraction = 0.15
	// CornerTextureThreshold is the luma standard deviation a corner needs to count as covered.
	CornerTextureThreshold = 12.0
	// MaxAnalysisSide bounds the longest side of the bitmap that gets scored.
	MaxAnalysisSide = 1024
)

// DocQuality holds the heuristics for one capture. All fields are nil when
// quality could not be computed.
type DocQuality struct {
	BlurScore      *float64 `json:"blurScore,omitempty"`
	GlareScore     *float64 `json:"glareScore,omitempty"`
	CornerCoverage *int     `json:"cornerCoverage,omitempty"`
}

// Computed reports whether every score is present.
func (q DocQuality) Computed() bool {
	return q.BlurScore != nil && q.GlareScore != nil && q.CornerCoverage != nil
}

// Analyze scores an already orientation-corrected bitmap.
func Analyze(img image.Image) DocQuality {
	if img == nil {
		return DocQuality{}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return DocQuality{}
	}

	g := toLuma(img)
	blur := blurScore(g)
	glare := glareScore(g)
	corners := cornerCoverage(g)

	return DocQuality{
		BlurScore:      &blur,
		GlareScore:     &glare,
		CornerCoverage: &corners,
	}
}

// AnalyzeBytes decodes a JPEG or PNG capture, applies its EXIF orientation,
// downsizes it and scores it.
func AnalyzeBytes(data []byte) (DocQuality, error) {
	if len(data) == 0 {
		return DocQuality{}, fmt.Errorf("empty image")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return DocQuality{}, fmt.Errorf("failed to decode image: %w", err)
	}
	return Analyze(downscale(img)), nil
}

func downscale(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= MaxAnalysisSide && b.Dy() <= MaxAnalysisSide {
		return img
	}
	if b.Dx() >= b.Dy() {
		return resize.Resize(MaxAnalysisSide, 0, img, resize.Bilinear)
	}
	return resize.Resize(0, MaxAnalysisSide, img, resize.Bilinear)
}

type lumaPlane struct {
	w, h int
	pix  []float64
}

func (p *lumaPlane) at(x, y int) float64 {
	return p.pix[y*p.w+x]
}

func toLuma(img image.Image) *lumaPlane {
	b := img.Bounds()
	p := &lumaPlane{w: b.Dx(), h: b.Dy(), pix: make([]float64, b.Dx()*b.Dy())}
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			p.pix[y*p.w+x] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(bl>>8)
		}
	}
	return p
}

// blurScore is the variance of the 4-neighbour Laplacian over interior pixels.
func blurScore(p *lumaPlane) float64 {
	if p.w < 3 || p.h < 3 {
		return 0
	}
	var sum, sumSq float64
	n := 0
	for y := 1; y < p.h-1; y++ {
		for x := 1; x < p.w-1; x++ {
			lap := p.at(x-1, y) + p.at(x+1, y) + p.at(x, y-1) + p.at(x, y+1) - 4*p.at(x, y)
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	return clamp01(variance / BlurNormalizer)
}

func glareScore(p *lumaPlane) float64 {
	bright := 0
	for _, v := range p.pix {
		if v >= GlareLuma {
			bright++
		}
	}
	return clamp01(1 - float64(bright)/float64(len(p.pix)))
}

func cornerCoverage(p *lumaPlane) int {
	pw := max(1, int(float64(p.w)*CornerFraction))
	ph := max(1, int(float64(p.h)*CornerFraction))

	origins := [4][2]int{
		{0, 0},
		{p.w - pw, 0},
		{0, p.h - ph},
		{p.w - pw, p.h - ph},
	}

	covered := 0
	for _, o := range origins {
		if patchStdDev(p, o[0], o[1], pw, ph) > CornerTextureThreshold {
			covered++
		}
	}
	return covered
}

func patchStdDev(p *lumaPlane, x0, y0, w, h int) float64 {
	var sum, sumSq float64
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			v := p.at(x, y)
			sum += v
			sumSq += v * v
		}
	}
	n := float64(w * h)
	mean := sum / n
	return math.Sqrt(math.Max(0, sumSq/n-mean*mean))
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
