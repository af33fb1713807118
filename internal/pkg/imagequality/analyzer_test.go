package imagequality

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// stripes paints alternating black/white columns inside rect, on a grey field.
func stripes(w, h int, rects ...image.Rectangle) *image.RGBA {
	img := uniform(w, h, color.Gray{Y: 128})
	for _, r := range rects {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if x%2 == 0 {
					img.Set(x, y, color.Black)
				} else {
					img.Set(x, y, color.White)
				}
			}
		}
	}
	return img
}

func TestAnalyze_UniformImages(t *testing.T) {
	tests := []struct {
		name      string
		c         color.Color
		wantGlare float64
	}{
		{name: "white", c: color.White, wantGlare: 0},
		{name: "black", c: color.Black, wantGlare: 1},
		{name: "grey", c: color.Gray{Y: 128}, wantGlare: 1},
		{name: "red", c: color.RGBA{R: 255, A: 255}, wantGlare: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Analyze(uniform(40, 30, tt.c))
			require.True(t, q.Computed())
			assert.Equal(t, 0.0, *q.BlurScore)
			assert.Equal(t, tt.wantGlare, *q.GlareScore)
			assert.Equal(t, 0, *q.CornerCoverage)
		})
	}
}

func TestAnalyze_NotComputed(t *testing.T) {
	assert.False(t, Analyze(nil).Computed())
	assert.False(t, Analyze(image.NewRGBA(image.Rect(0, 0, 0, 0))).Computed())
	assert.Nil(t, Analyze(nil).BlurScore)
}

func TestAnalyze_SharpEdgesSaturateBlurScore(t *testing.T) {
	q := Analyze(stripes(50, 50, image.Rect(0, 0, 50, 50)))
	require.True(t, q.Computed())
	assert.Equal(t, 1.0, *q.BlurScore)
	assert.Equal(t, 4, *q.CornerCoverage)
	assert.InDelta(t, 0.5, *q.GlareScore, 0.02)
}

func TestAnalyze_CornerCoverageCountsTexturedCorners(t *testing.T) {
	// 100x100 image, corner patches are 15x15.
	q := Analyze(stripes(100, 100,
		image.Rect(0, 0, 15, 15),
		image.Rect(85, 85, 100, 100),
		image.Rect(85, 0, 100, 15),
	))
	require.True(t, q.Computed())
	assert.Equal(t, 3, *q.CornerCoverage)
}

func TestAnalyze_GlareFraction(t *testing.T) {
	img := uniform(10, 10, color.Black)
	for x := 0; x < 10; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.Gray{Y: 245})
		}
	}
	q := Analyze(img)
	assert.InDelta(t, 0.7, *q.GlareScore, 1e-9)
}

func TestAnalyze_TinyImageHasNoInterior(t *testing.T) {
	q := Analyze(stripes(2, 2, image.Rect(0, 0, 2, 2)))
	require.True(t, q.Computed())
	assert.Equal(t, 0.0, *q.BlurScore)
}

func TestAnalyzeBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniform(20, 20, color.White)))

	q, err := AnalyzeBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 0.0, *q.GlareScore)

	_, err = AnalyzeBytes([]byte("not an image"))
	assert.Error(t, err)

	_, err = AnalyzeBytes(nil)
	assert.Error(t, err)
}

func TestAnalyzeBytes_DownscalesLargeCaptures(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, uniform(2048, 1024, color.Black)))

	q, err := AnalyzeBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1.0, *q.GlareScore)
	assert.Equal(t, 0, *q.CornerCoverage)
}
