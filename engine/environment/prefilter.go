package environment

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// proxyScale spreads the compressed HDR range over the 16-bit proxy channels.
const proxyScale = 0xffff

// Prefilter rebuilds the map's mip chain as progressively smaller, blurrier copies of the base
// level. Each level halves the previous one (never below 1x1) with a Catmull-Rom kernel, which
// serves as the fixed convolution used for rough reflections.
//
// HDR values are squeezed through v/(1+v) into a 16-bit proxy image for resampling and expanded
// back to linear floats afterwards, so values far above 1 survive the round trip.
//
// Parameters:
//   - m: the map to filter
//   - levels: total chain length including the base level; values below 1 are treated as 1
//
// Returns:
//   - error: ErrReleased if the map was released
func Prefilter(m *Map, levels int) error {
	chain := m.Levels()
	if m.Released() || len(chain) == 0 {
		return ErrReleased
	}
	levels = max(levels, 1)

	out := make([]Level, 1, levels)
	out[0] = chain[0]
	src := toProxy(chain[0])
	for len(out) < levels {
		b := src.Bounds()
		w, h := max(b.Dx()/2, 1), max(b.Dy()/2, 1)
		if w == b.Dx() && h == b.Dy() {
			break
		}
		dst := image.NewRGBA64(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
		out = append(out, fromProxy(dst))
		src = dst
	}

	if err := m.SetLevels(out); err != nil {
		return fmt.Errorf("failed to install prefiltered levels: %w", err)
	}
	return nil
}

func toProxy(l Level) *image.RGBA64 {
	img := image.NewRGBA64(image.Rect(0, 0, l.Width, l.Height))
	for i := range l.Width * l.Height {
		p := img.Pix[i*8:]
		for c := range 3 {
			v := compress(l.Pixels[i*3+c])
			p[c*2] = byte(v >> 8)
			p[c*2+1] = byte(v)
		}
		p[6], p[7] = 0xff, 0xff
	}
	return img
}

func fromProxy(img *image.RGBA64) Level {
	b := img.Bounds()
	l := Level{Width: b.Dx(), Height: b.Dy(), Pixels: make([]float32, b.Dx()*b.Dy()*3)}
	for y := range l.Height {
		for x := range l.Width {
			p := img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y):]
			for c := range 3 {
				l.Pixels[(y*l.Width+x)*3+c] = expand(uint16(p[c*2])<<8 | uint16(p[c*2+1]))
			}
		}
	}
	return l
}

func compress(v float32) uint16 {
	if v <= 0 || math.IsNaN(float64(v)) {
		return 0
	}
	return uint16(math.Round(float64(v/(1+v)) * proxyScale))
}

func expand(v uint16) float32 {
	t := float64(v) / proxyScale
	if t >= 1 {
		// the proxy cannot represent infinity; clamp to the largest finite value it encodes
		t = (proxyScale - 0.5) / proxyScale
	}
	return float32(t / (1 - t))
}
