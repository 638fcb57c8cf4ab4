package environment

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func hdrHeader(resolution string) []byte {
	return []byte("#?RADIANCE\nFORMAT=32-bit_rle_rgbe\nEXPOSURE=1.0\n\n" + resolution + "\n")
}

func TestDecodeHDRFlat(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(hdrHeader("-Y 2 +X 2"))
	// row 0: (1, 0.5, 0.25) and black; row 1: (2, 2, 2) twice
	buf.Write([]byte{128, 64, 32, 129, 0, 0, 0, 0})
	buf.Write([]byte{128, 128, 128, 130, 128, 128, 128, 130})

	l, err := DecodeHDR(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Width)
	assert.Equal(t, 2, l.Height)

	r, g, b := l.At(0, 0)
	assert.Equal(t, []float32{1, 0.5, 0.25}, []float32{r, g, b})
	r, _, _ = l.At(1, 0)
	assert.Equal(t, float32(0), r)
	r, _, _ = l.At(1, 1)
	assert.Equal(t, float32(2), r)
}

func TestDecodeHDRBottomUp(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(hdrHeader("+Y 2 +X 1"))
	buf.Write([]byte{128, 128, 128, 129})
	buf.Write([]byte{128, 128, 128, 130})

	l, err := DecodeHDR(&buf)
	require.NoError(t, err)
	top, _, _ := l.At(0, 0)
	bottom, _, _ := l.At(0, 1)
	assert.Equal(t, float32(2), top)
	assert.Equal(t, float32(1), bottom)
}

func TestDecodeHDRRunLength(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(hdrHeader("-Y 1 +X 8"))
	buf.Write([]byte{2, 2, 0, 8})
	buf.Write([]byte{128 + 8, 128})                      // R: one run
	buf.Write([]byte{128 + 4, 64, 4, 64, 64, 64, 0})     // G: run then literals
	buf.Write([]byte{8, 32, 32, 32, 32, 32, 32, 32, 32}) // B: literals
	buf.Write([]byte{128 + 8, 129})                      // E: one run

	l, err := DecodeHDR(&buf)
	require.NoError(t, err)
	for x := range 7 {
		r, g, b := l.At(x, 0)
		assert.Equal(t, []float32{1, 0.5, 0.25}, []float32{r, g, b}, "pixel %d", x)
	}
	_, g, _ := l.At(7, 0)
	assert.Equal(t, float32(0), g)
}

func TestDecodeHDRRejectsMalformed(t *testing.T) {
	cases := map[string][]byte{
		"signature":   []byte("P6\n\n-Y 1 +X 1\n"),
		"format":      []byte("#?RADIANCE\nFORMAT=32-bit_rle_xyze\n\n-Y 1 +X 1\n"),
		"orientation": []byte("#?RADIANCE\n\n+X 1 -Y 1\n"),
		"truncated":   append(hdrHeader("-Y 2 +X 2"), 1, 2, 3),
	}
	for name, data := range cases {
		_, err := DecodeHDR(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidHDR, name)
	}
}

// encodeEXR writes a single-part scanline EXR with B, G, R channels.
func encodeEXR(t *testing.T, width, height int, compression byte, pixelType int32, pixel func(x, y int) [3]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	le := func(v any) { require.NoError(t, binary.Write(&buf, binary.LittleEndian, v)) }
	attr := func(name, typ string, value []byte) {
		buf.WriteString(name + "\x00" + typ + "\x00")
		le(int32(len(value)))
		buf.Write(value)
	}

	le(uint32(exrMagic))
	le(uint32(2))

	var ch bytes.Buffer
	for _, name := range []string{"B", "G", "R"} {
		ch.WriteString(name + "\x00")
		_ = binary.Write(&ch, binary.LittleEndian, []int32{pixelType, 0, 1, 1})
	}
	ch.WriteByte(0)
	attr("channels", "chlist", ch.Bytes())
	attr("compression", "compression", []byte{compression})
	window := make([]byte, 16)
	binary.LittleEndian.PutUint32(window[8:], uint32(width-1))
	binary.LittleEndian.PutUint32(window[12:], uint32(height-1))
	attr("dataWindow", "box2i", window)
	attr("lineOrder", "lineOrder", []byte{0})
	buf.WriteByte(0)

	lines := 1
	if compression == exrCompressionZIP {
		lines = 16
	}
	chunks := (height + lines - 1) / lines
	buf.Write(make([]byte, chunks*8))

	for c := range chunks {
		var raw bytes.Buffer
		for y := c * lines; y < min((c+1)*lines, height); y++ {
			for _, channel := range []int{2, 1, 0} {
				for x := range width {
					v := pixel(x, y)[channel]
					if pixelType == exrPixelHalf {
						_ = binary.Write(&raw, binary.LittleEndian, float16.Fromfloat32(v).Bits())
					} else {
						_ = binary.Write(&raw, binary.LittleEndian, math.Float32bits(v))
					}
				}
			}
		}
		data := raw.Bytes()
		if compression != exrCompressionNone {
			data = zipEXR(t, data)
		}
		le(int32(c * lines))
		le(int32(len(data)))
		buf.Write(data)
	}
	return buf.Bytes()
}

func zipEXR(t *testing.T, raw []byte) []byte {
	half := (len(raw) + 1) / 2
	split := make([]byte, len(raw))
	for i, b := range raw {
		if i%2 == 0 {
			split[i/2] = b
		} else {
			split[half+i/2] = b
		}
	}
	delta := make([]byte, len(split))
	delta[0] = split[0]
	for i := 1; i < len(split); i++ {
		delta[i] = split[i] - split[i-1] + 128
	}
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	_, err := zw.Write(delta)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NotEqual(t, len(raw), out.Len())
	return out.Bytes()
}

func gradient(x, y int) [3]float32 {
	return [3]float32{float32(x) * 0.5, float32(y) * 0.25, 1}
}

func TestDecodeEXR(t *testing.T) {
	cases := []struct {
		name        string
		compression byte
		pixelType   int32
	}{
		{"none-float", exrCompressionNone, exrPixelFloat},
		{"none-half", exrCompressionNone, exrPixelHalf},
		{"zips-half", exrCompressionZIPS, exrPixelHalf},
		{"zip-float", exrCompressionZIP, exrPixelFloat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data := encodeEXR(t, 32, 20, tc.compression, tc.pixelType, gradient)
			l, err := DecodeEXR(bytes.NewReader(data))
			require.NoError(t, err)
			require.Equal(t, 32, l.Width)
			require.Equal(t, 20, l.Height)

			for _, p := range [][2]int{{0, 0}, {31, 0}, {3, 17}, {31, 19}} {
				r, g, b := l.At(p[0], p[1])
				want := gradient(p[0], p[1])
				assert.Equal(t, want, [3]float32{r, g, b}, "pixel %v", p)
			}
		})
	}
}

func TestDecodeEXRRejectsUnsupported(t *testing.T) {
	_, err := DecodeEXR(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}))
	assert.ErrorIs(t, err, ErrInvalidEXR)

	data := encodeEXR(t, 2, 2, exrCompressionNone, exrPixelHalf, gradient)
	tiled := bytes.Clone(data)
	binary.LittleEndian.PutUint32(tiled[4:], 2|exrFlagTiled)
	_, err = DecodeEXR(bytes.NewReader(tiled))
	assert.ErrorIs(t, err, ErrInvalidEXR)

	_, err = DecodeEXR(bytes.NewReader(data[:len(data)-3]))
	assert.ErrorIs(t, err, ErrInvalidEXR)
}

func TestHalfSamples(t *testing.T) {
	half := func(bits uint16) float32 {
		return exrSample([]byte{byte(bits), byte(bits >> 8)}, exrPixelHalf)
	}
	assert.Equal(t, float32(1), half(0x3c00))
	assert.Equal(t, float32(-2), half(0xc000))
	assert.Equal(t, float32(65504), half(0x7bff))
	assert.Equal(t, float32(math.Ldexp(1, -24)), half(0x0001))
	assert.True(t, math.IsInf(float64(half(0x7c00)), 1))

	l := Level{Width: 1, Height: 1, Pixels: []float32{1, 0, 2}}
	assert.Equal(t, []byte{0x00, 0x3c, 0, 0, 0x00, 0x40, 0x00, 0x3c}, l.RGBA16F())

	// out of range saturates
	l.Pixels = []float32{1e6, 0.5, 0}
	assert.Equal(t, []byte{0x00, 0x7c, 0x00, 0x38, 0, 0, 0x00, 0x3c}, l.RGBA16F())
}

func constantLevel(w, h int, v float32) Level {
	l := Level{Width: w, Height: h, Pixels: make([]float32, w*h*3)}
	for i := range l.Pixels {
		l.Pixels[i] = v
	}
	return l
}

func TestPrefilterLevelSizes(t *testing.T) {
	m := NewMap("studio", KindHDR, constantLevel(16, 8, 2))
	require.NoError(t, Prefilter(m, 4))

	levels := m.Levels()
	require.Len(t, levels, 4)
	sizes := [][2]int{{16, 8}, {8, 4}, {4, 2}, {2, 1}}
	for i, l := range levels {
		assert.Equal(t, sizes[i], [2]int{l.Width, l.Height})
		r, _, b := l.At(l.Width/2, l.Height/2)
		assert.InDelta(t, 2, r, 1e-2, "level %d", i)
		assert.InDelta(t, 2, b, 1e-2, "level %d", i)
	}

	require.NoError(t, Prefilter(m, 50))
	levels = m.Levels()
	require.Len(t, levels, 5)
	assert.Equal(t, 1, levels[4].Width)
	assert.Equal(t, 1, levels[4].Height)

	require.NoError(t, Prefilter(m, 0))
	assert.Len(t, m.Levels(), 1)
}

func TestMapRelease(t *testing.T) {
	m := NewMap("studio", KindEXR, constantLevel(2, 2, 1))
	calls := 0
	m.OnRelease(func() { calls++ })

	m.Release()
	m.Release()
	assert.Equal(t, 1, calls)
	assert.True(t, m.Released())
	assert.Empty(t, m.Levels())
	assert.Equal(t, 0, m.Width())
	assert.ErrorIs(t, m.SetLevels(nil), ErrReleased)
	assert.ErrorIs(t, Prefilter(m, 2), ErrReleased)

	m.OnRelease(func() { calls++ })
	assert.Equal(t, 2, calls)
}

func TestKindFromPath(t *testing.T) {
	k, err := KindFromPath("hdr/rostock.HDR")
	require.NoError(t, err)
	assert.Equal(t, KindHDR, k)

	k, err = KindFromPath("studio.exr")
	require.NoError(t, err)
	assert.Equal(t, KindEXR, k)
	assert.Equal(t, "exr", k.String())

	_, err = KindFromPath("sky.png")
	assert.ErrorIs(t, err, ErrUnsupportedKind)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sky.exr")
	require.NoError(t, os.WriteFile(path, encodeEXR(t, 32, 4, exrCompressionZIPS, exrPixelHalf, gradient), 0o644))

	m, err := Load(context.Background(), path, KindEXR)
	require.NoError(t, err)
	assert.Equal(t, "sky.exr", m.Name())
	assert.Equal(t, 32, m.Width())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Load(ctx, path, KindEXR)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = Load(context.Background(), path, KindHDR)
	assert.ErrorIs(t, err, ErrInvalidHDR)

	_, err = Load(context.Background(), filepath.Join(dir, "missing.hdr"), KindHDR)
	assert.Error(t, err)
}
