package environment

import "github.com/x448/float16"

// RGBA16F packs the level as RGBA binary16 texels, alpha 1, ready for a half-float texture upload.
//
// Returns:
//   - []byte: Width*Height*8 bytes, little-endian
func (l Level) RGBA16F() []byte {
	one := float16.Fromfloat32(1).Bits()
	out := make([]byte, l.Width*l.Height*8)
	for i := range l.Width * l.Height {
		texel := [4]uint16{
			float16.Fromfloat32(l.Pixels[i*3]).Bits(),
			float16.Fromfloat32(l.Pixels[i*3+1]).Bits(),
			float16.Fromfloat32(l.Pixels[i*3+2]).Bits(),
			one,
		}
		for c, h := range texel {
			out[i*8+c*2] = byte(h)
			out[i*8+c*2+1] = byte(h >> 8)
		}
	}
	return out
}
