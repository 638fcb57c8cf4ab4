package environment

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DecodeHDR decodes a Radiance RGBE (.hdr) image. Both flat and new-style run-length encoded
// scanlines are accepted, in "-Y h +X w" (top-down) or "+Y h +X w" (bottom-up) orientation.
//
// Parameters:
//   - r: the encoded stream
//
// Returns:
//   - Level: the decoded image, top row first
//   - error: ErrInvalidHDR wrapped with detail if the stream is malformed
func DecodeHDR(r io.Reader) (Level, error) {
	br := bufio.NewReader(r)

	magic, err := readHeaderLine(br)
	if err != nil {
		return Level{}, fmt.Errorf("%w: %v", ErrInvalidHDR, err)
	}
	if !strings.HasPrefix(magic, "#?") {
		return Level{}, fmt.Errorf("%w: missing #? signature", ErrInvalidHDR)
	}

	for {
		line, err := readHeaderLine(br)
		if err != nil {
			return Level{}, fmt.Errorf("%w: %v", ErrInvalidHDR, err)
		}
		if line == "" {
			break
		}
		if format, ok := strings.CutPrefix(line, "FORMAT="); ok && format != "32-bit_rle_rgbe" {
			return Level{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidHDR, format)
		}
	}

	resolution, err := readHeaderLine(br)
	if err != nil {
		return Level{}, fmt.Errorf("%w: %v", ErrInvalidHDR, err)
	}
	width, height, flip, err := parseResolution(resolution)
	if err != nil {
		return Level{}, err
	}

	out := Level{Width: width, Height: height, Pixels: make([]float32, width*height*3)}
	scan := make([]byte, width*4)
	for y := range height {
		if err := readScanline(br, scan, width); err != nil {
			return Level{}, fmt.Errorf("%w: scanline %d: %v", ErrInvalidHDR, y, err)
		}
		row := y
		if flip {
			row = height - 1 - y
		}
		dst := out.Pixels[row*width*3:]
		for x := range width {
			r, g, b := rgbeToFloat(scan[x*4], scan[x*4+1], scan[x*4+2], scan[x*4+3])
			dst[x*3], dst[x*3+1], dst[x*3+2] = r, g, b
		}
	}
	return out, nil
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseResolution(line string) (width, height int, flip bool, err error) {
	f := strings.Fields(line)
	if len(f) != 4 || f[2] != "+X" || (f[0] != "-Y" && f[0] != "+Y") {
		return 0, 0, false, fmt.Errorf("%w: unsupported orientation %q", ErrInvalidHDR, line)
	}
	height, herr := strconv.Atoi(f[1])
	width, werr := strconv.Atoi(f[3])
	if herr != nil || werr != nil || width <= 0 || height <= 0 {
		return 0, 0, false, fmt.Errorf("%w: bad resolution %q", ErrInvalidHDR, line)
	}
	return width, height, f[0] == "+Y", nil
}

// readScanline fills scan with width RGBE pixels.
func readScanline(br *bufio.Reader, scan []byte, width int) error {
	if _, err := io.ReadFull(br, scan[:4]); err != nil {
		return err
	}
	rle := width >= 8 && width <= 0x7fff && scan[0] == 2 && scan[1] == 2 && scan[2]&0x80 == 0
	if !rle {
		_, err := io.ReadFull(br, scan[4:])
		return err
	}
	if encoded := int(scan[2])<<8 | int(scan[3]); encoded != width {
		return fmt.Errorf("scanline width %d, want %d", encoded, width)
	}

	// new-style RLE stores each of the four components as its own run-length stream
	for c := range 4 {
		for x := 0; x < width; {
			count, err := br.ReadByte()
			if err != nil {
				return err
			}
			if count > 128 {
				n := int(count) - 128
				if x+n > width {
					return fmt.Errorf("run overflows scanline")
				}
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				for i := range n {
					scan[(x+i)*4+c] = v
				}
				x += n
				continue
			}
			n := int(count)
			if n == 0 || x+n > width {
				return fmt.Errorf("bad literal count %d", n)
			}
			for i := range n {
				v, err := br.ReadByte()
				if err != nil {
					return err
				}
				scan[(x+i)*4+c] = v
			}
			x += n
		}
	}
	return nil
}

func rgbeToFloat(r, g, b, e byte) (float32, float32, float32) {
	if e == 0 {
		return 0, 0, 0
	}
	f := math.Ldexp(1, int(e)-(128+8))
	return float32(float64(r) * f), float32(float64(g) * f), float32(float64(b) * f)
}
