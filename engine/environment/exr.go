package environment

import (
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/x448/float16"
)

const (
	exrMagic = 20000630

	exrFlagTiled     = 0x200
	exrFlagDeep      = 0x800
	exrFlagMultipart = 0x1000

	exrCompressionNone = 0
	exrCompressionZIPS = 2
	exrCompressionZIP  = 3

	exrPixelUint  = 0
	exrPixelHalf  = 1
	exrPixelFloat = 2
)

type exrChannel struct {
	name      string
	pixelType int32
}

func (c exrChannel) size() int {
	if c.pixelType == exrPixelHalf {
		return 2
	}
	return 4
}

type exrHeader struct {
	channels    []exrChannel
	compression byte
	xMin, yMin  int32
	xMax, yMax  int32
}

func (h exrHeader) linesPerChunk() int {
	if h.compression == exrCompressionZIP {
		return 16
	}
	return 1
}

// DecodeEXR decodes a single-part scanline OpenEXR image with NONE, ZIPS or ZIP compression and
// HALF, FLOAT or UINT channels. R, G and B are read; a lone Y channel is expanded to gray; other
// channels are skipped.
//
// Parameters:
//   - r: the encoded stream
//
// Returns:
//   - Level: the decoded image, top row first
//   - error: ErrInvalidEXR wrapped with detail if the stream is malformed or unsupported
func DecodeEXR(r io.Reader) (Level, error) {
	br := bufio.NewReader(r)

	var preamble [2]uint32
	if err := binary.Read(br, binary.LittleEndian, &preamble); err != nil {
		return Level{}, fmt.Errorf("%w: %v", ErrInvalidEXR, err)
	}
	if preamble[0] != exrMagic {
		return Level{}, fmt.Errorf("%w: bad magic number", ErrInvalidEXR)
	}
	if preamble[1]&0xff != 2 {
		return Level{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidEXR, preamble[1]&0xff)
	}
	if preamble[1]&(exrFlagTiled|exrFlagDeep|exrFlagMultipart) != 0 {
		return Level{}, fmt.Errorf("%w: only single-part scanline images are supported", ErrInvalidEXR)
	}

	h, err := readEXRHeader(br)
	if err != nil {
		return Level{}, err
	}

	width := int(h.xMax-h.xMin) + 1
	height := int(h.yMax-h.yMin) + 1
	if width <= 0 || height <= 0 {
		return Level{}, fmt.Errorf("%w: empty data window", ErrInvalidEXR)
	}

	chunks := (height + h.linesPerChunk() - 1) / h.linesPerChunk()
	if _, err := br.Discard(chunks * 8); err != nil {
		return Level{}, fmt.Errorf("%w: offset table: %v", ErrInvalidEXR, err)
	}

	target := map[string]int{"R": 0, "G": 1, "B": 2}
	gray := len(h.channels) > 0
	for _, c := range h.channels {
		if _, ok := target[c.name]; ok {
			gray = false
		}
	}
	if gray {
		target = map[string]int{"Y": -1}
	}

	lineBytes := 0
	for _, c := range h.channels {
		lineBytes += c.size() * width
	}

	out := Level{Width: width, Height: height, Pixels: make([]float32, width*height*3)}
	for range chunks {
		var chunk [2]int32
		if err := binary.Read(br, binary.LittleEndian, &chunk); err != nil {
			return Level{}, fmt.Errorf("%w: chunk header: %v", ErrInvalidEXR, err)
		}
		y0 := int(chunk[0] - h.yMin)
		if y0 < 0 || y0 >= height || chunk[1] < 0 {
			return Level{}, fmt.Errorf("%w: chunk at line %d out of range", ErrInvalidEXR, chunk[0])
		}
		lines := min(h.linesPerChunk(), height-y0)

		packed := make([]byte, chunk[1])
		if _, err := io.ReadFull(br, packed); err != nil {
			return Level{}, fmt.Errorf("%w: chunk data: %v", ErrInvalidEXR, err)
		}
		raw, err := decompressEXRChunk(h.compression, packed, lines*lineBytes)
		if err != nil {
			return Level{}, err
		}

		off := 0
		for line := range lines {
			row := out.Pixels[(y0+line)*width*3:]
			for _, c := range h.channels {
				dst, ok := target[c.name]
				for x := range width {
					if ok {
						v := exrSample(raw[off:], c.pixelType)
						if dst < 0 {
							row[x*3], row[x*3+1], row[x*3+2] = v, v, v
						} else {
							row[x*3+dst] = v
						}
					}
					off += c.size()
				}
			}
		}
	}
	return out, nil
}

func readEXRHeader(br *bufio.Reader) (exrHeader, error) {
	var h exrHeader
	haveWindow := false
	for {
		name, err := readCString(br)
		if err != nil {
			return h, fmt.Errorf("%w: header: %v", ErrInvalidEXR, err)
		}
		if name == "" {
			break
		}
		if _, err := readCString(br); err != nil {
			return h, fmt.Errorf("%w: header: %v", ErrInvalidEXR, err)
		}
		var size int32
		if err := binary.Read(br, binary.LittleEndian, &size); err != nil || size < 0 {
			return h, fmt.Errorf("%w: attribute %s size", ErrInvalidEXR, name)
		}
		value := make([]byte, size)
		if _, err := io.ReadFull(br, value); err != nil {
			return h, fmt.Errorf("%w: attribute %s: %v", ErrInvalidEXR, name, err)
		}

		switch name {
		case "channels":
			if h.channels, err = parseEXRChannels(value); err != nil {
				return h, err
			}
		case "compression":
			if len(value) != 1 {
				return h, fmt.Errorf("%w: bad compression attribute", ErrInvalidEXR)
			}
			h.compression = value[0]
		case "dataWindow":
			if len(value) != 16 {
				return h, fmt.Errorf("%w: bad dataWindow attribute", ErrInvalidEXR)
			}
			h.xMin = int32(binary.LittleEndian.Uint32(value[0:]))
			h.yMin = int32(binary.LittleEndian.Uint32(value[4:]))
			h.xMax = int32(binary.LittleEndian.Uint32(value[8:]))
			h.yMax = int32(binary.LittleEndian.Uint32(value[12:]))
			haveWindow = true
		}
	}

	switch {
	case len(h.channels) == 0:
		return h, fmt.Errorf("%w: no channels", ErrInvalidEXR)
	case !haveWindow:
		return h, fmt.Errorf("%w: no data window", ErrInvalidEXR)
	}
	switch h.compression {
	case exrCompressionNone, exrCompressionZIPS, exrCompressionZIP:
	default:
		return h, fmt.Errorf("%w: unsupported compression %d", ErrInvalidEXR, h.compression)
	}
	return h, nil
}

func parseEXRChannels(value []byte) ([]exrChannel, error) {
	var out []exrChannel
	for len(value) > 0 {
		end := bytes.IndexByte(value, 0)
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated channel list", ErrInvalidEXR)
		}
		if end == 0 {
			break
		}
		name := string(value[:end])
		value = value[end+1:]
		if len(value) < 16 {
			return nil, fmt.Errorf("%w: short channel %s", ErrInvalidEXR, name)
		}
		pixelType := int32(binary.LittleEndian.Uint32(value))
		xs := int32(binary.LittleEndian.Uint32(value[8:]))
		ys := int32(binary.LittleEndian.Uint32(value[12:]))
		if pixelType < exrPixelUint || pixelType > exrPixelFloat {
			return nil, fmt.Errorf("%w: channel %s has pixel type %d", ErrInvalidEXR, name, pixelType)
		}
		if xs != 1 || ys != 1 {
			return nil, fmt.Errorf("%w: subsampled channel %s", ErrInvalidEXR, name)
		}
		out = append(out, exrChannel{name: name, pixelType: pixelType})
		value = value[16:]
	}
	// the file stores channel data in name order
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out, nil
}

func readCString(br *bufio.Reader) (string, error) {
	s, err := br.ReadString(0)
	if err != nil {
		return "", err
	}
	return s[:len(s)-1], nil
}

func exrSample(b []byte, pixelType int32) float32 {
	switch pixelType {
	case exrPixelHalf:
		return float16.Frombits(binary.LittleEndian.Uint16(b)).Float32()
	case exrPixelFloat:
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	default:
		return float32(binary.LittleEndian.Uint32(b))
	}
}

// decompressEXRChunk returns the raw scanline bytes of one chunk. A chunk that did not shrink
// under compression is stored raw.
func decompressEXRChunk(compression byte, packed []byte, rawSize int) ([]byte, error) {
	if compression == exrCompressionNone || len(packed) == rawSize {
		if len(packed) != rawSize {
			return nil, fmt.Errorf("%w: chunk holds %d bytes, want %d", ErrInvalidEXR, len(packed), rawSize)
		}
		return packed, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, fmt.Errorf("%w: zip chunk: %v", ErrInvalidEXR, err)
	}
	defer zr.Close()
	tmp := make([]byte, rawSize)
	if _, err := io.ReadFull(zr, tmp); err != nil {
		return nil, fmt.Errorf("%w: zip chunk: %v", ErrInvalidEXR, err)
	}

	// undo the delta predictor
	for i := 1; i < len(tmp); i++ {
		tmp[i] = tmp[i-1] + tmp[i] - 128
	}

	// undo the byte split: the first half holds even bytes, the second half odd bytes
	out := make([]byte, rawSize)
	half := (rawSize + 1) / 2
	for i := range rawSize {
		if i%2 == 0 {
			out[i] = tmp[i/2]
		} else {
			out[i] = tmp[half+i/2]
		}
	}
	return out, nil
}
