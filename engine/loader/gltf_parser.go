package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorBounds     = errors.New("accessor reads past the end of its buffer")
)

// gltfParser decodes a glTF JSON or GLB container and resolves its buffers. Accessor reads are
// bounds-checked against the resolved buffer data.
type gltfParser struct {
	baseDir  string
	document *gltfDocument
	buffers  [][]byte
}

// newGLTFParser creates a parser that resolves relative buffer URIs against baseDir.
//
// Parameters:
//   - baseDir: the directory of the source file, empty for in-memory data
//
// Returns:
//   - *gltfParser: the parser
func newGLTFParser(baseDir string) *gltfParser {
	return &gltfParser{baseDir: baseDir}
}

// Parse decodes data. The container is detected by its magic number, so a .gltf extension on a
// binary file still parses.
//
// Parameters:
//   - data: the complete file contents
//
// Returns:
//   - error: error if the document or one of its buffers is invalid
func (p *gltfParser) Parse(data []byte) error {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic {
		return p.parseGLB(data)
	}
	return p.parseJSON(data, nil)
}

// Document returns the parsed document, nil before a successful Parse.
func (p *gltfParser) Document() *gltfDocument {
	return p.document
}

func (p *gltfParser) parseJSON(data []byte, bin []byte) error {
	var doc gltfDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := checkRequiredExtensions(&doc); err != nil {
		return err
	}
	if err := p.loadBuffers(&doc, bin); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

func (p *gltfParser) parseGLB(data []byte) error {
	if len(data) < 12 {
		return errors.New("GLB file too small")
	}
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return errInvalidGLBVersion
	}

	var jsonData, binData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return fmt.Errorf("GLB chunk of %d bytes exceeds file size", chunk.ChunkLength)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return fmt.Errorf("failed to read chunk data: %w", err)
		}
		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			if jsonData == nil {
				jsonData = body
			}
		case gltfGLBChunkBIN:
			if binData == nil {
				binData = body
			}
		}
	}
	if jsonData == nil {
		return errMissingJSONChunk
	}
	return p.parseJSON(jsonData, binData)
}

// checkRequiredExtensions rejects documents that cannot be rendered without an extension the
// viewer does not implement, mesh compression in particular.
func checkRequiredExtensions(doc *gltfDocument) error {
	for _, ext := range doc.ExtensionsRequired {
		if !supportedRequiredExtensions[ext] {
			return fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
		}
	}
	return nil
}

// loadBuffers resolves every buffer: the GLB BIN chunk for the first URI-less buffer, base64 data
// URIs, or files relative to the document.
func (p *gltfParser) loadBuffers(doc *gltfDocument, bin []byte) error {
	p.buffers = make([][]byte, len(doc.Buffers))
	for i, buf := range doc.Buffers {
		var data []byte
		switch {
		case buf.URI == "" && i == 0 && bin != nil:
			data = bin
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			var err error
			data, err = p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
		}
		if len(data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
		p.buffers[i] = data
	}
	return nil
}

func (p *gltfParser) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	if p.baseDir == "" {
		return nil, fmt.Errorf("external buffer %q needs a base directory", uri)
	}
	data, err := os.ReadFile(filepath.Join(p.baseDir, filepath.FromSlash(uri)))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %s", header)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// readAccessor returns the tightly packed bytes of an accessor. An accessor without a buffer view
// reads as zeros.
func (p *gltfParser) readAccessor(index int) (*gltfAccessor, []byte, error) {
	if p.document == nil {
		return nil, nil, errors.New("no document loaded")
	}
	if index < 0 || index >= len(p.document.Accessors) {
		return nil, nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &p.document.Accessors[index]
	if len(acc.Sparse) > 0 {
		return nil, nil, fmt.Errorf("accessor %d: sparse accessors are not supported", index)
	}
	if acc.Count < 0 {
		return nil, nil, fmt.Errorf("accessor %d: negative count", index)
	}

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 {
		return nil, nil, fmt.Errorf("accessor %d: unsupported layout %s/%d", index, acc.Type, acc.ComponentType)
	}
	out := make([]byte, acc.Count*elementSize)
	if acc.BufferView == nil {
		return acc, out, nil
	}

	if *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, nil, fmt.Errorf("accessor %d: buffer view %d out of range", index, *acc.BufferView)
	}
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.buffers) {
		return nil, nil, fmt.Errorf("accessor %d: buffer %d out of range", index, bv.Buffer)
	}
	data := p.buffers[bv.Buffer]

	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}
	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := start + (acc.Count-1)*stride + elementSize
		if start < 0 || end > len(data) || end > bv.ByteOffset+bv.ByteLength {
			return nil, nil, fmt.Errorf("accessor %d: %w", index, errAccessorBounds)
		}
	}
	for i := 0; i < acc.Count; i++ {
		src := start + i*stride
		copy(out[i*elementSize:(i+1)*elementSize], data[src:src+elementSize])
	}
	return acc, out, nil
}

// ReadVec3 reads a VEC3 FLOAT accessor.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - [][3]float32: one entry per element
//   - error: error if the accessor is not VEC3 FLOAT or out of bounds
func (p *gltfParser) ReadVec3(index int) ([][3]float32, error) {
	acc, data, err := p.readAccessor(index)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeVec3 || acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor %d is not VEC3 FLOAT: type=%s, componentType=%d", index, acc.Type, acc.ComponentType)
	}
	out := make([][3]float32, acc.Count)
	for i := range out {
		for c := 0; c < 3; c++ {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*12+c*4:]))
		}
	}
	return out, nil
}

// ReadIndices reads a SCALAR index accessor of unsigned byte, short or int components.
//
// Parameters:
//   - index: the accessor index
//
// Returns:
//   - []uint32: the indices widened to uint32
//   - error: error if the accessor is not an index accessor or out of bounds
func (p *gltfParser) ReadIndices(index int) ([]uint32, error) {
	acc, data, err := p.readAccessor(index)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltfAccessorTypeScalar {
		return nil, fmt.Errorf("index accessor %d is not SCALAR: type=%s", index, acc.Type)
	}
	out := make([]uint32, acc.Count)
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		for i := range out {
			out[i] = uint32(data[i])
		}
	case gltfComponentTypeUnsignedShort:
		for i := range out {
			out[i] = uint32(binary.LittleEndian.Uint16(data[i*2:]))
		}
	case gltfComponentTypeUnsignedInt:
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
	default:
		return nil, fmt.Errorf("unsupported index component type: %d", acc.ComponentType)
	}
	return out, nil
}

// gltfComponentTypeSize returns the byte size of a component type.
func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

// gltfAccessorTypeComponentCount returns the number of components for an accessor type.
func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4, gltfAccessorTypeMat2:
		return 4
	case gltfAccessorTypeMat3:
		return 9
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
