// gltf_types.go holds the subset of the glTF 2.0 JSON schema the viewer reads. Fields the scene
// builder never consumes (skins, animations, textures) are left out and ignored by the decoder.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html
package loader

import "encoding/json"

// gltfDocument is the root of a glTF JSON document.
type gltfDocument struct {
	Asset              gltfAsset        `json:"asset"`
	Scene              *int             `json:"scene,omitempty"`
	Scenes             []gltfScene      `json:"scenes,omitempty"`
	Nodes              []gltfNode       `json:"nodes,omitempty"`
	Meshes             []gltfMesh       `json:"meshes,omitempty"`
	Accessors          []gltfAccessor   `json:"accessors,omitempty"`
	BufferViews        []gltfBufferView `json:"bufferViews,omitempty"`
	Buffers            []gltfBuffer     `json:"buffers,omitempty"`
	Materials          []gltfMaterial   `json:"materials,omitempty"`
	ExtensionsUsed     []string         `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string         `json:"extensionsRequired,omitempty"`
}

type gltfAsset struct {
	Version    string `json:"version"`
	MinVersion string `json:"minVersion,omitempty"`
	Generator  string `json:"generator,omitempty"`
}

type gltfScene struct {
	Name  string `json:"name,omitempty"`
	Nodes []int  `json:"nodes,omitempty"`
}

// gltfNode is one entry of the node hierarchy. Matrix and the TRS triple are mutually
// exclusive; Matrix is column-major.
type gltfNode struct {
	Name        string       `json:"name,omitempty"`
	Children    []int        `json:"children,omitempty"`
	Mesh        *int         `json:"mesh,omitempty"`
	Matrix      *[16]float32 `json:"matrix,omitempty"`
	Translation *[3]float32  `json:"translation,omitempty"`
	Rotation    *[4]float32  `json:"rotation,omitempty"` // x, y, z, w
	Scale       *[3]float32  `json:"scale,omitempty"`
}

type gltfMesh struct {
	Name       string          `json:"name,omitempty"`
	Primitives []gltfPrimitive `json:"primitives"`
}

// gltfPrimitive is one draw of a mesh. Attributes maps a semantic (POSITION, NORMAL, COLOR_0)
// to an accessor index.
type gltfPrimitive struct {
	Attributes map[string]int             `json:"attributes"`
	Indices    *int                       `json:"indices,omitempty"`
	Material   *int                       `json:"material,omitempty"`
	Mode       *int                       `json:"mode,omitempty"`
	Extensions map[string]json.RawMessage `json:"extensions,omitempty"`
}

type gltfAccessor struct {
	BufferView    *int            `json:"bufferView,omitempty"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Normalized    bool            `json:"normalized,omitempty"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Sparse        json.RawMessage `json:"sparse,omitempty"`
}

type gltfBufferView struct {
	Buffer     int  `json:"buffer"`
	ByteOffset int  `json:"byteOffset,omitempty"`
	ByteLength int  `json:"byteLength"`
	ByteStride *int `json:"byteStride,omitempty"`
}

type gltfBuffer struct {
	URI        string `json:"uri,omitempty"`
	ByteLength int    `json:"byteLength"`
}

// gltfMaterial is a metallic-roughness material. Extensions is kept raw so the KHR material
// extensions can be detected by key and decoded on demand.
type gltfMaterial struct {
	Name                 string                     `json:"name,omitempty"`
	PbrMetallicRoughness *gltfPbrMetallicRoughness  `json:"pbrMetallicRoughness,omitempty"`
	EmissiveFactor       *[3]float32                `json:"emissiveFactor,omitempty"`
	AlphaMode            string                     `json:"alphaMode,omitempty"`
	AlphaCutoff          *float32                   `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                       `json:"doubleSided,omitempty"`
	Extensions           map[string]json.RawMessage `json:"extensions,omitempty"`
}

type gltfPbrMetallicRoughness struct {
	BaseColorFactor *[4]float32 `json:"baseColorFactor,omitempty"`
	MetallicFactor  *float32    `json:"metallicFactor,omitempty"`
	RoughnessFactor *float32    `json:"roughnessFactor,omitempty"`
}

// KHR material extension payloads. Pointers distinguish "absent" from an explicit zero.
type (
	khrTransmission struct {
		TransmissionFactor *float32 `json:"transmissionFactor,omitempty"`
	}
	khrVolume struct {
		ThicknessFactor *float32 `json:"thicknessFactor,omitempty"`
	}
	khrClearcoat struct {
		ClearcoatFactor          *float32 `json:"clearcoatFactor,omitempty"`
		ClearcoatRoughnessFactor *float32 `json:"clearcoatRoughnessFactor,omitempty"`
	}
	khrSheen struct {
		SheenColorFactor     *[3]float32 `json:"sheenColorFactor,omitempty"`
		SheenRoughnessFactor *float32    `json:"sheenRoughnessFactor,omitempty"`
	}
	khrIridescence struct {
		IridescenceFactor *float32 `json:"iridescenceFactor,omitempty"`
	}
	khrIOR struct {
		IOR *float32 `json:"ior,omitempty"`
	}
	khrSpecular struct {
		SpecularFactor *float32 `json:"specularFactor,omitempty"`
	}
	khrEmissiveStrength struct {
		EmissiveStrength *float32 `json:"emissiveStrength,omitempty"`
	}
)

const (
	khrMaterialsTransmission     = "KHR_materials_transmission"
	khrMaterialsVolume           = "KHR_materials_volume"
	khrMaterialsClearcoat        = "KHR_materials_clearcoat"
	khrMaterialsSheen            = "KHR_materials_sheen"
	khrMaterialsIridescence      = "KHR_materials_iridescence"
	khrMaterialsIOR              = "KHR_materials_ior"
	khrMaterialsSpecular         = "KHR_materials_specular"
	khrMaterialsEmissiveStrength = "KHR_materials_emissive_strength"
	khrDracoMeshCompression      = "KHR_draco_mesh_compression"
)

// physicalExtensions are the material extensions that turn an imported material physical.
var physicalExtensions = []string{
	khrMaterialsTransmission,
	khrMaterialsVolume,
	khrMaterialsClearcoat,
	khrMaterialsSheen,
	khrMaterialsIridescence,
	khrMaterialsIOR,
	khrMaterialsSpecular,
}

// supportedRequiredExtensions may appear in extensionsRequired without failing the load.
var supportedRequiredExtensions = map[string]bool{
	khrMaterialsTransmission:     true,
	khrMaterialsVolume:           true,
	khrMaterialsClearcoat:        true,
	khrMaterialsSheen:            true,
	khrMaterialsIridescence:      true,
	khrMaterialsIOR:              true,
	khrMaterialsSpecular:         true,
	khrMaterialsEmissiveStrength: true,
}

const (
	gltfComponentTypeByte          = 5120
	gltfComponentTypeUnsignedByte  = 5121
	gltfComponentTypeShort         = 5122
	gltfComponentTypeUnsignedShort = 5123
	gltfComponentTypeUnsignedInt   = 5125
	gltfComponentTypeFloat         = 5126
)

const (
	gltfAccessorTypeScalar = "SCALAR"
	gltfAccessorTypeVec2   = "VEC2"
	gltfAccessorTypeVec3   = "VEC3"
	gltfAccessorTypeVec4   = "VEC4"
	gltfAccessorTypeMat2   = "MAT2"
	gltfAccessorTypeMat3   = "MAT3"
	gltfAccessorTypeMat4   = "MAT4"
)

const (
	gltfModePoints    = 0
	gltfModeTriangles = 4
)

const (
	gltfAlphaModeOpaque = "OPAQUE"
	gltfAlphaModeMask   = "MASK"
	gltfAlphaModeBlend  = "BLEND"
)

// GLB container framing.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
const (
	gltfGLBMagic     = 0x46546C67 // "glTF"
	gltfGLBVersion   = 2
	gltfGLBChunkJSON = 0x4E4F534A // "JSON"
	gltfGLBChunkBIN  = 0x004E4942 // "BIN\0"
)

type gltfGLBHeader struct {
	Magic   uint32
	Version uint32
	Length  uint32
}

type gltfGLBChunkHeader struct {
	ChunkLength uint32
	ChunkType   uint32
}
