package loader

import (
	"encoding/json"
	"fmt"

	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/material"
)

// gltfMaterialBuilder converts document materials into render materials. Results are cached per
// (index, vertex colors) so primitives sharing a material share one instance, matching how the
// normalizer visits them.
type gltfMaterialBuilder struct {
	doc   *gltfDocument
	cache map[materialKey]*material.Material
}

type materialKey struct {
	index        int
	vertexColors bool
}

// defaultMaterialIndex keys the material used by primitives without one.
const defaultMaterialIndex = -1

func newGLTFMaterialBuilder(doc *gltfDocument) *gltfMaterialBuilder {
	return &gltfMaterialBuilder{
		doc:   doc,
		cache: make(map[materialKey]*material.Material),
	}
}

// Material returns the render material for a primitive.
//
// Parameters:
//   - index: the document material index, nil for the glTF default material
//   - vertexColors: whether the primitive carries COLOR_0
//
// Returns:
//   - *material.Material: the shared material instance
//   - error: error if the index is out of range or an extension payload is malformed
func (b *gltfMaterialBuilder) Material(index *int, vertexColors bool) (*material.Material, error) {
	key := materialKey{index: defaultMaterialIndex, vertexColors: vertexColors}
	if index != nil {
		key.index = *index
	}
	if m, ok := b.cache[key]; ok {
		return m, nil
	}

	var (
		m   *material.Material
		err error
	)
	if key.index == defaultMaterialIndex {
		m = material.NewMaterial(material.WithName(""))
	} else {
		if key.index < 0 || key.index >= len(b.doc.Materials) {
			return nil, fmt.Errorf("material index %d out of range", key.index)
		}
		m, err = convertMaterial(&b.doc.Materials[key.index])
		if err != nil {
			return nil, fmt.Errorf("material %d: %w", key.index, err)
		}
	}
	m.VertexColors = vertexColors
	b.cache[key] = m
	return m, nil
}

// convertMaterial maps one glTF material. Any KHR physical extension makes the result physical.
func convertMaterial(gm *gltfMaterial) (*material.Material, error) {
	options := []material.MaterialBuilderOption{
		material.WithName(gm.Name),
		material.WithDoubleSided(gm.DoubleSided),
	}

	baseColor := [4]float32{1, 1, 1, 1}
	if pbr := gm.PbrMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			baseColor = *pbr.BaseColorFactor
		}
		if pbr.MetallicFactor != nil {
			options = append(options, material.WithMetalness(*pbr.MetallicFactor))
		}
		if pbr.RoughnessFactor != nil {
			options = append(options, material.WithRoughness(*pbr.RoughnessFactor))
		}
	}
	options = append(options, material.WithBaseColor(baseColor))

	if gm.EmissiveFactor != nil {
		emissive := *gm.EmissiveFactor
		var strength khrEmissiveStrength
		if ok, err := decodeExtension(gm.Extensions, khrMaterialsEmissiveStrength, &strength); err != nil {
			return nil, err
		} else if ok && strength.EmissiveStrength != nil {
			for i := range emissive {
				emissive[i] *= *strength.EmissiveStrength
			}
		}
		options = append(options, material.WithEmissive(emissive))
	}

	switch gm.AlphaMode {
	case gltfAlphaModeBlend:
		options = append(options, material.WithTransparency(baseColor[3]))
	case "", gltfAlphaModeOpaque, gltfAlphaModeMask:
	default:
		return nil, fmt.Errorf("unknown alpha mode %q", gm.AlphaMode)
	}

	params, physical, err := physicalParams(gm.Extensions)
	if err != nil {
		return nil, err
	}
	if physical {
		options = append(options, material.WithPhysical(params))
	}
	return material.NewMaterial(options...), nil
}

// physicalParams decodes the KHR physical extensions present on a material.
//
// Returns:
//   - material.PhysicalParams: the decoded parameters over the physical defaults
//   - bool: true if at least one physical extension is present
//   - error: error if an extension payload is malformed
func physicalParams(exts map[string]json.RawMessage) (material.PhysicalParams, bool, error) {
	params := material.DefaultPhysicalParams()
	physical := false
	for _, name := range physicalExtensions {
		if _, ok := exts[name]; ok {
			physical = true
			break
		}
	}
	if !physical {
		return params, false, nil
	}

	var transmission khrTransmission
	if _, err := decodeExtension(exts, khrMaterialsTransmission, &transmission); err != nil {
		return params, true, err
	}
	setIf(&params.Transmission, transmission.TransmissionFactor)

	var volume khrVolume
	if _, err := decodeExtension(exts, khrMaterialsVolume, &volume); err != nil {
		return params, true, err
	}
	setIf(&params.Thickness, volume.ThicknessFactor)

	var clearcoat khrClearcoat
	if _, err := decodeExtension(exts, khrMaterialsClearcoat, &clearcoat); err != nil {
		return params, true, err
	}
	setIf(&params.Clearcoat, clearcoat.ClearcoatFactor)
	setIf(&params.ClearcoatRoughness, clearcoat.ClearcoatRoughnessFactor)

	var sheen khrSheen
	if ok, err := decodeExtension(exts, khrMaterialsSheen, &sheen); err != nil {
		return params, true, err
	} else if ok {
		// sheen is enabled by a non-black color
		if c := sheen.SheenColorFactor; c != nil {
			params.Sheen = max(c[0], c[1], c[2])
		}
		setIf(&params.SheenRoughness, sheen.SheenRoughnessFactor)
	}

	var iridescence khrIridescence
	if ok, err := decodeExtension(exts, khrMaterialsIridescence, &iridescence); err != nil {
		return params, true, err
	} else if ok {
		params.Iridescence = 1
		setIf(&params.Iridescence, iridescence.IridescenceFactor)
	}

	var ior khrIOR
	if _, err := decodeExtension(exts, khrMaterialsIOR, &ior); err != nil {
		return params, true, err
	}
	setIf(&params.IOR, ior.IOR)

	var specular khrSpecular
	if _, err := decodeExtension(exts, khrMaterialsSpecular, &specular); err != nil {
		return params, true, err
	}
	setIf(&params.SpecularIntensity, specular.SpecularFactor)

	return params, true, nil
}

// decodeExtension unmarshals exts[name] into v when present.
func decodeExtension(exts map[string]json.RawMessage, name string, v any) (bool, error) {
	raw, ok := exts[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return true, nil
}

func setIf(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}
