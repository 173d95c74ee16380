package lighting

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/crystalview/internal/engine/material"
	"github.com/Faultbox/crystalview/pkg/math"
)

// dielectricF0 is the base reflectance of non-metals.
const dielectricF0 = 0.04

// Shade computes the lit color of a surface point. normal and viewDir are
// unit vectors; viewDir points from the surface toward the eye.
func Shade(normal, viewDir math.Vec3, mat *material.Material, lights []Light) [3]float32 {
	base := mat.Color.Array()
	if mat.Model == material.Basic {
		return base
	}
	if mat.DoubleSided && normal.Dot(viewDir) < 0 {
		normal = normal.Negate()
	}

	var diffuse, specular [3]float32
	for _, l := range lights {
		switch l.Kind {
		case Ambient:
			addScaled(&diffuse, l.Color, l.Intensity)
		case Hemisphere:
			w := 0.5*normal.Dot(l.Direction()) + 0.5
			for i := 0; i < 3; i++ {
				diffuse[i] += (l.GroundColor[i] + (l.Color[i]-l.GroundColor[i])*w) * l.Intensity
			}
		case Directional:
			dir := l.Direction()
			nl := normal.Dot(dir)
			if nl <= 0 {
				continue
			}
			addScaled(&diffuse, l.Color, nl*l.Intensity)
			if mat.Model == material.Lambert {
				continue
			}
			s := specularTerm(normal, viewDir, dir, mat) * nl * l.Intensity
			addScaled(&specular, l.Color, s)
		}
	}

	var out [3]float32
	kd := float32(1)
	f0 := [3]float32{0, 0, 0}
	switch mat.Model {
	case material.Standard:
		kd = 1 - mat.Metalness
		for i := range f0 {
			f0[i] = dielectricF0 + (base[i]-dielectricF0)*mat.Metalness
		}
	case material.Phong:
		f0 = mat.Specular.Array()
	}
	for i := 0; i < 3; i++ {
		out[i] = clamp01(base[i]*kd*diffuse[i] + f0[i]*specular[i])
	}
	return out
}

// specularTerm is a normalized Blinn-Phong lobe. Roughness maps to an
// exponent for the standard model.
func specularTerm(normal, viewDir, lightDir math.Vec3, mat *material.Material) float32 {
	h := viewDir.Add(lightDir).Normalize()
	nh := normal.Dot(h)
	if nh <= 0 {
		return 0
	}
	exp := mat.Shininess
	if mat.Model == material.Standard {
		r := max(mat.Roughness, 0.04)
		exp = 2/(r*r*r*r) - 2
	}
	exp = min(max(exp, 1), 4096)
	return (exp + 2) / 8 * math32.Pow(nh, exp)
}

func addScaled(dst *[3]float32, c [3]float32, s float32) {
	for i := 0; i < 3; i++ {
		dst[i] += c[i] * s
	}
}

func clamp01(v float32) float32 {
	return min(max(v, 0), 1)
}
