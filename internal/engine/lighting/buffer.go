package lighting

// MaxLights is the maximum number of lights supported in shaders.
const MaxLights = 8

// Buffer holds the light rig flattened for GPU upload. Kinds use the Kind
// values as int32.
type Buffer struct {
	Lights []Light
	Count  int
}

// NewBuffer creates an empty light buffer.
func NewBuffer() *Buffer {
	return &Buffer{
		Lights: make([]Light, 0, MaxLights),
	}
}

// SetLights replaces all lights in the buffer, truncating to MaxLights.
func (b *Buffer) SetLights(lights []Light) {
	b.Lights = b.Lights[:0]
	count := min(len(lights), MaxLights)
	b.Lights = append(b.Lights, lights[:count]...)
	b.Count = count
}

// Kinds returns the light kinds padded to MaxLights.
func (b *Buffer) Kinds() []int32 {
	result := make([]int32, MaxLights)
	for i, l := range b.Lights {
		result[i] = int32(l.Kind)
	}
	return result
}

// Directions returns unit directions toward each light as a flat
// [x0, y0, z0, x1, ...] slice.
func (b *Buffer) Directions() []float32 {
	result := make([]float32, MaxLights*3)
	for i, l := range b.Lights {
		d := l.Direction()
		result[i*3+0] = d.X
		result[i*3+1] = d.Y
		result[i*3+2] = d.Z
	}
	return result
}

// Colors returns colors premultiplied by intensity.
func (b *Buffer) Colors() []float32 {
	result := make([]float32, MaxLights*3)
	for i, l := range b.Lights {
		result[i*3+0] = l.Color[0] * l.Intensity
		result[i*3+1] = l.Color[1] * l.Intensity
		result[i*3+2] = l.Color[2] * l.Intensity
	}
	return result
}

// GroundColors returns hemisphere ground colors premultiplied by intensity.
func (b *Buffer) GroundColors() []float32 {
	result := make([]float32, MaxLights*3)
	for i, l := range b.Lights {
		result[i*3+0] = l.GroundColor[0] * l.Intensity
		result[i*3+1] = l.GroundColor[1] * l.Intensity
		result[i*3+2] = l.GroundColor[2] * l.Intensity
	}
	return result
}
