// Package shaders provides embedded GLSL shader sources.
package shaders

import _ "embed"

// MeshVertexShader transforms instanced meshes and lines.
//
//go:embed mesh.vert
var MeshVertexShader string

// MeshFragmentShader shades meshes with the light rig and dashes lines.
//
//go:embed mesh.frag
var MeshFragmentShader string

// LabelVertexShader places a screen-space text quad.
//
//go:embed label.vert
var LabelVertexShader string

// LabelFragmentShader samples the text texture.
//
//go:embed label.frag
var LabelFragmentShader string
