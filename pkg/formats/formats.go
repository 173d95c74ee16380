// Package formats provides the scene payload model: the typed scene tree,
// its settings contract and the color grammar shared by both.
package formats

// Note: the scene tree and its decoder are in scene.go
// Note: viewer settings and light/material descriptors are in settings.go
