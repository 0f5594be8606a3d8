// Package shaders holds the compiled SPIR-V shaders of the Vulkan backend.
package shaders

import "embed"

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv

// FS holds vert.spv and frag.spv at its root.
//
//go:embed vert.spv frag.spv
var FS embed.FS
