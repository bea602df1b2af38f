package shader

import "github.com/gogpu/naga"

// nagaCompile validates WGSL and lowers it to SPIR-V.
func nagaCompile(source string) ([]byte, error) {
	return naga.Compile(source)
}
