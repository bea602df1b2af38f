package shader

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapReader(files map[string]string) sourceReader {
	return func(name string) (string, error) {
		src, ok := files[name]
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrShaderNotFound, name)
		}
		return src, nil
	}
}

func TestPreProcessor_IncludesOnce(t *testing.T) {
	pp := newPreProcessor(mapReader(map[string]string{
		"a.wgsl": "#include \"c.wgsl\"\nconst A: u32 = 1u;",
		"b.wgsl": "#include \"c.wgsl\"\nconst B: u32 = 2u;",
		"c.wgsl": "const C: u32 = 3u;",
	}))

	out, err := pp.Process("main.wgsl", "#include \"a.wgsl\"\n  #include \"b.wgsl\"\nfn main() {}")
	require.NoError(t, err)
	assert.Equal(t, "const C: u32 = 3u;\nconst A: u32 = 1u;\nconst B: u32 = 2u;\nfn main() {}\n", out)
	assert.Equal(t, []string{"a.wgsl", "c.wgsl", "b.wgsl"}, pp.Includes())
}

func TestPreProcessor_Cycle(t *testing.T) {
	pp := newPreProcessor(mapReader(map[string]string{
		"a.wgsl": "#include \"b.wgsl\"",
		"b.wgsl": "#include \"a.wgsl\"",
	}))
	_, err := pp.Process("a.wgsl", "#include \"b.wgsl\"")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include cycle")
}

func TestPreProcessor_MissingInclude(t *testing.T) {
	pp := newPreProcessor(mapReader(nil))
	_, err := pp.Process("main.wgsl", "\n#include \"nope.wgsl\"")
	assert.ErrorIs(t, err, ErrShaderNotFound)
	assert.Contains(t, err.Error(), "main.wgsl:2")
}
