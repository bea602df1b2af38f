package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
)

// ErrShaderNotFound is returned when no source root contains the requested file.
var ErrShaderNotFound = errors.New("shader: not found")

//go:embed shaders/*.wgsl
var builtinShaders embed.FS

// CompileFunc turns expanded WGSL into SPIR-V bytecode.
type CompileFunc func(source string) ([]byte, error)

// library is the implementation of the Library interface.
type library struct {
	mu          sync.Mutex
	roots       []fs.FS
	compile     CompileFunc
	cache       map[string]*shader
	generations map[string]uint64
}

// Library loads, pre-processes and compiles WGSL files by name and caches the result. Lookups
// search the configured directory first and then the shaders built into the engine.
//
// A Library is safe for concurrent use; the hot reload watcher invalidates entries from its own goroutine.
type Library interface {
	// Get returns the compiled shader for name, compiling it on first use or after invalidation.
	//
	// Parameters:
	//   - name: the shader file name (e.g. "forward.wgsl")
	//
	// Returns:
	//   - Shader: the compiled shader
	//   - error: ErrShaderNotFound, an include error, or the compiler's error
	Get(name string) (Shader, error)

	// Generation returns the current generation of name. It starts at zero and increases every
	// time name, or a file it includes, is invalidated.
	//
	// Parameters:
	//   - name: the shader file name
	//
	// Returns:
	//   - uint64: the current generation
	Generation(name string) uint64

	// Invalidate drops name and every cached shader that includes it, and bumps their generations.
	//
	// Parameters:
	//   - name: the changed file name
	//
	// Returns:
	//   - []string: the invalidated shader names, sorted
	Invalidate(name string) []string

	// Cached returns the names of all currently compiled shaders, sorted.
	Cached() []string
}

var _ Library = &library{}

// NewLibrary creates a Library with the given options applied.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - Library: the new library
func NewLibrary(opts ...LibraryBuilderOption) Library {
	l := &library{
		compile:     nagaCompile,
		cache:       make(map[string]*shader),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}

	builtin, err := fs.Sub(builtinShaders, "shaders")
	if err != nil {
		panic(fmt.Sprintf("shader: failed to open built-in shaders: %v", err))
	}
	l.roots = append(l.roots, builtin)
	return l
}

func (l *library) read(name string) (string, error) {
	for _, root := range l.roots {
		data, err := fs.ReadFile(root, name)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrShaderNotFound, name)
}

func (l *library) Get(name string) (Shader, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s, ok := l.cache[name]; ok {
		return s, nil
	}

	raw, err := l.read(name)
	if err != nil {
		return nil, err
	}
	pp := newPreProcessor(l.read)
	source, err := pp.Process(name, raw)
	if err != nil {
		return nil, fmt.Errorf("shader: pre-process %s: %w", name, err)
	}
	spirv, err := l.compile(source)
	if err != nil {
		return nil, fmt.Errorf("shader: compile %s: %w", name, err)
	}

	s := newShader(name, source, spirv, l.generations[name], pp.Includes())
	l.cache[name] = s
	common.Logger().Debug("shader compiled", slog.String("name", name), slog.Uint64("generation", s.generation), slog.Int("spirv_bytes", len(spirv)))
	return s, nil
}

func (l *library) Generation(name string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generations[name]
}

func (l *library) Invalidate(name string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	hit := map[string]bool{name: true}
	for key, s := range l.cache {
		for _, inc := range s.includes {
			if inc == name {
				hit[key] = true
			}
		}
	}

	out := make([]string, 0, len(hit))
	for key := range hit {
		delete(l.cache, key)
		l.generations[key]++
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (l *library) Cached() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.cache))
	for key := range l.cache {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// dirRoot returns a source root for dir, or nil when dir is empty or missing.
func dirRoot(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		common.Logger().Warn("shader directory unavailable, using built-in shaders", slog.String("dir", dir))
		return nil
	}
	return os.DirFS(dir)
}
