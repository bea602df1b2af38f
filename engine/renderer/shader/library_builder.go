package shader

import "io/fs"

// LibraryBuilderOption is a functional option used to configure a Library during construction.
type LibraryBuilderOption func(*library)

// WithDir adds a directory searched before the built-in shaders. Files placed there override
// built-ins of the same name. An empty or missing directory is ignored.
//
// Parameters:
//   - dir: the shader directory
//
// Returns:
//   - LibraryBuilderOption: a function that adds the directory as a source root
func WithDir(dir string) LibraryBuilderOption {
	return func(l *library) {
		if root := dirRoot(dir); root != nil {
			l.roots = append(l.roots, root)
		}
	}
}

// WithFS adds a file system searched before the built-in shaders.
//
// Parameters:
//   - fsys: the source root
//
// Returns:
//   - LibraryBuilderOption: a function that adds the source root
func WithFS(fsys fs.FS) LibraryBuilderOption {
	return func(l *library) {
		l.roots = append(l.roots, fsys)
	}
}

// WithCompiler replaces the naga compiler, for tools that only need pre-processing.
//
// Parameters:
//   - compile: the compiler to use
//
// Returns:
//   - LibraryBuilderOption: a function that sets the compiler
func WithCompiler(compile CompileFunc) LibraryBuilderOption {
	return func(l *library) {
		if compile != nil {
			l.compile = compile
		}
	}
}
