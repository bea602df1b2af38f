package window

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// WindowBuilderOption is a functional option for configuring an engineWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial window size. On high-DPI displays the framebuffer may be larger.
//
// Parameters:
//   - width, height: the requested size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.extent = common.Extent{Width: width, Height: height}
	}
}

// WithMinSize sets the smallest size the user can resize the window to.
func WithMinSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minSize = common.Extent{Width: width, Height: height}
	}
}

// WithMaxSize sets the largest size the user can resize the window to. An empty extent removes the limit.
//
// Parameters:
//   - width, height: the maximum size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMaxSize(width, height uint32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.maxSize = common.Extent{Width: width, Height: height}
	}
}
