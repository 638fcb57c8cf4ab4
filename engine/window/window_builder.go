package window

import "time"

// WindowBuilderOption is a functional option for configuring an engineWindow.
// Use the With* functions to create options.
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

// WithSize sets the initial logical client size. Non-positive values keep the default.
//
// Parameters:
//   - width: the logical width
//   - height: the logical height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithMinSize sets the smallest logical size the window can be resized to.
//
// Parameters:
//   - width: the minimum width
//   - height: the minimum height
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithMinSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = width, height
	}
}

// WithDoubleClick tunes double-click detection.
//
// Parameters:
//   - interval: the longest gap between the two presses
//   - slop: the largest cursor movement between the two presses, in logical pixels
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithDoubleClick(interval time.Duration, slop float32) WindowBuilderOption {
	return func(w *engineWindow) {
		w.doubleClickInterval = interval
		w.doubleClickSlop = slop
	}
}
