package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyA     = 65  // A key (ASCII), toggles the axes helper
	KeyF     = 70  // F key (ASCII), re-frames the model group
	KeyS     = 83  // S key (ASCII), toggles the stats overlay
	KeySpace = 32  // Spacebar (ASCII), logs camera position and target
	KeyEsc   = 256 // Escape key (GLFW)

	Key1 = 49 // 1 key (ASCII), first preset view
	Key9 = 57 // 9 key (ASCII), last selectable preset view
)

// Mouse buttons reported by the window layer.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
)
