package hal

import "errors"

// Common HAL errors representing unrecoverable device states.
var (
	// ErrDeviceLost indicates the GPU device has been lost (driver crash,
	// hardware disconnection, or driver timeout). The device cannot be
	// recovered and must be recreated.
	ErrDeviceLost = errors.New("hal: device lost")

	// ErrSurfaceOutOfDate indicates a present call returned
	// VK_ERROR_OUT_OF_DATE_KHR: the swapchain no longer matches the
	// surface and must be rebuilt before presenting again.
	ErrSurfaceOutOfDate = errors.New("hal: surface out of date")

	// ErrSurfaceSuboptimal indicates a present call returned
	// VK_SUBOPTIMAL_KHR: presentation succeeded but the surface no
	// longer matches the swapchain exactly. Treated the same as
	// ErrSurfaceOutOfDate by the Present task (§4.M).
	ErrSurfaceSuboptimal = errors.New("hal: surface suboptimal")

	// ErrTimeout indicates a wait operation exceeded its deadline.
	ErrTimeout = errors.New("hal: wait timed out")
)
