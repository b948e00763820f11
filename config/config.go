// Package config holds the render-graph engine's explicit configuration,
// passed into constructors rather than read from a package-level
// singleton (spec.md §9 DESIGN NOTES calls out RenderContext::context()-
// style singletons as a pattern to reshape into an explicit value).
package config

// TrackingMode controls whether a render node gets a per-node submit
// tracker attached (§3 Render-Graph Node, §6).
type TrackingMode int

const (
	// TrackingOff skips attaching a submit tracker to a node.
	TrackingOff TrackingMode = iota
	// TrackingOn attaches a submit tracker so SyncFeedbackService can
	// report the node's submission status.
	TrackingOn
)

// EngineConfig is the exhaustive set of recognized configuration options
// named in spec.md §6.
type EngineConfig struct {
	// BackBufferCount is the number of swapchain images, K.
	BackBufferCount int
	// InFlightFrames is the number of taskflow slots. Defaults to
	// BackBufferCount when zero.
	InFlightFrames int
	// TrackingMode is not read by the engine or the graph; a render
	// node's tracking is chosen by the tracking argument of
	// graph.Graph.AddRenderNode.
	TrackingMode TrackingMode
	// ValidationLayers is a list of validation layer names for device
	// creation. Nothing in this module reads it or passes it to device
	// setup.
	ValidationLayers []string
}

// EffectiveInFlightFrames resolves InFlightFrames, defaulting to
// BackBufferCount when unset.
func (c EngineConfig) EffectiveInFlightFrames() int {
	if c.InFlightFrames > 0 {
		return c.InFlightFrames
	}
	return c.BackBufferCount
}
