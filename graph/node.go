package graph

import (
	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/job"
)

// NodeIndex addresses a Node within a Graph's arena. It is stable across
// the node's lifetime but must not be assumed contiguous or reusable
// once a node is removed.
type NodeIndex int

// Kind tags which of the six node variants a Node is. Per spec.md §9
// DESIGN NOTES, variants are modeled as a tagged enum rather than a
// class hierarchy: callers switch on Kind instead of relying on
// interface dispatch.
type Kind int

const (
	Render Kind = iota
	Transfer
	Compute
	Cpu
	Present
	Empty
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Transfer:
		return "transfer"
	case Compute:
		return "compute"
	case Cpu:
		return "cpu"
	case Present:
		return "present"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// Node is a single render-graph vertex. Render, Transfer and Present
// nodes hold a reference to a command.Context; Compute and Cpu nodes
// embed their task directly. Every node carries a job.Job that the
// taskflow builder (component K) invokes once its incoming/outgoing
// sync operations have been resolved; for Empty nodes this is a no-op.
type Node struct {
	index NodeIndex
	name  string
	kind  Kind

	j *job.Job

	ctx       command.Context
	hasCtx    bool
	swapchain uintptr

	in  []LinkIndex
	out []LinkIndex
}

// Index returns the node's stable arena index.
func (n *Node) Index() NodeIndex { return n.index }

// Name returns the node's unique-within-graph name.
func (n *Node) Name() string { return n.name }

// Kind returns the node's tagged variant.
func (n *Node) Kind() Kind { return n.kind }

// Job returns the job.Job the taskflow builder should execute for this
// node.
func (n *Node) Job() *job.Job { return n.j }

// Context returns the command.Context a Render, Transfer or Present node
// submits through, and whether one is present.
func (n *Node) Context() (command.Context, bool) { return n.ctx, n.hasCtx }

// Swapchain returns the swapchain handle a Present node was built with.
func (n *Node) Swapchain() uintptr { return n.swapchain }

// InLinks returns the indices of links whose sink is this node.
func (n *Node) InLinks() []LinkIndex { return n.in }

// OutLinks returns the indices of links whose source is this node.
func (n *Node) OutLinks() []LinkIndex { return n.out }
