// Package graph implements the Render-Graph Model (spec.md §4.I): typed
// nodes and typed links held in a graph-owned arena addressed by typed
// indices, with a staged-mutation protocol so a builder can edit a graph
// referenced by a running execution without tearing live state.
//
// Grounded on the teacher's hal/registry.go RWMutex-guarded map-of-handles
// pattern, generalized to a live/staging split: readers take a shared
// lock over the live arena, ApplyChanges takes a write lock and drains
// the staging queue in the fixed order spec.md §4.I prescribes.
package graph

import (
	"fmt"
	"sync"

	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/internal/telemetry"
	"github.com/gogpu/rendergraph/job"
	"github.com/gogpu/rendergraph/submit"
	syncpkg "github.com/gogpu/rendergraph/sync"
)

var topic = telemetry.NewTopic("graph")

// Visitor is called once per live node by Accept. Returning an error
// stops the traversal and is returned to the Accept caller.
type Visitor func(*Node) error

type addEdgeCmd struct {
	fromName string
	toName   string
	link     *Link
}

// Graph holds a live render-graph representation plus a staging area of
// pending edits. AddNode/AddEdge/RemoveNode/RemoveEdge validate against
// the live graph and prior staged edits immediately (graph-construction
// errors are fatal at the builder call, spec.md §7 class 2) but do not
// mutate the live arena until ApplyChanges runs.
type Graph struct {
	mu sync.RWMutex

	name  string
	nodes map[NodeIndex]*Node
	links map[LinkIndex]*Link

	nameToNode map[string]NodeIndex
	nameToLink map[string]LinkIndex

	nextNodeIndex NodeIndex
	nextLinkIndex LinkIndex
	linkCounter   int

	stagingMu   sync.Mutex
	addNodes    []*Node
	addEdges    []addEdgeCmd
	removeNodes []string
	removeEdges []string

	stagedAddedNodeNames   map[string]bool
	stagedRemovedNodeNames map[string]bool
	stagedAddedLinkNames   map[string]bool
	stagedRemovedLinkNames map[string]bool
}

// New creates an empty Graph with the given name.
func New(name string) *Graph {
	return &Graph{
		name:       name,
		nodes:      make(map[NodeIndex]*Node),
		links:      make(map[LinkIndex]*Link),
		nameToNode: make(map[string]NodeIndex),
		nameToLink: make(map[string]LinkIndex),

		stagedAddedNodeNames:   make(map[string]bool),
		stagedRemovedNodeNames: make(map[string]bool),
		stagedAddedLinkNames:   make(map[string]bool),
		stagedRemovedLinkNames: make(map[string]bool),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// nodeWillExist reports whether name refers to a node that exists in the
// live graph or has a pending add, net of any pending removal. Caller
// must hold stagingMu and at least a read lock on mu.
func (g *Graph) nodeWillExist(name string) bool {
	if g.stagedRemovedNodeNames[name] {
		return g.stagedAddedNodeNames[name]
	}
	if _, ok := g.nameToNode[name]; ok {
		return true
	}
	return g.stagedAddedNodeNames[name]
}

func (g *Graph) addNode(n *Node) error {
	g.stagingMu.Lock()
	defer g.stagingMu.Unlock()
	g.mu.RLock()
	exists := g.nodeWillExist(n.name)
	g.mu.RUnlock()
	if exists {
		return fmt.Errorf("graph: duplicate node name %q", n.name)
	}
	g.stagedAddedNodeNames[n.name] = true
	delete(g.stagedRemovedNodeNames, n.name)
	g.addNodes = append(g.addNodes, n)
	return nil
}

// AddRenderNode stages a Render node. Render nodes always carry a
// submit tracker when tracking is true (spec.md §3: "A Render node
// optionally carries a per-node submit tracker when 'tracking' is
// enabled").
func (g *Graph) AddRenderNode(name string, ctx command.Context, task job.Fn, tracking bool) error {
	n := &Node{name: name, kind: Render, ctx: ctx, hasCtx: ctx != nil}
	if tracking {
		n.j = job.NewTracked(name, task)
	} else {
		n.j = job.New(name, task)
	}
	return g.addNode(n)
}

// AddTransferNode stages a Transfer node. Transfer nodes always track
// their submission (spec.md §4.K step 3: Render, Transfer and Present
// nodes additionally queue-submit with a fence-backed tracker).
func (g *Graph) AddTransferNode(name string, ctx command.Context, task job.Fn) error {
	n := &Node{name: name, kind: Transfer, ctx: ctx, hasCtx: ctx != nil, j: job.NewTracked(name, task)}
	return g.addNode(n)
}

// AddComputeNode stages a Compute node wrapping task directly (spec.md
// §3: Compute/Cpu nodes carry "an embedded task").
func (g *Graph) AddComputeNode(name string, task job.Fn) error {
	n := &Node{name: name, kind: Compute, j: job.New(name, task)}
	return g.addNode(n)
}

// AddCpuNode stages a Cpu node wrapping task directly.
func (g *Graph) AddCpuNode(name string, task job.Fn) error {
	n := &Node{name: name, kind: Cpu, j: job.New(name, task)}
	return g.addNode(n)
}

// AddPresentNode stages a Present node. Present always tracks its
// submission, for the same reason as Transfer (spec.md §4.K step 3;
// §4.M: Present must read back the render-target index and verify prior
// GPU work completed).
func (g *Graph) AddPresentNode(name string, ctx command.Context, swapchain uintptr, task job.Fn) error {
	n := &Node{name: name, kind: Present, ctx: ctx, hasCtx: ctx != nil, swapchain: swapchain, j: job.NewTracked(name, task)}
	return g.addNode(n)
}

// AddEmptyNode stages an Empty node: a tagged placeholder carrying
// neither a context nor meaningful work, used where the graph shape
// needs a vertex without GPU or CPU behavior.
func (g *Graph) AddEmptyNode(name string) error {
	n := &Node{name: name, kind: Empty, j: job.New(name, func(*job.ExecutionContext, *syncpkg.Operations, *submit.Tracker) error { return nil })}
	return g.addNode(n)
}

// RemoveNode stages the removal of the named node. The node must exist
// (live or pending-add); all edges incident to it must be removed
// separately first, or ApplyChanges will drop them as dangling when it
// processes remove-nodes before add-nodes (spec.md §4.I order).
func (g *Graph) RemoveNode(name string) error {
	g.stagingMu.Lock()
	defer g.stagingMu.Unlock()
	g.mu.RLock()
	exists := g.nodeWillExist(name)
	g.mu.RUnlock()
	if !exists {
		return fmt.Errorf("graph: cannot remove unknown node %q", name)
	}
	g.stagedRemovedNodeNames[name] = true
	delete(g.stagedAddedNodeNames, name)
	g.removeNodes = append(g.removeNodes, name)
	return nil
}

func (g *Graph) addLink(from, to string, kind LinkType, primitives *syncpkg.Primitives) (*Builder, error) {
	g.stagingMu.Lock()
	defer g.stagingMu.Unlock()

	g.mu.RLock()
	fromOK := g.nodeWillExist(from)
	toOK := g.nodeWillExist(to)
	g.mu.RUnlock()
	if !fromOK || !toOK {
		return nil, fmt.Errorf("graph: edge %s->%s references a node that does not exist", from, to)
	}

	g.linkCounter++
	name := fmt.Sprintf("%s->%s#%d", from, to, g.linkCounter)
	link := &Link{name: name, kind: kind, sync: syncpkg.NewObject(primitives)}

	g.stagedAddedLinkNames[name] = true
	g.addEdges = append(g.addEdges, addEdgeCmd{fromName: from, toName: to, link: link})
	return &Builder{link: link}, nil
}

// AddCpuSyncLink stages an intra-frame CPU dependency from from to to,
// returning a Builder for configuring the link's owned sync.Object
// before ApplyChanges.
func (g *Graph) AddCpuSyncLink(from, to string, primitives *syncpkg.Primitives) (*Builder, error) {
	return g.addLink(from, to, CpuSync, primitives)
}

// AddCpuAsyncLink stages a cross-frame (pipelined) CPU dependency from
// from to to.
func (g *Graph) AddCpuAsyncLink(from, to string, primitives *syncpkg.Primitives) (*Builder, error) {
	return g.addLink(from, to, CpuAsync, primitives)
}

// RemoveEdge stages the removal of the named link (the name returned by
// Builder.Name when the link was added).
func (g *Graph) RemoveEdge(name string) error {
	g.stagingMu.Lock()
	defer g.stagingMu.Unlock()

	g.mu.RLock()
	_, liveOK := g.nameToLink[name]
	g.mu.RUnlock()
	if !liveOK && !g.stagedAddedLinkNames[name] {
		return fmt.Errorf("graph: cannot remove unknown edge %q", name)
	}
	g.stagedRemovedLinkNames[name] = true
	delete(g.stagedAddedLinkNames, name)
	g.removeEdges = append(g.removeEdges, name)
	return nil
}

// ApplyChanges drains the staging area under a write lock, in the fixed
// order spec.md §4.I prescribes: remove-edges, remove-nodes, add-nodes,
// add-edges. Calling ApplyChanges with an empty staging area is a no-op
// (spec.md §8 property 8: idempotent when staging is empty).
func (g *Graph) ApplyChanges() error {
	g.stagingMu.Lock()
	removeEdges := g.removeEdges
	removeNodes := g.removeNodes
	addNodes := g.addNodes
	addEdges := g.addEdges
	g.removeEdges = nil
	g.removeNodes = nil
	g.addNodes = nil
	g.addEdges = nil
	g.stagedAddedNodeNames = make(map[string]bool)
	g.stagedRemovedNodeNames = make(map[string]bool)
	g.stagedAddedLinkNames = make(map[string]bool)
	g.stagedRemovedLinkNames = make(map[string]bool)
	g.stagingMu.Unlock()

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, name := range removeEdges {
		g.removeLinkLocked(name)
	}
	for _, name := range removeNodes {
		g.removeNodeLocked(name)
	}
	for _, n := range addNodes {
		g.addNodeLocked(n)
	}
	for _, cmd := range addEdges {
		g.addEdgeLocked(cmd)
	}
	topic.Debug("applied graph changes", "graph", g.name, "nodes", len(g.nodes), "links", len(g.links))
	return nil
}

func (g *Graph) addNodeLocked(n *Node) {
	n.index = g.nextNodeIndex
	g.nextNodeIndex++
	g.nodes[n.index] = n
	g.nameToNode[n.name] = n.index
}

func (g *Graph) removeNodeLocked(name string) {
	idx, ok := g.nameToNode[name]
	if !ok {
		return
	}
	n := g.nodes[idx]
	for _, li := range append(append([]LinkIndex{}, n.in...), n.out...) {
		g.removeLinkIndexLocked(li)
	}
	delete(g.nodes, idx)
	delete(g.nameToNode, name)
}

func (g *Graph) addEdgeLocked(cmd addEdgeCmd) {
	fromIdx, fromOK := g.nameToNode[cmd.fromName]
	toIdx, toOK := g.nameToNode[cmd.toName]
	if !fromOK || !toOK {
		topic.Warn("dropping edge referencing a removed node", "edge", cmd.link.name)
		return
	}
	link := cmd.link
	link.from = fromIdx
	link.to = toIdx
	link.index = g.nextLinkIndex
	g.nextLinkIndex++
	g.links[link.index] = link
	g.nameToLink[link.name] = link.index

	g.nodes[fromIdx].out = append(g.nodes[fromIdx].out, link.index)
	g.nodes[toIdx].in = append(g.nodes[toIdx].in, link.index)
}

func (g *Graph) removeLinkLocked(name string) {
	idx, ok := g.nameToLink[name]
	if !ok {
		return
	}
	g.removeLinkIndexLocked(idx)
}

func (g *Graph) removeLinkIndexLocked(idx LinkIndex) {
	link, ok := g.links[idx]
	if !ok {
		return
	}
	if from, ok := g.nodes[link.from]; ok {
		from.out = removeLinkIndex(from.out, idx)
	}
	if to, ok := g.nodes[link.to]; ok {
		to.in = removeLinkIndex(to.in, idx)
	}
	delete(g.links, idx)
	delete(g.nameToLink, link.name)
}

func removeLinkIndex(s []LinkIndex, target LinkIndex) []LinkIndex {
	out := s[:0]
	for _, v := range s {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}

// FindNode returns the live node with the given name.
func (g *Graph) FindNode(name string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.nameToNode[name]
	if !ok {
		return nil, false
	}
	return g.nodes[idx], true
}

// FindEdgesTo returns every live link whose sink is the named node,
// optionally filtered by link type (pass anyType true to disable filtering).
func (g *Graph) FindEdgesTo(name string, filter LinkType, anyType bool) ([]*Link, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.nameToNode[name]
	if !ok {
		return nil, fmt.Errorf("graph: unknown node %q", name)
	}
	var out []*Link
	for _, li := range g.nodes[idx].in {
		l := g.links[li]
		if anyType || l.kind == filter {
			out = append(out, l)
		}
	}
	return out, nil
}

// FindEdgesFrom returns every live link whose source is the named node,
// optionally filtered by link type.
func (g *Graph) FindEdgesFrom(name string, filter LinkType, anyType bool) ([]*Link, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx, ok := g.nameToNode[name]
	if !ok {
		return nil, fmt.Errorf("graph: unknown node %q", name)
	}
	var out []*Link
	for _, li := range g.nodes[idx].out {
		l := g.links[li]
		if anyType || l.kind == filter {
			out = append(out, l)
		}
	}
	return out, nil
}

// FindPredecessors returns the immediate predecessor nodes of name,
// optionally filtered by link type.
func (g *Graph) FindPredecessors(name string, filter LinkType, anyType bool) ([]*Node, error) {
	edges, err := g.FindEdgesTo(name, filter, anyType)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Node
	for _, e := range edges {
		out = append(out, g.nodes[e.from])
	}
	return out, nil
}

// FindSuccessors returns the immediate successor nodes of name,
// optionally filtered by link type.
func (g *Graph) FindSuccessors(name string, filter LinkType, anyType bool) ([]*Node, error) {
	edges, err := g.FindEdgesFrom(name, filter, anyType)
	if err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Node
	for _, e := range edges {
		out = append(out, g.nodes[e.to])
	}
	return out, nil
}

// FindPredecessorsAll returns every transitive predecessor of name
// (breadth-first, no duplicates), optionally filtered by link type.
func (g *Graph) FindPredecessorsAll(name string, filter LinkType, anyType bool) ([]*Node, error) {
	return g.walkAll(name, filter, anyType, func(n *Node) []LinkIndex { return n.in }, func(l *Link) NodeIndex { return l.from })
}

// FindSuccessorsAll returns every transitive successor of name
// (breadth-first, no duplicates), optionally filtered by link type.
func (g *Graph) FindSuccessorsAll(name string, filter LinkType, anyType bool) ([]*Node, error) {
	return g.walkAll(name, filter, anyType, func(n *Node) []LinkIndex { return n.out }, func(l *Link) NodeIndex { return l.to })
}

func (g *Graph) walkAll(name string, filter LinkType, anyType bool, edgesOf func(*Node) []LinkIndex, otherEnd func(*Link) NodeIndex) ([]*Node, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	start, ok := g.nameToNode[name]
	if !ok {
		return nil, fmt.Errorf("graph: unknown node %q", name)
	}

	visited := map[NodeIndex]bool{start: true}
	queue := []NodeIndex{start}
	var out []*Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, li := range edgesOf(g.nodes[cur]) {
			l := g.links[li]
			if !anyType && l.kind != filter {
				continue
			}
			next := otherEnd(l)
			if visited[next] {
				continue
			}
			visited[next] = true
			out = append(out, g.nodes[next])
			queue = append(queue, next)
		}
	}
	return out, nil
}

// Links returns every live link, in no particular order.
func (g *Graph) Links() []*Link {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Link, 0, len(g.links))
	for _, l := range g.links {
		out = append(out, l)
	}
	return out
}

// Accept visits every live node in no particular order, stopping at the first
// error the visitor returns.
func (g *Graph) Accept(v Visitor) error {
	g.mu.RLock()
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	g.mu.RUnlock()

	for _, n := range nodes {
		if err := v(n); err != nil {
			return err
		}
	}
	return nil
}

// Reset detaches the graph's current live representation into a
// separate Graph value (returned as old), and reinitializes the
// receiver as an empty graph under newName (spec.md §6:
// "reset(new_name) → old_graph"). Any pending staged edits are
// discarded, not replayed onto either graph.
func (g *Graph) Reset(newName string) *Graph {
	g.mu.Lock()
	defer g.mu.Unlock()

	old := &Graph{
		name:       g.name,
		nodes:      g.nodes,
		links:      g.links,
		nameToNode: g.nameToNode,
		nameToLink: g.nameToLink,

		nextNodeIndex: g.nextNodeIndex,
		nextLinkIndex: g.nextLinkIndex,
		linkCounter:   g.linkCounter,

		stagedAddedNodeNames:   make(map[string]bool),
		stagedRemovedNodeNames: make(map[string]bool),
		stagedAddedLinkNames:   make(map[string]bool),
		stagedRemovedLinkNames: make(map[string]bool),
	}

	g.name = newName
	g.nodes = make(map[NodeIndex]*Node)
	g.links = make(map[LinkIndex]*Link)
	g.nameToNode = make(map[string]NodeIndex)
	g.nameToLink = make(map[string]LinkIndex)
	g.nextNodeIndex = 0
	g.nextLinkIndex = 0
	g.linkCounter = 0

	g.stagingMu.Lock()
	g.addNodes = nil
	g.addEdges = nil
	g.removeNodes = nil
	g.removeEdges = nil
	g.stagedAddedNodeNames = make(map[string]bool)
	g.stagedRemovedNodeNames = make(map[string]bool)
	g.stagedAddedLinkNames = make(map[string]bool)
	g.stagedRemovedLinkNames = make(map[string]bool)
	g.stagingMu.Unlock()

	return old
}
