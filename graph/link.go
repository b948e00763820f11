package graph

import (
	syncpkg "github.com/gogpu/rendergraph/sync"
)

// LinkIndex addresses a Link within a Graph's arena.
type LinkIndex int

// LinkType distinguishes an intra-frame CPU dependency from a
// cross-frame (pipelined) one (spec.md §3, GLOSSARY).
type LinkType int

const (
	// CpuSync means the sink task depends on the source task within the
	// same frame: the consumer waits in-graph for the producer's signal
	// every frame.
	CpuSync LinkType = iota
	// CpuAsync means the sink task depends on the previous slot's source
	// task: the consumer waits for the previous frame's signal, enabling
	// pipelining across in-flight slots.
	CpuAsync
)

func (t LinkType) String() string {
	if t == CpuAsync {
		return "cpu-async"
	}
	return "cpu-sync"
}

// Link is a directed edge between two nodes, owning a sync.Object for
// its own lifetime (spec.md §3: "A link owns its SyncObject for its own
// lifetime").
type Link struct {
	index LinkIndex
	name  string
	from  NodeIndex
	to    NodeIndex
	kind  LinkType
	sync  *syncpkg.Object
}

// Index returns the link's stable arena index.
func (l *Link) Index() LinkIndex { return l.index }

// Name returns the link's unique-within-graph name.
func (l *Link) Name() string { return l.name }

// From returns the source node's index.
func (l *Link) From() NodeIndex { return l.from }

// To returns the sink node's index.
func (l *Link) To() NodeIndex { return l.to }

// Type returns whether the link is CpuSync or CpuAsync.
func (l *Link) Type() LinkType { return l.kind }

// Sync returns the sync.Object this link owns.
func (l *Link) Sync() *syncpkg.Object { return l.sync }

// Builder is returned by AddCpuSyncLink/AddCpuAsyncLink so a caller can
// reach into the link's owned sync.Object to register its operation
// groups before the link is made live by ApplyChanges.
type Builder struct {
	link *Link
}

// Sync returns the link's owned sync.Object, for registering Internal/
// External wait or signal entries before ApplyChanges.
func (b *Builder) Sync() *syncpkg.Object { return b.link.sync }

// Name returns the link's name.
func (b *Builder) Name() string { return b.link.name }
