package splaymap

// Node is the allocation carrying one value inside a [MultiMap]. The
// node-level API exists so a record can move between two multimaps
// without being reallocated: [MultiMap.PopMinNode] detaches the
// allocation and [MultiMap.InsertNode] links the same allocation into
// another (or the same) multimap.
//
// A detached Node is owned by the caller; its key and value stay
// readable. Re-inserting a Node that is still linked into a multimap
// corrupts both containers.
type Node[K comparable, V any] mmNode[K, V]

// NewNode returns a detached node, ready for [MultiMap.InsertNode].
func NewNode[K comparable, V any](key K, val V) *Node[K, V] {
	return &Node[K, V]{key: key, val: val}
}

// Key returns the node's key.
func (n *Node[K, V]) Key() K { return n.key }

// Value returns the node's value.
func (n *Node[K, V]) Value() V { return n.val }

// SetValue replaces the node's value. The key cannot be changed: a
// linked node's key determines its position.
func (n *Node[K, V]) SetValue(v V) { n.val = v }

// PopMinNode is [MultiMap.PopMin], but hands back the detached
// allocation instead of copying the value out.
func (m *MultiMap[K, V]) PopMinNode() (*Node[K, V], bool) {
	if m.root == nil {
		return nil, false
	}
	m.root = mmSplayMin(m.root)
	return (*Node[K, V])(m.evictNode(m.root)), true
}

// PopMaxNode is [MultiMap.PopMax], but hands back the detached
// allocation instead of copying the value out.
func (m *MultiMap[K, V]) PopMaxNode() (*Node[K, V], bool) {
	if m.root == nil {
		return nil, false
	}
	m.root = mmSplayMax(m.root)
	return (*Node[K, V])(m.evictNode(m.root)), true
}

// InsertNode links a detached node into m, reusing its allocation. The
// node becomes the newest duplicate if its key is already present.
func (m *MultiMap[K, V]) InsertNode(n *Node[K, V]) {
	inner := (*mmNode[K, V])(n)
	inner.left, inner.right, inner.parent = nil, nil, nil
	inner.prev, inner.next = nil, nil
	m.insertNode(inner)
}
