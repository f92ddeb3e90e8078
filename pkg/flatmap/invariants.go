package flatmap

import "fmt"

// CheckInvariants walks the whole tree and reports the first violation of
// either the WAVL rank rules or the inorder-key invariant it finds. It is
// a test helper, not part of the map's steady-state API: production code
// never needs to call it, since the operations above are the only things
// that can mutate the tree and each of them preserves these invariants.
func (m *Map[K, V]) CheckInvariants() (bool, error) {
	n, err := m.checkSubtree(m.root)
	if err != nil {
		return false, err
	}
	if n != m.count {
		return false, fmt.Errorf("flatmap: counted %d live nodes, Len() reports %d", n, m.count)
	}

	var prev *K
	var prevHad bool
	for k := range m.All() {
		if prevHad && m.cmp(*prev, k) >= 0 {
			return false, fmt.Errorf("flatmap: inorder walk is not strictly increasing at key %v", k)
		}
		kk := k
		prev = &kk
		prevHad = true
	}
	return true, nil
}

// checkSubtree verifies the rank invariant for the subtree rooted at i
// and returns the number of real nodes in it.
func (m *Map[K, V]) checkSubtree(i int) (int, error) {
	if i == sentinelIdx {
		return 0, nil
	}
	n := m.at(i)

	if n.left == sentinelIdx && n.right == sentinelIdx && n.rank != 0 {
		return 0, fmt.Errorf("flatmap: leaf at index %d has rank %d, want 0", i, n.rank)
	}

	for _, c := range [2]int{n.left, n.right} {
		diff := int(n.rank) - int(m.rankOf(c))
		if diff != 1 && diff != 2 {
			return 0, fmt.Errorf("flatmap: node at index %d has rank diff %d to child at index %d, want 1 or 2", i, diff, c)
		}
		childParent := m.at(c).parent
		if c != sentinelIdx && childParent != i {
			return 0, fmt.Errorf("flatmap: node at index %d's child at index %d has parent %d, want %d", i, c, childParent, i)
		}
	}

	left, err := m.checkSubtree(n.left)
	if err != nil {
		return 0, err
	}
	right, err := m.checkSubtree(n.right)
	if err != nil {
		return 0, err
	}
	return left + right + 1, nil
}

// Height returns the number of nodes on the longest path from the root
// to a leaf. An empty map has height 0 and a single node height 1.
func (m *Map[K, V]) Height() int {
	return m.heightOf(m.root)
}

func (m *Map[K, V]) heightOf(i int) int {
	if i == sentinelIdx {
		return 0
	}
	n := m.at(i)
	l := m.heightOf(n.left)
	r := m.heightOf(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}
