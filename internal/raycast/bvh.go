package raycast

// LeafThreshold is the maximum number of triangles a BVH leaf may hold
// before the builder is forced to split further.
const LeafThreshold = 4

// bvhNode is a flat, depth-first-ordered BVH node. A node with
// left == right == 0 and begin < end is a leaf; by construction every
// internal node has end <= begin (left/right are meaningful instead).
// Leaves reference triangles through a permutation rather than directly,
// so the source triangle arrays are never reordered.
type bvhNode struct {
	box         AABB
	begin, end  int // leaf triangle range [begin, end) into the permutation; begin==end for internal nodes
	left, right int // indices into the node array; 0 for a leaf (root is never a child, so 0 is an unambiguous "none")
	leaf        bool
}

// BVH is a bounding volume hierarchy over a TriangleStore's triangles,
// stored as a flat depth-first node array with the root at index 0, plus
// the triangle-index permutation that the leaves reference.
type BVH struct {
	store       *TriangleStore
	nodes       []bvhNode
	permutation []int
}

// BuildBVH builds a BVH over every triangle in store using recursive
// top-down median-split on the longest centroid axis. An
// empty store produces a BVH with a single empty-range leaf at the root.
func BuildBVH(store *TriangleStore) *BVH {
	n := store.TriangleCount()
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	b := &BVH{store: store, permutation: perm}
	if n == 0 {
		b.nodes = []bvhNode{{box: EmptyAABB(), leaf: true}}
		return b
	}
	b.build(0, n)
	return b
}

// build recursively emits nodes in depth-first order over
// permutation[begin:end], returning the index of the node just emitted.
func (b *BVH) build(begin, end int) int {
	box := EmptyAABB()
	for i := begin; i < end; i++ {
		box = box.Union(b.store.Box(b.permutation[i]))
	}

	if end-begin <= LeafThreshold {
		return b.emitLeaf(box, begin, end)
	}

	centroidBox := EmptyAABB()
	for i := begin; i < end; i++ {
		centroidBox = centroidBox.Expand(b.store.Centroid(b.permutation[i]))
	}
	axis := centroidBox.LongestAxis()
	if centroidBox.Min.Component(axis) == centroidBox.Max.Component(axis) {
		// All centroids coincide on the chosen axis (and, since this is
		// the longest axis, on every axis): a median partition cannot
		// separate them, so emit a leaf regardless of size.
		return b.emitLeaf(box, begin, end)
	}

	mid := b.partitionByMedian(begin, end, axis)

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{box: box})

	left := b.build(begin, mid)
	right := b.build(mid, end)
	b.nodes[nodeIdx].left = left
	b.nodes[nodeIdx].right = right
	return nodeIdx
}

func (b *BVH) emitLeaf(box AABB, begin, end int) int {
	idx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{box: box, begin: begin, end: end, leaf: true})
	return idx
}

// partitionByMedian reorders permutation[begin:end] so that the first
// half has centroid[axis] <= the second half's, using a quickselect-style
// nth_element partition around the median index. Ties break by triangle
// index (stable under the partition below because ties are resolved by
// a secondary index comparison, not by position).
func (b *BVH) partitionByMedian(begin, end, axis int) int {
	mid := begin + (end-begin)/2
	seg := b.permutation[begin:end]

	key := func(tri int) float32 { return b.store.Centroid(tri).Component(axis) }
	less := func(a, c int) bool {
		ka, kc := key(a), key(c)
		if ka != kc {
			return ka < kc
		}
		return a < c
	}

	quickselect(seg, mid-begin, less)
	return mid
}

// quickselect reorders seg in-place so that seg[:k] are all <= seg[k:]
// under less (a strict total order over the triangle indices held in
// seg). Hoare partitioning around a middle pivot, iterating only into
// the side containing k, so the expected cost is linear rather than a
// full sort.
func quickselect(seg []int, k int, less func(a, c int) bool) {
	lo, hi := 0, len(seg)-1
	for lo < hi {
		pivot := seg[(lo+hi)/2]
		i, j := lo, hi
		for i <= j {
			for less(seg[i], pivot) {
				i++
			}
			for less(pivot, seg[j]) {
				j--
			}
			if i <= j {
				seg[i], seg[j] = seg[j], seg[i]
				i++
				j--
			}
		}
		if k <= j {
			hi = j
		} else if k >= i {
			lo = i
		} else {
			return
		}
	}
}
