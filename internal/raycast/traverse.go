package raycast

// Intersection epsilons for the Möller–Trumbore test. A candidate hit
// must have t > epsT; barycentric coordinates are accepted down to -epsB
// so rays grazing a shared edge are not dropped by both triangles; a
// determinant below epsDet marks the ray as near-parallel to the triangle
// plane and the triangle is skipped (this also rejects degenerate
// triangles, whose edge cross products vanish).
const (
	epsT   = 1e-6
	epsB   = 1e-6
	epsDet = 1e-8
)

// Hit is the result of a successful closest-hit ray query.
type Hit struct {
	// T is the parametric distance from the ray origin to the hit point.
	T float32
	// Triangle is the index of the hit triangle in the store's original
	// triangle order (not the BVH permutation).
	Triangle int
	// Point is the world-space intersection point origin + T*direction.
	Point Vec3
}

// CastRay performs a closest-hit query against the BVH: it returns the
// intersection with the smallest t in (epsT, tMax], or ok=false when no
// triangle intersects the ray within that interval. direction is expected
// to be unit length for t to be a metric distance; a non-unit direction
// scales t accordingly but is otherwise handled.
//
// Ties between triangles with equal t (for example two triangles sharing
// a hit edge) resolve to the triangle earliest in the BVH permutation.
func (b *BVH) CastRay(origin, direction Vec3, tMax float32) (Hit, bool) {
	rd := computeRayInvDir(direction)

	bestT := tMax
	bestPermPos := -1
	bestTri := -1

	type stackEntry struct {
		node   int
		tEnter float32
	}

	rootHit, rootEnter := slabTest(origin, b.nodes[0].box, rd, bestT)
	if !rootHit {
		return Hit{}, false
	}
	stack := make([]stackEntry, 1, 64)
	stack[0] = stackEntry{node: 0, tEnter: rootEnter}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if bestTri >= 0 && top.tEnter >= bestT {
			continue
		}

		node := &b.nodes[top.node]
		if node.leaf {
			for pos := node.begin; pos < node.end; pos++ {
				tri := b.permutation[pos]
				t, ok := b.intersectTriangle(origin, direction, tri)
				if !ok || t > bestT {
					continue
				}
				if bestTri >= 0 && t == bestT && pos >= bestPermPos {
					continue
				}
				bestT = t
				bestTri = tri
				bestPermPos = pos
			}
			continue
		}

		leftHit, leftEnter := slabTest(origin, b.nodes[node.left].box, rd, bestT)
		rightHit, rightEnter := slabTest(origin, b.nodes[node.right].box, rd, bestT)

		switch {
		case leftHit && rightHit:
			// Descend into the nearer child first; the farther child is
			// pushed below it and pruned on pop if a closer hit lands.
			near, nearEnter := node.left, leftEnter
			far, farEnter := node.right, rightEnter
			if rightEnter < leftEnter {
				near, nearEnter, far, farEnter = far, farEnter, near, nearEnter
			}
			stack = append(stack,
				stackEntry{node: far, tEnter: farEnter},
				stackEntry{node: near, tEnter: nearEnter},
			)
		case leftHit:
			stack = append(stack, stackEntry{node: node.left, tEnter: leftEnter})
		case rightHit:
			stack = append(stack, stackEntry{node: node.right, tEnter: rightEnter})
		}
	}

	if bestTri < 0 {
		return Hit{}, false
	}
	return Hit{
		T:        bestT,
		Triangle: bestTri,
		Point:    origin.Add(direction.Scale(bestT)),
	}, true
}

// intersectTriangle runs the double-sided Möller–Trumbore test between the
// ray and triangle i, returning the parametric hit distance. A hit is
// reported regardless of facing; the caller applies the tMax bound.
func (b *BVH) intersectTriangle(origin, direction Vec3, i int) (float32, bool) {
	v0, v1, v2 := b.store.Positions(i)
	e1 := v1.Sub(v0)
	e2 := v2.Sub(v0)

	p := direction.Cross(e2)
	det := e1.Dot(p)
	if det > -epsDet && det < epsDet {
		return 0, false
	}
	invDet := 1 / det

	s := origin.Sub(v0)
	u := s.Dot(p) * invDet
	if u < -epsB {
		return 0, false
	}

	q := s.Cross(e1)
	v := direction.Dot(q) * invDet
	if v < -epsB || u+v > 1+epsB {
		return 0, false
	}

	t := e2.Dot(q) * invDet
	if t <= epsT {
		return 0, false
	}
	return t, true
}
