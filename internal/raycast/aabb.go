package raycast

import "math"

// AABB is an axis-aligned bounding box. A valid box has Min <= Max
// component-wise; EmptyAABB uses +Inf/-Inf so that Union with any box
// yields that box unchanged.
type AABB struct {
	Min, Max Vec3
}

// EmptyAABB returns the box that is the identity element for Union.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{Min: Vec3{inf, inf, inf}, Max: Vec3{-inf, -inf, -inf}}
}

// Union returns the smallest box enclosing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{Min: vmin(a.Min, b.Min), Max: vmax(a.Max, b.Max)}
}

// Expand grows a to also enclose p.
func (a AABB) Expand(p Vec3) AABB {
	return AABB{Min: vmin(a.Min, p), Max: vmax(a.Max, p)}
}

// Centroid returns the component-wise mean of Min and Max.
func (a AABB) Centroid() Vec3 {
	return a.Min.Add(a.Max).Scale(0.5)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) along which a has the
// greatest extent.
func (a AABB) LongestAxis() int {
	extent := a.Max.Sub(a.Min)
	axis := 0
	best := extent.X
	if extent.Y > best {
		axis, best = 1, extent.Y
	}
	if extent.Z > best {
		axis = 2
	}
	return axis
}

// rayInvDir holds the reciprocal ray direction components used by the
// slab test, with a parallel flag per axis so that a zero direction
// component (which would otherwise yield a NaN from 0*Inf) is handled
// as a direct containment check on that axis rather than IEEE-754 NaN
// propagation.
type rayInvDir struct {
	invX, invY, invZ float32
	parX, parY, parZ bool
}

func computeRayInvDir(d Vec3) rayInvDir {
	rd := rayInvDir{}
	if d.X != 0 {
		rd.invX = 1 / d.X
	} else {
		rd.parX = true
	}
	if d.Y != 0 {
		rd.invY = 1 / d.Y
	} else {
		rd.parY = true
	}
	if d.Z != 0 {
		rd.invZ = 1 / d.Z
	} else {
		rd.parZ = true
	}
	return rd
}

// slabTest performs the standard ray/AABB slab test against a, returning
// the earliest non-negative entry distance tEnter and whether the ray
// intersects a within [0, tMax].
func slabTest(origin Vec3, a AABB, rd rayInvDir, tMax float32) (hit bool, tEnter float32) {
	tMin, tMaxBound := float32(0), tMax

	if !rd.parX {
		t1 := (a.Min.X - origin.X) * rd.invX
		t2 := (a.Max.X - origin.X) * rd.invX
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = maxF(tMin, t1)
		tMaxBound = minF(tMaxBound, t2)
	} else if origin.X < a.Min.X || origin.X > a.Max.X {
		return false, 0
	}

	if !rd.parY {
		t1 := (a.Min.Y - origin.Y) * rd.invY
		t2 := (a.Max.Y - origin.Y) * rd.invY
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = maxF(tMin, t1)
		tMaxBound = minF(tMaxBound, t2)
	} else if origin.Y < a.Min.Y || origin.Y > a.Max.Y {
		return false, 0
	}

	if !rd.parZ {
		t1 := (a.Min.Z - origin.Z) * rd.invZ
		t2 := (a.Max.Z - origin.Z) * rd.invZ
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = maxF(tMin, t1)
		tMaxBound = minF(tMaxBound, t2)
	} else if origin.Z < a.Min.Z || origin.Z > a.Max.Z {
		return false, 0
	}

	if tMin > tMaxBound {
		return false, 0
	}
	return true, tMin
}
