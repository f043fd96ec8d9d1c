package raycast

// Quaternion is a rotation represented as (x, y, z, w). The identity
// rotation is IdentityQuaternion. Non-unit quaternions are not normalised
// by this package — callers are responsible for supplying
// a unit quaternion; a non-unit input produces non-unit rays rather than
// an error (see Sensor/ray generator contract).
type Quaternion struct {
	X, Y, Z, W float32
}

// IdentityQuaternion is the identity rotation.
var IdentityQuaternion = Quaternion{X: 0, Y: 0, Z: 0, W: 1}

// Rotate rotates v by q using v' = v + 2w(q×v) + 2(q×(q×v)), the standard
// quaternion-vector rotation formula. q is read directly as its own
// imaginary part for the cross products below; no normalisation occurs.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	qv := Vec3{q.X, q.Y, q.Z}
	t := qv.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(qv.Cross(t))
}

func isFiniteQuaternion(q Quaternion) bool {
	return isFiniteF32(q.X) && isFiniteF32(q.Y) && isFiniteF32(q.Z) && isFiniteF32(q.W)
}
