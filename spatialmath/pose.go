package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a position in 3D space together with an orientation, expressed as
// a unit quaternion.
type Pose struct {
	point       r3.Vector
	orientation quat.Number
}

// NewZeroPose returns a pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint takes a cartesian 3D point and stores it in a pose with
// the identity orientation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{point: point, orientation: quat.Number{Real: 1}}
}

// Point returns the position of the pose.
func (p Pose) Point() r3.Vector {
	return p.point
}

// Orientation returns the orientation quaternion of the pose.
func (p Pose) Orientation() quat.Number {
	return p.orientation
}

// PoseAlmostEqual reports whether two poses agree within epsilon on both
// position and orientation.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	if !R3VectorAlmostEqual(a.point, b.point, epsilon) {
		return false
	}
	diff := quat.Mul(a.orientation, quat.Conj(b.orientation))
	return math.Abs(diff.Real-1) <= epsilon &&
		math.Abs(diff.Imag) <= epsilon &&
		math.Abs(diff.Jmag) <= epsilon &&
		math.Abs(diff.Kmag) <= epsilon
}

// R3VectorAlmostEqual compares two r3 vectors component-wise within epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) <= epsilon &&
		math.Abs(a.Y-b.Y) <= epsilon &&
		math.Abs(a.Z-b.Z) <= epsilon
}
