package spatialmath

import (
	"github.com/golang/geo/r3"
)

// RigidTransform is a distance and angle preserving mapping from one named
// reference frame to another, expressed as a rotation followed by a
// translation. It is only meaningful at or near the timestamp it was
// resolved for; callers should not cache one across frames.
type RigidTransform struct {
	rotation    *RotationMatrix
	translation r3.Vector
}

// NewRigidTransform creates a rigid transform from a rotation and a translation.
func NewRigidTransform(rotation *RotationMatrix, translation r3.Vector) *RigidTransform {
	if rotation == nil {
		rotation = NewZeroRotationMatrix()
	}
	return &RigidTransform{rotation: rotation, translation: translation}
}

// NewZeroRigidTransform returns the identity transform.
func NewZeroRigidTransform() *RigidTransform {
	return &RigidTransform{rotation: NewZeroRotationMatrix()}
}

// Rotation returns the rotation component.
func (tf *RigidTransform) Rotation() *RotationMatrix {
	return tf.rotation
}

// Translation returns the translation component.
func (tf *RigidTransform) Translation() r3.Vector {
	return tf.translation
}

// Apply maps a source frame point into the target frame, R*p + t.
func (tf *RigidTransform) Apply(p r3.Vector) r3.Vector {
	return tf.rotation.Mul(p).Add(tf.translation)
}

// Invert returns the transform mapping target frame points back to the
// source frame.
func (tf *RigidTransform) Invert() *RigidTransform {
	rInv := tf.rotation.Transpose()
	return &RigidTransform{
		rotation:    rInv,
		translation: rInv.Mul(tf.translation).Mul(-1),
	}
}

// Compose returns the transform equivalent to applying other first and then tf.
func (tf *RigidTransform) Compose(other *RigidTransform) *RigidTransform {
	m := tf.rotation
	o := other.rotation
	composed := [9]float64{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			composed[3*r+c] = m.At(r, 0)*o.At(0, c) + m.At(r, 1)*o.At(1, c) + m.At(r, 2)*o.At(2, c)
		}
	}
	return &RigidTransform{
		rotation:    &RotationMatrix{composed},
		translation: m.Mul(other.translation).Add(tf.translation),
	}
}
