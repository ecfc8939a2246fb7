package pointcloud

import (
	"github.com/golang/geo/r3"

	"github.com/viam-labs/lidar-camera-fusion/spatialmath"
)

// ApplyRigidTransform maps every point of the cloud through tf, returning a
// new cloud in the target frame. Order and cardinality match the input.
func ApplyRigidTransform(cloud *PointCloud, tf *spatialmath.RigidTransform) *PointCloud {
	transformed := NewWithPrealloc(cloud.Size())
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		transformed.Append(tf.Apply(p))
		return true
	})
	return transformed
}
