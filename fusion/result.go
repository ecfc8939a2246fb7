package fusion

import (
	"image"
	"time"

	"github.com/golang/geo/r3"

	"github.com/viam-labs/lidar-camera-fusion/detection"
	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
	"github.com/viam-labs/lidar-camera-fusion/spatialmath"
)

// Object is one fused detection: the detection's identifier, the centroid of
// the range points matched to its box, and that point subset, all in the
// camera frame.
type Object struct {
	ID       int
	Centroid r3.Vector
	Cloud    *pointcloud.PointCloud
}

// Result is the output of one fused frame. Poses and Objects hold one entry
// per box with at least one matched point; boxes that matched nothing are
// absent rather than zeroed. MatchedPixels lists every (u,v) that fed any
// box, for the overlay collaborator.
type Result struct {
	Frame     string
	Timestamp time.Time

	Poses         []spatialmath.Pose
	Objects       []*Object
	MatchedPixels []image.Point
}

// finalizeResult turns the per-box accumulators into the frame's output.
// Centroid poses carry the identity orientation.
func finalizeResult(boxes []detection.BoundingBox, accs []boxAccumulator) ([]spatialmath.Pose, []*Object) {
	poses := make([]spatialmath.Pose, 0, len(boxes))
	objects := make([]*Object, 0, len(boxes))
	for i, bb := range boxes {
		acc := &accs[i]
		if acc.count == 0 {
			continue
		}
		centroid := acc.centroid()
		poses = append(poses, spatialmath.NewPoseFromPoint(centroid))
		objects = append(objects, &Object{ID: bb.ID, Centroid: centroid, Cloud: acc.points})
	}
	return poses, objects
}
