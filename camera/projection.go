package camera

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
)

// ProjectedPoint is a camera-frame point that landed on the sensor. U and V
// are the integer pixel coordinates; Point is the camera-frame position with
// Z > 0 always; SourceIndex back-references the point in the raw, unfiltered
// scan it came from.
type ProjectedPoint struct {
	U, V        int
	Point       r3.Vector
	SourceIndex int
}

// ProjectPoints projects camera-frame points to integer pixel coordinates
// with the pinhole model. indices carries the provenance index of each point
// in cloud; pass nil when the cloud order is its own provenance. A point is
// dropped, not projected, when it sits behind or on the camera plane
// (z <= 0) or when its pixel falls outside [0,width) x [0,height). Output
// order matches the order of surviving input.
func ProjectPoints(
	cloud *pointcloud.PointCloud,
	indices []int,
	params *PinholeCameraIntrinsics,
) ([]ProjectedPoint, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if indices != nil && len(indices) != cloud.Size() {
		return nil, errors.Errorf("have %d provenance indices for %d points", len(indices), cloud.Size())
	}
	projected := make([]ProjectedPoint, 0, cloud.Size())
	cloud.Iterate(func(i int, p r3.Vector) bool {
		if p.Z <= 0 {
			return true
		}
		// truncation toward zero, not rounding
		u := int((p.X/p.Z)*params.Fx + params.Ppx)
		v := int((p.Y/p.Z)*params.Fy + params.Ppy)
		if u < 0 || u >= params.Width || v < 0 || v >= params.Height {
			return true
		}
		src := i
		if indices != nil {
			src = indices[i]
		}
		projected = append(projected, ProjectedPoint{U: u, V: v, Point: p, SourceIndex: src})
		return true
	})
	return projected, nil
}
