package fusion

import (
	"image"

	"github.com/golang/geo/r3"

	"github.com/viam-labs/lidar-camera-fusion/camera"
	"github.com/viam-labs/lidar-camera-fusion/detection"
	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
)

// boxAccumulator is the running aggregate for one bounding box: coordinate
// sums, a match count, and the matched point subset. One arena of these is
// allocated per frame, indexed by box position, and discarded at frame end.
type boxAccumulator struct {
	sumX, sumY, sumZ float64
	count            int
	points           *pointcloud.PointCloud
}

func newAccumulators(n int) []boxAccumulator {
	accs := make([]boxAccumulator, n)
	for i := range accs {
		accs[i].points = pointcloud.New()
	}
	return accs
}

func (acc *boxAccumulator) add(p r3.Vector) {
	acc.sumX += p.X
	acc.sumY += p.Y
	acc.sumZ += p.Z
	acc.count++
	acc.points.Append(p)
}

// centroid divides once at finalization rather than averaging incrementally.
// Callers must check count > 0 first.
func (acc *boxAccumulator) centroid() r3.Vector {
	n := float64(acc.count)
	return r3.Vector{X: acc.sumX / n, Y: acc.sumY / n, Z: acc.sumZ / n}
}

// associatePoints runs the many-to-many join between projected points and
// boxes: every point feeds the accumulator of every box it falls inside.
// Matched pixels are recorded once per match, in join order, for the overlay
// collaborator. O(P*B); a 2D interval index over boxes would not change the
// observable results if counts ever warrant it.
func associatePoints(
	projected []camera.ProjectedPoint,
	boxes []detection.BoundingBox,
	accs []boxAccumulator,
) []image.Point {
	var matched []image.Point
	for _, pt := range projected {
		for i, bb := range boxes {
			if bb.Contains(pt.U, pt.V) {
				accs[i].add(pt.Point)
				matched = append(matched, image.Point{X: pt.U, Y: pt.V})
			}
		}
	}
	return matched
}
