// Package pointcloud defines an ordered container of 3D range points and the
// per-frame filtering and transform stages that run over it.
//
// Unlike a map-backed cloud, point order is significant here: every stage
// returns a new cloud whose order matches its input, so an index into a
// stage's output can be traced back through the stages to the raw scan.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what is stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// PointCloud is an ordered sequence of 3D points. Clouds are built once by a
// pipeline stage and treated as read-only afterwards.
type PointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// NewMetaData creates a new MetaData.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
		MinZ: math.Inf(1), MaxZ: math.Inf(-1),
	}
}

// Merge updates the meta data with the new point.
func (meta *MetaData) Merge(p r3.Vector) {
	if p.X > meta.MaxX {
		meta.MaxX = p.X
	}
	if p.Y > meta.MaxY {
		meta.MaxY = p.Y
	}
	if p.Z > meta.MaxZ {
		meta.MaxZ = p.Z
	}
	if p.X < meta.MinX {
		meta.MinX = p.X
	}
	if p.Y < meta.MinY {
		meta.MinY = p.Y
	}
	if p.Z < meta.MinZ {
		meta.MinZ = p.Z
	}
}

// New returns an empty PointCloud.
func New() *PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty PointCloud with preallocated capacity.
func NewWithPrealloc(size int) *PointCloud {
	return &PointCloud{points: make([]r3.Vector, 0, size), meta: NewMetaData()}
}

// NewFromPoints returns a PointCloud holding the given points in order.
func NewFromPoints(points []r3.Vector) *PointCloud {
	cloud := NewWithPrealloc(len(points))
	for _, p := range points {
		cloud.Append(p)
	}
	return cloud
}

// Size returns the number of points in the cloud.
func (cloud *PointCloud) Size() int {
	return len(cloud.points)
}

// MetaData returns the meta data.
func (cloud *PointCloud) MetaData() MetaData {
	return cloud.meta
}

// Append adds a point to the end of the cloud.
func (cloud *PointCloud) Append(p r3.Vector) {
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
}

// At returns the point at the given index.
func (cloud *PointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

// Iterate calls the given function for each point in order. If the function
// returns false, iteration stops.
func (cloud *PointCloud) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if !fn(i, p) {
			return
		}
	}
}
