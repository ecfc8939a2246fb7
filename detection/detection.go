// Package detection normalizes raw 2D object detections into axis-aligned
// bounding boxes with stable integer identifiers.
package detection

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// RawDetection is one record as delivered by the detector: a box center and
// size in pixel space and a string identifier.
type RawDetection struct {
	Center r2.Point
	Size   r2.Point
	ID     string
}

// BoundingBox is an axis-aligned box in pixel space with a parsed integer
// identifier. Boxes live for one frame; id equality across frames implies
// no identity or tracking.
type BoundingBox struct {
	XMin, YMin float64
	XMax, YMax float64
	ID         int
}

// NewBoundingBox computes the box corners from a center and size.
func NewBoundingBox(center, size r2.Point, id int) BoundingBox {
	return BoundingBox{
		XMin: center.X - size.X/2.,
		YMin: center.Y - size.Y/2.,
		XMax: center.X + size.X/2.,
		YMax: center.Y + size.Y/2.,
		ID:   id,
	}
}

// Contains reports whether the pixel lies within the box, inclusive on all
// four edges.
func (bb BoundingBox) Contains(u, v int) bool {
	uf, vf := float64(u), float64(v)
	return uf >= bb.XMin && uf <= bb.XMax && vf >= bb.YMin && vf <= bb.YMax
}

// Area returns the area of the box in square pixels.
func (bb BoundingBox) Area() float64 {
	return (bb.XMax - bb.XMin) * (bb.YMax - bb.YMin)
}

func (bb BoundingBox) String() string {
	return fmt.Sprintf("box %d [%v,%v]x[%v,%v]", bb.ID, bb.XMin, bb.XMax, bb.YMin, bb.YMax)
}
