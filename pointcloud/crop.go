package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// CropBox is an axis-aligned keep-box. Points on the boundary are kept.
type CropBox struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// CheckValid returns an error if any axis of the box is inverted.
func (box CropBox) CheckValid() error {
	if box.MinX > box.MaxX {
		return errors.Errorf("crop box x bounds inverted: min %v > max %v", box.MinX, box.MaxX)
	}
	if box.MinY > box.MaxY {
		return errors.Errorf("crop box y bounds inverted: min %v > max %v", box.MinY, box.MaxY)
	}
	if box.MinZ > box.MaxZ {
		return errors.Errorf("crop box z bounds inverted: min %v > max %v", box.MinZ, box.MaxZ)
	}
	return nil
}

// Contains reports whether the point lies inside the box, inclusive on all
// six faces.
func (box CropBox) Contains(p r3.Vector) bool {
	return p.X >= box.MinX && p.X <= box.MaxX &&
		p.Y >= box.MinY && p.Y <= box.MaxY &&
		p.Z >= box.MinZ && p.Z <= box.MaxZ
}

// Crop returns the subsequence of cloud inside the box, preserving relative
// order, along with the original index of each surviving point so results
// can be traced back to the unfiltered input.
func Crop(cloud *PointCloud, box CropBox) (*PointCloud, []int, error) {
	if err := box.CheckValid(); err != nil {
		return nil, nil, err
	}
	cropped := NewWithPrealloc(cloud.Size())
	indices := make([]int, 0, cloud.Size())
	cloud.Iterate(func(i int, p r3.Vector) bool {
		if box.Contains(p) {
			cropped.Append(p)
			indices = append(indices, i)
		}
		return true
	})
	return cropped, indices, nil
}
