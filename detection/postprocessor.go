package detection

// Postprocessor defines a function that filters/modifies an incoming slice
// of bounding boxes.
type Postprocessor func([]BoundingBox) []BoundingBox

// NewAreaFilter returns a function that filters out boxes below a certain area.
func NewAreaFilter(area float64) Postprocessor {
	return func(in []BoundingBox) []BoundingBox {
		out := make([]BoundingBox, 0, len(in))
		for _, bb := range in {
			if bb.Area() >= area {
				out = append(out, bb)
			}
		}
		return out
	}
}

// NewClampFilter returns a function that clamps box bounds to the image,
// dropping boxes that lie entirely outside it.
func NewClampFilter(width, height int) Postprocessor {
	return func(in []BoundingBox) []BoundingBox {
		out := make([]BoundingBox, 0, len(in))
		for _, bb := range in {
			if bb.XMax < 0 || bb.YMax < 0 || bb.XMin > float64(width-1) || bb.YMin > float64(height-1) {
				continue
			}
			if bb.XMin < 0 {
				bb.XMin = 0
			}
			if bb.YMin < 0 {
				bb.YMin = 0
			}
			if bb.XMax > float64(width-1) {
				bb.XMax = float64(width - 1)
			}
			if bb.YMax > float64(height-1) {
				bb.YMax = float64(height - 1)
			}
			out = append(out, bb)
		}
		return out
	}
}
