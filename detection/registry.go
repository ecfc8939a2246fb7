package detection

import (
	"strconv"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// ErrInvalidDetectionID is when a detection's string identifier does not
// parse as an integer. The record is excluded; the frame is not aborted.
var ErrInvalidDetectionID = errors.New("detection identifier is not an integer")

// NormalizeDetections converts raw detection records into bounding boxes,
// preserving the relative order of valid records. Records whose identifier
// fails to parse are logged and excluded, and reported in the combined
// (non-fatal) returned error. Duplicate ids are not rejected; each record
// aggregates independently downstream.
func NormalizeDetections(raw []RawDetection, logger golog.Logger) ([]BoundingBox, error) {
	boxes := make([]BoundingBox, 0, len(raw))
	var parseErrs error
	for _, det := range raw {
		id, err := strconv.Atoi(det.ID)
		if err != nil {
			err = errors.Wrapf(ErrInvalidDetectionID, "id %q", det.ID)
			logger.Errorw("excluding detection", "error", err)
			parseErrs = multierr.Append(parseErrs, err)
			continue
		}
		boxes = append(boxes, NewBoundingBox(det.Center, det.Size, id))
	}
	return boxes, parseErrs
}
