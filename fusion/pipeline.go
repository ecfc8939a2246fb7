package fusion

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/viam-labs/lidar-camera-fusion/camera"
	"github.com/viam-labs/lidar-camera-fusion/detection"
	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
)

// ErrIntrinsicsUnavailable is when a frame arrives before any camera
// intrinsics update. The frame is skipped; the pipeline recovers on the next
// intrinsics update.
var ErrIntrinsicsUnavailable = errors.New("camera intrinsics not yet received")

// FrameInput is one synchronized frame triple's worth of fusion input: the
// raw range scan in its named source frame, the scan timestamp, and the
// detection records. Stream matching by approximate timestamp happens
// upstream of this package.
type FrameInput struct {
	Cloud      *pointcloud.PointCloud
	Frame      string
	Timestamp  time.Time
	Detections []detection.RawDetection
}

// Pipeline fuses one frame at a time. The only state carried across frames
// is the latest camera intrinsics, swapped atomically so a frame never
// observes a partial update; everything else is allocated per call, so
// concurrent ProcessFrame calls are safe.
type Pipeline struct {
	cfg        Config
	resolver   TransformResolver
	logger     golog.Logger
	clock      clock.Clock
	intrinsics atomic.Pointer[camera.PinholeCameraIntrinsics]
}

// NewPipeline returns a pipeline with no intrinsics yet; frames are skipped
// until SetIntrinsics is called.
func NewPipeline(cfg Config, resolver TransformResolver, logger golog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if resolver == nil {
		return nil, errors.New("fusion pipeline needs a transform resolver")
	}
	return &Pipeline{cfg: cfg, resolver: resolver, logger: logger, clock: clock.New()}, nil
}

// SetClock replaces the wall clock used to stamp results. Tests use a mock.
func (pl *Pipeline) SetClock(c clock.Clock) {
	pl.clock = c
}

// SetIntrinsics installs a camera intrinsics update. Safe to call
// concurrently with ProcessFrame.
func (pl *Pipeline) SetIntrinsics(params *camera.PinholeCameraIntrinsics) error {
	if err := params.CheckValid(); err != nil {
		return err
	}
	snapshot := *params
	pl.intrinsics.Store(&snapshot)
	return nil
}

// Intrinsics returns the current intrinsics, or nil before the first update.
func (pl *Pipeline) Intrinsics() *camera.PinholeCameraIntrinsics {
	return pl.intrinsics.Load()
}

// ProcessFrame runs the fusion stages over one frame. Frame-fatal conditions
// (no intrinsics, no transform) return an error and no partial result.
// Record-local detection parse failures are logged and the frame proceeds
// with the remaining boxes.
func (pl *Pipeline) ProcessFrame(ctx context.Context, frame FrameInput) (*Result, error) {
	params := pl.intrinsics.Load()
	if params == nil {
		pl.logger.Warn("skipping frame, camera intrinsics not yet received")
		return nil, ErrIntrinsicsUnavailable
	}
	if frame.Cloud == nil {
		return nil, errors.New("frame input is missing a range scan")
	}

	boxes, detErr := detection.NormalizeDetections(frame.Detections, pl.logger)
	if detErr != nil {
		// record-local, the frame continues with the valid boxes
		pl.logger.Debugw("some detections excluded", "error", detErr)
	}
	boxes = detection.NewClampFilter(params.Width, params.Height)(boxes)
	if pl.cfg.MinBoxArea > 0 {
		boxes = detection.NewAreaFilter(pl.cfg.MinBoxArea)(boxes)
	}

	cropped, indices, err := pointcloud.Crop(frame.Cloud, pl.cfg.CropBox())
	if err != nil {
		return nil, err
	}

	srcFrame := frame.Frame
	if srcFrame == "" {
		srcFrame = pl.cfg.LidarFrame
	}
	tf, err := resolveTransform(ctx, pl.resolver, srcFrame, pl.cfg.CameraFrame, frame.Timestamp, pl.cfg.TransformTimeout)
	if err != nil {
		pl.logger.Warnw("skipping frame, could not resolve transform",
			"source", srcFrame, "target", pl.cfg.CameraFrame, "error", err)
		return nil, err
	}
	inCamera := pointcloud.ApplyRigidTransform(cropped, tf)

	projected, err := camera.ProjectPoints(inCamera, indices, params)
	if err != nil {
		return nil, err
	}

	accs := newAccumulators(len(boxes))
	matched := associatePoints(projected, boxes, accs)
	poses, objects := finalizeResult(boxes, accs)

	return &Result{
		Frame:         pl.cfg.CameraFrame,
		Timestamp:     pl.clock.Now(),
		Poses:         poses,
		Objects:       objects,
		MatchedPixels: matched,
	}, nil
}
