package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/viam-labs/lidar-camera-fusion/camera"
	"github.com/viam-labs/lidar-camera-fusion/detection"
	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
	"github.com/viam-labs/lidar-camera-fusion/spatialmath"
)

var testIntrinsics = &camera.PinholeCameraIntrinsics{
	Width: 100, Height: 100,
	Fx: 100, Fy: 100,
	Ppx: 50, Ppy: 50,
}

// newTestPipeline builds a pipeline whose resolver maps the lidar frame to
// the camera frame with the identity, so camera-frame fixtures pass through.
// The keep-box is widened along z so fixtures a few meters out survive the
// spatial filter.
func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	resolver := NewStaticResolver()
	resolver.SetTransform("lidar_frame", "camera_frame", spatialmath.NewZeroRigidTransform())
	cfg := DefaultConfig()
	cfg.MinZ, cfg.MaxZ = -20, 20
	pl, err := NewPipeline(cfg, resolver, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return pl
}

func TestNewPipeline(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := NewPipeline(DefaultConfig(), nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "transform resolver")

	badCfg := DefaultConfig()
	badCfg.MinX, badCfg.MaxX = 1, -1
	_, err = NewPipeline(badCfg, NewStaticResolver(), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPipelineIntrinsicsGating(t *testing.T) {
	pl := newTestPipeline(t)
	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 50, Y: 50}, Size: r2.Point{X: 100, Y: 100}, ID: "1"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, errors.Is(err, ErrIntrinsicsUnavailable), test.ShouldBeTrue)
	test.That(t, result, test.ShouldBeNil)

	// recoverable: the same frame fuses after an intrinsics update
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)
	result, err = pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
}

func TestPipelineSetIntrinsics(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.Intrinsics(), test.ShouldBeNil)
	err := pl.SetIntrinsics(&camera.PinholeCameraIntrinsics{})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, pl.Intrinsics(), test.ShouldBeNil)

	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)
	test.That(t, pl.Intrinsics().Fx, test.ShouldEqual, 100)
}

// The exact fixture from the centroid contract: three camera-frame points,
// two identical, all landing on pixel (70,70) inside one box with id "7".
func TestPipelineCentroid(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	pl.SetClock(mockClock)

	frame := FrameInput{
		Cloud: pointcloud.NewFromPoints([]r3.Vector{
			{X: 1, Y: 1, Z: 5},
			{X: 1, Y: 1, Z: 5},
			{X: 2, Y: 2, Z: 10},
		}),
		Frame:     "lidar_frame",
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 55, Y: 55}, Size: r2.Point{X: 70, Y: 70}, ID: "7"}, // [20,90]x[20,90]
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Frame, test.ShouldEqual, "camera_frame")
	test.That(t, result.Timestamp, test.ShouldResemble, mockClock.Now())

	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	obj := result.Objects[0]
	test.That(t, obj.ID, test.ShouldEqual, 7)
	test.That(t, obj.Centroid.X, test.ShouldAlmostEqual, 4./3., 1e-9)
	test.That(t, obj.Centroid.Y, test.ShouldAlmostEqual, 4./3., 1e-9)
	test.That(t, obj.Centroid.Z, test.ShouldAlmostEqual, 20./3., 1e-9)
	test.That(t, obj.Cloud.Size(), test.ShouldEqual, 3)

	test.That(t, result.Poses, test.ShouldHaveLength, 1)
	test.That(t, result.Poses[0].Point(), test.ShouldResemble, obj.Centroid)
	test.That(t, result.Poses[0].Orientation().Real, test.ShouldEqual, 1)

	test.That(t, result.MatchedPixels, test.ShouldHaveLength, 3)
	for _, px := range result.MatchedPixels {
		test.That(t, px.X, test.ShouldEqual, 70)
		test.That(t, px.Y, test.ShouldEqual, 70)
	}
}

func TestPipelineZeroMatchBox(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}), // pixel (70,70)
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 10, Y: 10}, Size: r2.Point{X: 10, Y: 10}, ID: "1"}, // no overlap
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 10, Y: 10}, ID: "2"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	// the empty box yields no pose and no subset, not a zeroed placeholder
	test.That(t, result.Poses, test.ShouldHaveLength, 1)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].ID, test.ShouldEqual, 2)
}

func TestPipelineInvalidDetectionID(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 20, Y: 20}, ID: "abc"},
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 20, Y: 20}, ID: "5"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].ID, test.ShouldEqual, 5)
}

func TestPipelineTransformUnavailable(t *testing.T) {
	logger := golog.NewTestLogger(t)
	pl, err := NewPipeline(DefaultConfig(), NewStaticResolver(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}),
		Frame:     "unknown_frame",
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 50, Y: 50}, Size: r2.Point{X: 100, Y: 100}, ID: "1"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, errors.Is(err, ErrTransformUnavailable), test.ShouldBeTrue)
	test.That(t, result, test.ShouldBeNil)
}

func TestPipelineAppliesTransform(t *testing.T) {
	// lidar points translated +1 in z on the way into the camera frame
	resolver := NewStaticResolver()
	resolver.SetTransform("lidar_frame", "camera_frame",
		spatialmath.NewRigidTransform(nil, r3.Vector{Z: 1}))
	pl, err := NewPipeline(DefaultConfig(), resolver, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 0, Y: 0, Z: 0}}), // z=1 in camera frame
		Frame:     "lidar_frame",
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 50, Y: 50}, Size: r2.Point{X: 20, Y: 20}, ID: "1"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].Centroid, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})
}

func TestPipelineCropsBeforeProjection(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud: pointcloud.NewFromPoints([]r3.Vector{
			{X: 0, Y: 0, Z: 1},   // inside the default keep-box
			{X: 0, Y: 0, Z: 50},  // z beyond max_z, cropped before projection
			{X: 30, Y: 0, Z: 1},  // x beyond max_x
		}),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 50, Y: 50}, Size: r2.Point{X: 100, Y: 100}, ID: "1"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].Cloud.Size(), test.ShouldEqual, 1)
	test.That(t, result.Objects[0].Centroid, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 1})
}

func TestPipelineEmptyScan(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.New(),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 50, Y: 50}, Size: r2.Point{X: 100, Y: 100}, ID: "1"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Poses, test.ShouldHaveLength, 0)
	test.That(t, result.Objects, test.ShouldHaveLength, 0)
	test.That(t, result.MatchedPixels, test.ShouldHaveLength, 0)
}

func TestPipelineMinBoxArea(t *testing.T) {
	// one 4x4 box and one 20x20 box, both covering pixel (70,70)
	resolver := NewStaticResolver()
	resolver.SetTransform("lidar_frame", "camera_frame", spatialmath.NewZeroRigidTransform())
	cfg := DefaultConfig()
	cfg.MinZ, cfg.MaxZ = -20, 20
	cfg.MinBoxArea = 100
	pl, err := NewPipeline(cfg, resolver, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 4, Y: 4}, ID: "1"},
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 20, Y: 20}, ID: "2"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	// the undersized box is dropped before association
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].ID, test.ShouldEqual, 2)
	test.That(t, result.MatchedPixels, test.ShouldHaveLength, 1)
}

func TestPipelineClampsBoxes(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}), // pixel (70,70)
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			// extends past the sensor on both axes but still covers (70,70)
			{Center: r2.Point{X: 90, Y: 90}, Size: r2.Point{X: 60, Y: 60}, ID: "1"},
			// entirely off sensor
			{Center: r2.Point{X: 200, Y: 200}, Size: r2.Point{X: 20, Y: 20}, ID: "2"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Objects, test.ShouldHaveLength, 1)
	test.That(t, result.Objects[0].ID, test.ShouldEqual, 1)
}

func TestPipelineDuplicateIDs(t *testing.T) {
	pl := newTestPipeline(t)
	test.That(t, pl.SetIntrinsics(testIntrinsics), test.ShouldBeNil)

	frame := FrameInput{
		Cloud:     pointcloud.NewFromPoints([]r3.Vector{{X: 1, Y: 1, Z: 5}}),
		Timestamp: time.Now(),
		Detections: []detection.RawDetection{
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 20, Y: 20}, ID: "9"},
			{Center: r2.Point{X: 70, Y: 70}, Size: r2.Point{X: 40, Y: 40}, ID: "9"},
		},
	}
	result, err := pl.ProcessFrame(context.Background(), frame)
	test.That(t, err, test.ShouldBeNil)
	// both records aggregate independently under the shared id
	test.That(t, result.Objects, test.ShouldHaveLength, 2)
	test.That(t, result.Objects[0].ID, test.ShouldEqual, 9)
	test.That(t, result.Objects[1].ID, test.ShouldEqual, 9)
	test.That(t, result.Objects[0].Centroid, test.ShouldResemble, result.Objects[1].Centroid)
}
