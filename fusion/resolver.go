package fusion

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/viam-labs/lidar-camera-fusion/spatialmath"
)

// ErrTransformUnavailable is when no rigid transform can be resolved for a
// requested (source, target, timestamp) triple. The frame is skipped; the
// next frame retries implicitly.
var ErrTransformUnavailable = errors.New("transform between frames is unavailable")

// TransformResolver resolves the rigid transform mapping srcFrame points
// into dstFrame at the given time. Resolution tolerance (such as accepting
// the nearest transform within some window) is entirely the resolver's
// concern. Implementations should honor ctx cancellation; lookups may block.
type TransformResolver interface {
	Transform(ctx context.Context, srcFrame, dstFrame string, at time.Time) (*spatialmath.RigidTransform, error)
}

// StaticResolver resolves transforms from a fixed table of frame pairs,
// ignoring the timestamp. It serves fixed-mount sensor rigs and tests.
type StaticResolver struct {
	transforms map[[2]string]*spatialmath.RigidTransform
}

// NewStaticResolver returns an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{transforms: map[[2]string]*spatialmath.RigidTransform{}}
}

// SetTransform registers the transform from srcFrame to dstFrame, along
// with its inverse for the reversed pair.
func (sr *StaticResolver) SetTransform(srcFrame, dstFrame string, tf *spatialmath.RigidTransform) {
	sr.transforms[[2]string{srcFrame, dstFrame}] = tf
	sr.transforms[[2]string{dstFrame, srcFrame}] = tf.Invert()
}

// Transform looks up the registered transform for the frame pair.
func (sr *StaticResolver) Transform(
	ctx context.Context,
	srcFrame, dstFrame string,
	at time.Time,
) (*spatialmath.RigidTransform, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if srcFrame == dstFrame {
		return spatialmath.NewZeroRigidTransform(), nil
	}
	tf, ok := sr.transforms[[2]string{srcFrame, dstFrame}]
	if !ok {
		return nil, errors.Wrapf(ErrTransformUnavailable, "%q to %q", srcFrame, dstFrame)
	}
	return tf, nil
}

// resolveTransform bounds the resolver call with the configured timeout and
// folds every failure mode, including timeout, into ErrTransformUnavailable.
func resolveTransform(
	ctx context.Context,
	resolver TransformResolver,
	srcFrame, dstFrame string,
	at time.Time,
	timeout time.Duration,
) (*spatialmath.RigidTransform, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	tf, err := resolver.Transform(ctx, srcFrame, dstFrame, at)
	if err != nil {
		if errors.Is(err, ErrTransformUnavailable) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrTransformUnavailable, "%q to %q: %s", srcFrame, dstFrame, err)
	}
	return tf, nil
}
