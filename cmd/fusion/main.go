// Package main runs the lidar-camera fusion pipeline over one frame triple
// read from files: a range scan, a detection set, camera intrinsics, and the
// lidar-to-camera extrinsics.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"github.com/viam-labs/lidar-camera-fusion/camera"
	"github.com/viam-labs/lidar-camera-fusion/detection"
	"github.com/viam-labs/lidar-camera-fusion/fusion"
	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
	"github.com/viam-labs/lidar-camera-fusion/render"
	"github.com/viam-labs/lidar-camera-fusion/spatialmath"
)

var logger = golog.NewDevelopmentLogger("fusion")

func main() {
	app := &cli.App{
		Name:  "fusion",
		Usage: "fuse a 3D range scan with 2D object detections into per-object centroids",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "intrinsics", Usage: "path to camera intrinsics JSON", Required: true},
			&cli.StringFlag{Name: "points", Usage: "path to range points JSON ([[x,y,z],...])", Required: true},
			&cli.StringFlag{Name: "detections", Usage: "path to detections JSON", Required: true},
			&cli.StringFlag{Name: "extrinsics", Usage: "path to lidar-to-camera extrinsics JSON", Required: true},
			&cli.StringFlag{Name: "config", Usage: "path to fusion config JSON (attribute map)"},
			&cli.StringFlag{Name: "image", Usage: "path to camera image for overlay rendering"},
			&cli.StringFlag{Name: "overlay-out", Usage: "path to write overlay PNG", Value: "overlay.png"},
			&cli.StringFlag{Name: "out", Usage: "path to write fused objects JSON, - for stdout", Value: "-"},
		},
		Action: runFusion,
	}
	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

type rawDetectionFile []struct {
	Center [2]float64 `json:"center"`
	Size   [2]float64 `json:"size"`
	ID     string     `json:"id"`
}

type rawExtrinsics struct {
	Rotation    []float64  `json:"rotation"`
	Translation [3]float64 `json:"translation"`
}

type fusedObjectOut struct {
	ID       int          `json:"id"`
	Centroid [3]float64   `json:"centroid"`
	Points   [][3]float64 `json:"points"`
}

type resultOut struct {
	Frame     string           `json:"frame"`
	Timestamp time.Time        `json:"timestamp"`
	Objects   []fusedObjectOut `json:"objects"`
}

func runFusion(c *cli.Context) error {
	cfg := fusion.DefaultConfig()
	if path := c.String("config"); path != "" {
		var attrs map[string]interface{}
		if err := readJSONFile(path, &attrs); err != nil {
			return err
		}
		if err := cfg.ConvertAttributes(attrs); err != nil {
			return errors.Wrap(err, "error converting config attributes")
		}
	}

	params, err := camera.NewPinholeCameraIntrinsicsFromJSONFile(c.String("intrinsics"))
	if err != nil {
		return err
	}

	var rawPoints [][3]float64
	if err := readJSONFile(c.String("points"), &rawPoints); err != nil {
		return err
	}
	cloud := pointcloud.NewWithPrealloc(len(rawPoints))
	for _, p := range rawPoints {
		cloud.Append(r3.Vector{X: p[0], Y: p[1], Z: p[2]})
	}

	var rawDets rawDetectionFile
	if err := readJSONFile(c.String("detections"), &rawDets); err != nil {
		return err
	}
	dets := make([]detection.RawDetection, 0, len(rawDets))
	for _, d := range rawDets {
		dets = append(dets, detection.RawDetection{
			Center: r2.Point{X: d.Center[0], Y: d.Center[1]},
			Size:   r2.Point{X: d.Size[0], Y: d.Size[1]},
			ID:     d.ID,
		})
	}

	resolver, err := resolverFromFile(c.String("extrinsics"), cfg)
	if err != nil {
		return err
	}

	pipeline, err := fusion.NewPipeline(cfg, resolver, logger)
	if err != nil {
		return err
	}
	if err := pipeline.SetIntrinsics(params); err != nil {
		return err
	}

	result, err := pipeline.ProcessFrame(c.Context, frameInputFor(cloud, cfg, dets))
	if err != nil {
		return err
	}
	logger.Infow("frame fused", "objects", len(result.Objects), "matched_pixels", len(result.MatchedPixels))

	if err := writeResult(c.String("out"), result); err != nil {
		return err
	}
	if imgPath := c.String("image"); imgPath != "" {
		img, err := render.LoadImageFromFile(imgPath)
		if err != nil {
			// poses are already written; the overlay alone failed
			logger.Errorw("overlay rendering skipped", "error", err)
			return nil
		}
		if err := render.OverlayToPNGFile(c.String("overlay-out"), img, result.MatchedPixels); err != nil {
			logger.Errorw("overlay rendering failed", "error", err)
			return nil
		}
		logger.Infow("overlay written", "path", c.String("overlay-out"))
	}
	return nil
}

// frameInputFor stamps a frame input with the configured lidar frame and the
// current time.
func frameInputFor(cloud *pointcloud.PointCloud, cfg fusion.Config, dets []detection.RawDetection) fusion.FrameInput {
	return fusion.FrameInput{
		Cloud:      cloud,
		Frame:      cfg.LidarFrame,
		Timestamp:  time.Now(),
		Detections: dets,
	}
}

func resolverFromFile(path string, cfg fusion.Config) (*fusion.StaticResolver, error) {
	var raw rawExtrinsics
	if err := readJSONFile(path, &raw); err != nil {
		return nil, err
	}
	rotation, err := spatialmath.NewRotationMatrix(raw.Rotation)
	if err != nil {
		return nil, errors.Wrap(err, "error parsing extrinsics rotation")
	}
	tf := spatialmath.NewRigidTransform(rotation, r3.Vector{
		X: raw.Translation[0],
		Y: raw.Translation[1],
		Z: raw.Translation[2],
	})
	resolver := fusion.NewStaticResolver()
	resolver.SetTransform(cfg.LidarFrame, cfg.CameraFrame, tf)
	return resolver, nil
}

func readJSONFile(path string, out interface{}) error {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "error opening %s", path)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	data, err := io.ReadAll(f)
	if err != nil {
		return errors.Wrapf(err, "error reading %s", path)
	}
	return errors.Wrapf(json.Unmarshal(data, out), "error parsing %s", path)
}

func writeResult(path string, result *fusion.Result) error {
	out := resultOut{Frame: result.Frame, Timestamp: result.Timestamp}
	for _, obj := range result.Objects {
		points := make([][3]float64, 0, obj.Cloud.Size())
		obj.Cloud.Iterate(func(_ int, p r3.Vector) bool {
			points = append(points, [3]float64{p.X, p.Y, p.Z})
			return true
		})
		out.Objects = append(out.Objects, fusedObjectOut{
			ID:       obj.ID,
			Centroid: [3]float64{obj.Centroid.X, obj.Centroid.Y, obj.Centroid.Z},
			Points:   points,
		})
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	return os.WriteFile(path, data, 0o640)
}
