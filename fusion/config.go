// Package fusion joins a 3D range scan with 2D image-plane detections,
// producing a 3D centroid and a point subset per detected object, once per
// synchronized frame.
package fusion

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/viam-labs/lidar-camera-fusion/pointcloud"
)

// Config holds the recognized fusion options: the spatial filter bounds, the
// frame names handed to the transform resolver, and the transform lookup
// timeout.
type Config struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
	MinZ float64 `json:"min_z"`
	MaxZ float64 `json:"max_z"`

	LidarFrame  string `json:"lidar_frame"`
	CameraFrame string `json:"camera_frame"`

	// MinBoxArea drops detection boxes below this many square pixels
	// before association. Zero keeps every box.
	MinBoxArea float64 `json:"min_box_area"`

	TransformTimeout time.Duration `json:"transform_timeout"`
}

// DefaultConfig returns the default fusion configuration.
func DefaultConfig() Config {
	return Config{
		MinX: -10, MaxX: 10,
		MinY: -10, MaxY: 10,
		MinZ: -2, MaxZ: 2,
		LidarFrame:       "lidar_frame",
		CameraFrame:      "camera_frame",
		TransformTimeout: time.Second,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if err := cfg.CropBox().CheckValid(); err != nil {
		return goutils.NewConfigValidationError(path, err)
	}
	if cfg.LidarFrame == "" {
		return goutils.NewConfigValidationError(path, errors.New("lidar_frame cannot be empty"))
	}
	if cfg.CameraFrame == "" {
		return goutils.NewConfigValidationError(path, errors.New("camera_frame cannot be empty"))
	}
	if cfg.MinBoxArea < 0 {
		return goutils.NewConfigValidationError(path, errors.New("min_box_area cannot be negative"))
	}
	if cfg.TransformTimeout < 0 {
		return goutils.NewConfigValidationError(path, errors.New("transform_timeout cannot be negative"))
	}
	return nil
}

// CropBox returns the spatial filter bounds as a crop box.
func (cfg *Config) CropBox() pointcloud.CropBox {
	return pointcloud.CropBox{
		MinX: cfg.MinX, MaxX: cfg.MaxX,
		MinY: cfg.MinY, MaxY: cfg.MaxY,
		MinZ: cfg.MinZ, MaxZ: cfg.MaxZ,
	}
}

// ConvertAttributes changes an attribute map into a Config.
func (cfg *Config) ConvertAttributes(am map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: cfg})
	if err != nil {
		return err
	}
	return decoder.Decode(am)
}
