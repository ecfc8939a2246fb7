package camera

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestCheckValid(t *testing.T) {
	var params *PinholeCameraIntrinsics
	err := params.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)

	params = &PinholeCameraIntrinsics{Width: 100, Height: 100, Fx: 100, Fy: 100, Ppx: 50, Ppy: 50}
	test.That(t, params.CheckValid(), test.ShouldBeNil)

	bad := *params
	bad.Width = 0
	err = bad.CheckValid()
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid sensor size")

	bad = *params
	bad.Fx = -1
	err = bad.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid focal length")

	bad = *params
	bad.Ppy = -0.5
	err = bad.CheckValid()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid principal point")
}

func TestIntrinsicsFromJSONFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intrinsics.json")
	data := `{"width_px":640,"height_px":480,"fx":601.2,"fy":600.8,"ppx":319.5,"ppy":239.5}`
	test.That(t, os.WriteFile(path, []byte(data), 0o640), test.ShouldBeNil)

	params, err := NewPinholeCameraIntrinsicsFromJSONFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, params.Width, test.ShouldEqual, 640)
	test.That(t, params.Fy, test.ShouldEqual, 600.8)

	_, err = NewPinholeCameraIntrinsicsFromJSONFile(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(dir, "bad.json")
	test.That(t, os.WriteFile(bad, []byte(`{"width_px":0}`), 0o640), test.ShouldBeNil)
	_, err = NewPinholeCameraIntrinsicsFromJSONFile(bad)
	test.That(t, errors.Is(err, ErrNoIntrinsics), test.ShouldBeTrue)
}

func TestCameraMatrix(t *testing.T) {
	var params *PinholeCameraIntrinsics
	test.That(t, params.CameraMatrix(), test.ShouldBeNil)

	params = &PinholeCameraIntrinsics{Width: 100, Height: 100, Fx: 100, Fy: 110, Ppx: 50, Ppy: 45}
	m := params.CameraMatrix()
	test.That(t, m.At(0, 0), test.ShouldEqual, 100)
	test.That(t, m.At(1, 1), test.ShouldEqual, 110)
	test.That(t, m.At(0, 2), test.ShouldEqual, 50)
	test.That(t, m.At(1, 2), test.ShouldEqual, 45)
	test.That(t, m.At(2, 2), test.ShouldEqual, 1)
}
