package retriever

import (
	"math"

	"github.com/pkg/errors"
)

// Camera holds intrinsic field of view parameters of the depth camera (degrees)
type Camera struct {
	FovH float64
	FovV float64
}

// NewCamera creates camera from field of view pair
func NewCamera(fovH, fovV float64) (*Camera, error) {
	if !(fovH > 0 && fovH < 180) || !(fovV > 0 && fovV < 180) {
		return nil, errors.Wrapf(ErrInvalidFieldOfView, "fov_h=%f fov_v=%f", fovH, fovV)
	}
	return &Camera{
		FovH: fovH,
		FovV: fovV,
	}, nil
}

// FocalLength returns focal length in pixels for image of given width
func (camera *Camera) FocalLength(width int) float64 {
	return float64(width) / (2.0 * math.Tan(deg2rad(camera.FovH)/2.0))
}

// BackProject converts pixel (u, v) of the depth image into camera frame point.
// Pixel coordinates are truncated to integers. Second value is false if pixel is
// outside of the image or depth sample is not positive (no valid measurement)
func (camera *Camera) BackProject(depth *DepthImage, u, v float64) (Point, bool) {
	pu, pv := int(u), int(v)
	d, ok := depth.At(pu, pv)
	if !ok || !(d > 0) {
		return Point{}, false
	}
	f := camera.FocalLength(depth.Width)
	x := float64(pu) - 0.5*float64(depth.Width-1)
	y := float64(pv) - 0.5*float64(depth.Height-1)
	return Point{
		X: d * x / f,
		Y: d * y / f,
		Z: d,
	}, true
}

// Project converts camera frame point back to pixel coordinates of image with given size.
// Second value is false for points which are not in front of the camera
func (camera *Camera) Project(p Point, width, height int) (float64, float64, bool) {
	if !(p.Z > 0) {
		return 0, 0, false
	}
	f := camera.FocalLength(width)
	u := p.X*f/p.Z + 0.5*float64(width-1)
	v := p.Y*f/p.Z + 0.5*float64(height-1)
	return u, v, true
}
