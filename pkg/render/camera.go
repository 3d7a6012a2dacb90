package render

import (
	"math"

	"gcodeview/pkg/cfg"
	"gcodeview/pkg/geometry"

	"github.com/go-gl/mathgl/mgl64"
)

// DisplayRotation turns source space (Z up) into display space (Y up). It is
// applied when drawing; batch vertices are never rotated in place.
var DisplayRotation = mgl64.HomogRotate3DX(-math.Pi / 2)

// ToDisplay maps a normalized source position into display space.
func ToDisplay(p geometry.Position) mgl64.Vec3 {
	return mgl64.TransformCoordinate(p.Vec3(), DisplayRotation)
}

// Camera is a perspective camera looking at a pivot.
type Camera struct {
	Eye    mgl64.Vec3
	Target mgl64.Vec3
	Up     mgl64.Vec3

	FieldOfView float64 // degrees
	Aspect      float64
	Near        float64
	Far         float64

	MinDistance float64
	MaxDistance float64
}

// Frame places the camera diagonally off the normalized bounds, looking at
// their display-space center from a fixed multiple of their largest extent.
func Frame(bounds geometry.BoundingBox, c cfg.Config, aspect float64) Camera {
	size := bounds.MaxExtent()
	if size <= 0 {
		size = c.TargetFootprint
	}
	pivot := ToDisplay(bounds.Center())
	dir := mgl64.Vec3{c.CameraDirection[0], c.CameraDirection[1], c.CameraDirection[2]}
	scale := c.DistanceScale()

	return Camera{
		Eye:         pivot.Add(dir.Mul(c.CameraDistanceFactor * size)),
		Target:      pivot,
		Up:          mgl64.Vec3{0, 1, 0},
		FieldOfView: c.FieldOfView,
		Aspect:      aspectOf(aspect),
		Near:        c.Near,
		Far:         c.Far,
		MinDistance: c.MinDistance * scale,
		MaxDistance: c.MaxDistance * scale,
	}
}

func aspectOf(a float64) float64 {
	if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
		return 1
	}
	return a
}

// SetAspect updates the aspect ratio from a pixel size.
func (c *Camera) SetAspect(width, height int) {
	if height <= 0 {
		return
	}
	c.Aspect = aspectOf(float64(width) / float64(height))
}

func (c Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye, c.Target, c.Up)
}

func (c Camera) Projection() mgl64.Mat4 {
	return mgl64.Perspective(mgl64.DegToRad(c.FieldOfView), c.Aspect, c.Near, c.Far)
}

// Distance from the eye to the pivot.
func (c Camera) Distance() float64 {
	return c.Eye.Sub(c.Target).Len()
}

// Orbit swings the eye around the pivot. Angles are in radians; elevation
// stops just short of the poles.
func (c *Camera) Orbit(dAzimuth, dElevation float64) {
	offset := c.Eye.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	azimuth := math.Atan2(offset.X(), offset.Z())
	polar := math.Acos(mgl64.Clamp(offset.Y()/r, -1, 1))

	const eps = 1e-3
	azimuth += dAzimuth
	polar = mgl64.Clamp(polar-dElevation, eps, math.Pi-eps)

	c.Eye = c.Target.Add(mgl64.Vec3{
		r * math.Sin(polar) * math.Sin(azimuth),
		r * math.Cos(polar),
		r * math.Sin(polar) * math.Cos(azimuth),
	})
}

// Zoom scales the distance to the pivot by factor, within the distance
// limits. A factor below 1 moves closer.
func (c *Camera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	offset := c.Eye.Sub(c.Target)
	r := offset.Len()
	if r == 0 {
		return
	}
	nr := r * factor
	if c.MinDistance > 0 {
		nr = math.Max(nr, c.MinDistance)
	}
	if c.MaxDistance > 0 {
		nr = math.Min(nr, c.MaxDistance)
	}
	c.Eye = c.Target.Add(offset.Mul(nr / r))
}
