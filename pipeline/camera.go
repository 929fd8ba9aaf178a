package pipeline

import (
	"sync"

	"github.com/swdee/go-holodetect/spatial"
)

// StaticCamera is a CameraSource whose pose is set by the caller, eg: from
// a recorded head pose or kept fixed for a desktop webcam
type StaticCamera struct {
	cam spatial.Camera
	sync.Mutex
}

// NewStaticCamera returns a camera source for cam
func NewStaticCamera(cam spatial.Camera) *StaticCamera {
	return &StaticCamera{
		cam: cam,
	}
}

// Pose implements CameraSource
func (c *StaticCamera) Pose() spatial.CameraPose {
	c.Lock()
	defer c.Unlock()
	return c.cam.Pose
}

// Camera implements CameraSource
func (c *StaticCamera) Camera() spatial.Camera {
	c.Lock()
	defer c.Unlock()
	return c.cam
}

// SetPose moves the camera
func (c *StaticCamera) SetPose(pose spatial.CameraPose) {
	c.Lock()
	defer c.Unlock()
	c.cam.Pose = pose
}
