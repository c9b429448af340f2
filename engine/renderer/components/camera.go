package components

import (
	"github.com/spaghettifunk/kosmos/engine/math"
)

/**
 * @brief The pair of render-graph nodes a camera is drawn from. The parent
 * node carries the origin-relative translation with no rotation, the camera
 * node carries the rotation with no translation. Renderers read the view
 * matrix from here and never see the locality tree.
 */
type CameraNodes struct {
	/** @brief Translation-only node. */
	Parent math.Transform
	/** @brief Rotation-only node, child of Parent. */
	Camera math.Transform
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of the node pair.
	 * NOTE: Do not read this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4
}

func NewCameraNodes() *CameraNodes {
	c := &CameraNodes{}
	c.Reset()
	return c
}

func (c *CameraNodes) Reset() {
	c.Parent = math.TransformIdentity()
	c.Camera = math.TransformIdentity()
	c.IsDirty = false
	c.ViewMatrix = math.NewMat4Identity()
}

// Set replaces both nodes: the parent keeps only the translation of
// originRelative and the camera node only its rotation.
func (c *CameraNodes) Set(originRelative math.Transform) {
	c.Parent = math.TransformFromOrigin(originRelative.Origin)
	c.Camera = math.TransformFromBasis(originRelative.Basis)
	c.IsDirty = true
}

func (c *CameraNodes) GetPosition() math.Vec3 {
	return c.Parent.Origin
}

func (c *CameraNodes) GetRotation() math.Quaternion {
	return c.Camera.Basis
}

// World returns the composed pose of the camera node.
func (c *CameraNodes) World() math.Transform {
	return c.Parent.Mul(c.Camera)
}

func (c *CameraNodes) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = c.World().ToMat4().Inverse()
		c.IsDirty = false
	}
	return c.ViewMatrix
}

func (c *CameraNodes) Forward() math.Vec3 {
	return c.Camera.Forward()
}

func (c *CameraNodes) Backward() math.Vec3 {
	return c.Camera.Back()
}

func (c *CameraNodes) Left() math.Vec3 {
	return c.Camera.Right().Negate()
}

func (c *CameraNodes) Right() math.Vec3 {
	return c.Camera.Right()
}
