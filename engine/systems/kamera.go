package systems

import (
	"fmt"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/renderer/components"
)

/** @brief The kamera system configuration. */
type KameraConfig struct {
	Name string
	/** @brief Where the eye sits relative to the player when attached. */
	EyeOffset math.Vec3
}

// Kamera owns the camera's locality and the render nodes built from it.
// Its locality id never changes, so it can be tracked by the origin while
// it is attached to and detached from the player.
type Kamera struct {
	tree      *locality.Tree
	locality  locality.ID
	eyeOffset math.Vec3
	attached  *Player
	nodes     *components.CameraNodes
}

// NewKamera creates a free kamera at transform under superior.
func NewKamera(tree *locality.Tree, superior locality.ID, transform math.Transform, config KameraConfig) (*Kamera, error) {
	name := config.Name
	if name == "" {
		name = "kamera"
	}
	id, err := tree.NewFixed(name, superior, transform)
	if err != nil {
		err = fmt.Errorf("func NewKamera - %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return &Kamera{
		tree:      tree,
		locality:  id,
		eyeOffset: config.EyeOffset,
		nodes:     components.NewCameraNodes(),
	}, nil
}

func (k *Kamera) Locality() locality.ID {
	return k.locality
}

func (k *Kamera) Nodes() *components.CameraNodes {
	return k.nodes
}

func (k *Kamera) Attached() bool {
	return k.attached != nil
}

func (k *Kamera) SetEyeOffset(offset math.Vec3) {
	k.eyeOffset = offset
}

// AttachToPlayer puts the kamera at the eye offset of player, looking the
// way the player looks.
func (k *Kamera) AttachToPlayer(player *Player) error {
	eye := math.TransformFromOrigin(k.eyeOffset)
	if err := k.tree.Reanchor(k.locality, player.Locality(), locality.UseNewTransform, eye); err != nil {
		return fmt.Errorf("attaching kamera to player: %w", err)
	}
	k.attached = player
	player.SetKamera(k)
	core.LogDebug("kamera attached to %s", k.tree.Describe(player.Locality()))
	return nil
}

// DetachFromPlayer moves the kamera next to the player, keeping its world pose.
func (k *Kamera) DetachFromPlayer() error {
	if k.attached == nil {
		return nil
	}
	superior, err := k.tree.Superior(k.attached.Locality())
	if err != nil {
		return err
	}
	if err := k.tree.Reanchor(k.locality, superior, locality.RecomputeToPreserveAbsolutePose, math.Transform{}); err != nil {
		return fmt.Errorf("detaching kamera from player: %w", err)
	}
	core.LogDebug("kamera detached from %s", k.tree.Describe(k.attached.Locality()))
	k.attached = nil
	return nil
}

// Move translates the kamera along its own axes.
func (k *Kamera) Move(offset math.Vec3) error {
	return k.tree.Translate(k.locality, offset)
}

// Rotate is free look about the kamera's own axes.
func (k *Kamera) Rotate(yaw, pitch, roll float64) error {
	return k.tree.Rotate(k.locality, yaw, pitch, roll)
}

// Orbit is ecliptic look: yaw stays about the world up axis.
func (k *Kamera) Orbit(yaw, pitch, roll float64) error {
	return k.tree.RotateEcliptic(k.locality, yaw, pitch, roll)
}

func (k *Kamera) LookAt(target, up math.Vec3) error {
	return k.tree.LookAt(k.locality, target, up)
}

// UpdateRenderNodes refreshes the render nodes from the kamera's pose
// relative to origin.
func (k *Kamera) UpdateRenderNodes(origin OriginFrame) error {
	pose, err := origin.TransformRelativeToOrigin(k.locality)
	if err != nil {
		return err
	}
	k.nodes.Set(pose)
	return nil
}

// RenderDistance is not available without a renderer.
func (k *Kamera) RenderDistance() (float64, error) {
	return 0, fmt.Errorf("kamera render distance: %w", core.ErrUnsupported)
}
