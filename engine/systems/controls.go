package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
)

var ErrUnknownControlSet = errors.New("unknown control set")

type ControlSet string

const (
	ControlsFirstPerson ControlSet = "first-person"
	ControlsFreeCamera  ControlSet = "free-camera"
	ControlsUIFocus     ControlSet = "ui-focus"
)

// Pitch is clamped to avoid flipping over the poles: 89 degrees.
const pitchLimit = 1.55334306

// Controls routes input to the player or the kamera depending on the
// active control set.
type Controls struct {
	player *Player
	kamera *Kamera
	active ControlSet

	moveSpeed float64
	turnSpeed float64
	pitch     float64
}

func NewControls(player *Player, kamera *Kamera, moveSpeed, turnSpeed float64) *Controls {
	return &Controls{
		player:    player,
		kamera:    kamera,
		active:    ControlsUIFocus,
		moveSpeed: moveSpeed,
		turnSpeed: turnSpeed,
	}
}

func (c *Controls) Active() ControlSet {
	return c.active
}

func (c *Controls) SetSpeeds(moveSpeed, turnSpeed float64) {
	c.moveSpeed = moveSpeed
	c.turnSpeed = turnSpeed
}

// Activate switches control set. First-person attaches the kamera to the
// player, free-camera detaches it.
func (c *Controls) Activate(set ControlSet) error {
	switch set {
	case ControlsFirstPerson:
		if !c.kamera.Attached() {
			if err := c.kamera.AttachToPlayer(c.player); err != nil {
				return err
			}
			c.pitch = 0
		}
	case ControlsFreeCamera:
		if err := c.kamera.DetachFromPlayer(); err != nil {
			return err
		}
	case ControlsUIFocus:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownControlSet, set)
	}
	if set != c.active {
		core.LogInfo("control set %s -> %s", c.active, set)
	}
	c.active = set
	return nil
}

// Dispatch applies one frame of input.
func (c *Controls) Dispatch(in *core.Input, deltaTime float64) error {
	if in.KeyReleased(core.KEY_C) {
		next := ControlsFreeCamera
		if c.active == ControlsFreeCamera {
			next = ControlsFirstPerson
		}
		if err := c.Activate(next); err != nil {
			return err
		}
	}
	if c.active == ControlsUIFocus {
		return nil
	}

	move := movement(in).MulScalar(c.moveSpeed * deltaTime)
	dx, dy := in.MouseDelta()
	yaw := -float64(dx) * c.turnSpeed * deltaTime
	pitch := -float64(dy) * c.turnSpeed * deltaTime
	if in.IsKeyDown(core.KEY_LEFT) {
		yaw += c.turnSpeed * deltaTime
	}
	if in.IsKeyDown(core.KEY_RIGHT) {
		yaw -= c.turnSpeed * deltaTime
	}
	pitch = c.clampPitch(pitch)

	switch c.active {
	case ControlsFirstPerson:
		if !move.IsZero() {
			if err := c.player.Translate(move); err != nil {
				return err
			}
		}
		if yaw != 0 {
			if err := c.player.RotatePlayer(yaw, 0, 0); err != nil {
				return err
			}
		}
		if pitch != 0 {
			return c.player.RotateCamera(0, pitch, 0)
		}
	case ControlsFreeCamera:
		if !move.IsZero() {
			if err := c.kamera.Move(move); err != nil {
				return err
			}
		}
		if yaw != 0 || pitch != 0 {
			return c.kamera.Orbit(yaw, pitch, 0)
		}
	}
	return nil
}

func (c *Controls) clampPitch(delta float64) float64 {
	next := math.Clamp(c.pitch+delta, -pitchLimit, pitchLimit)
	delta = next - c.pitch
	c.pitch = next
	return delta
}

func movement(in *core.Input) math.Vec3 {
	v := math.NewVec3Zero()
	if in.IsKeyDown(core.KEY_W) {
		v = v.Add(math.NewVec3Forward())
	}
	if in.IsKeyDown(core.KEY_S) {
		v = v.Add(math.NewVec3Back())
	}
	if in.IsKeyDown(core.KEY_A) {
		v = v.Add(math.NewVec3Left())
	}
	if in.IsKeyDown(core.KEY_D) {
		v = v.Add(math.NewVec3Right())
	}
	if in.IsKeyDown(core.KEY_E) {
		v = v.Add(math.NewVec3Up())
	}
	if in.IsKeyDown(core.KEY_Q) {
		v = v.Add(math.NewVec3Down())
	}
	return v.Normalized()
}
