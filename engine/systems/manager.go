package systems

import (
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/renderer/components"
	"github.com/yohamta/donburi"
)

type SystemManagerConfig struct {
	Player PlayerConfig
	Kamera KameraConfig
	/** @brief Units per second. */
	MoveSpeed float64
	/** @brief Radians per second (per pixel for mouse look). */
	TurnSpeed float64
	/** @brief Start with the kamera attached to the player. */
	FirstPerson bool
}

// SystemManager owns the player, the kamera and the controls driving them.
type SystemManager struct {
	World    donburi.World
	Player   *Player
	Kamera   *Kamera
	Controls *Controls

	tree         *locality.Tree
	playerEntity donburi.Entity
}

func NewSystemManager(tree *locality.Tree, world donburi.World, superior locality.ID, config SystemManagerConfig) (*SystemManager, error) {
	player, err := NewPlayer(tree, world, superior, config.Player)
	if err != nil {
		return nil, err
	}
	eye := math.TransformFromOrigin(config.Player.Start.Add(config.Kamera.EyeOffset))
	kamera, err := NewKamera(tree, superior, eye, config.Kamera)
	if err != nil {
		return nil, err
	}
	player.SetKamera(kamera)

	entity := world.Create(components.Pose)
	if err := player.SetPhysicalEntity(entity); err != nil {
		return nil, err
	}

	sm := &SystemManager{
		World:        world,
		Player:       player,
		Kamera:       kamera,
		Controls:     NewControls(player, kamera, config.MoveSpeed, config.TurnSpeed),
		tree:         tree,
		playerEntity: entity,
	}
	set := ControlsFreeCamera
	if config.FirstPerson {
		set = ControlsFirstPerson
	}
	if err := sm.Controls.Activate(set); err != nil {
		return nil, err
	}
	return sm, nil
}

// Update applies this frame's input. Anchors move here, before the origin
// checks for a snap.
func (sm *SystemManager) Update(in *core.Input, deltaTime float64) error {
	return sm.Controls.Dispatch(in, deltaTime)
}

// Render publishes origin-relative poses for the renderer.
func (sm *SystemManager) Render(origin OriginFrame) error {
	if err := sm.Player.Update(origin); err != nil {
		return err
	}
	return sm.Kamera.UpdateRenderNodes(origin)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.Player.UnsetPhysicalEntity(); err != nil {
		return err
	}
	if sm.World.Valid(sm.playerEntity) {
		sm.World.Remove(sm.playerEntity)
	}
	return nil
}
