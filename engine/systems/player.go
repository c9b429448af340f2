package systems

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/renderer/components"
	"github.com/yohamta/donburi"
)

var ErrNoKamera = errors.New("player has no kamera")

// OriginFrame is the part of the world origin the controllers read from.
type OriginFrame interface {
	TransformRelativeToOrigin(id locality.ID) (math.Transform, error)
	Frame() uint64
}

/** @brief The player system configuration. */
type PlayerConfig struct {
	Name  string
	Start math.Vec3
}

// Player owns the player's locality and, optionally, the entity that
// represents it in the world.
type Player struct {
	tree     *locality.Tree
	world    donburi.World
	locality locality.ID
	kamera   *Kamera
}

// NewPlayer creates the player locality under superior.
func NewPlayer(tree *locality.Tree, world donburi.World, superior locality.ID, config PlayerConfig) (*Player, error) {
	name := config.Name
	if name == "" {
		name = "player"
	}
	id, err := tree.NewFixed(name, superior, math.TransformFromOrigin(config.Start))
	if err != nil {
		err = fmt.Errorf("func NewPlayer - %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return &Player{
		tree:     tree,
		world:    world,
		locality: id,
	}, nil
}

func (p *Player) Locality() locality.ID {
	return p.locality
}

// SetKamera links the kamera that RotateCamera drives.
func (p *Player) SetKamera(k *Kamera) {
	p.kamera = k
}

// SetPhysicalEntity ties entity to the player's locality. Whoever destroys
// the entity must call UnsetPhysicalEntity.
func (p *Player) SetPhysicalEntity(entity donburi.Entity) error {
	return p.tree.AttachEntity(p.locality, entity)
}

func (p *Player) UnsetPhysicalEntity() error {
	return p.tree.DetachEntity(p.locality)
}

func (p *Player) PhysicalEntity() (donburi.Entity, bool) {
	return p.tree.Entity(p.locality)
}

// Translate moves the player along its own axes.
func (p *Player) Translate(offset math.Vec3) error {
	return p.tree.Translate(p.locality, offset)
}

func (p *Player) RotatePlayer(yaw, pitch, roll float64) error {
	return p.tree.Rotate(p.locality, yaw, pitch, roll)
}

// RotateCamera turns the linked kamera without turning the player.
func (p *Player) RotateCamera(yaw, pitch, roll float64) error {
	if p.kamera == nil {
		return ErrNoKamera
	}
	return p.kamera.Rotate(yaw, pitch, roll)
}

// Update writes the origin-relative pose of the player into its entity.
func (p *Player) Update(origin OriginFrame) error {
	entity, ok := p.PhysicalEntity()
	if !ok {
		return nil
	}
	if !p.world.Valid(entity) {
		core.LogWarn("player entity %v is no longer valid; call UnsetPhysicalEntity when destroying it", entity)
		return nil
	}
	pose, err := origin.TransformRelativeToOrigin(p.locality)
	if err != nil {
		return err
	}
	entry := p.world.Entry(entity)
	if !entry.HasComponent(components.Pose) {
		core.LogWarn("player entity %v has no pose component", entity)
		return nil
	}
	components.Pose.Set(entry, &components.PoseData{
		Transform: pose,
		Frame:     origin.Frame(),
	})
	return nil
}
