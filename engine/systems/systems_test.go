package systems

import (
	"testing"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/origin"
	"github.com/spaghettifunk/kosmos/engine/renderer/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
)

const tolerance = 1e-9

type fixture struct {
	tree   *locality.Tree
	root   locality.ID
	world  donburi.World
	sm     *SystemManager
	origin *origin.Origin
}

func newFixture(t *testing.T, firstPerson bool) fixture {
	t.Helper()
	tree := locality.NewTree()
	root, err := tree.NewFixed("world", locality.InvalidID, math.TransformIdentity())
	require.NoError(t, err)
	world := donburi.NewWorld()
	sm, err := NewSystemManager(tree, world, root, SystemManagerConfig{
		Player:      PlayerConfig{Start: math.NewVec3(100, 0, 0)},
		Kamera:      KameraConfig{EyeOffset: math.NewVec3(0, 1.5, 0)},
		MoveSpeed:   10,
		TurnSpeed:   1,
		FirstPerson: firstPerson,
	})
	require.NoError(t, err)
	o := origin.New(tree, sm.Player, sm.Kamera)
	return fixture{tree: tree, root: root, world: world, sm: sm, origin: o}
}

func TestPlayerUpdateWritesPose(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.origin.UsePlayerAsFloatingOrigin())
	require.NoError(t, f.sm.Player.Translate(math.NewVec3(0, 0, -5)))
	require.NoError(t, f.origin.Update(0.016))
	require.NoError(t, f.sm.Render(f.origin))

	entity, ok := f.sm.Player.PhysicalEntity()
	require.True(t, ok)
	pose := components.Pose.Get(f.world.Entry(entity))
	assert.True(t, pose.Transform.Origin.Compare(math.NewVec3(0, 0, -5), tolerance))
	assert.Equal(t, f.origin.Frame(), pose.Frame)
}

func TestPlayerUpdateSkipsDestroyedEntity(t *testing.T) {
	f := newFixture(t, true)
	require.NoError(t, f.origin.UsePlayerAsOrigin())
	entity, ok := f.sm.Player.PhysicalEntity()
	require.True(t, ok)
	f.world.Remove(entity)

	assert.NoError(t, f.sm.Player.Update(f.origin))

	require.NoError(t, f.sm.Player.UnsetPhysicalEntity())
	_, ok = f.sm.Player.PhysicalEntity()
	assert.False(t, ok)
}

func TestKameraAttachAndDetach(t *testing.T) {
	f := newFixture(t, false)
	k := f.sm.Kamera
	p := f.sm.Player
	assert.False(t, k.Attached())

	require.NoError(t, k.AttachToPlayer(p))
	assert.True(t, k.Attached())
	rel, err := f.tree.RelativeTransform(k.Locality(), p.Locality())
	require.NoError(t, err)
	assertNear(t, math.TransformFromOrigin(math.NewVec3(0, 1.5, 0)), rel)

	require.NoError(t, p.RotatePlayer(0.7, 0, 0))
	require.NoError(t, p.RotateCamera(0, 0.2, 0))
	before, err := f.tree.AbsoluteTransform(k.Locality())
	require.NoError(t, err)

	require.NoError(t, k.DetachFromPlayer())
	assert.False(t, k.Attached())
	after, err := f.tree.AbsoluteTransform(k.Locality())
	require.NoError(t, err)
	assertNear(t, before, after)
	sup, err := f.tree.Superior(k.Locality())
	require.NoError(t, err)
	assert.Equal(t, f.root, sup)

	require.NoError(t, k.DetachFromPlayer())
}

func TestKameraRenderNodesSplitTranslationAndRotation(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.origin.UsePlayerAsOrigin())
	k := f.sm.Kamera
	require.NoError(t, k.Rotate(0.5, 0.1, 0))

	require.NoError(t, k.UpdateRenderNodes(f.origin))
	nodes := k.Nodes()
	rel, err := f.origin.TransformRelativeToOrigin(k.Locality())
	require.NoError(t, err)

	assert.True(t, nodes.Parent.Basis.Compare(math.NewQuatIdentity(), tolerance))
	assert.True(t, nodes.Camera.Origin.IsZero())
	assert.True(t, nodes.GetPosition().Compare(math.NewVec3(0, 1.5, 0), tolerance))
	assertNear(t, rel, nodes.World())

	view := nodes.GetView()
	assert.True(t, view.Mul(rel.ToMat4()).Compare(math.NewMat4Identity(), 1e-9))
	assert.True(t, nodes.Forward().Compare(rel.Forward(), tolerance))
}

func TestKameraRenderDistanceIsUnsupported(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.sm.Kamera.RenderDistance()
	assert.ErrorIs(t, err, core.ErrUnsupported)
}

func TestRotateCameraWithoutKamera(t *testing.T) {
	tree := locality.NewTree()
	p, err := NewPlayer(tree, donburi.NewWorld(), locality.InvalidID, PlayerConfig{})
	require.NoError(t, err)
	assert.Equal(t, "player", tree.Name(p.Locality()))
	assert.ErrorIs(t, p.RotateCamera(0, 1, 0), ErrNoKamera)
}

func TestControlsMoveActiveTarget(t *testing.T) {
	f := newFixture(t, true)
	c := f.sm.Controls
	assert.Equal(t, ControlsFirstPerson, c.Active())
	in := core.NewInput(nil)

	in.ProcessKey(core.KEY_W, true)
	require.NoError(t, c.Dispatch(in, 0.5))
	player, err := f.tree.LocalTransform(f.sm.Player.Locality())
	require.NoError(t, err)
	assert.True(t, player.Origin.Compare(math.NewVec3(100, 0, -5), tolerance))

	in.Update(0.5)
	in.ProcessKey(core.KEY_W, false)
	in.ProcessKey(core.KEY_C, true)
	in.Update(0.5)
	in.ProcessKey(core.KEY_C, false)
	require.NoError(t, c.Dispatch(in, 0.5))
	assert.Equal(t, ControlsFreeCamera, c.Active())
	assert.False(t, f.sm.Kamera.Attached())

	in.Update(0.5)
	in.ProcessKey(core.KEY_D, true)
	kameraBefore, _ := f.tree.LocalTransform(f.sm.Kamera.Locality())
	require.NoError(t, c.Dispatch(in, 0.5))
	kameraAfter, _ := f.tree.LocalTransform(f.sm.Kamera.Locality())
	assert.InDelta(t, 5, kameraAfter.Origin.Distance(kameraBefore.Origin), tolerance)
	playerAfter, _ := f.tree.LocalTransform(f.sm.Player.Locality())
	assert.True(t, playerAfter.Origin.Compare(player.Origin, tolerance))

	require.NoError(t, c.Activate(ControlsUIFocus))
	require.NoError(t, c.Dispatch(in, 0.5))
	still, _ := f.tree.LocalTransform(f.sm.Kamera.Locality())
	assertNear(t, kameraAfter, still)

	assert.ErrorIs(t, c.Activate(ControlSet("vehicle")), ErrUnknownControlSet)
}

func TestSystemManagerShutdownRemovesEntity(t *testing.T) {
	f := newFixture(t, true)
	entity, ok := f.sm.Player.PhysicalEntity()
	require.True(t, ok)
	require.NoError(t, f.sm.Shutdown())
	assert.False(t, f.world.Valid(entity))
}

func assertNear(t *testing.T, expected, actual math.Transform) {
	t.Helper()
	assert.Truef(t, expected.IsEqualApprox(actual, 1e-7), "expected %+v, got %+v", expected, actual)
}
