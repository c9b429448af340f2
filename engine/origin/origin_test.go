package origin

import (
	"testing"

	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

type tracked locality.ID

func (t tracked) Locality() locality.ID {
	return locality.ID(t)
}

type scene struct {
	tree   *locality.Tree
	world  locality.ID
	player locality.ID
	kamera locality.ID
}

func newScene(t *testing.T) scene {
	t.Helper()
	tree := locality.NewTree()
	world, err := tree.NewFixed("world", locality.InvalidID, math.TransformIdentity())
	require.NoError(t, err)
	player, err := tree.NewFixed("player", world, math.TransformIdentity())
	require.NoError(t, err)
	kamera, err := tree.NewFixed("kamera", player, math.TransformFromOrigin(math.NewVec3(0, 1.7, 0)))
	require.NoError(t, err)
	return scene{tree: tree, world: world, player: player, kamera: kamera}
}

func (s scene) origin(opts ...Option) *Origin {
	return New(s.tree, tracked(s.player), tracked(s.kamera), opts...)
}

func TestParseMode(t *testing.T) {
	for input, expected := range map[string]Mode{
		"player":          ModePlayerFixed,
		"player-floating": ModePlayerFloating,
		"Kamera":          ModeKameraFixed,
		"kamera-floating": ModeKameraFloating,
	} {
		m, err := ParseMode(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, m)
	}
	_, err := ParseMode("orbit")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Equal(t, "player-floating", ModePlayerFloating.String())
}

func TestQueriesBeforeInitialization(t *testing.T) {
	s := newScene(t)
	o := s.origin()

	assert.False(t, o.Initialized())
	assert.Equal(t, locality.InvalidID, o.Locality())
	assert.Equal(t, ModeNone, o.Mode())

	_, err := o.TransformRelativeToOrigin(s.player)
	assert.ErrorIs(t, err, ErrOriginNotInitialized)
	_, err = o.FloatingAnchor()
	assert.ErrorIs(t, err, ErrOriginNotInitialized)
	_, err = o.ForcedPerspectiveTransform(s.player, 10)
	assert.ErrorIs(t, err, ErrOriginNotInitialized)
	assert.ErrorIs(t, o.SetAnchor(s.kamera), ErrOriginNotInitialized)

	assert.NoError(t, o.Update(0.016))
	assert.Equal(t, uint64(1), o.Frame())
}

func TestUsePlayerAsOrigin(t *testing.T) {
	s := newScene(t)
	bus := core.NewEventBus()
	var changes []Transition
	bus.Register(core.EVENT_CODE_ORIGIN_CHANGED, &changes, func(ctx core.EventContext) bool {
		changes = append(changes, ctx.Data.(Transition))
		return true
	})
	o := s.origin(WithEvents(bus))

	require.NoError(t, o.UsePlayerAsOrigin())
	assert.True(t, o.Initialized())
	assert.Equal(t, ModePlayerFixed, o.Mode())

	rel, err := o.TransformRelativeToOrigin(s.player)
	require.NoError(t, err)
	assert.True(t, rel.IsIdentityApprox(tolerance))

	rel, err = o.TransformRelativeToOrigin(s.kamera)
	require.NoError(t, err)
	assert.True(t, rel.Origin.Compare(math.NewVec3(0, 1.7, 0), tolerance))

	anchor, err := o.FloatingAnchor()
	require.NoError(t, err)
	assert.Equal(t, o.Locality(), anchor)

	require.Len(t, changes, 1)
	assert.Equal(t, ModeNone, changes[0].From)
	assert.Equal(t, ModePlayerFixed, changes[0].To)

	require.NoError(t, o.UsePlayerAsOrigin())
	assert.Len(t, o.History(), 1)
}

func TestFloatingSwitchRejectsAmbiguousTarget(t *testing.T) {
	s := newScene(t)
	o := New(s.tree, tracked(s.player), tracked(s.player))

	assert.ErrorIs(t, o.UsePlayerAsFloatingOrigin(), ErrAmbiguousOrigin)
	assert.ErrorIs(t, o.UseKameraAsFloatingOrigin(), ErrAmbiguousOrigin)
	assert.False(t, o.Initialized())
	assert.Empty(t, o.History())
}

func TestFloatingSwitchIsNoOpWhenAlreadyFloating(t *testing.T) {
	s := newScene(t)
	o := s.origin()

	require.NoError(t, o.UsePlayerAsFloatingOrigin())
	first := o.Locality()
	kind, err := s.tree.Kind(first)
	require.NoError(t, err)
	assert.Equal(t, locality.KindFloatingOrigin, kind)

	require.NoError(t, o.UsePlayerAsFloatingOrigin())
	assert.Equal(t, first, o.Locality())
	assert.Len(t, o.History(), 1)

	fo, err := s.tree.NewFloatingOrigin("external", s.world, 0)
	require.NoError(t, err)
	floating := New(s.tree, tracked(fo), tracked(s.kamera))
	require.NoError(t, floating.UsePlayerAsFloatingOrigin())
	assert.False(t, floating.Initialized())
}

func TestTransitionsReplaceOwnedLocalities(t *testing.T) {
	s := newScene(t)
	o := s.origin(WithHistorySize(2))

	require.NoError(t, o.UseMode(ModePlayerFloating))
	floating := o.Locality()
	require.NoError(t, o.UseMode(ModeKameraFixed))
	assert.False(t, s.tree.Exists(floating))
	fixed := o.Locality()
	require.NoError(t, o.UseMode(ModeKameraFloating))
	assert.False(t, s.tree.Exists(fixed))
	assert.Equal(t, ModeKameraFloating, o.Mode())

	history := o.History()
	require.Len(t, history, 2)
	assert.Equal(t, ModePlayerFloating, history[0].From)
	assert.Equal(t, ModeKameraFixed, history[0].To)
	assert.Equal(t, ModeKameraFloating, history[1].To)

	assert.ErrorIs(t, o.UseMode(ModeNone), ErrUnknownMode)
}

func TestUpdateSnapsFloatingOrigin(t *testing.T) {
	s := newScene(t)
	bus := core.NewEventBus()
	var snaps []*core.SnapEvent
	bus.Register(core.EVENT_CODE_ORIGIN_SNAPPED, &snaps, func(ctx core.EventContext) bool {
		snaps = append(snaps, ctx.Data.(*core.SnapEvent))
		return true
	})
	o := s.origin(WithMaxDistance(10), WithEvents(bus))
	require.NoError(t, o.UsePlayerAsFloatingOrigin())

	require.NoError(t, s.tree.Translate(s.player, math.NewVec3(5, 0, 0)))
	require.NoError(t, o.Update(0.016))
	assert.Empty(t, snaps)

	require.NoError(t, s.tree.Translate(s.player, math.NewVec3(20, 0, 0)))
	require.NoError(t, o.Update(0.016))
	require.Len(t, snaps, 1)
	assert.InDelta(t, 25, snaps[0].Distance, tolerance)
	assert.Equal(t, s.tree.Name(o.Locality()), snaps[0].Locality)

	rel, err := o.TransformRelativeToOrigin(s.player)
	require.NoError(t, err)
	assert.InDelta(t, 0, rel.Origin.Length(), tolerance)

	require.NoError(t, o.SetMaxDistance(100))
	d, err := s.tree.MaxDistance(o.Locality())
	require.NoError(t, err)
	assert.Equal(t, 100.0, d)
	assert.Error(t, o.SetMaxDistance(-1))
}

func TestForcedPerspectiveTransform(t *testing.T) {
	s := newScene(t)
	o := s.origin()
	require.NoError(t, o.UsePlayerAsFloatingOrigin())
	planet, err := s.tree.NewFixed("planet", s.world, math.TransformFromOrigin(math.NewVec3(3, 4, 0)))
	require.NoError(t, err)

	base, err := o.ForcedProjectionBaseTransform(planet)
	require.NoError(t, err)
	assert.True(t, base.Origin.Compare(math.NewVec3(3, 4, 0), tolerance))

	forced, err := o.ForcedPerspectiveTransform(planet, 10)
	require.NoError(t, err)
	assert.True(t, forced.Origin.Compare(math.NewVec3(6, 8, 0), tolerance))

	_, err = o.ForcedPerspectiveTransform(s.player, 10)
	assert.ErrorIs(t, err, ErrZeroProjectionDirection)

	require.NoError(t, s.tree.Translate(s.player, math.NewVec3(1, 0, 0)))
	stale, err := o.ForcedProjectionBaseTransform(planet)
	require.NoError(t, err)
	assert.True(t, stale.Origin.Compare(math.NewVec3(3, 4, 0), tolerance))

	require.NoError(t, o.Update(0.016))
	fresh, err := o.ForcedProjectionBaseTransform(planet)
	require.NoError(t, err)
	assert.True(t, fresh.Origin.Compare(math.NewVec3(2, 4, 0), tolerance))
}

func TestProjectionIgnoresTrackedRotation(t *testing.T) {
	s := newScene(t)
	require.NoError(t, s.tree.Rotate(s.kamera, math.K_HALF_PI, 0, 0))
	o := s.origin()
	require.NoError(t, o.UseKameraAsFloatingOrigin())
	planet, err := s.tree.NewFixed("planet", s.world, math.TransformFromOrigin(math.NewVec3(0, 0, -10)))
	require.NoError(t, err)

	base, err := o.ForcedProjectionBaseTransform(planet)
	require.NoError(t, err)
	assert.True(t, base.Origin.Compare(math.NewVec3(0, -1.7, -10), tolerance))
	assert.True(t, base.Basis.Compare(math.NewQuatIdentity(), tolerance))

	fromKamera, err := s.tree.RelativeTransform(planet, s.kamera)
	require.NoError(t, err)
	assert.False(t, fromKamera.Origin.Compare(base.Origin, 1e-3))
}

func TestSetAnchorMovesFloatingOrigin(t *testing.T) {
	s := newScene(t)
	o := s.origin()
	require.NoError(t, o.UsePlayerAsFloatingOrigin())
	fo := o.Locality()

	// the player drifts and turns without a snap, so fo is away from both anchors
	require.NoError(t, s.tree.Translate(s.player, math.NewVec3(5, 0, -3)))
	require.NoError(t, s.tree.Rotate(s.player, 0.7, 0, 0))
	before, err := s.tree.AbsoluteTransform(fo)
	require.NoError(t, err)

	require.NoError(t, o.SetAnchor(s.kamera))
	assert.Equal(t, ModeKameraFloating, o.Mode())
	assert.Equal(t, fo, o.Locality())

	after, err := s.tree.AbsoluteTransform(fo)
	require.NoError(t, err)
	assert.Truef(t, before.IsEqualApprox(after, 1e-9), "expected %+v, got %+v", before, after)
	sup, err := s.tree.Superior(fo)
	require.NoError(t, err)
	assert.Equal(t, s.player, sup)

	anchor, err := o.FloatingAnchor()
	require.NoError(t, err)
	assert.Equal(t, s.kamera, anchor)
	assert.Len(t, o.History(), 2)

	require.NoError(t, o.Shutdown())
	assert.False(t, s.tree.Exists(fo))
	assert.False(t, o.Initialized())
}

func TestOriginIgnoresReusedSlots(t *testing.T) {
	s := newScene(t)
	o := s.origin()
	require.NoError(t, o.UsePlayerAsFloatingOrigin())
	fo := o.Locality()
	projection, err := o.ProjectionOrigin()
	require.NoError(t, err)

	// both localities disappear behind the origin's back and their slots are reused
	require.NoError(t, s.tree.Remove(projection))
	require.NoError(t, s.tree.Remove(fo))
	first, err := s.tree.NewFixed("crate", s.world, math.TransformIdentity())
	require.NoError(t, err)
	second, err := s.tree.NewFixed("barrel", s.world, math.TransformIdentity())
	require.NoError(t, err)
	assert.ElementsMatch(t, []locality.ID{fo, projection}, []locality.ID{first, second})

	again, err := o.ProjectionOrigin()
	require.NoError(t, err)
	kind, err := s.tree.Kind(again)
	require.NoError(t, err)
	assert.Equal(t, locality.KindProjectionOrigin, kind)

	require.NoError(t, o.UseKameraAsOrigin())
	assert.True(t, s.tree.Exists(first))
	assert.True(t, s.tree.Exists(second))

	require.NoError(t, o.Shutdown())
	assert.True(t, s.tree.Exists(first))
	assert.True(t, s.tree.Exists(second))
	assert.False(t, s.tree.Exists(again))
}
