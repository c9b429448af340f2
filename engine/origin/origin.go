// Package origin decides which locality the world is rendered relative to.
//
// An Origin is owned by the engine and passed to whoever needs
// origin-relative transforms. It can pin the origin to the player or the
// kamera, or let a floating origin follow either of them.
package origin

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spaghettifunk/kosmos/engine/containers"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
)

var (
	ErrOriginNotInitialized    = errors.New("origin has not been initialized")
	ErrAmbiguousOrigin         = errors.New("player and kamera share a locality; floating origin target is ambiguous")
	ErrZeroProjectionDirection = errors.New("projection base origin is zero; direction is undefined")
	ErrUnknownMode             = errors.New("unknown origin mode")
)

// Tracked is anything that owns a locality the origin can follow.
type Tracked interface {
	Locality() locality.ID
}

type Mode uint8

const (
	ModeNone Mode = iota
	ModePlayerFixed
	ModePlayerFloating
	ModeKameraFixed
	ModeKameraFloating
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModePlayerFixed:
		return "player"
	case ModePlayerFloating:
		return "player-floating"
	case ModeKameraFixed:
		return "kamera"
	case ModeKameraFloating:
		return "kamera-floating"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode maps a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "player":
		return ModePlayerFixed, nil
	case "player-floating":
		return ModePlayerFloating, nil
	case "kamera", "camera":
		return ModeKameraFixed, nil
	case "kamera-floating", "camera-floating":
		return ModeKameraFloating, nil
	}
	return ModeNone, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Transition records one change of the active origin.
type Transition struct {
	Frame uint64
	From  Mode
	To    Mode
	// Prior and Current are descriptions of the localities, since the prior
	// locality may already be gone from the tree.
	Prior   string
	Current string
}

const (
	defaultHistorySize = 16
	projectionName     = "projection-origin"
)

type Option func(*Origin)

// WithMaxDistance sets the snap threshold of floating origins created from now on.
func WithMaxDistance(d float64) Option {
	return func(o *Origin) {
		o.maxDistance = d
	}
}

// WithEvents makes the origin fire change and snap events on bus.
func WithEvents(bus *core.EventBus) Option {
	return func(o *Origin) {
		o.events = bus
	}
}

// WithHistorySize bounds the number of transitions kept by History.
func WithHistorySize(n int) Option {
	return func(o *Origin) {
		o.historySize = n
	}
}

type Origin struct {
	tree   *locality.Tree
	player Tracked
	kamera Tracked
	events *core.EventBus

	mode             Mode
	originLocality   locality.ID
	projectionOrigin locality.Handle
	// owned is the locality created for the active mode; it is removed on the next transition.
	owned locality.Handle

	maxDistance float64
	historySize int
	history     *containers.RingQueue[Transition]
	frame       uint64
}

func New(tree *locality.Tree, player, kamera Tracked, opts ...Option) *Origin {
	o := &Origin{
		tree:             tree,
		player:           player,
		kamera:           kamera,
		originLocality:   locality.InvalidID,
		projectionOrigin: locality.NoHandle,
		owned:            locality.NoHandle,
		maxDistance:      locality.DefaultMaxDistance,
		historySize:      defaultHistorySize,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.history = containers.NewRingQueue[Transition](o.historySize)
	return o
}

func (o *Origin) Initialized() bool {
	return o.originLocality != locality.InvalidID
}

// Locality returns the active origin locality, or InvalidID before initialization.
func (o *Origin) Locality() locality.ID {
	return o.originLocality
}

func (o *Origin) Mode() Mode {
	return o.mode
}

func (o *Origin) Frame() uint64 {
	return o.frame
}

// History returns the recorded transitions, oldest first.
func (o *Origin) History() []Transition {
	return o.history.Items()
}

// UseMode switches to m through the matching transition.
func (o *Origin) UseMode(m Mode) error {
	switch m {
	case ModePlayerFixed:
		return o.UsePlayerAsOrigin()
	case ModePlayerFloating:
		return o.UsePlayerAsFloatingOrigin()
	case ModeKameraFixed:
		return o.UseKameraAsOrigin()
	case ModeKameraFloating:
		return o.UseKameraAsFloatingOrigin()
	}
	return fmt.Errorf("%w: %s", ErrUnknownMode, m)
}

// UsePlayerAsOrigin pins the origin to the player.
func (o *Origin) UsePlayerAsOrigin() error {
	return o.useFixed(ModePlayerFixed, o.player.Locality())
}

// UseKameraAsOrigin pins the origin to the kamera.
func (o *Origin) UseKameraAsOrigin() error {
	return o.useFixed(ModeKameraFixed, o.kamera.Locality())
}

// UsePlayerAsFloatingOrigin lets a floating origin follow the player.
func (o *Origin) UsePlayerAsFloatingOrigin() error {
	return o.useFloating(ModePlayerFloating, o.player.Locality())
}

// UseKameraAsFloatingOrigin lets a floating origin follow the kamera.
func (o *Origin) UseKameraAsFloatingOrigin() error {
	return o.useFloating(ModeKameraFloating, o.kamera.Locality())
}

func (o *Origin) useFixed(mode Mode, target locality.ID) error {
	if mode == o.mode && o.Initialized() {
		if sup, err := o.tree.Superior(o.originLocality); err == nil && sup == target {
			return nil
		}
	}
	id, err := o.tree.NewFixed(fmt.Sprintf("%s-origin", mode), target, math.TransformIdentity())
	if err != nil {
		return fmt.Errorf("switching origin to %s: %w", mode, err)
	}
	return o.install(mode, id)
}

func (o *Origin) useFloating(mode Mode, candidate locality.ID) error {
	if kind, err := o.tree.Kind(candidate); err != nil {
		return fmt.Errorf("switching origin to %s: %w", mode, err)
	} else if kind == locality.KindFloatingOrigin {
		return nil
	}
	if o.floatsOn(candidate) {
		return nil
	}
	if o.player.Locality() == o.kamera.Locality() {
		return fmt.Errorf("switching origin to %s: %w", mode, ErrAmbiguousOrigin)
	}
	id, err := o.tree.NewFloatingOrigin(fmt.Sprintf("%s-origin", mode), candidate, o.maxDistance)
	if err != nil {
		return fmt.Errorf("switching origin to %s: %w", mode, err)
	}
	return o.install(mode, id)
}

// floatsOn reports whether the active origin is a floating origin anchored on candidate.
func (o *Origin) floatsOn(candidate locality.ID) bool {
	if !o.Initialized() {
		return false
	}
	anchor, err := o.tree.Anchor(o.originLocality)
	return err == nil && anchor == candidate
}

// SetAnchor makes the active floating origin follow anchor instead. The
// floating origin keeps its place in the world until the next snap. For a
// fixed origin the origin locality is moved under anchor.
func (o *Origin) SetAnchor(anchor locality.ID) error {
	if !o.Initialized() {
		return ErrOriginNotInitialized
	}
	if err := o.tree.Reanchor(o.originLocality, anchor, locality.RecomputeToPreserveAbsolutePose, math.Transform{}); err != nil {
		return fmt.Errorf("setting origin anchor to %s: %w", o.tree.Describe(anchor), err)
	}
	mode := o.mode
	switch anchor {
	case o.player.Locality():
		mode = o.retarget(ModePlayerFixed, ModePlayerFloating)
	case o.kamera.Locality():
		mode = o.retarget(ModeKameraFixed, ModeKameraFloating)
	}
	current := o.tree.Describe(o.originLocality)
	core.LogInfo("origin %s now follows %s (%s)", current, o.tree.Describe(anchor), mode)
	o.record(o.mode, mode, current, current)
	o.mode = mode
	return nil
}

func (o *Origin) retarget(fixed, floating Mode) Mode {
	if kind, _ := o.tree.Kind(o.originLocality); kind == locality.KindFloatingOrigin {
		return floating
	}
	return fixed
}

// SetMaxDistance changes the threshold of the active floating origin and of
// floating origins created later.
func (o *Origin) SetMaxDistance(d float64) error {
	if o.Initialized() {
		if kind, _ := o.tree.Kind(o.originLocality); kind == locality.KindFloatingOrigin {
			if err := o.tree.SetMaxDistance(o.originLocality, d); err != nil {
				return err
			}
		}
	}
	o.maxDistance = d
	return nil
}

func (o *Origin) install(mode Mode, id locality.ID) error {
	prior := o.tree.Describe(o.originLocality)
	previous := o.owned
	from := o.mode

	o.originLocality = id
	o.owned = o.tree.Handle(id)
	o.mode = mode

	current := o.tree.Describe(id)
	core.LogInfo("origin changed from %s (%s) to %s (%s)", prior, from, current, mode)

	if previous.ID != id && o.tree.Holds(previous) {
		if err := o.tree.Remove(previous.ID); err != nil {
			core.LogWarn("could not remove previous origin locality: %s", err)
		}
	} else if previous != locality.NoHandle && previous.ID != id {
		core.LogWarn("previous origin locality #%d was removed behind the origin's back", previous.ID)
	}
	o.record(from, mode, prior, current)
	return nil
}

func (o *Origin) record(from, to Mode, prior, current string) {
	t := Transition{
		Frame:   o.frame,
		From:    from,
		To:      to,
		Prior:   prior,
		Current: current,
	}
	o.history.Push(t)
	o.events.Fire(core.EventContext{Type: core.EVENT_CODE_ORIGIN_CHANGED, Data: t})
}

// FloatingAnchor returns what the origin really tracks: the anchor of a
// floating origin, otherwise the origin locality itself.
func (o *Origin) FloatingAnchor() (locality.ID, error) {
	if !o.Initialized() {
		return locality.InvalidID, ErrOriginNotInitialized
	}
	if anchor, err := o.tree.Anchor(o.originLocality); err == nil {
		return anchor, nil
	}
	return o.originLocality, nil
}

// TransformRelativeToOrigin returns the pose of id in the origin's frame.
func (o *Origin) TransformRelativeToOrigin(id locality.ID) (math.Transform, error) {
	if !o.Initialized() {
		return math.Transform{}, ErrOriginNotInitialized
	}
	return o.tree.RelativeTransform(id, o.originLocality)
}

// ProjectionOrigin returns the projection origin, creating it on first use.
func (o *Origin) ProjectionOrigin() (locality.ID, error) {
	if o.tree.Holds(o.projectionOrigin) {
		return o.projectionOrigin.ID, nil
	}
	id, err := o.tree.NewProjectionOrigin(projectionName, o)
	if err != nil {
		return locality.InvalidID, err
	}
	o.projectionOrigin = o.tree.Handle(id)
	return id, nil
}

// ForcedProjectionBaseTransform returns the pose of id relative to the
// projection origin, which sits on the tracked anchor without its rotation.
func (o *Origin) ForcedProjectionBaseTransform(id locality.ID) (math.Transform, error) {
	if !o.Initialized() {
		return math.Transform{}, ErrOriginNotInitialized
	}
	proj, err := o.ProjectionOrigin()
	if err != nil {
		return math.Transform{}, err
	}
	return o.tree.RelativeTransform(id, proj)
}

// ForcedPerspectiveTransform keeps the direction of id as seen from the
// projection origin but places it at desiredDistance.
func (o *Origin) ForcedPerspectiveTransform(id locality.ID, desiredDistance float64) (math.Transform, error) {
	base, err := o.ForcedProjectionBaseTransform(id)
	if err != nil {
		return math.Transform{}, err
	}
	length := base.Origin.Length()
	if length == 0 {
		return math.Transform{}, fmt.Errorf("forced perspective of %s: %w", o.tree.Describe(id), ErrZeroProjectionDirection)
	}
	return base.WithOrigin(base.Origin.MulScalar(desiredDistance / length)), nil
}

// Update advances one frame: cached projection transforms expire, then the
// active origin checks whether it has to snap. Call it after the anchors
// have moved for this frame.
func (o *Origin) Update(deltaTime float64) error {
	o.frame++
	o.tree.BeginFrame(o.frame)
	if !o.Initialized() {
		return nil
	}
	step, err := o.tree.Advance(o.originLocality, deltaTime)
	if err != nil {
		return fmt.Errorf("updating origin %s: %w", o.tree.Describe(o.originLocality), err)
	}
	if step.Snapped {
		core.LogDebug("origin %s snapped at frame %d", o.tree.Describe(o.originLocality), o.frame)
		o.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_ORIGIN_SNAPPED,
			Data: &core.SnapEvent{Locality: o.tree.Name(o.originLocality), Distance: step.Distance},
		})
	}
	return nil
}

// Shutdown removes the localities the origin created.
func (o *Origin) Shutdown() error {
	var errs []error
	if o.tree.Holds(o.projectionOrigin) {
		errs = append(errs, o.tree.Remove(o.projectionOrigin.ID))
	}
	if o.tree.Holds(o.owned) {
		errs = append(errs, o.tree.Remove(o.owned.ID))
	}
	o.projectionOrigin = locality.NoHandle
	o.owned = locality.NoHandle
	o.originLocality = locality.InvalidID
	o.mode = ModeNone
	return errors.Join(errs...)
}
