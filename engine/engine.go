package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spaghettifunk/kosmos/engine/config"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/origin"
	"github.com/spaghettifunk/kosmos/engine/systems"
	"github.com/yohamta/donburi"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const worldLocalityName = "world"

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	clock         *core.Clock
	lastTime      float64
	metrics       *core.Metrics
	events        *core.EventBus
	input         *core.Input
	tree          *locality.Tree
	world         donburi.World
	root          locality.ID
	origin        *origin.Origin
	systemManager *systems.SystemManager

	config  *config.Config
	reloads <-chan *config.Config
	cancel  context.CancelFunc
}

func New(g *Game) (*Engine, error) {
	if g.ApplicationConfig == nil {
		g.ApplicationConfig = &ApplicationConfig{Name: "kosmos"}
	}
	cfg := g.ApplicationConfig.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	core.SetLogLevel(cfg.Level())

	e := &Engine{
		currentStage: EngineStageBooting,
		gameInstance: g,
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		events:       core.NewEventBus(),
		tree:         locality.NewTree(),
		world:        donburi.NewWorld(),
		config:       cfg,
	}
	e.input = core.NewInput(e.events)

	root, err := e.tree.NewFixed(worldLocalityName, locality.InvalidID, math.TransformIdentity())
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.root = root

	sm, err := systems.NewSystemManager(e.tree, e.world, root, systems.SystemManagerConfig{
		Player:      systems.PlayerConfig{Start: cfg.Player.Start.Vec3()},
		Kamera:      systems.KameraConfig{EyeOffset: cfg.Kamera.EyeOffset.Vec3()},
		MoveSpeed:   cfg.Player.MoveSpeed,
		TurnSpeed:   cfg.Player.TurnSpeed,
		FirstPerson: cfg.Kamera.FirstPerson,
	})
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.systemManager = sm
	e.origin = origin.New(e.tree, sm.Player, sm.Kamera,
		origin.WithMaxDistance(cfg.Origin.MaxDistance),
		origin.WithHistorySize(cfg.Origin.HistorySize),
		origin.WithEvents(e.events),
	)

	g.SystemManager = sm
	g.Tree = e.tree
	g.Origin = e.origin
	g.Input = e.input
	g.Events = e.events

	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing

	// register some events
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_KEY_PRESSED, e, e.onKey)
	e.events.Register(core.EVENT_CODE_ORIGIN_SNAPPED, e, e.onSnap)

	mode, err := e.config.Mode()
	if err != nil {
		return err
	}
	if err := e.origin.UseMode(mode); err != nil {
		core.LogError("initial origin mode %s: %s", mode, err)
		return err
	}

	if path := e.gameInstance.ApplicationConfig.ConfigPath; path != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		reloads, err := config.Watch(watchCtx, path)
		if err != nil {
			cancel()
			return fmt.Errorf("watching %s: %w", path, err)
		}
		e.reloads = reloads
		e.cancel = cancel
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	e.isRunning = true
	e.currentStage = EngineStageInitialized
	return nil
}

// Step runs one frame. Anchors move in the game update, the origin checks
// for a snap afterwards, and rendering reads the settled poses.
func (e *Engine) Step(delta float64) error {
	if err := e.applyPendingConfig(); err != nil {
		return err
	}
	if e.gameInstance.FnUpdate != nil {
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			return fmt.Errorf("game update: %w", err)
		}
	}
	if err := e.systemManager.Update(e.input, delta); err != nil {
		return fmt.Errorf("controls: %w", err)
	}
	if err := e.origin.Update(delta); err != nil {
		return fmt.Errorf("origin update: %w", err)
	}
	if err := e.systemManager.Render(e.origin); err != nil {
		return fmt.Errorf("render nodes: %w", err)
	}
	if e.gameInstance.FnRender != nil {
		if err := e.gameInstance.FnRender(delta); err != nil {
			return fmt.Errorf("game render: %w", err)
		}
	}
	e.metrics.Update(delta)

	// NOTE: Input update/state copying should always be handled
	// after any input should be recorded; I.E. before this line.
	// As a safety, input is the last thing to be updated before
	// this frame ends.
	e.input.Update(delta)
	return nil
}

// Run steps the engine until ctx is done or the quit event is fired.
func (e *Engine) Run(ctx context.Context) error {
	if e.currentStage != EngineStageInitialized {
		return errors.New("engine must be initialized before running")
	}
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64
	if rate := e.gameInstance.ApplicationConfig.TargetFrameRate; rate > 0 {
		targetFrameSeconds = 1.0 / rate
	}

	for e.isRunning {
		select {
		case <-ctx.Done():
			core.LogInfo("context done, stopping %s", e.gameInstance.ApplicationConfig.Name)
			e.isRunning = false
			continue
		default:
		}

		// Update clock and get delta time.
		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.Step(delta); err != nil {
			core.LogError("frame %d failed, shutting down: %s", e.metrics.TotalFrames, err)
			e.isRunning = false
			return err
		}

		// Figure out how long the frame took and, if below
		// the target, give the rest back to the OS.
		e.clock.Update()
		frameElapsedTime := e.clock.Elapsed() - currentTime
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		// Update last time
		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()
	if e.cancel != nil {
		e.cancel()
	}
	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs,
		e.origin.Shutdown(),
		e.systemManager.Shutdown(),
		e.events.Shutdown(),
	)
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Metrics() *core.Metrics {
	return e.metrics
}

func (e *Engine) Origin() *origin.Origin {
	return e.origin
}

func (e *Engine) Tree() *locality.Tree {
	return e.tree
}

// World returns the root locality everything else hangs from.
func (e *Engine) World() locality.ID {
	return e.root
}

func (e *Engine) Config() *config.Config {
	return e.config
}

func (e *Engine) applyPendingConfig() error {
	for {
		select {
		case c, ok := <-e.reloads:
			if !ok {
				e.reloads = nil
				return nil
			}
			if err := e.ApplyConfig(c); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

// ApplyConfig switches the running engine to c. It must be called on the
// goroutine that steps the engine.
func (e *Engine) ApplyConfig(c *config.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	core.SetLogLevel(c.Level())
	if err := e.origin.SetMaxDistance(c.Origin.MaxDistance); err != nil {
		return err
	}
	mode, _ := c.Mode()
	if mode != e.origin.Mode() {
		if err := e.origin.UseMode(mode); err != nil {
			return err
		}
	}
	sm := e.systemManager
	sm.Controls.SetSpeeds(c.Player.MoveSpeed, c.Player.TurnSpeed)
	sm.Kamera.SetEyeOffset(c.Kamera.EyeOffset.Vec3())
	set := systems.ControlsFreeCamera
	if c.Kamera.FirstPerson {
		set = systems.ControlsFirstPerson
	}
	if sm.Controls.Active() != systems.ControlsUIFocus && sm.Controls.Active() != set {
		if err := sm.Controls.Activate(set); err != nil {
			return err
		}
	}
	e.config = c
	if e.gameInstance.FnOnConfigReload != nil {
		if err := e.gameInstance.FnOnConfigReload(c); err != nil {
			return err
		}
	}
	e.events.Fire(core.EventContext{Type: core.EVENT_CODE_CONFIG_RELOADED, Data: c})
	return nil
}

func (e *Engine) onEvent(context core.EventContext) bool {
	switch context.Type {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT recieved, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		core.LogError("wrong event associated with the event type `%d`", context.Type)
		return false
	}
	if ke.KeyCode == core.KEY_ESCAPE {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		e.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onSnap(context core.EventContext) bool {
	if se, ok := context.Data.(*core.SnapEvent); ok {
		e.metrics.RecordSnap()
		core.LogDebug("origin %s snapped after %.2f units", se.Locality, se.Distance)
	}
	return false
}
