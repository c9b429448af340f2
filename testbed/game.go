package testbed

import (
	"github.com/spaghettifunk/kosmos/engine"
	"github.com/spaghettifunk/kosmos/engine/config"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/spaghettifunk/kosmos/engine/origin"
)

// modes the testbed cycles through with KEY_M or while on autopilot.
var modes = []origin.Mode{
	origin.ModePlayerFloating,
	origin.ModeKameraFloating,
	origin.ModePlayerFixed,
	origin.ModeKameraFixed,
}

const modeSwitchDistance = 2000.0

type gameState struct {
	autopilot      bool
	autopilotSpeed float64
	orbitSpeed     float64
	travelled      float64
	snaps          int
	modeIndex      int
	lastReport     float64
}

// TestGame flies the player away from the world origin so that floating
// origin snaps can be watched in the logs without a window.
type TestGame struct {
	*engine.Game
}

func NewTestGame(cfg *config.Config, path string) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				Name:            "Kosmos Testbed",
				Config:          cfg,
				ConfigPath:      path,
				TargetFrameRate: 60,
			},
			State: &gameState{
				autopilot:      cfg.Testbed.Autopilot,
				autopilotSpeed: cfg.Testbed.AutopilotSpeed,
				orbitSpeed:     0.25,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnConfigReload = tg.OnConfigReload
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	for i, m := range modes {
		if m == g.Origin.Mode() {
			state.modeIndex = i
		}
	}

	g.Events.Register(core.EVENT_CODE_ORIGIN_CHANGED, g, g.gameOnEvent)
	g.Events.Register(core.EVENT_CODE_ORIGIN_SNAPPED, g, g.gameOnEvent)
	g.Events.Register(core.EVENT_CODE_KEY_RELEASED, g, g.gameOnKey)
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)

	if g.Input.KeyReleased(core.KEY_O) {
		state.autopilot = !state.autopilot
		core.LogInfo("autopilot enabled: %t", state.autopilot)
	}
	if !state.autopilot {
		return nil
	}

	step := state.autopilotSpeed * deltaTime
	if err := g.SystemManager.Player.Translate(math.NewVec3Forward().MulScalar(step)); err != nil {
		return err
	}
	state.travelled += step
	if int(state.travelled/modeSwitchDistance) != int((state.travelled-step)/modeSwitchDistance) {
		if err := g.nextMode(); err != nil {
			core.LogWarn("switching origin mode: %s", err)
		}
	}

	if !g.SystemManager.Kamera.Attached() {
		if err := g.SystemManager.Kamera.Orbit(state.orbitSpeed*deltaTime, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

func (g *TestGame) Render(deltaTime float64) error {
	state := g.State.(*gameState)
	if state.travelled-state.lastReport < state.autopilotSpeed && state.lastReport != 0 {
		return nil
	}
	state.lastReport = state.travelled

	player, err := g.Tree.AbsoluteTransform(g.SystemManager.Player.Locality())
	if err != nil {
		return err
	}
	relative, err := g.Origin.TransformRelativeToOrigin(g.SystemManager.Player.Locality())
	if err != nil {
		return err
	}
	nodes := g.SystemManager.Kamera.Nodes()
	eye := nodes.GetPosition()

	core.LogDebug(
		"Origin=%s Travelled=%.1f Snaps=%d\n"+
			"Player Abs=[%10.3f %10.3f %10.3f] Rel=[%7.3f %7.3f %7.3f]\n"+
			"Kamera Eye=[%7.3f %7.3f %7.3f]",
		g.Origin.Mode(), state.travelled, state.snaps,
		player.Origin.X, player.Origin.Y, player.Origin.Z,
		relative.Origin.X, relative.Origin.Y, relative.Origin.Z,
		eye.X, eye.Y, eye.Z,
	)
	return nil
}

func (g *TestGame) OnConfigReload(c *config.Config) error {
	state := g.State.(*gameState)
	state.autopilot = c.Testbed.Autopilot
	state.autopilotSpeed = c.Testbed.AutopilotSpeed
	for i, m := range modes {
		if m == g.Origin.Mode() {
			state.modeIndex = i
		}
	}
	core.LogInfo("testbed reloaded: autopilot=%t speed=%.1f", state.autopilot, state.autopilotSpeed)
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	g.Events.Unregister(core.EVENT_CODE_ORIGIN_CHANGED, g)
	g.Events.Unregister(core.EVENT_CODE_ORIGIN_SNAPPED, g)
	g.Events.Unregister(core.EVENT_CODE_KEY_RELEASED, g)
	core.LogInfo("testbed travelled %.1f units with %d snaps", state.travelled, state.snaps)
	return nil
}

func (g *TestGame) nextMode() error {
	state := g.State.(*gameState)
	state.modeIndex = (state.modeIndex + 1) % len(modes)
	return g.Origin.UseMode(modes[state.modeIndex])
}

func (g *TestGame) gameOnEvent(context core.EventContext) bool {
	state := g.State.(*gameState)
	switch context.Type {
	case core.EVENT_CODE_ORIGIN_CHANGED:
		t, ok := context.Data.(origin.Transition)
		if !ok {
			return false
		}
		core.LogInfo("origin changed at frame %d: %s (%s) -> %s (%s)", t.Frame, t.From, t.Prior, t.To, t.Current)
	case core.EVENT_CODE_ORIGIN_SNAPPED:
		se, ok := context.Data.(*core.SnapEvent)
		if !ok {
			return false
		}
		state.snaps++
		core.LogInfo("snap #%d on %s after %.2f units", state.snaps, se.Locality, se.Distance)
	}
	// other listeners still want the event
	return false
}

func (g *TestGame) gameOnKey(context core.EventContext) bool {
	ke, ok := context.Data.(*core.KeyEvent)
	if !ok {
		return false
	}
	switch ke.KeyCode {
	case core.KEY_M:
		if err := g.nextMode(); err != nil {
			core.LogWarn("switching origin mode: %s", err)
		}
		return true
	case core.KEY_P:
		rel, err := g.Origin.TransformRelativeToOrigin(g.SystemManager.Player.Locality())
		if err != nil {
			core.LogError(err.Error())
			return true
		}
		core.LogDebug("Pos:[%.2f, %.2f, %.2f]", rel.Origin.X, rel.Origin.Y, rel.Origin.Z)
		return true
	}
	return false
}
