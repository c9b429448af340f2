package testbed

import (
	"context"
	"testing"

	"github.com/spaghettifunk/kosmos/engine"
	"github.com/spaghettifunk/kosmos/engine/config"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/origin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestGame(t *testing.T, cfg *config.Config) (*TestGame, *engine.Engine) {
	t.Helper()
	tg := NewTestGame(cfg, "")
	e, err := engine.New(tg.Game)
	require.NoError(t, err)
	require.NoError(t, e.Initialize(context.Background()))
	t.Cleanup(func() {
		assert.NoError(t, e.Shutdown())
	})
	return tg, e
}

func TestAutopilotSnapsAndSwitchesMode(t *testing.T) {
	cfg := config.Default()
	cfg.Origin.MaxDistance = 100
	cfg.Testbed.AutopilotSpeed = 150
	tg, e := startTestGame(t, cfg)

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Step(1))
	}
	state := tg.State.(*gameState)
	assert.InDelta(t, 1500.0, state.travelled, 1e-9)
	assert.Equal(t, 10, state.snaps)
	assert.Equal(t, uint64(10), e.Metrics().Snaps)
	assert.Equal(t, origin.ModePlayerFloating, e.Origin().Mode())

	// crossing 2000 units moves on to the next mode
	for i := 0; i < 4; i++ {
		require.NoError(t, e.Step(1))
	}
	assert.Equal(t, origin.ModeKameraFloating, e.Origin().Mode())
}

func TestAutopilotToggle(t *testing.T) {
	cfg := config.Default()
	tg, e := startTestGame(t, cfg)

	tg.Input.ProcessKey(core.KEY_O, true)
	require.NoError(t, e.Step(0.1))
	tg.Input.ProcessKey(core.KEY_O, false)
	require.NoError(t, e.Step(0.1))

	state := tg.State.(*gameState)
	assert.False(t, state.autopilot)
	travelled := state.travelled
	require.NoError(t, e.Step(0.1))
	assert.Equal(t, travelled, state.travelled)
}

func TestModeKeyCyclesOrigin(t *testing.T) {
	cfg := config.Default()
	cfg.Testbed.Autopilot = false
	tg, e := startTestGame(t, cfg)

	tg.Input.ProcessKey(core.KEY_M, true)
	tg.Input.ProcessKey(core.KEY_M, false)
	assert.Equal(t, origin.ModeKameraFloating, e.Origin().Mode())

	next := config.Default()
	next.Origin.Mode = "kamera"
	next.Testbed.AutopilotSpeed = 10
	require.NoError(t, e.ApplyConfig(next))
	state := tg.State.(*gameState)
	assert.Equal(t, 3, state.modeIndex)
	assert.True(t, state.autopilot)
	assert.Equal(t, 10.0, state.autopilotSpeed)
}
