package core

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusStopsAtHandler(t *testing.T) {
	bus := NewEventBus()
	var order []string
	first, second := &struct{ a int }{}, &struct{ b int }{}

	require.True(t, bus.Register(EVENT_CODE_ORIGIN_SNAPPED, first, func(EventContext) bool {
		order = append(order, "first")
		return false
	}))
	require.True(t, bus.Register(EVENT_CODE_ORIGIN_SNAPPED, second, func(EventContext) bool {
		order = append(order, "second")
		return true
	}))
	assert.False(t, bus.Register(EVENT_CODE_ORIGIN_SNAPPED, first, func(EventContext) bool { return false }))
	assert.False(t, bus.Register(EVENT_CODE_ORIGIN_SNAPPED, nil, nil))

	assert.True(t, bus.Fire(EventContext{Type: EVENT_CODE_ORIGIN_SNAPPED}))
	assert.Equal(t, []string{"first", "second"}, order)

	assert.True(t, bus.Unregister(EVENT_CODE_ORIGIN_SNAPPED, second))
	assert.False(t, bus.Unregister(EVENT_CODE_ORIGIN_SNAPPED, second))
	assert.False(t, bus.Fire(EventContext{Type: EVENT_CODE_ORIGIN_SNAPPED}))

	require.NoError(t, bus.Shutdown())
	order = nil
	bus.Fire(EventContext{Type: EVENT_CODE_ORIGIN_SNAPPED})
	assert.Empty(t, order)

	var nilBus *EventBus
	assert.False(t, nilBus.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}

func TestIdentifierPoolReusesSlots(t *testing.T) {
	pool := NewIdentifierPool[string](2)
	a, b, c := "a", "b", "c"

	assert.Equal(t, uint32(0), pool.Acquire(&a))
	assert.Equal(t, uint32(1), pool.Acquire(&b))
	require.NoError(t, pool.Release(0))
	assert.Error(t, pool.Release(0))
	assert.Error(t, pool.Release(7))

	_, ok := pool.Get(0)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), pool.Acquire(&c))
	got, ok := pool.Get(0)
	require.True(t, ok)
	assert.Equal(t, "c", *got)

	assert.Equal(t, 2, pool.Len())
	assert.Equal(t, 2, pool.Capacity())
	var seen []uint32
	pool.Each(func(id uint32, _ *string) { seen = append(seen, id) })
	assert.Equal(t, []uint32{0, 1}, seen)
}

func TestClockWithSource(t *testing.T) {
	now := time.Unix(0, 0)
	clock := NewClockWithSource(func() time.Time { return now })

	now = now.Add(time.Second)
	clock.Update()
	assert.Zero(t, clock.Elapsed())

	clock.Start()
	now = now.Add(1500 * time.Millisecond)
	clock.Update()
	assert.InDelta(t, 1.5, clock.Elapsed(), 1e-9)

	clock.Stop()
	now = now.Add(time.Second)
	clock.Update()
	assert.InDelta(t, 1.5, clock.Elapsed(), 1e-9)
}

func TestMetricsAverages(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.02)
	}
	fps, avg := m.Frame()
	assert.InDelta(t, 20.0, avg, 1e-9)
	assert.Zero(t, fps)
	assert.Equal(t, uint64(AVG_COUNT), m.TotalFrames)

	for i := 0; i < 30; i++ {
		m.Update(0.02)
	}
	assert.Equal(t, float64(50), m.FPS)

	m.RecordSnap()
	assert.Equal(t, uint64(1), m.Snaps)
}

func TestInputEdgesAndEvents(t *testing.T) {
	bus := NewEventBus()
	in := NewInput(bus)
	var keys []EventCode
	bus.Register(EVENT_CODE_KEY_PRESSED, in, func(c EventContext) bool {
		keys = append(keys, c.Type)
		return false
	})
	bus.Register(EVENT_CODE_KEY_RELEASED, in, func(c EventContext) bool {
		keys = append(keys, c.Type)
		return false
	})

	in.ProcessKey(KEY_W, true)
	in.ProcessKey(KEY_W, true)
	assert.True(t, in.IsKeyDown(KEY_W))
	assert.False(t, in.WasKeyDown(KEY_W))
	in.Update(0)

	in.ProcessKey(KEY_W, false)
	assert.True(t, in.KeyReleased(KEY_W))
	in.Update(0)
	assert.False(t, in.KeyReleased(KEY_W))
	assert.Equal(t, []EventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED}, keys)

	in.ProcessMouseMove(10, 20)
	in.Update(0)
	in.ProcessMouseMove(13, 16)
	dx, dy := in.MouseDelta()
	assert.Equal(t, int32(3), dx)
	assert.Equal(t, int32(-4), dy)

	in.ProcessButton(BUTTON_LEFT, true)
	assert.True(t, in.IsButtonDown(BUTTON_LEFT))
	assert.False(t, in.WasButtonDown(BUTTON_LEFT))
}

func TestLogLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	defer SetLogOutput(os.Stderr)

	level, err := ParseLogLevel("warn")
	require.NoError(t, err)
	SetLogLevel(level)
	defer SetLogLevel(DebugLevel)

	LogInfo("hidden %d", 1)
	assert.Empty(t, buf.String())
	LogWarn("origin %s snapped", "player")
	assert.Contains(t, buf.String(), "origin player snapped")

	_, err = ParseLogLevel("loud")
	assert.Error(t, err)
}
