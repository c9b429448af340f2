package engine

import (
	"github.com/spaghettifunk/kosmos/engine/config"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/engine/locality"
	"github.com/spaghettifunk/kosmos/engine/origin"
	"github.com/spaghettifunk/kosmos/engine/systems"
)

// Game is the application the engine drives. The engine fills in the
// shared objects before FnInitialize is called.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	Tree              *locality.Tree
	Origin            *origin.Origin
	Input             *core.Input
	Events            *core.EventBus
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnConfigReload  OnConfigReload
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime float64) error
type OnConfigReload func(c *config.Config) error
type Shutdown func() error
