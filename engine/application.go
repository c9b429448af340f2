package engine

import (
	"github.com/spaghettifunk/kosmos/engine/config"
)

type ApplicationConfig struct {
	// The application name used in logs.
	Name string
	// Configuration applied at start up. Defaults are used when nil.
	Config *config.Config
	// File watched for configuration changes. Empty disables hot reload.
	ConfigPath string
	// Frames per second Run aims for. 0 runs as fast as possible.
	TargetFrameRate float64
}
