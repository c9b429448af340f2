/*
This is an example of application that will use the
engine package to fly through a large world with a floating origin
*/
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/kosmos/engine"
	"github.com/spaghettifunk/kosmos/engine/config"
	"github.com/spaghettifunk/kosmos/engine/core"
	"github.com/spaghettifunk/kosmos/testbed"
)

func main() {
	path := flag.String("config", "kosmos.toml", "configuration file, watched for changes")
	flag.Parse()

	cfg, err := config.Load(*path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		core.LogWarn("%s not found, using the default configuration", *path)
		cfg = config.Default()
		*path = ""
	case err != nil:
		core.LogFatal("loading configuration: %s", err)
	}

	tb := testbed.NewTestGame(cfg, *path)

	e, err := engine.New(tb.Game)
	if err != nil {
		core.LogFatal("creating engine: %s", err)
	}

	// capture sigterm and other system call here
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(ctx); err != nil {
		core.LogFatal("initializing engine: %s", err)
	}

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal("engine stopped: %s", runErr)
	}
}
