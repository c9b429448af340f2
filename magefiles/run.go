//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed. KOSMOS_CONFIG overrides the watched configuration file.
func (Run) Engine() error {
	config := os.Getenv("KOSMOS_CONFIG")
	if config == "" {
		config = "kosmos.toml"
	}
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", ".", "-config", config), withStream()); err != nil {
		return err
	}
	return nil
}
