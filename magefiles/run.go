//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed in a window with the sample config.
func (Run) Engine() error {
	fmt.Println("Run engine...")
	return goStream(nil, "run", ".", "--config", "config.toml")
}

// Runs a few hundred headless frames and writes a screenshot.
func (Run) Headless() error {
	env := map[string]string{"TESTBED_SCREENSHOT": "screenshot.bmp"}
	return goStream(env, "run", ".", "--config", "config.toml", "--headless", "--frames", "300")
}
