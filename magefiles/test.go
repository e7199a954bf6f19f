//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Test mg.Namespace

// Runs the unit tests with the race detector.
func (Test) All() error {
	return goStream(nil, "test", "-race", "-count=1", "./...")
}

// Runs the engine tests with a coverage profile in coverage.out.
func (Test) Cover() error {
	return goStream(nil, "test", "-coverprofile=coverage.out", "./engine/...")
}
