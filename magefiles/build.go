//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Downloads the modules and builds the testbed binary into bin/.
func (Build) All() error {
	if err := goQuiet("mod", "download"); err != nil {
		return err
	}
	if err := goQuiet("vet", "./..."); err != nil {
		return err
	}
	return goStream(nil, "build", "-o", "bin/testbed", ".")
}
