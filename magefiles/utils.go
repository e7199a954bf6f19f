//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// goStream runs the go tool with its output on the terminal. env entries are
// added to the process environment.
func goStream(env map[string]string, args ...string) error {
	fmt.Printf("Executing: go %s\n", strings.Join(args, " "))
	return sh.RunWithV(env, mg.GoCmd(), args...)
}

// goQuiet prints the output of the go tool only with -v or on failure.
func goQuiet(args ...string) error {
	if mg.Verbose() {
		return goStream(nil, args...)
	}
	out, err := sh.Output(mg.GoCmd(), args...)
	if err != nil {
		fmt.Printf("go %s failed:\n%s\n", strings.Join(args, " "), out)
		return err
	}
	return nil
}
