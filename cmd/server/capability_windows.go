//go:build windows

package main

import "github.com/GriffinCanCode/conscope/internal/console"

func platformCapability() console.Capability {
	return console.NewAttached()
}
