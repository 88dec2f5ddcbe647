//go:build tools

// Package tools tracks tool dependencies via go mod.
package tools

import (
	_ "github.com/dmarkham/enumer"
	_ "go.uber.org/mock/mockgen"
)
