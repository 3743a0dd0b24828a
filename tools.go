//go:build tools
// +build tools

// Package tools pins the code generators run through go generate.
package tools

import (
	_ "go.uber.org/mock/mockgen"
)
