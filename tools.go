//go:build tools
// +build tools

// Package tools declares tool dependencies for this module.
//
// These imports are not used at runtime. They keep mockgen, invoked via
// `go generate`, tracked in go.mod and go.sum.
package kaychat

import (
	_ "go.uber.org/mock/mockgen"
)
