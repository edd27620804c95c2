//go:build tools
// +build tools

// Package tools tracks tool dependencies (mockgen) in go.mod.
package pubsubchat

import (
	_ "go.uber.org/mock/mockgen"
)
