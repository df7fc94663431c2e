//go:build !windows && !ios && !android && (amd64 || arm64)

package main

import (
	uijs "github.com/appsys/uijs-go"
	"github.com/appsys/uijs-go/lvtk"
)

func newLVGLToolkit() (uijs.Toolkit, error) {
	return lvtk.New()
}
