//go:build windows || ios || android || (!amd64 && !arm64)

package main

import (
	"errors"

	uijs "github.com/appsys/uijs-go"
)

func newLVGLToolkit() (uijs.Toolkit, error) {
	return nil, errors.New("the lvgl toolkit is not available on this platform")
}
