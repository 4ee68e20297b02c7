//go:build !windows && !darwin

package platform

import "runtime"

const libExt = "so"

var osName = runtime.GOOS
