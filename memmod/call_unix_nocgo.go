//go:build (linux || darwin) && !cgo

package memmod

// Without cgo there is no way to call a raw code address with the C calling
// convention, so native strategies refuse to load and the dispatcher degrades
// to the builtin interpreter.
const invokeSupported = false

func cCall0(fn uintptr) uintptr { _ = fn; return 0 }

func cCall1(fn, a0 uintptr) uintptr { _, _ = fn, a0; return 0 }

func cCall2(fn, a0, a1 uintptr) uintptr { _, _, _ = fn, a0, a1; return 0 }

func cCall3(fn, a0, a1, a2 uintptr) uintptr { _, _, _, _ = fn, a0, a1, a2; return 0 }
