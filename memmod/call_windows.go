//go:build windows

package memmod

import "syscall"

const invokeSupported = true

func cCall0(fn uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn)
	return r
}

func cCall1(fn, a0 uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, a0)
	return r
}

func cCall2(fn, a0, a1 uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, a0, a1)
	return r
}

func cCall3(fn, a0, a1, a2 uintptr) uintptr {
	r, _, _ := syscall.SyscallN(fn, a0, a1, a2)
	return r
}
