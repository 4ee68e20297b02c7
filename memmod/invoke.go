package memmod

import (
	"fmt"
	"runtime"
	"unsafe"
)

// invokeEntry calls a resolved entry address with the fixed v1 convention:
// fn(program_path, argc, argv) returning an int32 status. argv[0] is the
// program path, followed by the forwarded arguments, NUL-terminated strings
// with a trailing NULL pointer.
//
// Casting an address to callable code is the one unsafe operation in this
// system; every native module must honor this exact convention.
func invokeEntry(addr uintptr, programPath string, args []string) (int32, error) {
	if !invokeSupported {
		return 0, fmt.Errorf("%w: native invocation unavailable in this build", ErrUnsupported)
	}
	if addr == 0 {
		return 0, fmt.Errorf("invoke: nil entry address")
	}

	vec := make([][]byte, 0, len(args)+1)
	cPath, err := cStringBytes(programPath)
	if err != nil {
		return 0, fmt.Errorf("invoke: program path: %w", err)
	}
	vec = append(vec, cPath)
	for _, arg := range args {
		cArg, err := cStringBytes(arg)
		if err != nil {
			return 0, fmt.Errorf("invoke: argument %q: %w", arg, err)
		}
		vec = append(vec, cArg)
	}

	argv := make([]uintptr, 0, len(vec)+1)
	for _, s := range vec {
		argv = append(argv, cStringPtr(s))
	}
	argv = append(argv, 0)

	ret := cCall3(addr, cStringPtr(cPath), uintptr(len(vec)), uintptr(unsafe.Pointer(&argv[0])))
	runtime.KeepAlive(vec)
	runtime.KeepAlive(argv)
	return int32(ret), nil
}
