//go:build (linux || darwin) && cgo

package memmod

/*
#include <stdint.h>

typedef uintptr_t (*astcrun_fn0)(void);
typedef uintptr_t (*astcrun_fn1)(uintptr_t);
typedef uintptr_t (*astcrun_fn2)(uintptr_t, uintptr_t);
typedef uintptr_t (*astcrun_fn3)(uintptr_t, uintptr_t, uintptr_t);

static uintptr_t astcrun_call0(uintptr_t fn) {
	return ((astcrun_fn0)fn)();
}

static uintptr_t astcrun_call1(uintptr_t fn, uintptr_t a0) {
	return ((astcrun_fn1)fn)(a0);
}

static uintptr_t astcrun_call2(uintptr_t fn, uintptr_t a0, uintptr_t a1) {
	return ((astcrun_fn2)fn)(a0, a1);
}

static uintptr_t astcrun_call3(uintptr_t fn, uintptr_t a0, uintptr_t a1, uintptr_t a2) {
	return ((astcrun_fn3)fn)(a0, a1, a2);
}
*/
import "C"

const invokeSupported = true

func cCall0(fn uintptr) uintptr {
	return uintptr(C.astcrun_call0(C.uintptr_t(fn)))
}

func cCall1(fn, a0 uintptr) uintptr {
	return uintptr(C.astcrun_call1(C.uintptr_t(fn), C.uintptr_t(a0)))
}

func cCall2(fn, a0, a1 uintptr) uintptr {
	return uintptr(C.astcrun_call2(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1)))
}

func cCall3(fn, a0, a1, a2 uintptr) uintptr {
	return uintptr(C.astcrun_call3(C.uintptr_t(fn), C.uintptr_t(a0), C.uintptr_t(a1), C.uintptr_t(a2)))
}
