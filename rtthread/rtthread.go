// Copyright 2016 by Thorsten von Eicken, see LICENSE file

// Package rtthread pins the calling goroutine to its own kernel thread and
// asks the scheduler for a realtime class, so a goroutine that must keep
// SPI transaction latency bounded isn't preempted by unrelated load on the
// host.
package rtthread

import (
	"runtime"
	"syscall"
	"unsafe"
)

// scheduling policies for SYS_SCHED_SETSCHEDULER
const (
	fifo = 1
	rr   = 2
)

type schedParam struct {
	Priority int
}

// Realtime locks the calling goroutine to its own kernel thread and
// requests round-robin realtime scheduling at priority 10 (lower-middle
// of the realtime range) for that thread. The call is best-effort: a
// caller without CAP_SYS_NICE will get a non-nil error back and should log
// it and continue on a normal thread rather than treat it as fatal.
func Realtime() error {
	runtime.LockOSThread()
	tid := syscall.Gettid()
	res, _, err := syscall.RawSyscall(syscall.SYS_SCHED_SETSCHEDULER, uintptr(tid),
		uintptr(rr), uintptr(unsafe.Pointer(&schedParam{10})))
	if res == 0 {
		return nil
	}
	return err
}
