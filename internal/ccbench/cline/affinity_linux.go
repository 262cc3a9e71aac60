//go:build linux

package cline

import (
	"runtime"

	"golang.org/x/sys/unix"

	"github.com/maemo32/ccbench/internal/ccbench/ccerr"
)

// linuxAffinity implements Affinity using golang.org/x/sys/unix's
// sched_setaffinity and mlock wrappers.
type linuxAffinity struct{}

// PlatformAffinity returns the Affinity implementation for this build.
func PlatformAffinity() Affinity { return linuxAffinity{} }

func (linuxAffinity) PinCurrentThread(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return ccerr.NewSystemError("cline.PinCurrentThread", "sched_setaffinity(core=%d): %v", core, err)
	}
	return nil
}

// coresPerNode is a conservative placeholder topology used when no
// richer NUMA topology source is wired in: node n owns cores
// [n*coresPerNode, (n+1)*coresPerNode). Real deployments with actual
// multi-socket topology should supply a node-aware Affinity of their own;
// this default only needs to be directionally correct for first-touch.
const coresPerNode = 1

func (l linuxAffinity) PinToNode(node int) (func(), error) {
	if node < 0 {
		return nil, ccerr.NewSystemError("cline.PinToNode", "negative node %d", node)
	}
	runtime.LockOSThread()
	core := node * coresPerNode
	if err := l.PinCurrentThread(core); err != nil {
		runtime.UnlockOSThread()
		return nil, err
	}
	return runtime.UnlockOSThread, nil
}

func (linuxAffinity) LockPages(buf []byte) (func(), error) {
	if len(buf) == 0 {
		return func() {}, nil
	}
	if err := unix.Mlock(buf); err != nil {
		return func() {}, ccerr.NewSystemError("cline.LockPages", "mlock: %v", err)
	}
	return func() { _ = unix.Munlock(buf) }, nil
}
