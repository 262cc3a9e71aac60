//go:build !linux

package cline

import "github.com/maemo32/ccbench/internal/ccbench/ccerr"

// otherAffinity is the non-Linux fallback: pinning and locking are
// unsupported, so every call reports a (non-fatal, per contract) error
// and the caller proceeds without placement guarantees.
type otherAffinity struct{}

// PlatformAffinity returns the Affinity implementation for this build.
func PlatformAffinity() Affinity { return otherAffinity{} }

func (otherAffinity) PinCurrentThread(core int) error {
	return ccerr.NewSystemError("cline.PinCurrentThread", "thread pinning unsupported on this platform")
}

func (otherAffinity) PinToNode(node int) (func(), error) {
	return nil, ccerr.NewSystemError("cline.PinToNode", "NUMA placement unsupported on this platform")
}

func (otherAffinity) LockPages(buf []byte) (func(), error) {
	return func() {}, ccerr.NewSystemError("cline.LockPages", "page locking unsupported on this platform")
}
