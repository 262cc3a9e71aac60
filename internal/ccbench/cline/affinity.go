package cline

// Affinity is the thread-pinning and page-locking surface the Buffer
// allocator and the round driver both depend on. It is the concrete
// realization of spec.md's "topology/NUMA allocator" external
// collaborator: the engine sees it only through this interface.
type Affinity interface {
	// PinCurrentThread pins the calling OS thread to the given logical
	// core. Callers must have already called runtime.LockOSThread.
	PinCurrentThread(core int) error

	// PinToNode best-effort pins the calling OS thread to some core on
	// the given NUMA node, for first-touch placement during buffer
	// allocation. Returns a restore function and a nil error on success;
	// on platforms without NUMA topology information it returns a non-nil
	// error so the caller falls back to plain allocation, per spec.md §4.2.
	PinToNode(node int) (restore func(), err error)

	// LockPages best-effort locks buf's pages in memory. Failure is
	// always non-fatal (spec.md §4.2: "best-effort page-lock ...
	// failure is non-fatal").
	LockPages(buf []byte) (unlock func(), err error)
}
