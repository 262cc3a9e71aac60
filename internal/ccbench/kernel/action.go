package kernel

import "github.com/maemo32/ccbench/internal/ccbench/atomicops"

// ActionKind names one step of a role's choreography. The Round driver
// (internal/ccbench/engine) interprets these; this package only
// produces the sequences and the underlying operation primitives.
type ActionKind int

const (
	// ActBarrier blocks on the per-group slot named by Action.Slot (1 or
	// 2, mapping to barrier.GroupSlot(group, 0) / (group, 1)).
	ActBarrier ActionKind = iota
	// ActLoad performs a measured, PFD-bracketed load of the contended word.
	ActLoad
	// ActLoadNoPF is a plain load issued by a non-measuring role, present
	// only so the role touches the line (keeping it Shared) without its
	// own sample being reported as "the" measurement for the test.
	ActLoadNoPF
	// ActStore performs a measured, PFD-bracketed store.
	ActStore
	// ActInvalidate performs an unmeasured store issued specifically to
	// push the line out of every other role's cache before role 0 runs
	// its measured operation.
	ActInvalidate
	// ActCAS performs one single-shot CAS attempt (CAS kernel, §4.6).
	ActCAS
	// ActCASEventual walks the stride-hiding loop to the contended line,
	// claims the rep's first-winner slot on contact, and makes one CAS
	// attempt there; a failed CAS is not retried (CAS-eventually kernel,
	// §4.6).
	ActCASEventual
	// ActCASUntilSuccess retries CAS with backoff until this rank
	// succeeds, and — unlike ActCASEventual — claims first_winner only
	// after its own successful CAS, not on first contact. This is the
	// asymmetry spec.md §9 calls out.
	ActCASUntilSuccess
	// ActFAI performs one fetch-and-increment.
	ActFAI
	// ActTAS retries test-and-set until it observes the slot free.
	ActTAS
	// ActSWAP performs one unconditional swap.
	ActSWAP
	// ActResetWord unmeasured-resets the contended word to 0, used after
	// ActTAS so the slot is reusable on the next repetition.
	ActResetWord
	// ActPointerChase walks the region's Next-linked arena for NLines
	// steps, ignoring stride (spec.md §4.6's LOAD_FROM_MEM_SIZE kernel).
	ActPointerChase
	// ActFence issues one of the named fence primitives as the measured
	// operation itself (the LFENCE/SFENCE/MFENCE/PAUSE/NOP kernels).
	ActFence
)

// FenceOp names which fence primitive an ActFence action measures.
type FenceOp int

const (
	OpLFence FenceOp = iota
	OpSFence
	OpMFence
	OpPause
	OpNop
)

// Kind maps a FenceOp to the atomicops.FenceKind that implements it.
// LFENCE/PAUSE are modeled as a partial (single-sided) fence, SFENCE as
// a double-write store fence, MFENCE as a full round-trip, and NOP
// issues no ordering at all — the same mapping atomicops.Fence already
// uses for spec.md §6's fence-policy table, reused here at kernel
// granularity instead of per-load/store granularity.
func (f FenceOp) Kind() atomicops.FenceKind {
	switch f {
	case OpLFence:
		return atomicops.FencePartial
	case OpSFence:
		return atomicops.FenceDoubleWrite
	case OpMFence:
		return atomicops.FenceFull
	case OpPause:
		return atomicops.FencePartial
	default:
		return atomicops.FenceNone
	}
}

// Action is one interpreted step of a role's choreography.
type Action struct {
	Kind  ActionKind
	Slot  int     // ActBarrier: 1 or 2, per-group slot index
	Fence FenceOp // ActFence only
}

func bar(slot int) Action      { return Action{Kind: ActBarrier, Slot: slot} }
func op(k ActionKind) Action   { return Action{Kind: k} }
func fence(f FenceOp) Action   { return Action{Kind: ActFence, Fence: f} }

var seqLoad = op(ActLoad)
var seqLoadNoPF = op(ActLoadNoPF)
var seqStore = op(ActStore)
var seqInvalidate = op(ActInvalidate)
var seqResetWord = op(ActResetWord)
var seqPointerChase = op(ActPointerChase)
