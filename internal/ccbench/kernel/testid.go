// Package kernel implements the ~25 operation kernels of spec.md §4.6
// and the classic-mode choreography table of §4.7, expressed per the
// design-notes §9 rewrite: a pure function (test_id, role) -> []Action,
// interpreted by the round driver instead of a large nested switch.
package kernel

// TestID names one of the classic-mode choreographies (or, in seed
// mode, one of the directly-dispatched kernels). There are more TestIDs
// than kernel primitives, because several TestIDs share one kernel
// primitive under different barrier preconditioning (e.g.
// CASOnModified and CASOnShared both execute the CAS kernel).
type TestID int

const (
	StoreOnModified TestID = iota
	StoreOnExclusive
	StoreOnShared
	StoreOnOwnedMine
	StoreOnOwned
	StoreOnInvalid

	LoadFromModified
	LoadFromExclusive
	LoadFromShared // resolved open question — see DESIGN.md
	LoadFromOwned
	LoadFromInvalid
	LoadFromL1
	LoadFromMemSize

	Invalidate

	CAS
	FAI
	TAS
	SWAP

	CASOnModified
	FAIOnModified
	TASOnModified
	SWAPOnModified

	CASOnShared
	FAIOnShared
	TASOnShared
	SWAPOnShared

	CASConcurrent
	CASUntilSuccess

	LFence
	SFence
	MFence
	Pause
	Nop

	NumTestIDs
)

// Name returns the catalogue name printed by --catalogue.
func (t TestID) Name() string {
	switch t {
	case StoreOnModified:
		return "STORE_ON_MODIFIED"
	case StoreOnExclusive:
		return "STORE_ON_EXCLUSIVE"
	case StoreOnShared:
		return "STORE_ON_SHARED"
	case StoreOnOwnedMine:
		return "STORE_ON_OWNED_MINE"
	case StoreOnOwned:
		return "STORE_ON_OWNED"
	case StoreOnInvalid:
		return "STORE_ON_INVALID"
	case LoadFromModified:
		return "LOAD_FROM_MODIFIED"
	case LoadFromExclusive:
		return "LOAD_FROM_EXCLUSIVE"
	case LoadFromShared:
		return "LOAD_FROM_SHARED"
	case LoadFromOwned:
		return "LOAD_FROM_OWNED"
	case LoadFromInvalid:
		return "LOAD_FROM_INVALID"
	case LoadFromL1:
		return "LOAD_FROM_L1"
	case LoadFromMemSize:
		return "LOAD_FROM_MEM_SIZE"
	case Invalidate:
		return "INVALIDATE"
	case CAS:
		return "CAS"
	case FAI:
		return "FAI"
	case TAS:
		return "TAS"
	case SWAP:
		return "SWAP"
	case CASOnModified:
		return "CAS_ON_MODIFIED"
	case FAIOnModified:
		return "FAI_ON_MODIFIED"
	case TASOnModified:
		return "TAS_ON_MODIFIED"
	case SWAPOnModified:
		return "SWAP_ON_MODIFIED"
	case CASOnShared:
		return "CAS_ON_SHARED"
	case FAIOnShared:
		return "FAI_ON_SHARED"
	case TASOnShared:
		return "TAS_ON_SHARED"
	case SWAPOnShared:
		return "SWAP_ON_SHARED"
	case CASConcurrent:
		return "CAS_CONCURRENT"
	case CASUntilSuccess:
		return "CAS_UNTIL_SUCCESS"
	case LFence:
		return "LFENCE"
	case SFence:
		return "SFENCE"
	case MFence:
		return "MFENCE"
	case Pause:
		return "PAUSE"
	case Nop:
		return "NOP"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is a known TestID.
func Valid(t TestID) bool { return t >= 0 && t < NumTestIDs }

// RequiresPrecondition reports whether t's classic-mode choreography
// depends on the stride/repetition budget invariant of spec.md §7
// (impossible for pointer-chase and fence kernels, which do not touch
// the preconditioning sequence at all).
func RequiresPrecondition(t TestID) bool {
	switch t {
	case LoadFromMemSize, LFence, SFence, MFence, Pause, Nop:
		return false
	default:
		return true
	}
}
