package kernel

import "github.com/maemo32/ccbench/internal/ccbench/ccerr"

// DirectAction returns the single measured primitive seed mode dispatches
// for test, per spec.md §4.7 step 3c: "non-seeder ranks invoke the
// kernel corresponding to their test_id" — no barrier choreography,
// since the seeder already established the round's coherence
// precondition and releases every contender simultaneously from B4.
func DirectAction(test TestID) (Action, error) {
	switch test {
	case StoreOnModified, StoreOnExclusive, StoreOnShared,
		StoreOnOwnedMine, StoreOnOwned, StoreOnInvalid, Invalidate:
		return op(ActStore), nil

	case LoadFromModified, LoadFromExclusive, LoadFromShared,
		LoadFromOwned, LoadFromInvalid, LoadFromL1:
		return op(ActLoad), nil

	case LoadFromMemSize:
		return op(ActPointerChase), nil

	case CAS:
		return op(ActCAS), nil
	case CASOnModified, CASOnShared, CASConcurrent:
		return op(ActCASEventual), nil
	case CASUntilSuccess:
		return op(ActCASUntilSuccess), nil

	case FAI, FAIOnModified, FAIOnShared:
		return op(ActFAI), nil
	case TAS, TASOnModified, TASOnShared:
		return op(ActTAS), nil
	case SWAP, SWAPOnModified, SWAPOnShared:
		return op(ActSWAP), nil

	case LFence:
		return fence(OpLFence), nil
	case SFence:
		return fence(OpSFence), nil
	case MFence:
		return fence(OpMFence), nil
	case Pause:
		return fence(OpPause), nil
	case Nop:
		return fence(OpNop), nil
	}
	return Action{}, ccerr.NewConfigError("kernel.DirectAction", "unknown test_id %d", int(test))
}
