package kernel

import "github.com/maemo32/ccbench/internal/ccbench/ccerr"

// Choreography returns role's action sequence for test, implementing
// the classic-mode table of spec.md §4.7 as a pure function instead of
// the large nested switch the design notes (§9) call out for removal.
//
// role is the rank's 0-based position within its group (rankmap.Role).
// Roles beyond those the table names explicitly fall into "others".
func Choreography(test TestID, role int) ([]Action, error) {
	switch test {
	case StoreOnModified:
		switch role {
		case 0:
			return []Action{seqStore}, nil
		case 1:
			return []Action{bar(1), seqStore}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case StoreOnExclusive, Invalidate:
		// INVALIDATE measures exactly the cost StoreOnExclusive already
		// isolates: role1's store forcing role0's cached copy out.
		switch role {
		case 0:
			return []Action{seqLoad, bar(1)}, nil
		case 1:
			return []Action{bar(1), seqStore}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case StoreOnShared:
		switch role {
		case 0:
			return []Action{seqLoad, bar(1), bar(2)}, nil
		case 1:
			return []Action{bar(1), bar(2), seqStore}, nil
		case 2:
			return []Action{bar(1), seqLoad, bar(2)}, nil
		default:
			return []Action{bar(1), seqLoadNoPF, bar(2)}, nil
		}

	case StoreOnOwnedMine:
		switch role {
		case 0:
			return []Action{bar(1), seqLoad, bar(2)}, nil
		case 1:
			// Two measured stores: the first claims Modified, the second
			// (after every sharer has loaded) re-dirties the owner's own
			// line — spec.md's "second store in an owned-transition test".
			return []Action{seqStore, bar(1), bar(2), seqStore}, nil
		default:
			return []Action{bar(1), seqLoadNoPF, bar(2)}, nil
		}

	case StoreOnOwned:
		switch role {
		case 0:
			return []Action{seqStore, bar(1), bar(2)}, nil
		case 1:
			return []Action{bar(1), seqLoad, bar(2), seqStore}, nil
		case 2:
			return []Action{bar(1), bar(2), seqLoad}, nil
		default:
			return []Action{bar(1), seqLoadNoPF, bar(2)}, nil
		}

	case StoreOnInvalid:
		switch role {
		case 0:
			return []Action{bar(1), seqStore}, nil
		case 1:
			return []Action{seqInvalidate, bar(1)}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case LoadFromModified:
		switch role {
		case 0:
			return []Action{seqStore, bar(1)}, nil
		case 1:
			return []Action{bar(1), seqLoad}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case LoadFromExclusive:
		switch role {
		case 0:
			return []Action{seqLoad, bar(1)}, nil
		case 1:
			return []Action{bar(1), seqLoad}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case LoadFromOwned, LoadFromShared:
		// LoadFromShared is resolved (open question, see DESIGN.md) to the
		// same choreography as LoadFromOwned: a dirty owner plus sharers,
		// symmetric to the STORE_ON_* family's shared/owned pairing.
		switch role {
		case 0:
			return []Action{seqStore, bar(1), bar(2)}, nil
		case 1:
			return []Action{bar(1), seqLoad, bar(2)}, nil
		case 2:
			return []Action{bar(1), bar(2), seqLoad}, nil
		default:
			return []Action{bar(1), bar(2)}, nil
		}

	case LoadFromInvalid:
		switch role {
		case 0:
			return []Action{bar(1), seqLoad}, nil
		case 1:
			return []Action{seqInvalidate, bar(1)}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case LoadFromL1:
		return []Action{seqLoad, seqLoad, seqLoad}, nil

	case LoadFromMemSize:
		return []Action{seqPointerChase}, nil

	case CAS:
		return plainOpSequence(ActCAS, role), nil
	case FAI:
		return plainOpSequence(ActFAI, role), nil
	case SWAP:
		return plainOpSequence(ActSWAP, role), nil
	case TAS:
		return tasSequence(role), nil

	case CASOnModified:
		return onModifiedSequence(ActCASEventual, role), nil
	case FAIOnModified:
		return onModifiedSequence(ActFAI, role), nil
	case TASOnModified:
		return onModifiedSequence(ActTAS, role), nil
	case SWAPOnModified:
		return onModifiedSequence(ActSWAP, role), nil

	case CASOnShared:
		return onSharedSequence(ActCASEventual, false, role), nil
	case FAIOnShared:
		return onSharedSequence(ActFAI, true, role), nil
	case TASOnShared:
		return onSharedSequence(ActTAS, true, role), nil
	case SWAPOnShared:
		return onSharedSequence(ActSWAP, true, role), nil

	case CASConcurrent:
		return []Action{op(ActCASEventual)}, nil
	case CASUntilSuccess:
		switch role {
		case 0:
			return []Action{op(ActCASUntilSuccess), bar(1)}, nil
		case 1:
			return []Action{bar(1), op(ActCASUntilSuccess)}, nil
		default:
			return []Action{bar(1)}, nil
		}

	case LFence:
		return []Action{fence(OpLFence)}, nil
	case SFence:
		return []Action{fence(OpSFence)}, nil
	case MFence:
		return []Action{fence(OpMFence)}, nil
	case Pause:
		return []Action{fence(OpPause)}, nil
	case Nop:
		return []Action{fence(OpNop)}, nil
	}

	return nil, ccerr.NewConfigError("kernel.Choreography", "unknown test_id %d", int(test))
}

// plainOpSequence implements the table row shared by CAS/FAI/SWAP: both
// role0 and role1 perform the op themselves (each is its own measured
// sample); roles beyond 1 just hold the round cadence at B1.
func plainOpSequence(k ActionKind, role int) []Action {
	switch role {
	case 0:
		return []Action{op(k), bar(1)}
	case 1:
		return []Action{bar(1), op(k)}
	default:
		return []Action{bar(1)}
	}
}

// tasSequence implements the TAS row: role1 resets the slot after its
// own TAS so the next repetition starts from a free slot.
func tasSequence(role int) []Action {
	switch role {
	case 0:
		return []Action{op(ActTAS), bar(1), bar(2)}
	case 1:
		return []Action{bar(1), op(ActTAS), seqResetWord, bar(2)}
	default:
		return []Action{bar(1), bar(2)}
	}
}

// onModifiedSequence implements the CAS/FAI/TAS/SWAP_ON_MODIFIED row:
// role0 dirties the line for itself, role1 performs the measured op
// against an already-Modified-elsewhere line.
func onModifiedSequence(k ActionKind, role int) []Action {
	switch role {
	case 0:
		return []Action{seqStore, bar(1)}
	case 1:
		return []Action{bar(1), op(k)}
	default:
		return []Action{bar(1)}
	}
}

// onSharedSequence implements the *_ON_SHARED row. opAfterB2 selects
// whether role1's op is measured between B1/B2 (CAS, which only needs
// to win against role0) or after B2 (FAI/TAS/SWAP, which must wait for
// every sharer's load to land first).
func onSharedSequence(k ActionKind, opAfterB2 bool, role int) []Action {
	switch role {
	case 0:
		return []Action{seqLoad, bar(1), bar(2)}
	case 1:
		if opAfterB2 {
			return []Action{bar(1), bar(2), op(k)}
		}
		return []Action{bar(1), op(k), bar(2)}
	case 2:
		return []Action{bar(1), seqLoad, bar(2)}
	default:
		return []Action{bar(1), seqLoadNoPF, bar(2)}
	}
}
