package definit

import "github.com/lumen-lang/lumen/internal/sir"

// loState is the fixpoint state of a block's cached live-out
// AvailabilitySet (spec.md §3).
type loState uint8

const (
	loUnknown loState = iota
	loComputing
	loKnown
)

// blockInfo is the per-basic-block cache LivenessQuery reads and writes
// (spec.md §3, C3). Availability starts out all KindUnknown and holds the
// block's live-out vector from the moment state reaches loKnown; the
// block's local effect is recomputed by scanning its instructions
// (scanBackwardForDefiner/scanBlockExit), not stored here.
type blockInfo struct {
	hasNonLoadUse bool
	availability  AvailabilitySet
	state         loState
}

// blockInfoMap owns one blockInfo per basic block for the duration of one
// Checker.Run call. Using a map keyed by *sir.BasicBlock pointer rather
// than a C++-style dense array keyed by block index means inserting a new
// entry during a recursive fixpoint call never invalidates a blockInfo
// pointer already held by an in-flight caller (see liveOut1/liveOutN in
// liveness.go) — the original implementation this is grounded on has to
// explicitly re-fetch its BBState pointer after every recursive call for
// exactly that reason; Go's map-of-pointers sidesteps it entirely.
type blockInfoMap map[*sir.BasicBlock]*blockInfo

func (m blockInfoMap) get(numElements int, b *sir.BasicBlock) *blockInfo {
	if bi, ok := m[b]; ok {
		return bi
	}

	bi := &blockInfo{availability: NewAvailabilitySet(numElements)}
	m[b] = bi

	return bi
}
