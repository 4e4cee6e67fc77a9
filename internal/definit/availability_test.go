package definit

import "testing"

func TestAvailabilitySetGetSetRoundTrip(t *testing.T) {
	a := NewAvailabilitySet(4)

	a.Set(0, KindYes)
	a.Set(1, KindNo)
	a.Set(2, KindPartial)

	if got := a.Get(0); got != KindYes {
		t.Errorf("Get(0) = %v, want Yes", got)
	}
	if got := a.Get(1); got != KindNo {
		t.Errorf("Get(1) = %v, want No", got)
	}
	if got := a.Get(2); got != KindPartial {
		t.Errorf("Get(2) = %v, want Partial", got)
	}
	if got := a.Get(3); got != KindUnknown {
		t.Errorf("Get(3) = %v, want Unknown", got)
	}
}

func TestAvailabilitySetChangeUnsetToLeavesSetSlotsAlone(t *testing.T) {
	a := NewAvailabilitySet(3)
	a.Set(0, KindYes)

	a.ChangeUnsetTo(KindNo)

	if got := a.Get(0); got != KindYes {
		t.Errorf("Get(0) = %v, want Yes (already set, must be untouched)", got)
	}
	if got := a.Get(1); got != KindNo {
		t.Errorf("Get(1) = %v, want No", got)
	}
	if got := a.Get(2); got != KindNo {
		t.Errorf("Get(2) = %v, want No", got)
	}
}

func TestAvailabilitySetIsAllAndHasAny(t *testing.T) {
	a := NewAvailabilitySet(3)
	if !a.IsAll(KindUnknown) {
		t.Error("a fresh set should be IsAll(Unknown)")
	}

	a.Set(1, KindYes)
	if a.IsAll(KindUnknown) {
		t.Error("IsAll(Unknown) should be false once one slot is set")
	}
	if !a.HasAny(KindYes) {
		t.Error("HasAny(Yes) should be true")
	}
	if a.HasAny(KindPartial) {
		t.Error("HasAny(Partial) should be false")
	}
}

func TestAvailabilitySetCloneIsIndependent(t *testing.T) {
	a := NewAvailabilitySet(2)
	a.Set(0, KindYes)

	b := a.Clone()
	b.Set(0, KindNo)

	if got := a.Get(0); got != KindYes {
		t.Errorf("mutating the clone changed the original: Get(0) = %v, want Yes", got)
	}
}

func TestAvailabilitySetMergeIn(t *testing.T) {
	a := NewAvailabilitySet(2)
	a.Set(0, KindYes)
	a.Set(1, KindNo)

	b := NewAvailabilitySet(2)
	b.Set(0, KindYes)
	b.Set(1, KindYes)

	a.MergeIn(b)

	if got := a.Get(0); got != KindYes {
		t.Errorf("Get(0) = %v, want Yes", got)
	}
	if got := a.Get(1); got != KindPartial {
		t.Errorf("Get(1) = %v, want Partial", got)
	}
}
