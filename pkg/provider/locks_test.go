package provider

import "testing"

func TestLockTableReturnsSameLockForSameProvider(t *testing.T) {
	t2 := NewLockTable()
	a := t2.For("sim0")
	b := t2.For("sim0")

	if a != b {
		t.Fatal("For() should return the same lock object for the same provider id")
	}
}

func TestLockTableReturnsDistinctLocksPerProvider(t *testing.T) {
	t2 := NewLockTable()
	a := t2.For("sim0")
	b := t2.For("sim1")

	if a == b {
		t.Fatal("For() should return distinct lock objects for distinct provider ids")
	}
}
