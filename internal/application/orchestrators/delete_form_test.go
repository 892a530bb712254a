package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

func runDeleteForm(t *testing.T, forms *mockFormStore, instances *mockInstanceStore, id string) error {
	t.Helper()
	return ExecuteDeleteForm(context.Background(), DeleteFormInput{FormID: id}, DeleteFormDeps{
		FormStore:     forms,
		InstanceStore: instances,
	})
}

func assertCalls(t *testing.T, got []string, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("store writes = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("write[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// TestExecuteDeleteForm_NoInstances_HardDeletes covers a sole row with no instances at all.
func TestExecuteDeleteForm_NoInstances_HardDeletes(t *testing.T) {
	forms := newMockFormStore(censusForm("1", "2"))
	instances := newMockInstanceStore()

	if err := runDeleteForm(t, forms, instances, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:1")
	if _, err := forms.GetByID(context.Background(), "1"); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("GetByID after delete error = %v, want ErrNotFound", err)
	}
}

// TestExecuteDeleteForm_SoleRowWithLiveInstance_SoftDeletes covers the only soft-delete branch.
func TestExecuteDeleteForm_SoleRowWithLiveInstance_SoftDeletes(t *testing.T) {
	forms := newMockFormStore(censusForm("2", "3"))
	instances := newMockInstanceStore(censusInstance("i1", "3", instance.StatusSubmitted))

	if err := runDeleteForm(t, forms, instances, "2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "SoftDelete:2")
	f, err := forms.GetByID(context.Background(), "2")
	if err != nil {
		t.Fatalf("row should survive a soft delete: %v", err)
	}
	if !f.IsDeleted() {
		t.Error("row should report soft-deleted state")
	}
	if instances.writes != 0 {
		t.Errorf("instance writes = %d, want 0", instances.writes)
	}
}

// TestExecuteDeleteForm_Duplicates_HardDeletesTargetOnly covers duplicates with live instances.
func TestExecuteDeleteForm_Duplicates_HardDeletesTargetOnly(t *testing.T) {
	forms := newMockFormStore(censusForm("3", "4"), censusForm("4", "4"))
	instances := newMockInstanceStore(censusInstance("i1", "4", instance.StatusComplete))

	if err := runDeleteForm(t, forms, instances, "3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:3")
	sibling, err := forms.GetByID(context.Background(), "4")
	if err != nil {
		t.Fatalf("sibling row removed: %v", err)
	}
	if sibling.IsDeleted() {
		t.Error("sibling row must stay active")
	}
}

// TestExecuteDeleteForm_DeletedInstancesDoNotCount covers an instance already soft-deleted.
func TestExecuteDeleteForm_DeletedInstancesDoNotCount(t *testing.T) {
	deletedAt := fixedTime.Add(-time.Minute)
	gone := censusInstance("i1", "5", instance.StatusSubmitted)
	gone.DeletedAt = &deletedAt
	forms := newMockFormStore(censusForm("5", "5"))
	instances := newMockInstanceStore(gone)

	if err := runDeleteForm(t, forms, instances, "5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:5")
}

// TestExecuteDeleteForm_InstancesOfOtherVersionsDoNotCount verifies matching is by the full logical identity.
func TestExecuteDeleteForm_InstancesOfOtherVersionsDoNotCount(t *testing.T) {
	forms := newMockFormStore(censusForm("6", "6"))
	instances := newMockInstanceStore(censusInstance("i1", "7", instance.StatusIncomplete))

	if err := runDeleteForm(t, forms, instances, "6"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:6")
}

// TestExecuteDeleteForm_SoftDeletedSiblingStillCountsAsRow verifies rows are counted regardless of state.
func TestExecuteDeleteForm_SoftDeletedSiblingStillCountsAsRow(t *testing.T) {
	sibling := censusForm("8", "8")
	sibling.SoftDelete()
	forms := newMockFormStore(censusForm("7", "8"), sibling)
	instances := newMockInstanceStore(censusInstance("i1", "8", instance.StatusSubmitted))

	if err := runDeleteForm(t, forms, instances, "7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:7")
}

// TestExecuteDeleteForm_NotFound verifies a missing row fails without any write.
func TestExecuteDeleteForm_NotFound(t *testing.T) {
	forms := newMockFormStore()
	err := runDeleteForm(t, forms, newMockInstanceStore(), "missing")
	if !errors.Is(err, form.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	assertCalls(t, forms.calls)
}

// TestExecuteDeleteForm_MissingID verifies input validation.
func TestExecuteDeleteForm_MissingID(t *testing.T) {
	forms := newMockFormStore()
	if err := runDeleteForm(t, forms, newMockInstanceStore(), ""); !errors.Is(err, form.ErrEmptyID) {
		t.Errorf("error = %v, want ErrEmptyID", err)
	}
	if len(forms.calls) != 0 {
		t.Errorf("writes = %v, want none", forms.calls)
	}
}

// TestApplyDeletion_UnknownDecision verifies an unrecognised decision writes nothing.
func TestApplyDeletion_UnknownDecision(t *testing.T) {
	forms := newMockFormStore(censusForm("1", "1"))
	err := applyDeletion(context.Background(), forms, "1", form.Decision("archive"))
	if err == nil {
		t.Fatal("expected error for unknown decision")
	}
	if len(forms.calls) != 0 {
		t.Errorf("writes = %v, want none", forms.calls)
	}
	if _, ok := forms.forms["1"]; !ok {
		t.Error("row should be untouched")
	}
}

// TestExecuteDeleteForm_TwiceAfterHardDelete verifies the second call reports NotFound.
func TestExecuteDeleteForm_TwiceAfterHardDelete(t *testing.T) {
	forms := newMockFormStore(censusForm("1", "2"))
	instances := newMockInstanceStore()

	if err := runDeleteForm(t, forms, instances, "1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := runDeleteForm(t, forms, instances, "1"); !errors.Is(err, form.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

// TestExecuteDeleteForm_TwiceAfterSoftDelete verifies re-evaluation reaches the same decision.
func TestExecuteDeleteForm_TwiceAfterSoftDelete(t *testing.T) {
	forms := newMockFormStore(censusForm("2", "3"))
	instances := newMockInstanceStore(censusInstance("i1", "3", instance.StatusSubmitted))

	for i := 0; i < 2; i++ {
		if err := runDeleteForm(t, forms, instances, "2"); err != nil {
			t.Fatalf("delete #%d: %v", i+1, err)
		}
	}
	assertCalls(t, forms.calls, "SoftDelete:2", "SoftDelete:2")
	if f, _ := forms.GetByID(context.Background(), "2"); !f.IsDeleted() {
		t.Error("row should still be soft-deleted")
	}
}

// TestExecuteDeleteForm_WriteFailurePropagates verifies store errors surface unchanged.
func TestExecuteDeleteForm_WriteFailurePropagates(t *testing.T) {
	writeErr := errors.New("disk I/O error")

	forms := newMockFormStore(censusForm("1", "2"))
	forms.deleteErr = writeErr
	if err := runDeleteForm(t, forms, newMockInstanceStore(), "1"); !errors.Is(err, writeErr) {
		t.Errorf("hard delete error = %v, want %v", err, writeErr)
	}
	assertCalls(t, forms.calls, "Delete:1")

	forms = newMockFormStore(censusForm("2", "3"))
	forms.softErr = writeErr
	instances := newMockInstanceStore(censusInstance("i1", "3", instance.StatusSubmitted))
	if err := runDeleteForm(t, forms, instances, "2"); !errors.Is(err, writeErr) {
		t.Errorf("soft delete error = %v, want %v", err, writeErr)
	}
	assertCalls(t, forms.calls, "SoftDelete:2")
}

// TestExecuteDeleteForm_ReadFailurePropagates verifies no write happens when a read fails.
func TestExecuteDeleteForm_ReadFailurePropagates(t *testing.T) {
	readErr := errors.New("database is locked")
	forms := newMockFormStore(censusForm("1", "2"))
	instances := newMockInstanceStore()
	instances.listErr = readErr

	if err := runDeleteForm(t, forms, instances, "1"); !errors.Is(err, readErr) {
		t.Errorf("error = %v, want %v", err, readErr)
	}
	assertCalls(t, forms.calls)
}

// TestExecuteDeleteForm_StaleSnapshot saves an instance after the policy has read
// the live set but before it writes. The decision was made on the stale snapshot,
// so the row is hard-deleted and the new instance is left without a form row.
func TestExecuteDeleteForm_StaleSnapshot(t *testing.T) {
	forms := newMockFormStore(censusForm("1", "2"))
	instances := newMockInstanceStore()
	forms.beforeWrite = func() {
		instances.instances["late"] = censusInstance("late", "2", instance.StatusIncomplete)
	}

	if err := runDeleteForm(t, forms, instances, "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertCalls(t, forms.calls, "Delete:1")
	if _, ok := instances.instances["late"]; !ok {
		t.Fatal("late instance should exist")
	}
	if len(forms.forms) != 0 {
		t.Errorf("forms left = %d, want 0 (orphaned instance is the accepted outcome)", len(forms.forms))
	}
}
