package orchestrators

import (
	"context"
	"fmt"
	"sort"
	"time"

	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

var fixedTime = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// mockFormStore implements every form store interface the orchestrators use.
type mockFormStore struct {
	forms       map[string]form.Form
	calls       []string
	deleteErr   error
	softErr     error
	beforeWrite func()
}

func newMockFormStore(forms ...form.Form) *mockFormStore {
	m := &mockFormStore{forms: make(map[string]form.Form)}
	for _, f := range forms {
		m.forms[f.ID] = f
	}
	return m
}

// GetByID implements FormStoreForDeletion.
func (m *mockFormStore) GetByID(_ context.Context, id string) (form.Form, error) {
	f, ok := m.forms[id]
	if !ok {
		return form.Form{}, fmt.Errorf("form %s: %w", id, form.ErrNotFound)
	}
	return f, nil
}

// ListByLogicalID implements FormStoreForDeletion.
func (m *mockFormStore) ListByLogicalID(_ context.Context, formID, version string) ([]form.Form, error) {
	var list []form.Form
	for _, f := range m.forms {
		if f.JrFormID == formID && f.JrVersion == version {
			list = append(list, f)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

// Save implements FormStoreForImport.
func (m *mockFormStore) Save(_ context.Context, f form.Form) error {
	m.calls = append(m.calls, "Save:"+f.ID)
	m.forms[f.ID] = f
	return nil
}

// Delete implements FormStoreForDeletion.
func (m *mockFormStore) Delete(_ context.Context, id string) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	m.calls = append(m.calls, "Delete:"+id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.forms[id]; !ok {
		return fmt.Errorf("form %s: %w", id, form.ErrNotFound)
	}
	delete(m.forms, id)
	return nil
}

// SoftDelete implements FormStoreForDeletion.
func (m *mockFormStore) SoftDelete(_ context.Context, id string) error {
	if m.beforeWrite != nil {
		m.beforeWrite()
	}
	m.calls = append(m.calls, "SoftDelete:"+id)
	if m.softErr != nil {
		return m.softErr
	}
	f, ok := m.forms[id]
	if !ok {
		return fmt.Errorf("form %s: %w", id, form.ErrNotFound)
	}
	f.SoftDelete()
	m.forms[id] = f
	return nil
}

// mockInstanceStore implements every instance store interface the orchestrators use.
type mockInstanceStore struct {
	instances map[string]instance.Instance
	writes    int
	listErr   error
	softErr   error
	saveErr   error
	// beforeSave runs before Save applies, to interleave a concurrent write.
	beforeSave func()
}

func newMockInstanceStore(instances ...instance.Instance) *mockInstanceStore {
	m := &mockInstanceStore{instances: make(map[string]instance.Instance)}
	for _, i := range instances {
		m.instances[i.ID] = i
	}
	return m
}

// GetByID implements InstanceStoreForDeletion.
func (m *mockInstanceStore) GetByID(_ context.Context, id string) (instance.Instance, error) {
	i, ok := m.instances[id]
	if !ok {
		return instance.Instance{}, fmt.Errorf("instance %s: %w", id, instance.ErrNotFound)
	}
	return i, nil
}

// ListByLogicalIDNotDeleted implements InstanceStoreForFormDeletion.
func (m *mockInstanceStore) ListByLogicalIDNotDeleted(_ context.Context, formID, version string) ([]instance.Instance, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var list []instance.Instance
	for _, i := range m.instances {
		if i.JrFormID == formID && i.JrVersion == version && !i.IsDeleted() {
			list = append(list, i)
		}
	}
	return list, nil
}

// Save implements InstanceStoreForSave.
func (m *mockInstanceStore) Save(_ context.Context, i instance.Instance) error {
	if m.beforeSave != nil {
		m.beforeSave()
	}
	m.writes++
	if m.saveErr != nil {
		return m.saveErr
	}
	if existing, ok := m.instances[i.ID]; ok && existing.IsDeleted() {
		return fmt.Errorf("save instance %s: %w", i.ID, instance.ErrDeleted)
	}
	m.instances[i.ID] = i
	return nil
}

// SoftDelete implements InstanceStoreForDeletion; a failed write leaves the row as it was.
func (m *mockInstanceStore) SoftDelete(_ context.Context, id string, at time.Time) error {
	m.writes++
	if m.softErr != nil {
		return m.softErr
	}
	i, ok := m.instances[id]
	if !ok || i.IsDeleted() {
		return fmt.Errorf("instance %s: %w", id, instance.ErrNotFound)
	}
	deletedAt := at
	i.DeletedAt = &deletedAt
	i.GeometryType, i.Geometry = "", ""
	m.instances[id] = i
	return nil
}

func censusForm(id, version string) form.Form {
	return form.Form{
		ID:           id,
		DisplayName:  "Census",
		JrFormID:     "census",
		JrVersion:    version,
		FormFilePath: "forms/census-" + id + ".xml",
		CreatedAt:    fixedTime,
		State:        form.StateActive,
	}
}

func censusInstance(id, version string, status instance.Status) instance.Instance {
	return instance.Instance{
		ID:                 id,
		DisplayName:        "Census response " + id,
		InstanceFilePath:   "instances/" + id + ".xml",
		JrFormID:           "census",
		JrVersion:          version,
		Status:             status,
		LastStatusChangeAt: fixedTime.Add(-time.Hour),
	}
}
