package projections

import (
	"context"

	"golang.org/x/sync/errgroup"

	instancestore "collect/internal/adapters/storage/instance"
	"collect/internal/domain/form"
	"collect/internal/domain/instance"
)

// formLookupConcurrency bounds the parallel form lookups of one listing.
const formLookupConcurrency = 4

// GetInstanceListQuery carries query parameters.
type GetInstanceListQuery struct {
	JrFormID       string
	Status         instance.Status
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// InstanceWithForm is an instance row with the form metadata it resolves to.
type InstanceWithForm struct {
	Instance        instance.Instance
	FormDisplayName string
	// FormMissing is set when no form row, live or soft-deleted, matches the logical identity.
	FormMissing bool
	// FormDeleted is set when the only matching rows are soft-deleted.
	FormDeleted bool
}

// GetInstanceListResult carries the query result.
type GetInstanceListResult struct {
	Instances []InstanceWithForm
}

// GetInstanceListDeps holds dependencies for GetInstanceList.
type GetInstanceListDeps struct {
	FormStore     FormStore
	InstanceStore InstanceStore
}

type formMetadata struct {
	displayName string
	missing     bool
	deleted     bool
}

// QueryGetInstanceList lists instances and resolves each one's form by
// (jrFormId, jrVersion). Soft-deleted form rows still resolve.
// PRE: Valid query parameters
// POST: Returns one entry per matching instance, in store order
// INVARIANT: An instance whose form rows are all gone is listed with FormMissing set
func QueryGetInstanceList(ctx context.Context, query GetInstanceListQuery, deps GetInstanceListDeps) (GetInstanceListResult, error) {
	instances, err := deps.InstanceStore.List(ctx, instancestore.ListFilter{
		Limit:          query.Limit,
		Offset:         query.Offset,
		JrFormID:       query.JrFormID,
		Status:         query.Status,
		IncludeDeleted: query.IncludeDeleted,
	})
	if err != nil {
		return GetInstanceListResult{}, err
	}

	// Distinct identities, in first-seen order
	var ids []form.LogicalID
	seen := make(map[form.LogicalID]int)
	for _, i := range instances {
		id := form.LogicalID{FormID: i.JrFormID, Version: i.JrVersion}
		if _, ok := seen[id]; !ok {
			seen[id] = len(ids)
			ids = append(ids, id)
		}
	}

	metadata := make([]formMetadata, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(formLookupConcurrency)
	for n, id := range ids {
		g.Go(func() error {
			rows, err := deps.FormStore.ListByLogicalID(gctx, id.FormID, id.Version)
			if err != nil {
				return err
			}
			metadata[n] = resolveFormMetadata(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return GetInstanceListResult{}, err
	}

	result := make([]InstanceWithForm, 0, len(instances))
	for _, i := range instances {
		md := metadata[seen[form.LogicalID{FormID: i.JrFormID, Version: i.JrVersion}]]
		result = append(result, InstanceWithForm{
			Instance:        i,
			FormDisplayName: md.displayName,
			FormMissing:     md.missing,
			FormDeleted:     md.deleted,
		})
	}
	return GetInstanceListResult{Instances: result}, nil
}

// resolveFormMetadata prefers the oldest active row, then the oldest soft-deleted one.
func resolveFormMetadata(rows []form.Form) formMetadata {
	if len(rows) == 0 {
		return formMetadata{missing: true}
	}
	for _, f := range rows {
		if !f.IsDeleted() {
			return formMetadata{displayName: f.DisplayName}
		}
	}
	return formMetadata{displayName: rows[0].DisplayName, deleted: true}
}
