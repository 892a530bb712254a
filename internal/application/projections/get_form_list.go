package projections

import (
	"context"

	formstore "collect/internal/adapters/storage/form"
	"collect/internal/domain/form"
)

// GetFormListQuery carries query parameters.
type GetFormListQuery struct {
	JrFormID string
	Limit    int
	Offset   int
}

// FormWithCount is an active form row with the number of live instances
// sharing its logical identity.
type FormWithCount struct {
	Form          form.Form
	LiveInstances int
}

// GetFormListResult carries the query result.
type GetFormListResult struct {
	Forms []FormWithCount
}

// GetFormListDeps holds dependencies for GetFormList.
type GetFormListDeps struct {
	FormStore     FormStore
	InstanceStore InstanceStore
}

// QueryGetFormList lists active forms with their live-instance counts.
// PRE: Valid query parameters
// POST: Soft-deleted rows are not returned; duplicates of one identity report the same count
func QueryGetFormList(ctx context.Context, query GetFormListQuery, deps GetFormListDeps) (GetFormListResult, error) {
	forms, err := deps.FormStore.List(ctx, formstore.ListFilter{
		Limit:    query.Limit,
		Offset:   query.Offset,
		JrFormID: query.JrFormID,
	})
	if err != nil {
		return GetFormListResult{}, err
	}

	counts := make(map[form.LogicalID]int)
	result := make([]FormWithCount, 0, len(forms))
	for _, f := range forms {
		id := f.LogicalID()
		count, ok := counts[id]
		if !ok {
			live, err := deps.InstanceStore.ListByLogicalIDNotDeleted(ctx, id.FormID, id.Version)
			if err != nil {
				return GetFormListResult{}, err
			}
			count = len(live)
			counts[id] = count
		}
		result = append(result, FormWithCount{Form: f, LiveInstances: count})
	}
	return GetFormListResult{Forms: result}, nil
}
