package form

// Decision is the outcome of evaluating a delete request for one form row.
type Decision string

const (
	DecisionHardDelete Decision = "hard_delete"
	DecisionSoftDelete Decision = "soft_delete"
)

// DecideDeletion chooses between physical removal and a soft delete.
//
// A row with no live dependent instances is removed. A row whose logical
// identity is shared by other rows is also removed, even with live
// instances: instances resolve their form by logical identity, so a sibling
// row still answers for them, and keeping the row would leave the user with
// a duplicate they can never get rid of. Only the last row for an identity
// that still has live instances is soft-deleted.
//
// PRE: liveInstances and rowsWithSameIdentity are counts taken for the
// target row's logical identity; rowsWithSameIdentity includes the target
// POST: Returns DecisionHardDelete or DecisionSoftDelete
func DecideDeletion(liveInstances, rowsWithSameIdentity int) Decision {
	if liveInstances == 0 || rowsWithSameIdentity > 1 {
		return DecisionHardDelete
	}
	return DecisionSoftDelete
}
