package preview

import (
	"context"
	"errors"

	"benefits-web/internal/grid"
	"benefits-web/internal/undo"
)

// ErrNothingToApply is returned when every classified row is an error;
// the apply action is disabled in that case.
var ErrNothingToApply = errors.New("nothing to apply: all rows have errors")

// RowWriter performs the actual writes of the apply step
type RowWriter interface {
	Create(ctx context.Context, fields map[string]string) (entityID string, err error)
	Update(ctx context.Context, entityID string, fields map[string]string) error
}

// RowResult reports, per row, success or a human-readable failure reason
type RowResult struct {
	RowID    string `json:"row_id"`
	Action   Action `json:"action"`
	EntityID string `json:"entity_id,omitempty"`
	Status   string `json:"status"` // success, error, skipped
	Error    string `json:"error,omitempty"`
}

// ApplyOutcome aggregates an apply run. Succeeded rows stay written even
// when later rows fail; the snapshot covers exactly the successful rows
// and is the only way back.
type ApplyOutcome struct {
	Results   []RowResult    `json:"results"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Snapshot  *undo.Snapshot `json:"snapshot,omitempty"`
}

// Applier commits a classified plan row by row, in array order, with no
// batching: partial failure is expected and reported, not rolled back.
type Applier struct {
	Writer     RowWriter
	Snapshots  undo.Store
	Step       string
	EntityKind string
}

// Apply processes create/update rows and leaves skip/error rows
// untouched. On at least one success an undo snapshot is recorded with
// the pre-operation state of every written row.
func (a *Applier) Apply(ctx context.Context, rows []grid.Row, plans []Plan) (*ApplyOutcome, error) {
	byID := make(map[string]grid.Row, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	applicable := 0
	for _, p := range plans {
		if p.Action == ActionCreate || p.Action == ActionUpdate {
			applicable++
		}
	}
	if applicable == 0 {
		return nil, ErrNothingToApply
	}

	outcome := &ApplyOutcome{Results: make([]RowResult, 0, len(plans))}
	var entries []undo.Entry

	for _, plan := range plans {
		res := RowResult{RowID: plan.RowID, Action: plan.Action}

		switch plan.Action {
		case ActionSkip:
			res.Status = "skipped"
			res.Error = plan.Reason
			outcome.Skipped++
		case ActionError:
			res.Status = "error"
			res.Error = plan.Reason
			outcome.Failed++
		case ActionCreate:
			row := byID[plan.RowID]
			entityID, err := a.Writer.Create(ctx, row.Fields)
			if err != nil {
				res.Status = "error"
				res.Error = err.Error()
				outcome.Failed++
				break
			}
			res.Status = "success"
			res.EntityID = entityID
			outcome.Succeeded++
			entries = append(entries, undo.Entry{Op: undo.OpCreate, EntityID: entityID})
		case ActionUpdate:
			row := byID[plan.RowID]
			if err := a.Writer.Update(ctx, plan.Match.ID, row.Fields); err != nil {
				res.Status = "error"
				res.Error = err.Error()
				outcome.Failed++
				break
			}
			res.Status = "success"
			res.EntityID = plan.Match.ID
			outcome.Succeeded++
			entries = append(entries, undo.Entry{
				Op:       undo.OpUpdate,
				EntityID: plan.Match.ID,
				Prior:    plan.Match.Fields,
			})
		}

		outcome.Results = append(outcome.Results, res)
	}

	if len(entries) > 0 && a.Snapshots != nil {
		snap, err := a.Snapshots.Create(ctx, a.Step, a.EntityKind, entries)
		if err != nil {
			// writes already happened; losing the snapshot only disables undo
			return outcome, nil
		}
		outcome.Snapshot = snap
	}

	return outcome, nil
}
