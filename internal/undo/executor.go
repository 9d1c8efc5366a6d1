package undo

import "context"

// EntityWriter issues the compensating calls for one entity kind:
// Delete reverses a create, Restore reverses an update by writing the
// prior field values back.
type EntityWriter interface {
	Delete(ctx context.Context, entityKind, entityID string) error
	Restore(ctx context.Context, entityKind, entityID string, prior map[string]string) error
}

// EntryResult reports the outcome of one compensating call
type EntryResult struct {
	EntityID string `json:"entity_id"`
	Op       Op     `json:"op"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// UndoResult aggregates a whole undo run. The run is not transactional:
// a partial failure leaves some entries undone and others not, and the
// caller reports both counts instead of pretending otherwise.
type UndoResult struct {
	SnapshotID string        `json:"snapshot_id"`
	Step       string        `json:"step"`
	Entries    []EntryResult `json:"entries"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
}

// Execute walks the snapshot entries in order, issuing one compensating
// call per entry, and keeps going past individual failures.
func Execute(ctx context.Context, snap *Snapshot, writer EntityWriter) *UndoResult {
	result := &UndoResult{
		SnapshotID: snap.ID,
		Step:       snap.Step,
		Entries:    make([]EntryResult, 0, len(snap.Entries)),
	}

	for _, entry := range snap.Entries {
		var err error
		switch entry.Op {
		case OpCreate:
			err = writer.Delete(ctx, snap.EntityKind, entry.EntityID)
		case OpUpdate:
			err = writer.Restore(ctx, snap.EntityKind, entry.EntityID, entry.Prior)
		}

		er := EntryResult{EntityID: entry.EntityID, Op: entry.Op, Success: err == nil}
		if err != nil {
			er.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Entries = append(result.Entries, er)
	}

	return result
}
