package preview

import (
	"context"
	"strings"

	"benefits-web/internal/grid"
)

// Action is the classification of one pending row
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
	ActionError  Action = "error"
)

// RemoteRecord is the already-persisted record a pending row is matched
// against, identified by the step's key field
type RemoteRecord struct {
	ID     string
	Fields map[string]string
}

// Plan is the classification of one row plus what the apply step needs:
// the matched record (prior state for undo) and the differing fields.
type Plan struct {
	RowID   string   `json:"row_id"`
	Action  Action   `json:"action"`
	Reason  string   `json:"reason,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Match   *RemoteRecord
}

type Summary struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Skip   int `json:"skip"`
	Error  int `json:"error"`
}

// Classifier turns validated grid rows into an apply plan. Lookup
// resolves the normalized key against the remote store (nil means no
// match); Resolve, when set, checks referenced entities (company, user)
// and its error marks the row as unresolvable.
type Classifier struct {
	KeyField  string
	Normalize func(string) string
	Compare   []string // fields diffed against the match; the key field is implied
	Lookup    func(ctx context.Context, key string) (*RemoteRecord, error)
	Resolve   func(ctx context.Context, row grid.Row) error
}

// Classify walks the rows in order. Error takes precedence over every
// other classification; a key duplicated earlier in the batch is skipped.
func (c *Classifier) Classify(ctx context.Context, rows []grid.Row) ([]Plan, Summary, error) {
	plans := make([]Plan, 0, len(rows))
	var summary Summary
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		plan := c.classifyRow(ctx, row, seen)
		switch plan.Action {
		case ActionCreate:
			summary.Create++
		case ActionUpdate:
			summary.Update++
		case ActionSkip:
			summary.Skip++
		case ActionError:
			summary.Error++
		}
		plans = append(plans, plan)
	}

	return plans, summary, nil
}

func (c *Classifier) classifyRow(ctx context.Context, row grid.Row, seen map[string]bool) Plan {
	plan := Plan{RowID: row.ID}

	// Local validation failures win over everything else
	if row.HasErrors() {
		plan.Action = ActionError
		plan.Reason = firstError(row)
		return plan
	}

	if c.Resolve != nil {
		if err := c.Resolve(ctx, row); err != nil {
			plan.Action = ActionError
			plan.Reason = err.Error()
			return plan
		}
	}

	key := row.Fields[c.KeyField]
	if c.Normalize != nil {
		key = c.Normalize(key)
	}

	if key != "" {
		if seen[key] {
			plan.Action = ActionSkip
			plan.Reason = "duplicated in batch"
			return plan
		}
		seen[key] = true
	}

	var match *RemoteRecord
	if c.Lookup != nil && key != "" {
		m, err := c.Lookup(ctx, key)
		if err != nil {
			plan.Action = ActionError
			plan.Reason = err.Error()
			return plan
		}
		match = m
	}

	if match == nil {
		plan.Action = ActionCreate
		return plan
	}

	plan.Match = match
	plan.Changed = c.diff(row, match)
	if len(plan.Changed) == 0 {
		plan.Action = ActionSkip
		plan.Reason = "no changes"
		return plan
	}
	plan.Action = ActionUpdate
	return plan
}

func (c *Classifier) diff(row grid.Row, match *RemoteRecord) []string {
	fields := c.Compare
	if len(fields) == 0 {
		for k := range row.Fields {
			if k != c.KeyField {
				fields = append(fields, k)
			}
		}
	}
	var changed []string
	for _, f := range fields {
		local := strings.TrimSpace(row.Fields[f])
		remote := strings.TrimSpace(match.Fields[f])
		if local != "" && local != remote {
			changed = append(changed, f)
		}
	}
	return changed
}

func firstError(row grid.Row) string {
	for field, msg := range row.Errors {
		return field + ": " + msg
	}
	return "validation failed"
}
