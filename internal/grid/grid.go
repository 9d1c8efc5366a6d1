package grid

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Row statuses
const (
	StatusPending    = "pending"
	StatusValidating = "validating"
	StatusSuccess    = "success"
	StatusError      = "error"
)

var ErrRowNotFound = errors.New("grid: row not found")

// Column describes one column of the editable grid. Validator returns a
// user-facing message for an invalid value; Normalize, when set, rewrites
// the value before validation (e.g. stripping CNPJ punctuation).
type Column struct {
	Key       string
	Title     string
	Required  bool
	Validator func(value string) error
	Normalize func(value string) string
}

// Row is one editable row: a field map plus per-field error/warning
// messages and an optional status tag set by the apply flow.
type Row struct {
	ID       string            `json:"id"`
	Fields   map[string]string `json:"fields"`
	Errors   map[string]string `json:"errors,omitempty"`
	Warnings map[string]string `json:"warnings,omitempty"`
	Status   string            `json:"status,omitempty"`
}

// Clone returns a deep copy of the row
func (r Row) Clone() Row {
	c := Row{ID: r.ID, Status: r.Status}
	c.Fields = make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	if len(r.Errors) > 0 {
		c.Errors = make(map[string]string, len(r.Errors))
		for k, v := range r.Errors {
			c.Errors[k] = v
		}
	}
	if len(r.Warnings) > 0 {
		c.Warnings = make(map[string]string, len(r.Warnings))
		for k, v := range r.Warnings {
			c.Warnings[k] = v
		}
	}
	return c
}

// HasErrors reports whether any field of the row failed validation
func (r Row) HasErrors() bool {
	return len(r.Errors) > 0
}

// Grid holds the in-memory tabular state for one wizard step. All
// mutations go through its methods; every mutation arms the autosave
// debouncer when one is configured.
type Grid struct {
	mu       sync.Mutex
	columns  []Column
	rows     []Row
	debounce *Debouncer
	autosave func(rows []Row)
}

// DefaultAutosaveDelay matches the original grid's 1 s trailing debounce
const DefaultAutosaveDelay = time.Second

func New(columns []Column) *Grid {
	return &Grid{columns: columns}
}

// SetAutosave installs a debounced autosave callback. A burst of changes
// within the delay produces a single invocation carrying the final rows,
// timed from the last change.
func (g *Grid) SetAutosave(fn func(rows []Row), delay time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	g.autosave = fn
	g.debounce = NewDebouncer(delay)
}

// Stop cancels any pending autosave (component unmount semantics)
func (g *Grid) Stop() {
	g.mu.Lock()
	d := g.debounce
	g.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}

func (g *Grid) Columns() []Column {
	return g.columns
}

// Rows returns a deep copy of the current rows
func (g *Grid) Rows() []Row {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cloneRowsLocked()
}

func (g *Grid) cloneRowsLocked() []Row {
	out := make([]Row, len(g.rows))
	for i, r := range g.rows {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the current row count
func (g *Grid) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rows)
}

// SetRows replaces the whole row array (draft restore, conflict resolution)
func (g *Grid) SetRows(rows []Row) {
	g.mu.Lock()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.New().String()
		}
		if rows[i].Fields == nil {
			rows[i].Fields = map[string]string{}
		}
	}
	g.rows = rows
	g.notifyLocked()
	g.mu.Unlock()
}

// AddRow appends one blank row and returns its id
func (g *Grid) AddRow() string {
	ids := g.AddRows(1)
	return ids[0]
}

// AddRows appends n blank rows keyed by fresh identifiers
func (g *Grid) AddRows(n int) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		row := Row{ID: uuid.New().String(), Fields: map[string]string{}}
		g.rows = append(g.rows, row)
		ids = append(ids, row.ID)
	}
	g.notifyLocked()
	return ids
}

// DeleteRow removes the row with the given id
func (g *Grid) DeleteRow(id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, r := range g.rows {
		if r.ID == id {
			g.rows = append(g.rows[:i], g.rows[i+1:]...)
			g.notifyLocked()
			return nil
		}
	}
	return ErrRowNotFound
}

// UpdateCell sets one field, re-running the column validator: a failure
// records a message keyed by column, a success clears any prior message.
// The row status is always cleared so the apply flow re-validates it.
func (g *Grid) UpdateCell(rowID, key, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	col := g.columnByKey(key)
	for i := range g.rows {
		if g.rows[i].ID != rowID {
			continue
		}
		g.setCellLocked(&g.rows[i], col, key, value)
		g.rows[i].Status = ""
		g.notifyLocked()
		return nil
	}
	return ErrRowNotFound
}

func (g *Grid) columnByKey(key string) *Column {
	for i := range g.columns {
		if g.columns[i].Key == key {
			return &g.columns[i]
		}
	}
	return nil
}

func (g *Grid) setCellLocked(row *Row, col *Column, key, value string) {
	if col != nil && col.Normalize != nil {
		value = col.Normalize(value)
	}
	row.Fields[key] = value

	if col == nil {
		return
	}
	var msg string
	if col.Required && strings.TrimSpace(value) == "" {
		msg = "required"
	} else if col.Validator != nil && strings.TrimSpace(value) != "" {
		if err := col.Validator(value); err != nil {
			msg = err.Error()
		}
	}
	if msg != "" {
		if row.Errors == nil {
			row.Errors = map[string]string{}
		}
		row.Errors[key] = msg
	} else if row.Errors != nil {
		delete(row.Errors, key)
		if len(row.Errors) == 0 {
			row.Errors = nil
		}
	}
}

// Paste splits clipboard text into lines and each line into fields by tab
// or semicolon, maps them positionally onto the column schema and appends
// one row per line, validating every populated cell. A single line with
// no delimiter belongs to the focused cell, not this handler; it is a
// no-op. Returns the number of rows appended.
func (g *Grid) Paste(text string) int {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return 0
	}

	lines := strings.Split(text, "\n")
	if len(lines) == 1 && !strings.ContainsAny(lines[0], "\t;") {
		return 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	appended := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := splitLine(line)
		row := Row{ID: uuid.New().String(), Fields: map[string]string{}}
		for i, value := range fields {
			if i >= len(g.columns) {
				break
			}
			col := &g.columns[i]
			g.setCellLocked(&row, col, col.Key, strings.TrimSpace(value))
		}
		g.rows = append(g.rows, row)
		appended++
	}
	if appended > 0 {
		g.notifyLocked()
	}
	return appended
}

func splitLine(line string) []string {
	if strings.Contains(line, "\t") {
		return strings.Split(line, "\t")
	}
	return strings.Split(line, ";")
}

// ValidateAll re-runs every column validator on every row and reports
// whether the grid is free of errors
func (g *Grid) ValidateAll() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	ok := true
	for i := range g.rows {
		for c := range g.columns {
			col := &g.columns[c]
			g.setCellLocked(&g.rows[i], col, col.Key, g.rows[i].Fields[col.Key])
		}
		if g.rows[i].HasErrors() {
			ok = false
		}
	}
	return ok
}

// SetStatus tags a row with an apply outcome (success/error)
func (g *Grid) SetStatus(rowID, status string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.rows {
		if g.rows[i].ID == rowID {
			g.rows[i].Status = status
			return nil
		}
	}
	return ErrRowNotFound
}

func (g *Grid) notifyLocked() {
	if g.autosave == nil || g.debounce == nil {
		return
	}
	g.debounce.Trigger(func() {
		g.autosave(g.Rows())
	})
}
