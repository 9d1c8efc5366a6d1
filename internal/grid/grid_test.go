package grid

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testColumns() []Column {
	return []Column{
		{Key: "name", Title: "Name", Required: true},
		{Key: "cnpj", Title: "CNPJ", Validator: func(v string) error {
			if len(v) != 14 {
				return errors.New("invalid cnpj")
			}
			return nil
		}},
		{Key: "email", Title: "Email"},
	}
}

func TestAddRows(t *testing.T) {
	g := New(testColumns())
	ids := g.AddRows(3)
	assert.Len(t, ids, 3)
	assert.Equal(t, 3, g.Len())

	// Fresh ids per row
	assert.NotEqual(t, ids[0], ids[1])
}

func TestUpdateCellValidation(t *testing.T) {
	g := New(testColumns())
	id := g.AddRow()

	require.NoError(t, g.UpdateCell(id, "cnpj", "123"))
	rows := g.Rows()
	assert.Equal(t, "invalid cnpj", rows[0].Errors["cnpj"])

	// A valid value clears the prior message
	require.NoError(t, g.UpdateCell(id, "cnpj", "11222333000181"))
	rows = g.Rows()
	assert.Empty(t, rows[0].Errors)

	// Required field left blank
	require.NoError(t, g.UpdateCell(id, "name", ""))
	rows = g.Rows()
	assert.Equal(t, "required", rows[0].Errors["name"])
}

func TestUpdateCellClearsStatus(t *testing.T) {
	g := New(testColumns())
	id := g.AddRow()
	require.NoError(t, g.SetStatus(id, StatusSuccess))
	require.NoError(t, g.UpdateCell(id, "name", "Empresa A"))
	assert.Empty(t, g.Rows()[0].Status)
}

func TestUpdateCellUnknownRow(t *testing.T) {
	g := New(testColumns())
	assert.ErrorIs(t, g.UpdateCell("missing", "name", "x"), ErrRowNotFound)
}

func TestPasteTabDelimited(t *testing.T) {
	g := New(testColumns())
	n := g.Paste("Empresa A\t11222333000181\ta@b.com\nEmpresa B\t123\tb@c.com\n")
	assert.Equal(t, 2, n)

	rows := g.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "Empresa A", rows[0].Fields["name"])
	assert.Equal(t, "11222333000181", rows[0].Fields["cnpj"])
	assert.Empty(t, rows[0].Errors)

	// Validators applied to every populated cell
	assert.Equal(t, "invalid cnpj", rows[1].Errors["cnpj"])
}

func TestPasteSemicolonDelimited(t *testing.T) {
	g := New(testColumns())
	n := g.Paste("Empresa A;11222333000181;a@b.com\r\nEmpresa B;11222333000181;b@c.com")
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, g.Len())
}

func TestPasteExtraFieldsIgnored(t *testing.T) {
	g := New(testColumns())
	n := g.Paste("a;b;c;d;e\nf;g;h;i;j")
	assert.Equal(t, 2, n)
	rows := g.Rows()
	// Only the first C columns are mapped
	assert.Len(t, rows[0].Fields, 3)
}

func TestPasteSingleLineNoDelimiterIsNoop(t *testing.T) {
	g := New(testColumns())
	assert.Equal(t, 0, g.Paste("Empresa A"))
	assert.Equal(t, 0, g.Len())

	assert.Equal(t, 0, g.Paste(""))
}

func TestAutosaveDebounce(t *testing.T) {
	g := New(testColumns())

	var mu sync.Mutex
	var calls int
	var last []Row
	g.SetAutosave(func(rows []Row) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		last = rows
	}, 30*time.Millisecond)

	// A burst of changes within the debounce window
	id := g.AddRow()
	_ = g.UpdateCell(id, "name", "E")
	_ = g.UpdateCell(id, "name", "Em")
	_ = g.UpdateCell(id, "name", "Empresa")

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "burst must collapse into one autosave")
	require.Len(t, last, 1)
	assert.Equal(t, "Empresa", last[0].Fields["name"])
}

func TestAutosaveTimedFromLastChange(t *testing.T) {
	g := New(testColumns())

	var mu sync.Mutex
	var calls int
	g.SetAutosave(func([]Row) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, 50*time.Millisecond)

	g.AddRow()
	time.Sleep(30 * time.Millisecond)
	g.AddRow() // re-arms the timer

	// 50 ms from the first change has elapsed, but not from the second
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 0, calls)
	mu.Unlock()

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	assert.Equal(t, 1, calls)
	mu.Unlock()
}

func TestStopCancelsPendingAutosave(t *testing.T) {
	g := New(testColumns())

	var mu sync.Mutex
	var calls int
	g.SetAutosave(func([]Row) {
		mu.Lock()
		calls++
		mu.Unlock()
	}, 30*time.Millisecond)

	g.AddRow()
	g.Stop()
	time.Sleep(80 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, calls)
}

func TestMove(t *testing.T) {
	g := New(testColumns())
	g.AddRows(2)

	// Up/Down preserve the column
	assert.Equal(t, Pos{Row: 0, Col: 1}, g.Move(Pos{Row: 1, Col: 1}, Up))
	assert.Equal(t, Pos{Row: 1, Col: 1}, g.Move(Pos{Row: 0, Col: 1}, Down))
	assert.Equal(t, Pos{Row: 0, Col: 2}, g.Move(Pos{Row: 0, Col: 2}, Up))

	// Tab wraps to the next row
	assert.Equal(t, Pos{Row: 0, Col: 1}, g.Move(Pos{Row: 0, Col: 0}, NextCell))
	assert.Equal(t, Pos{Row: 1, Col: 0}, g.Move(Pos{Row: 0, Col: 2}, NextCell))

	// Tab from the last cell of the last row appends a new row
	p := g.Move(Pos{Row: 1, Col: 2}, NextCell)
	assert.Equal(t, Pos{Row: 2, Col: 0}, p)
	assert.Equal(t, 3, g.Len())
}

func TestValidateAll(t *testing.T) {
	g := New(testColumns())
	n := g.Paste("Empresa A;11222333000181;a@b.com\n;123;")
	require.Equal(t, 2, n)

	ok := g.ValidateAll()
	assert.False(t, ok)

	rows := g.Rows()
	assert.Empty(t, rows[0].Errors)
	assert.Equal(t, "required", rows[1].Errors["name"])
	assert.Equal(t, "invalid cnpj", rows[1].Errors["cnpj"])
}
