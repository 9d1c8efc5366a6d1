package service

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileWithBOMAndSemicolons(t *testing.T) {
	input := "\xEF\xBB\xBFRazão Social;CNPJ;E-mail\n" +
		"Empresa A;11.222.333/0001-81;a@empresa.com\n" +
		"Empresa B;40688134000161;\n"

	s := NewCSVService()
	rows, err := s.ParseFile(strings.NewReader(input), companyColumns())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Empresa A", rows[0]["name"])
	assert.Equal(t, "11.222.333/0001-81", rows[0]["cnpj"])
	assert.Equal(t, "a@empresa.com", rows[0]["email"])
	assert.Equal(t, "", rows[1]["email"])
}

func TestParseFileMatchesHeaderByKey(t *testing.T) {
	input := "name;cnpj\nEmpresa A;11222333000181\n"

	s := NewCSVService()
	rows, err := s.ParseFile(strings.NewReader(input), companyColumns())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Empresa A", rows[0]["name"])
}

func TestParseFileSkipsBlankLines(t *testing.T) {
	input := "name;cnpj\nEmpresa A;11222333000181\n;;\n\n"

	s := NewCSVService()
	rows, err := s.ParseFile(strings.NewReader(input), companyColumns())
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParseFileRejectsUnknownHeader(t *testing.T) {
	input := "foo;bar\n1;2\n"

	s := NewCSVService()
	_, err := s.ParseFile(strings.NewReader(input), companyColumns())
	assert.Error(t, err)
}

func TestParseFileRequiresDataRows(t *testing.T) {
	s := NewCSVService()
	_, err := s.ParseFile(strings.NewReader("name;cnpj\n"), companyColumns())
	assert.Error(t, err)
}

func TestWriteTemplateRoundTrip(t *testing.T) {
	s := NewCSVService()
	columns := companyColumns()

	var buf bytes.Buffer
	err := s.WriteRows(&buf, columns, []map[string]string{
		{"name": "Empresa A", "cnpj": "11222333000181", "email": "a@empresa.com"},
	})
	require.NoError(t, err)

	out := buf.Bytes()
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Contains(t, buf.String(), "Razão Social;Nome Fantasia;CNPJ")

	rows, err := s.ParseFile(bytes.NewReader(out), columns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Empresa A", rows[0]["name"])
	assert.Equal(t, "11222333000181", rows[0]["cnpj"])
}
