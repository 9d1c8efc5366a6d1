package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReportTextDelimited(t *testing.T) {
	text := "Competência;Data do Evento;Procedimento;Prestador;Valor\n" +
		"07/2025;15/07/2025;Consulta eletiva;Clínica Central;350,00\n" +
		"07/2025;;Exame laboratorial;Lab Vida;1.280,45\n"

	s := NewClaimsService(nil, nil)
	rows := s.parseReportText(text)
	require.Len(t, rows, 2)

	assert.Equal(t, "07/2025", rows[0]["competence"])
	assert.Equal(t, "15/07/2025", rows[0]["event_date"])
	assert.Equal(t, "Consulta eletiva", rows[0]["procedure"])
	assert.Equal(t, "Clínica Central", rows[0]["provider"])
	assert.Equal(t, "350,00", rows[0]["amount"])
	assert.Equal(t, "1.280,45", rows[1]["amount"])
}

func TestParseReportTextFreeForm(t *testing.T) {
	text := "RELATÓRIO DE SINISTRALIDADE\n" +
		"07/2025 15/07/2025 Consulta eletiva  Clínica Central R$ 350,00\n" +
		"linha sem valor nenhum\n"

	s := NewClaimsService(nil, nil)
	rows := s.parseReportText(text)
	require.Len(t, rows, 1)
	assert.Equal(t, "07/2025", rows[0]["competence"])
	assert.Equal(t, "Consulta eletiva", rows[0]["procedure"])
	assert.Equal(t, "Clínica Central", rows[0]["provider"])
}

func TestParseBRAmount(t *testing.T) {
	cases := map[string]string{
		"350,00":      "350",
		"1.280,45":    "1280.45",
		"R$ 2.500,00": "2500",
		"R$1,99":      "1.99",
	}
	for in, want := range cases {
		got, err := parseBRAmount(in)
		require.NoError(t, err, in)
		expected, _ := decimal.NewFromString(want)
		assert.True(t, got.Equal(expected), "%s -> %s, want %s", in, got, expected)
	}

	_, err := parseBRAmount("abc")
	assert.Error(t, err)
	_, err = parseBRAmount("")
	assert.Error(t, err)
}

func TestNormalizeCompetence(t *testing.T) {
	assert.Equal(t, "2025-07", normalizeCompetence("07/2025"))
	assert.Equal(t, "2025-07", normalizeCompetence("2025-07"))
	assert.Equal(t, "garbage", normalizeCompetence("garbage"))
}

func TestCompetenceValidator(t *testing.T) {
	assert.NoError(t, competenceValidator("2025-07"))
	assert.Error(t, competenceValidator("2025-13"))
	assert.Error(t, competenceValidator("07/2025x"))
}

func TestClaimsColumnsValidation(t *testing.T) {
	s := NewClaimsService(nil, nil)
	columns := s.Columns()

	byKey := map[string]int{}
	for i, col := range columns {
		byKey[col.Key] = i
	}

	amount := columns[byKey["amount"]]
	assert.NoError(t, amount.Validator("1.234,56"))
	assert.Error(t, amount.Validator("not a number"))

	eventDate := columns[byKey["event_date"]]
	assert.NoError(t, eventDate.Validator(""))
	assert.NoError(t, eventDate.Validator("15/07/2025"))
	assert.Error(t, eventDate.Validator("2025-07-15"))
}
