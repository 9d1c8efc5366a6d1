package service

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"benefits-web/internal/grid"
	"benefits-web/internal/models"
)

type ExcelService struct{}

func NewExcelService() *ExcelService {
	return &ExcelService{}
}

// ExportJobRows writes the staged rows of an import job, one grid column
// per sheet column plus status and failure reason, so rejected batches
// can be fixed offline and re-imported.
func (s *ExcelService) ExportJobRows(job *models.ImportJob, columns []grid.Column, rows []models.ImportJobRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Rows"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := make([]string, 0, len(columns)+3)
	headers = append(headers, "#")
	for _, col := range columns {
		headers = append(headers, col.Title)
	}
	headers = append(headers, "Status", "Erro")

	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for i, row := range rows {
		excelRow := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", excelRow), row.RowIndex+1)

		for j, col := range columns {
			cell := fmt.Sprintf("%s%d", getColumnName(j+1), excelRow)
			f.SetCellValue(sheetName, cell, row.Fields[col.Key])
		}

		statusCell := fmt.Sprintf("%s%d", getColumnName(len(columns)+1), excelRow)
		f.SetCellValue(sheetName, statusCell, row.Status)

		reason := row.FailureReason
		if reason == "" {
			reason = firstMapValue(row.Errors)
		}
		reasonCell := fmt.Sprintf("%s%d", getColumnName(len(columns)+2), excelRow)
		f.SetCellValue(sheetName, reasonCell, reason)
	}

	f.SetColWidth(sheetName, "A", "A", 6)
	f.SetColWidth(sheetName, "B", getColumnName(len(headers)-1), 22)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

// ExportClaims writes extracted claims for conference against the
// operator report
func (s *ExcelService) ExportClaims(claims []models.Claim, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sinistros"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}

	headers := []string{"Competência", "Data do Evento", "Procedimento", "Prestador", "Valor"}
	for i, header := range headers {
		cell := fmt.Sprintf("%s1", getColumnName(i))
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", getColumnName(len(headers)-1)), headerStyle)

	for i, claim := range claims {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), claim.Competence)
		if claim.EventDate != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), claim.EventDate.Format("02/01/2006"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), claim.Procedure)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), claim.Provider)
		amount, _ := claim.Amount.Float64()
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), amount)
	}

	f.SetColWidth(sheetName, "A", "B", 14)
	f.SetColWidth(sheetName, "C", "D", 35)
	f.SetColWidth(sheetName, "E", "E", 14)

	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	return f.SaveAs(outputPath)
}

func getColumnName(index int) string {
	name, _ := excelize.ColumnNumberToName(index + 1)
	return name
}

func firstMapValue(m models.JSONMap) string {
	for field, msg := range m {
		return field + ": " + msg
	}
	return ""
}
