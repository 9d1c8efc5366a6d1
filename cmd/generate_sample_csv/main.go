package main

import (
	"flag"
	"log"
	"os"

	"benefits-web/internal/service"
)

// Generates a sample central-import CSV (UTF-8 with BOM, semicolon
// delimited) for manual testing of the companies step.
func main() {
	output := flag.String("o", "sample_empresas.csv", "output file")
	flag.Parse()

	wizard := service.NewWizardService(nil, nil, nil, nil, nil)
	g, err := wizard.NewGrid(service.StepCompanies)
	if err != nil {
		log.Fatalf("Failed to build grid: %v", err)
	}
	columns := g.Columns()
	g.Stop()

	rows := []map[string]string{
		{
			"name":       "Empresa Alfa Ltda",
			"trade_name": "Alfa",
			"cnpj":       "11.222.333/0001-81",
			"email":      "contato@alfa.example",
			"phone":      "11999998888",
			"city":       "São Paulo",
			"state":      "SP",
		},
		{
			"name":       "Beta Serviços SA",
			"trade_name": "Beta",
			"cnpj":       "40688134000161",
			"email":      "rh@beta.example",
			"phone":      "2133334444",
			"city":       "Rio de Janeiro",
			"state":      "RJ",
		},
		{
			// Missing required name, for exercising validation
			"cnpj":  "19131243000197",
			"email": "sem-nome@exemplo.example",
		},
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *output, err)
	}
	defer f.Close()

	csvService := service.NewCSVService()
	if err := csvService.WriteRows(f, columns, rows); err != nil {
		log.Fatalf("Failed to write CSV: %v", err)
	}

	log.Printf("Wrote %s with %d data rows", *output, len(rows))
}
