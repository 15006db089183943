package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dvloznov/expense-analyzer/internal/domain"
)

// SheetName is the worksheet the XLSX export writes to.
const SheetName = "Transactions"

// WriteXLSX writes the same columns as WriteCSV into a workbook. Amounts
// stay numeric so the sheet can sum them.
func WriteXLSX(w io.Writer, txns []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("WriteXLSX: rename sheet: %w", err)
	}

	header := []interface{}{}
	for _, h := range strings.Split(csvHeader, ",") {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("WriteXLSX: header: %w", err)
	}

	for i, t := range txns {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("WriteXLSX: %w", err)
		}
		row := []interface{}{
			t.Date,
			t.Description,
			t.Amount,
			string(t.Category),
			string(t.Type),
			strings.Join(t.Tags, ";"),
			t.By,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("WriteXLSX: row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: write workbook: %w", err)
	}
	return nil
}
