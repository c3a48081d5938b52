// Package export writes ledger data to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"budgetplanner/backend/models"

	"github.com/xuri/excelize/v2"
)

const (
	TransactionsSheet = "Transactions"
	ContentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var transactionHeaders = []string{"Date", "Merchant", "Category", "Amount", "Currency", "Amount (ref)", "Source", "Party", "Note"}

// WriteTransactionsXLSX writes txs as a single-sheet workbook to w.
func WriteTransactionsXLSX(w io.Writer, txs []models.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(TransactionsSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	for i, h := range transactionHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(TransactionsSheet, cell, h); err != nil {
			return err
		}
	}

	for idx, t := range txs {
		row := []any{
			t.Timestamp.Format("2006-01-02 15:04"),
			t.Merchant,
			string(t.Category),
			t.OriginalAmount,
			t.OriginalCurrency,
			t.NormalizedAmount,
			string(t.Source),
			t.Party,
			t.Note,
		}
		cell, err := excelize.CoordinatesToCellName(1, idx+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TransactionsSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", idx+2, err)
		}
	}

	f.SetColWidth(TransactionsSheet, "A", "A", 17)
	f.SetColWidth(TransactionsSheet, "B", "B", 20)
	f.SetColWidth(TransactionsSheet, "C", "C", 12)
	f.SetColWidth(TransactionsSheet, "I", "I", 30)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
