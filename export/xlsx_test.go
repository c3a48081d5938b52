package export

import (
	"bytes"
	"testing"
	"time"

	"budgetplanner/backend/models"

	"github.com/xuri/excelize/v2"
)

func TestWriteTransactionsXLSX(t *testing.T) {
	txs := []models.Transaction{
		{
			ID:               1,
			Timestamp:        time.Date(2025, 8, 29, 14, 47, 0, 0, time.UTC),
			OriginalAmount:   -53.96,
			OriginalCurrency: "RON",
			NormalizedAmount: -53.96,
			Merchant:         "PENNY",
			Category:         models.CategoryFood,
			Source:           models.SourceSMS,
			Note:             "PENNY 4562 RM VL2 C3",
		},
		{
			ID:               2,
			Timestamp:        time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC),
			OriginalAmount:   100,
			OriginalCurrency: "EUR",
			NormalizedAmount: 497.5,
			Party:            "MOM",
		},
	}

	var buf bytes.Buffer
	if err := WriteTransactionsXLSX(&buf, txs); err != nil {
		t.Fatalf("WriteTransactionsXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(TransactionsSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Date" || rows[0][5] != "Amount (ref)" {
		t.Errorf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "PENNY" || rows[1][2] != "FOOD" || rows[1][3] != "-53.96" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][7] != "MOM" || rows[2][5] != "497.5" {
		t.Errorf("unexpected second row: %v", rows[2])
	}
	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != TransactionsSheet {
		t.Errorf("unexpected sheets: %v", sheets)
	}
}
