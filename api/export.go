package api

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/warp/leave-engine/generic"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ledgerSheet     = "Ledger"
	anomalySheet    = "Anomalies"
)

var ledgerColumns = []string{"Date", "Kind", "Credit", "Debit", "Balance", "Request", "Note", "Created By", "Deleted"}

// LedgerWorkbook renders an employee/year ledger. Entries must come from a
// recompute so the running balances are current. Deleted entries are listed
// with their deletion reason and no balance.
func LedgerWorkbook(employeeID generic.EmployeeID, year int, entries []generic.LedgerEntry, anomalies []generic.Anomaly) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", ledgerSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	title := fmt.Sprintf("Annual leave ledger %s %d", employeeID, year)
	if err := f.SetCellValue(ledgerSheet, "A1", title); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set title: %w", err)
	}
	if err := writeRow(f, ledgerSheet, 3, ledgerColumns); err != nil {
		f.Close()
		return nil, err
	}

	for i, e := range entries {
		deleted := ""
		var balance any = float(e.Balance)
		if e.Deleted != nil {
			deleted = e.Deleted.Reason
			balance = ""
		}
		row := []any{
			e.Date.String(),
			string(e.Kind),
			float(e.Credit),
			float(e.Debit),
			balance,
			string(e.RequestID),
			e.Note,
			string(e.CreatedBy),
			deleted,
		}
		if err := writeRow(f, ledgerSheet, 4+i, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if len(anomalies) > 0 {
		if _, err := f.NewSheet(anomalySheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to add anomaly sheet: %w", err)
		}
		if err := writeRow(f, anomalySheet, 1, []string{"Entry", "Kind", "Credit", "Debit", "Message"}); err != nil {
			f.Close()
			return nil, err
		}
		for i, a := range anomalies {
			row := []any{string(a.EntryID), string(a.Kind), float(a.Credit), float(a.Debit), a.Message}
			if err := writeRow(f, anomalySheet, 2+i, row); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}
