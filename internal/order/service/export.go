package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rishitshah12/Auctave-User-sub002/internal/order/engine"
	"github.com/rishitshah12/Auctave-User-sub002/internal/shared/auth"
)

var taskExportHeaders = []string{
	"Product", "Task", "Status", "Priority", "Responsible",
	"Planned Start", "Planned End", "Actual Start", "Actual End",
	"Progress", "Notes",
}

// ExportTasks renders the production plan as xlsx, grouped by product.
func (s *OrderService) ExportTasks(ctx context.Context, actor auth.Actor, orderID string) (*excelize.File, string, error) {
	o, err := s.Get(ctx, actor, orderID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	sheet := "Tasks"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range taskExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, g := range engine.GroupByProduct(*o, o.Tasks) {
		for _, t := range g.Tasks {
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), g.Name)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), t.Name)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), t.Status)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), t.Priority)
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), t.Responsible)
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), t.PlannedStartDate)
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), t.PlannedEndDate)
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), t.ActualStartDate)
			f.SetCellValue(sheet, fmt.Sprintf("I%d", row), t.ActualEndDate)
			f.SetCellValue(sheet, fmt.Sprintf("J%d", row), t.Progress)
			f.SetCellValue(sheet, fmt.Sprintf("K%d", row), t.Notes)
			row++
		}
	}

	stats := engine.ComputeStats(o.Tasks, s.now())
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Summary")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%d/%d complete, %d overdue", stats.Completed, stats.Total, stats.Overdue))
	f.SetCellValue(sheet, fmt.Sprintf("J%d", row), stats.ProgressPercent)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("K%d", row), summaryStyle)

	colWidths := []float64{20, 28, 14, 10, 16, 13, 13, 13, 13, 10, 30}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("%s_tasks.xlsx", exportName(o.OrderName, o.ID))
	return f, filename, nil
}

func exportName(name, fallback string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', ':', '*', '?', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return fallback
	}
	return name
}
