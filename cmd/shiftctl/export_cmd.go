package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
)

const exportSheet = "Schedule"

func newExportCmd() *cobra.Command {
	var (
		worksheetID int64
		output      string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a worksheet as an XLSX grid (stations across, days down)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, app, pool, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			worksheets := app.Service(services.WorksheetService{}).(*services.WorksheetService)
			ws, err := worksheets.GetByID(ctx, worksheetID)
			if err != nil {
				return err
			}
			entries, err := worksheets.Entries(ctx, worksheetID)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("worksheet-%d-%02d.xlsx", ws.Year, ws.Month)
			}
			if err := writeWorkbook(output, ws, entries); err != nil {
				return err
			}
			return writeJSON(map[string]any{
				"command":  "export",
				"file":     output,
				"stations": len(ws.Stations),
				"entries":  len(entries),
			})
		},
	}

	cmd.Flags().Int64Var(&worksheetID, "worksheet", 0, "Worksheet id (required)")
	cmd.Flags().StringVar(&output, "output", "", "Output path (defaults to worksheet-<year>-<month>.xlsx)")
	_ = cmd.MarkFlagRequired("worksheet")
	return cmd
}

func writeWorkbook(path string, ws services.Worksheet, entries []services.WorksheetEntry) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	// Header row: Day followed by the worksheet's station snapshot.
	if err := setCell(f, 1, 1, "Day"); err != nil {
		return err
	}
	stationCol := make(map[string]int, len(ws.Stations))
	for i, station := range ws.Stations {
		stationCol[station] = i + 2
		if err := setCell(f, i+2, 1, station); err != nil {
			return err
		}
	}

	days := time.Date(ws.Year, time.Month(ws.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	for day := 1; day <= days; day++ {
		if err := setCell(f, 1, day+1, day); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		col, ok := stationCol[entry.Workstation]
		if !ok {
			continue
		}
		if err := setCell(f, col, entry.Day+1, strings.Join(entry.Employees, ", ")); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}

func setCell(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(exportSheet, cell, value)
}
