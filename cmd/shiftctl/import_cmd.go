package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"

	"github.com/shiftopia/shiftopia/modules/scheduling/services"
)

func newImportCmd() *cobra.Command {
	var (
		file  string
		month int
		year  int
		name  string
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an XLSX grid as a new draft worksheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			stations, grid, err := readWorkbook(file)
			if err != nil {
				return err
			}

			ctx, app, pool, err := setupApp(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			worksheets := app.Service(services.WorksheetService{}).(*services.WorksheetService)
			ws, err := worksheets.Create(ctx, services.CreateWorksheetInput{
				Month:    month,
				Year:     year,
				Name:     name,
				Status:   services.StatusDraft,
				Stations: stations,
			})
			if err != nil {
				return err
			}

			imported := 0
			for day, cells := range grid {
				for station, employees := range cells {
					if len(employees) == 0 {
						continue
					}
					if _, err := worksheets.UpsertEntry(ctx, ws.ID, day, station, employees); err != nil {
						return fmt.Errorf("importing day %d station %q: %w", day, station, err)
					}
					imported++
				}
			}
			return writeJSON(map[string]any{
				"command":      "import",
				"worksheet_id": ws.ID,
				"stations":     len(stations),
				"entries":      imported,
			})
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "XLSX file to import (required)")
	cmd.Flags().IntVar(&month, "month", 0, "Worksheet month, 1-12 (required)")
	cmd.Flags().IntVar(&year, "year", 0, "Worksheet year (required)")
	cmd.Flags().StringVar(&name, "name", "", "Worksheet name (required)")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("month")
	_ = cmd.MarkFlagRequired("year")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// readWorkbook parses the legacy grid layout: the first row holds station
// names after a leading day column, each following row starts with the day
// number and lists comma separated employees per station.
func readWorkbook(path string) ([]string, map[int]map[string][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, nil, fmt.Errorf("no worksheet found in %s", path)
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("workbook %s has no data rows", path)
	}

	header := rows[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("header row must list at least one station")
	}
	var stations []string
	for _, cell := range header[1:] {
		station := strings.TrimSpace(cell)
		if station != "" {
			stations = append(stations, station)
		}
	}

	grid := make(map[int]map[string][]string)
	for i, row := range rows[1:] {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: invalid day %q", i+2, row[0])
		}
		cells := make(map[string][]string, len(stations))
		for j, station := range stations {
			if j+1 >= len(row) {
				break
			}
			var employees []string
			for _, part := range strings.Split(row[j+1], ",") {
				if name := strings.TrimSpace(part); name != "" {
					employees = append(employees, name)
				}
			}
			if len(employees) > 0 {
				cells[station] = employees
			}
		}
		grid[day] = cells
	}
	return stations, grid, nil
}
