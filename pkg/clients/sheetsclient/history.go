package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/jakechorley/staffplan/internal/config"
	"github.com/jakechorley/staffplan/pkg/core/model"
)

// Column headers of a historical shift export
const (
	colArea       = "Area"
	colTeamMember = "Team Member"
	colStartDate  = "Start Date"
	colStartTime  = "Start Time"
	colEndTime    = "End Time"
	colEmail      = "Email"
	colTotalTime  = "Total Time"
	colStatus     = "Status"
)

var requiredHistoryFields = []string{colArea, colTeamMember, colStartDate, colStartTime}

var optionalHistoryFields = []string{colEndTime, colEmail, colTotalTime, colStatus}

// GetHistoricalShifts reads the configured history tab.
// Cells that fail to parse are left empty so the extractor reports them at training time.
func (c *Client) GetHistoricalShifts(ctx context.Context, cfg *config.HistoryConfig) ([]model.HistoricalShiftRecord, error) {
	if cfg == nil {
		return nil, fmt.Errorf("history sheet is not configured")
	}

	values, err := c.GetValues(ctx, cfg.SheetID, cfg.Tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get history data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	records, err := parseHistory(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}

	return records, nil
}

// parseHistory converts raw spreadsheet rows into historical shift records
func parseHistory(raw [][]interface{}) ([]model.HistoricalShiftRecord, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fieldIndexes := make(map[string]int)
	for i, cell := range raw[0] {
		if name, ok := cell.(string); ok {
			fieldIndexes[strings.TrimSpace(name)] = i
		}
	}
	for _, field := range requiredHistoryFields {
		if _, ok := fieldIndexes[field]; !ok {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
	}
	for _, field := range optionalHistoryFields {
		if _, ok := fieldIndexes[field]; !ok {
			fieldIndexes[field] = -1
		}
	}

	getField := func(field string, row []interface{}) string {
		index := fieldIndexes[field]
		if index < 0 || index >= len(row) {
			return ""
		}
		if str, ok := row[index].(string); ok {
			return strings.TrimSpace(str)
		}
		if row[index] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[index]))
	}

	records := make([]model.HistoricalShiftRecord, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if len(row) == 0 {
			continue
		}

		record := model.HistoricalShiftRecord{
			EmployeeIdentifier: getField(colTeamMember, row),
			DepartmentName:     getField(colArea, row),
			Status:             getField(colStatus, row),
		}
		if email := getField(colEmail, row); email != "" && !model.IsUnallocated(record.EmployeeIdentifier) {
			record.EmployeeIdentifier = email
		}
		if date, err := model.ParseDate(getField(colStartDate, row)); err == nil {
			record.ShiftDate = date
		}
		if start, err := model.ParseTimeOfDay(getField(colStartTime, row)); err == nil {
			record.StartTime = &start
		}
		if end, err := model.ParseTimeOfDay(getField(colEndTime, row)); err == nil {
			record.EndTime = &end
		}
		if hours, err := model.ParseDuration(getField(colTotalTime, row)); err == nil {
			record.DurationHours = hours
		}

		records = append(records, record)
	}

	return records, nil
}
