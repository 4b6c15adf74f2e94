package controllers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"attendtrack_go/database"
	"attendtrack_go/middleware"
	"attendtrack_go/models"
	"attendtrack_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm/clause"
)

// ScheduleImportController imports a weekly schedule from a spreadsheet.
// Expected columns: room, day, time_slot, group, subject.
type ScheduleImportController struct{}

type scheduleImportRow struct {
	line      int
	roomName  string
	day       models.Weekday
	startTime string
	endTime   string
	groupName string
	subjCode  string
}

// Import parses a CSV/XLSX upload and creates schedule entries.
// Rows that fail to parse or resolve are reported and skipped; valid rows
// are inserted, with occupied slots skipped rather than overwritten.
func (sic *ScheduleImportController) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot open file"})
	}
	defer file.Close()

	filename := strings.ToLower(fileHeader.Filename)
	var rows [][]string
	var parseErr error

	switch {
	case strings.HasSuffix(filename, ".csv"):
		rows, parseErr = readCSV(file)
	case strings.HasSuffix(filename, ".xlsx"), strings.HasSuffix(filename, ".xls"):
		tmpDir, _ := os.MkdirTemp("", "atschedule-")
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d.xlsx", time.Now().UnixNano()))
		if err := c.SaveFile(fileHeader, tmp); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "failed to buffer upload"})
		}
		rows, parseErr = readXLSX(tmp)
		_ = os.Remove(tmp)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported file type (csv, xlsx)"})
	}
	if parseErr != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": parseErr.Error()})
	}
	if len(rows) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file is empty"})
	}

	colIndex := buildColumnIndex(rows[0])
	for _, key := range []string{"room", "day", "time_slot", "group", "subject"} {
		if _, ok := colIndex[key]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("missing column: %s", key),
			})
		}
	}

	var parsed []scheduleImportRow
	var rowErrors []string
	for i := 1; i < len(rows); i++ {
		raw := rows[i]
		if isRowEmpty(raw) {
			continue
		}
		r, err := parseScheduleRow(raw, colIndex, i+1)
		if err != nil {
			rowErrors = append(rowErrors, err.Error())
			continue
		}
		parsed = append(parsed, r)
	}

	imported := 0
	var skipped []string
	for _, r := range parsed {
		entry, resolveErr := sic.resolveRow(r)
		if resolveErr != "" {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: %s", r.line, resolveErr))
			continue
		}
		result := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
		if result.Error != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("row %d: insert failed", r.line))
			continue
		}
		if result.RowsAffected == 0 {
			skipped = append(skipped, fmt.Sprintf("row %d: slot already taken", r.line))
			continue
		}
		imported++
	}

	middleware.LogActivity(c, "IMPORT", "schedules", "", fiber.Map{
		"file":     fileHeader.Filename,
		"imported": imported,
		"skipped":  len(skipped),
		"errors":   len(rowErrors),
	})

	status := fiber.StatusOK
	if imported == 0 && len(rowErrors) > 0 {
		status = fiber.StatusBadRequest
	}
	return c.Status(status).JSON(fiber.Map{
		"message":  "Import finished",
		"imported": imported,
		"skipped":  skipped,
		"errors":   rowErrors,
	})
}

func parseScheduleRow(raw []string, col map[string]int, line int) (scheduleImportRow, error) {
	get := func(key string) string {
		idx, ok := col[key]
		if !ok || idx >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[idx])
	}

	r := scheduleImportRow{line: line}
	r.roomName = get("room")
	r.groupName = get("group")
	r.subjCode = get("subject")
	if r.roomName == "" || r.groupName == "" || r.subjCode == "" {
		return r, fmt.Errorf("row %d: room, group and subject are required", line)
	}

	r.day = models.Weekday(strings.ToLower(get("day")))
	if !r.day.Valid() {
		return r, fmt.Errorf("row %d: invalid day %q", line, get("day"))
	}

	start, end, err := utils.ParseTimeSlot(get("time_slot"))
	if err != nil {
		return r, fmt.Errorf("row %d: %v", line, err)
	}
	r.startTime, r.endTime = start, end

	return r, nil
}

// resolveRow maps spreadsheet names to database ids.
// Rooms match by name or esp32 id; groups by name; subjects by code.
func (sic *ScheduleImportController) resolveRow(r scheduleImportRow) (*models.ScheduleEntry, string) {
	var room models.Room
	if err := database.DB.Where("room_name = ? OR esp32_id = ?", r.roomName, r.roomName).First(&room).Error; err != nil {
		return nil, fmt.Sprintf("room %q not found", r.roomName)
	}
	var group models.Group
	if err := database.DB.Where("name = ?", r.groupName).First(&group).Error; err != nil {
		return nil, fmt.Sprintf("group %q not found", r.groupName)
	}
	var subject models.Subject
	if err := database.DB.Where("code = ?", r.subjCode).First(&subject).Error; err != nil {
		return nil, fmt.Sprintf("subject %q not found", r.subjCode)
	}

	return &models.ScheduleEntry{
		RoomID:    room.ID,
		Day:       r.day,
		StartTime: r.startTime,
		EndTime:   r.endTime,
		GroupID:   group.ID,
		SubjectID: subject.ID,
	}, ""
}

func buildColumnIndex(header []string) map[string]int {
	col := map[string]int{}
	for idx, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if key == "" {
			continue
		}
		col[key] = idx
		// allow alternate spellings
		switch key {
		case "room name", "room_name":
			col["room"] = idx
		case "weekday":
			col["day"] = idx
		case "time slot", "slot", "time":
			col["time_slot"] = idx
		case "group name", "class":
			col["group"] = idx
		case "subject code", "course":
			col["subject"] = idx
		}
	}
	return col
}

func isRowEmpty(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sheet := f.GetSheetName(0)
	if sheet == "" {
		sheet = "Sheet1"
	}
	return f.GetRows(sheet)
}
