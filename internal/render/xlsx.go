package render

import (
	"fmt"
	"strings"

	"github.com/alimgiray/backers/internal/models"
	"github.com/xuri/excelize/v2"
)

// workbookColumns are the header row of every category sheet.
var workbookColumns = []string{"Name", "Email", "Username", "Profile", "Website", "Company", "Location"}

// renderWorkbook encodes the backers result as a spreadsheet, one sheet per
// non-empty category.
func renderWorkbook(backers *models.Backers) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	first := true
	for _, category := range backers.Categories() {
		if category.Name == "author" || len(category.Fellows) == 0 {
			continue
		}
		sheet := strings.ToUpper(category.Name[:1]) + category.Name[1:]
		if first {
			// Rename the default sheet instead of leaving it dangling.
			if err := file.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
			}
			first = false
		} else if _, err := file.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}

		for col, header := range workbookColumns {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := file.SetCellValue(sheet, cell, header); err != nil {
				return nil, fmt.Errorf("failed to write header for %s: %w", sheet, err)
			}
		}
		for row, fellow := range category.Fellows {
			values := []string{
				fellow.Name, fellow.Email, fellow.Username,
				fellow.ProfileURL, fellow.WebsiteURL, fellow.Company, fellow.Location,
			}
			for col, value := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
				if err := file.SetCellValue(sheet, cell, value); err != nil {
					return nil, fmt.Errorf("failed to write row for %s: %w", sheet, err)
				}
			}
		}
	}

	if first {
		// No categories at all; keep the empty default sheet.
		if err := file.SetSheetName("Sheet1", "Backers"); err != nil {
			return nil, fmt.Errorf("failed to prepare workbook: %w", err)
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
