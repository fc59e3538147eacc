package export

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/kavir10/lead-scoring/internal/model"
	"github.com/kavir10/lead-scoring/internal/store"
)

const sheetName = "Top Leads"

// WriteXLSX writes leads restricted to columns as a single-sheet workbook
// with a bold header row. Numbers and booleans keep their cell types.
func WriteXLSX(path string, leads []model.Lead, columns []string) error {
	rows, err := store.Table(leads, columns)
	if err != nil {
		return eris.Wrap(err, "xlsx: build rows")
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet(sheetName)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	header := sheet.AddRow()
	for _, name := range columns {
		cell := header.AddCell()
		cell.SetString(name)
		cell.SetStyle(bold)
	}

	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			setCell(row.AddCell(), v)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "xlsx: create dir for %s", path)
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func setCell(cell *xlsx.Cell, v any) {
	switch x := v.(type) {
	case string:
		cell.SetString(x)
	case int64:
		cell.SetInt64(x)
	case float64:
		cell.SetFloat(x)
	case bool:
		cell.SetBool(x)
	default:
		cell.SetString("")
	}
}
