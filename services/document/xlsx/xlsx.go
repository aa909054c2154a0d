package xlsx

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/classbook/core/report"
)

const (
	contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Report"
)

type Renderer struct{}

var _ report.Renderer = Renderer{}

func NewRenderer() Renderer { return Renderer{} }

func (Renderer) Extension() string   { return "xlsx" }
func (Renderer) ContentType() string { return contentType }

// Render writes the title in A1, one paragraph per row below it, then the table
// after a blank row.
func (Renderer) Render(w io.Writer, doc report.Document) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return errors.Wrap(err, "naming sheet")
	}
	boldID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating bold style")
	}
	headerID, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	row := 1
	if err = setCell(f, 1, row, doc.Title); err != nil {
		return err
	}
	if err = f.SetCellStyle(sheetName, "A1", "A1", boldID); err != nil {
		return errors.Wrap(err, "styling title")
	}
	for _, p := range doc.Paragraphs {
		row++
		if err = setCell(f, 1, row, p); err != nil {
			return err
		}
	}

	if tbl := doc.Table; tbl != nil {
		row += 2
		for col, h := range tbl.Header {
			if err = setCell(f, col+1, row, h); err != nil {
				return err
			}
		}
		if len(tbl.Header) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, row)
			last, _ := excelize.CoordinatesToCellName(len(tbl.Header), row)
			if err = f.SetCellStyle(sheetName, first, last, headerID); err != nil {
				return errors.Wrap(err, "styling table header")
			}
		}
		for _, cells := range tbl.Rows {
			row++
			for col, cell := range cells {
				if err = setCell(f, col+1, row, cell); err != nil {
					return err
				}
			}
		}
		if err = f.SetColWidth(sheetName, "A", "A", 30); err != nil {
			return errors.Wrap(err, "sizing first column")
		}
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func setCell(f *excelize.File, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrap(err, "resolving cell name")
	}
	return errors.Wrapf(f.SetCellValue(sheetName, cell, value), "setting cell %s", cell)
}
