// Package spreadsheet reads and writes the xlsx files used to exchange
// clients, work items and invoices with other tools.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrFormat 가져오기 파일 형식 오류 (행 번호 포함)
var ErrFormat = errors.New("spreadsheet format error")

// 시트 이름
const (
	ClientsSheet       = "건축주 목록"
	WorkItemsSheet     = "작업 항목"
	InvoicesSheet      = "청구서 목록"
	InvoiceInfoSheet   = "청구서 정보"
	InvoiceLinesSheet  = "작업 내역"
	ClientTemplate     = "건축주 템플릿"
	WorkItemTemplate   = "작업항목 템플릿"
	defaultSheetName   = "Sheet1"
	defaultColumnWidth = 12
)

type column struct {
	header string
	width  float64
}

// newWorkbook 첫 시트 이름을 바꾼 빈 통합 문서
func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// writeTable 헤더 + 데이터 행 + 컬럼 너비
func writeTable(f *excelize.File, sheet string, cols []column, rows [][]interface{}) error {
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.header
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i, c := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := c.width
		if width == 0 {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return err
		}
	}
	return nil
}

func toBytes(f *excelize.File) ([]byte, error) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// record 헤더 이름으로 셀을 찾는 한 행
type record struct {
	row   int // 시트 기준 행 번호 (1부터)
	index int // 데이터 행 순번 (1부터)
	cells map[string]string
}

func (r record) str(header string) string {
	return strings.TrimSpace(r.cells[header])
}

func (r record) formatErr(header, value string) error {
	return fmt.Errorf("%w: row %d column %q: %q is not a number", ErrFormat, r.row, header, value)
}

// integer 비어 있으면 def, 숫자가 아니면 ErrFormat
func (r record) integer(header string, def int64) (int64, error) {
	v := strings.ReplaceAll(r.str(header), ",", "")
	if v == "" {
		return def, nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.formatErr(header, r.str(header))
	}
	return int64(f), nil
}

func (r record) number(header string) (float64, error) {
	v := strings.ReplaceAll(r.str(header), ",", "")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.formatErr(header, r.str(header))
	}
	return f, nil
}

// readRecords 첫 시트의 첫 행을 헤더로 보고 나머지 행을 읽는다.
// 빈 행은 건너뛴다.
func readRecords(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: no sheets found", ErrFormat)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrFormat)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var out []record
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cells := make(map[string]string, len(headers))
		for j, v := range row {
			if j < len(headers) && headers[j] != "" {
				cells[headers[j]] = v
			}
		}
		out = append(out, record{row: i + 2, index: i + 1, cells: cells})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
