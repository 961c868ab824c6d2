package spreadsheet

import (
	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

var invoiceColumns = []column{
	{"청구서번호", 15},
	{"건축주", 12},
	{"프로젝트", 15},
	{"작업장주소", 35},
	{"청구금액", 15},
	{"상태", 12},
	{"발행일", 12},
	{"지불기한", 12},
	{"작업항목수", 12},
}

var invoiceLineColumns = []column{
	{"순번", 8},
	{"작업명", 20},
	{"수량", 10},
	{"단가", 15},
	{"합계", 15},
	{"카테고리", 12},
	{"설명", 30},
	{"비고", 25},
}

// ExportInvoices 청구서 목록 (가져오기는 지원하지 않음)
func ExportInvoices(invoices []model.Invoice) ([]byte, error) {
	f, err := newWorkbook(InvoicesSheet)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []interface{}{
			inv.ID, inv.Client, inv.Project, inv.WorkplaceAddress, inv.Amount,
			string(inv.Status), inv.Date, inv.DueDate, len(inv.WorkItems),
		})
	}
	if err := writeTable(f, InvoicesSheet, invoiceColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}

// ExportInvoiceDetail 청구서 한 건: 정보 시트 + 작업 내역 시트
func ExportInvoiceDetail(inv model.Invoice) ([]byte, error) {
	f, err := newWorkbook(InvoiceInfoSheet)
	if err != nil {
		return nil, err
	}

	info := [][]interface{}{
		{"청구서 번호", inv.ID},
		{"건축주", inv.Client},
		{"프로젝트", inv.Project},
		{"작업장 주소", inv.WorkplaceAddress},
		{"발행일", inv.Date},
		{"지불 기한", inv.DueDate},
		{"상태", string(inv.Status)},
		{"총 금액", inv.Amount},
	}
	for i, row := range info {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(InvoiceInfoSheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.NewSheet(InvoiceLinesSheet); err != nil {
		f.Close()
		return nil, err
	}
	rows := make([][]interface{}, 0, len(inv.WorkItems))
	for i, l := range inv.WorkItems {
		rows = append(rows, []interface{}{
			i + 1, l.Name, l.Quantity, l.UnitPrice, l.Total, l.Category, l.Description, l.Notes,
		})
	}
	if err := writeTable(f, InvoiceLinesSheet, invoiceLineColumns, rows); err != nil {
		f.Close()
		return nil, err
	}
	return toBytes(f)
}
