package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SpreadsheetController struct {
	spreadsheetService service.SpreadsheetService
}

func NewSpreadsheetController(spreadsheetService service.SpreadsheetService) *SpreadsheetController {
	return &SpreadsheetController{spreadsheetService: spreadsheetService}
}

// sheetTarget "clients.xlsx" -> "clients"
func sheetTarget(c *gin.Context) string {
	return strings.TrimSuffix(c.Param("name"), ".xlsx")
}

func sendWorkbook(c *gin.Context, wb *service.Workbook) {
	// 한글 파일명은 RFC 5987 형식으로 함께 보낸다
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		"export.xlsx", url.PathEscape(wb.Filename)))
	c.Data(http.StatusOK, xlsxContentType, wb.Data)
}

// Export GET /api/v1/export/:name (clients.xlsx, work-items.xlsx, invoices.xlsx)
func (ctrl *SpreadsheetController) Export(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	wb, err := ctrl.spreadsheetService.Export(sess, sheetTarget(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	sendWorkbook(c, wb)
}

// ExportInvoice 청구서 한 건 상세
// GET /api/v1/invoices/:id/xlsx
func (ctrl *SpreadsheetController) ExportInvoice(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	wb, err := ctrl.spreadsheetService.ExportInvoice(sess, c.Param("id"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	sendWorkbook(c, wb)
}

// Template 가져오기용 빈 양식
// GET /api/v1/templates/:name
func (ctrl *SpreadsheetController) Template(c *gin.Context) {
	wb, err := ctrl.spreadsheetService.Template(sheetTarget(c))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	sendWorkbook(c, wb)
}

// Import 엑셀 파일의 행을 기존 목록 뒤에 추가
// POST /api/v1/import/:name
func (ctrl *SpreadsheetController) Import(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sess, _ := middleware.GetSession(c)

	raw, err := readUpload(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportFileMissing, "엑셀 파일을 선택해주세요")
		return
	}

	count, err := ctrl.spreadsheetService.Import(sess, sheetTarget(c), bytes.NewReader(raw))
	if err != nil {
		log.Warn("Spreadsheet import failed", map[string]interface{}{
			"target": sheetTarget(c),
			"error":  err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported": count,
		"message":  fmt.Sprintf("%d개 항목을 가져왔습니다", count),
	})
}
