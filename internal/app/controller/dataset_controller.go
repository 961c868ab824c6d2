package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

// DatasetController 데이터셋 조회/교체 및 파생 집계
type DatasetController struct {
	workspaceService service.WorkspaceService
}

func NewDatasetController(workspaceService service.WorkspaceService) *DatasetController {
	return &DatasetController{workspaceService: workspaceService}
}

// Get GET /api/v1/datasets/:name
func (ctrl *DatasetController) Get(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	raw, err := ctrl.workspaceService.Dataset(sess, c.Param("name"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Replace PUT /api/v1/datasets/:name
// 본문은 데이터셋 전체 값
func (ctrl *DatasetController) Replace(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sess, ok := middleware.GetSession(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "데이터를 입력해주세요")
		return
	}

	if err := ctrl.workspaceService.ReplaceDataset(sess, c.Param("name"), raw); err != nil {
		log.Warn("Dataset replace rejected", map[string]interface{}{
			"dataset": c.Param("name"),
			"error":   err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClientSummaries GET /api/v1/clients/summaries
func (ctrl *DatasetController) ClientSummaries(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	summaries, err := ctrl.workspaceService.ClientSummaries(sess)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"clients": summaries,
		"count":   len(summaries),
	})
}

// ClientSummary GET /api/v1/clients/:id/summary
func (ctrl *DatasetController) ClientSummary(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 건축주 ID입니다")
		return
	}
	summary, err := ctrl.workspaceService.ClientSummary(sess, id)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Stats GET /api/v1/stats
func (ctrl *DatasetController) Stats(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	stats, err := ctrl.workspaceService.Stats(sess)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
