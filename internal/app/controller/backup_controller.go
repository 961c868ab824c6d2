package controller

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	apperrors "github.com/ikkim/geonseol-backend/internal/errors"
	"github.com/ikkim/geonseol-backend/internal/middleware"
)

type BackupController struct {
	backupService service.BackupService
}

func NewBackupController(backupService service.BackupService) *BackupController {
	return &BackupController{backupService: backupService}
}

// Export 전체 데이터 백업 파일 내려받기
// GET /api/v1/backup
func (ctrl *BackupController) Export(c *gin.Context) {
	sess, _ := middleware.GetSession(c)
	backup, err := ctrl.backupService.Export(sess)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	filename := fmt.Sprintf("construction-backup-%s.json", backup.Timestamp.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, backup)
}

// Restore 백업 파일로 전체 복원
// POST /api/v1/backup/restore
func (ctrl *BackupController) Restore(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	sess, _ := middleware.GetSession(c)

	raw, err := readUpload(c)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportFileMissing, "백업 파일을 선택해주세요")
		return
	}

	result, err := ctrl.backupService.Restore(c.Request.Context(), sess, raw)
	if err != nil {
		log.Warn("Backup restore failed", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
