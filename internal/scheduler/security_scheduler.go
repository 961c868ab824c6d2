package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/geonseol-backend/internal/app/model"
	"github.com/ikkim/geonseol-backend/internal/app/service"
	"github.com/ikkim/geonseol-backend/internal/session"
	"github.com/ikkim/geonseol-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const (
	idleSweepSpec  = "@every 10m"
	revalidateWait = 30 * time.Second
)

// SecurityScheduler 관리자 보안키 주기적 재검증 + 유휴 세션 정리
type SecurityScheduler struct {
	cron        *cron.Cron
	sessions    *session.Manager
	authService service.AuthService
	spec        string
	maxIdle     time.Duration
}

// NewSecurityScheduler spec 은 재검증 주기 (cron 표현식)
func NewSecurityScheduler(sessions *session.Manager, authService service.AuthService, spec string, maxIdle time.Duration) *SecurityScheduler {
	return &SecurityScheduler{
		cron:        cron.New(),
		sessions:    sessions,
		authService: authService,
		spec:        spec,
		maxIdle:     maxIdle,
	}
}

// Start 스케줄러 시작
func (s *SecurityScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), revalidateWait)
		defer cancel()
		s.RevalidateAdmins(ctx)
	})
	if err != nil {
		logger.Error("Failed to add cron job for security revalidation", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	if s.maxIdle > 0 {
		if _, err := s.cron.AddFunc(idleSweepSpec, func() { s.ExpireIdle() }); err != nil {
			logger.Error("Failed to add cron job for idle session sweep", err)
			return err
		}
	}

	s.cron.Start()
	logger.Info("Security scheduler started successfully", map[string]interface{}{
		"revalidation": s.spec,
		"max_idle":     s.maxIdle.String(),
	})
	return nil
}

// RevalidateAdmins 인증된 관리자 세션의 보안키를 다시 확인하고
// 다시 불러와야 하는 세션 수를 반환
func (s *SecurityScheduler) RevalidateAdmins(ctx context.Context) int {
	reloaded := 0
	for _, sess := range s.sessions.ByUser(model.AdminUsername) {
		reload, err := s.authService.Revalidate(ctx, sess)
		if reload {
			reloaded++
			continue
		}
		if err != nil {
			logger.Warn("Scheduled revalidation failed", map[string]interface{}{
				"session_id": sess.ID,
				"error":      err.Error(),
			})
		}
	}
	if reloaded > 0 {
		logger.Info("Scheduled revalidation closed admin sessions", map[string]interface{}{
			"count": reloaded,
		})
	}
	return reloaded
}

// ExpireIdle 유휴 세션 정리
func (s *SecurityScheduler) ExpireIdle() int {
	n := s.sessions.ExpireIdle(s.maxIdle)
	if n > 0 {
		logger.Info("Expired idle sessions", map[string]interface{}{
			"count": n,
		})
	}
	return n
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다린다
func (s *SecurityScheduler) Stop() {
	logger.Info("Stopping security scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Security scheduler stopped")
}
