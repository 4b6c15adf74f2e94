package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"attendtrack_go/config"
)

// ScheduleManager runs the periodic jobs that keep the session lifecycle
// moving without operator input: nightly session generation, the minutely
// auto-close sweep, and log maintenance. Every job is idempotent, so an
// overlapping or repeated run is a no-op beyond the first effective write.
type ScheduleManager struct {
	cron     *cron.Cron
	sessions *SessionService
	archive  *LogArchiveService
}

// NewScheduleManager wires the periodic jobs to their services.
func NewScheduleManager(sessions *SessionService, archive *LogArchiveService) *ScheduleManager {
	return &ScheduleManager{
		cron:     cron.New(cron.WithLocation(config.AppConfig.SessionLocation)),
		sessions: sessions,
		archive:  archive,
	}
}

// Start registers and starts all periodic jobs.
func (sm *ScheduleManager) Start() {
	if config.AppConfig.AutoGenerate {
		// Materialize today's sessions shortly after midnight, and again at
		// 06:00 as a catch-up in case the service was down overnight.
		sm.cron.AddFunc("5 0 * * *", sm.generateToday)
		sm.cron.AddFunc("0 6 * * *", sm.generateToday)
	}

	// Close sessions whose window has passed.
	sm.cron.AddFunc("@every 1m", sm.autoClose)

	// Log maintenance: flush the Redis buffer hourly, archive to S3 nightly.
	sm.cron.AddFunc("@hourly", sm.flushLogs)
	sm.cron.AddFunc("30 2 * * *", sm.archiveLogs)

	sm.cron.Start()
	logrus.Info("Schedule manager started")
}

// Stop halts the cron scheduler; running jobs finish their current iteration.
func (sm *ScheduleManager) Stop() {
	sm.cron.Stop()
}

func (sm *ScheduleManager) generateToday() {
	now := time.Now().In(config.AppConfig.SessionLocation)
	if _, _, err := sm.sessions.GenerateSessions(now); err != nil {
		logrus.WithError(err).Error("Nightly session generation failed")
	}
}

func (sm *ScheduleManager) autoClose() {
	if _, err := sm.sessions.AutoCloseSessions(time.Now()); err != nil {
		logrus.WithError(err).Error("Auto-close sweep failed")
	}
}

func (sm *ScheduleManager) flushLogs() {
	if err := sm.archive.FlushCachedLogsToDatabase(); err != nil {
		logrus.WithError(err).Warn("Log flush failed")
	}
}

func (sm *ScheduleManager) archiveLogs() {
	if err := sm.archive.ArchiveOldLogs(90); err != nil {
		logrus.WithError(err).Warn("Log archive failed")
	}
}
