package service

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type JobService struct {
	cron   *cron.Cron
	sender *SenderService
	auth   *AuthService
	logger *zerolog.Logger
}

func NewJobService(sender *SenderService, auth *AuthService, logger *zerolog.Logger) *JobService {
	return &JobService{
		cron:   cron.New(),
		sender: sender,
		auth:   auth,
		logger: logger,
	}
}

// Start schedules the outbox sweep and the purge of stale registrations.
func (s *JobService) Start(ctx context.Context, dispatchSpec, purgeSpec string) error {
	if _, err := s.cron.AddFunc(dispatchSpec, func() { s.DispatchNotifications(ctx) }); err != nil {
		return fmt.Errorf("schedule notification dispatch %q: %w", dispatchSpec, err)
	}
	if _, err := s.cron.AddFunc(purgeSpec, func() { s.PurgeExpiredRegistrations(ctx) }); err != nil {
		return fmt.Errorf("schedule registration purge %q: %w", purgeSpec, err)
	}
	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish.
func (s *JobService) Stop() {
	<-s.cron.Stop().Done()
}

func (s *JobService) DispatchNotifications(ctx context.Context) {
	n, err := s.sender.Dispatch(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("cron job: notification dispatch failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int("sent", n).Msg("cron job: notifications dispatched")
	}
}

func (s *JobService) PurgeExpiredRegistrations(ctx context.Context) {
	n, err := s.auth.PurgeExpiredRegistrations(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("cron job: purge of expired registrations failed")
		return
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Msg("cron job: expired registrations purged")
	}
}
