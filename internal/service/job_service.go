package service

import (
	"fmt"

	"lockerbox/internal/db"
	"lockerbox/internal/logger"
	"lockerbox/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// ExpireUnclaimedReservations cancels active reservations whose stay ended
// without the luggage ever being dropped off.
func (s *JobService) ExpireUnclaimedReservations() error {
	ids, err := s.Repo.GetUnclaimedReservationIDsPastEndTime()
	if err != nil {
		return fmt.Errorf("cron job: failed to get unclaimed reservations: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	logger.Info("cron job: expiring unclaimed reservations", "count", len(ids))
	if err := s.Repo.UpdateReservationStatuses(ids, db.StatusCancelled); err != nil {
		return fmt.Errorf("cron job: failed to expire unclaimed reservations: %w", err)
	}
	return nil
}

// CompleteReturnedReservations flips reservations with a recorded return that
// are still marked active over to completed.
func (s *JobService) CompleteReturnedReservations() error {
	ids, err := s.Repo.GetReturnedButActiveReservationIDs()
	if err != nil {
		return fmt.Errorf("cron job: failed to get returned reservations: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	logger.Info("cron job: completing returned reservations", "count", len(ids))
	if err := s.Repo.UpdateReservationStatuses(ids, db.StatusCompleted); err != nil {
		return fmt.Errorf("cron job: failed to complete returned reservations: %w", err)
	}
	return nil
}
