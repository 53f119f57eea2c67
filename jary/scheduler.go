package jary

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const (
	CLOCK_TAG     = "sector_clock"
	PRUNE_TAG     = "board_prune"
	COMPONENT_TAG = "%s|COMPONENT"
)

type Scheduler struct {
	gocron.Scheduler
}

func NewScheduler() (*Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		Scheduler: scheduler,
	}, nil
}

// AddDurationJob runs jobFunc every interval. A run still in progress
// when the next one is due causes that run to be skipped.
func (s *Scheduler) AddDurationJob(interval time.Duration, jobFunc interface{}, tags ...string) error {
	_, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(jobFunc),
		gocron.WithTags(tags...),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) CancelJobs(tag string) {
	s.RemoveByTags(tag)
}

// AddComponentExpiryJob runs jobFunc once, duration from now. Scheduling
// again for the same customID replaces the pending run.
func (s *Scheduler) AddComponentExpiryJob(customID string, duration time.Duration, jobFunc interface{}) error {
	s.CancelJobs(MakeComponentTag(customID))
	_, err := s.NewJob(gocron.OneTimeJob(
		gocron.OneTimeJobStartDateTime(time.Now().Add(duration)),
	),
		gocron.NewTask(jobFunc),
		gocron.WithTags(MakeComponentTag(customID)),
	)
	return err
}

func MakeComponentTag(customID string) string {
	return fmt.Sprintf(COMPONENT_TAG, customID)
}
