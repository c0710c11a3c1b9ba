package application

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const sweepRunTimeout = 30 * time.Second

// Scheduler runs the offline sweep on an in-process cron schedule, so a
// deployment does not depend on an external caller hitting the sweep route.
type Scheduler struct {
	sweeper *Sweeper
	spec    string
	cron    *cron.Cron
	logger  *zap.Logger
}

// NewScheduler constructs a sweep scheduler. An empty spec defaults to every
// minute.
func NewScheduler(sweeper *Sweeper, spec string, logger *zap.Logger) (*Scheduler, error) {
	if sweeper == nil {
		return nil, errors.New("sweep scheduler: nil sweeper")
	}
	if spec == "" {
		spec = "* * * * *"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sweeper: sweeper,
		spec:    spec,
		cron:    cron.New(),
		logger:  logger,
	}, nil
}

// Start registers the sweep job and begins the cron loop. The loop stops when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil || s.cron == nil {
		return errors.New("sweep scheduler: not initialized")
	}
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	go func() {
		<-ctx.Done()
		s.cron.Stop()
	}()
	s.logger.Info("offline sweep scheduled", zap.String("spec", s.spec))
	return nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()
	count, err := s.sweeper.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled sweep failed", zap.Int("notified", count), zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("scheduled sweep completed", zap.Int("notified", count))
		return
	}
	s.logger.Debug("scheduled sweep completed", zap.Int("notified", count))
}
