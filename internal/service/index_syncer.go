package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type indexRebuilder interface {
	RebuildIndex(ctx context.Context) (int, error)
}

// IndexSyncer periodically reloads the placement index from the store so writes made
// outside this process are picked up.
type IndexSyncer struct {
	rebuilder indexRebuilder
	spec      string
	timeout   time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
}

// NewIndexSyncer builds a syncer for a cron spec such as "@every 5m". An empty spec disables it.
func NewIndexSyncer(rebuilder indexRebuilder, spec string, logger *zap.Logger) *IndexSyncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IndexSyncer{rebuilder: rebuilder, spec: spec, timeout: time.Minute, logger: logger}
}

// Start schedules the job. Overlapping runs are skipped.
func (s *IndexSyncer) Start() error {
	if s.spec == "" {
		s.logger.Info("index resync disabled")
		return nil
	}

	cronLog := cronLogger{sugar: s.logger.Sugar()}
	c := cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)))
	if _, err := c.AddFunc(s.spec, s.Run); err != nil {
		return fmt.Errorf("schedule index resync %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("index resync scheduled", zap.String("spec", s.spec))
	return nil
}

// Run performs one rebuild.
func (s *IndexSyncer) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.rebuilder.RebuildIndex(ctx)
	if err != nil {
		s.logger.Error("index resync failed", zap.Error(err))
		return
	}
	s.logger.Info("index resynced", zap.Int("placements", n), zap.Duration("took", time.Since(start)))
}

// Stop halts scheduling and waits for a running job to finish.
func (s *IndexSyncer) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
