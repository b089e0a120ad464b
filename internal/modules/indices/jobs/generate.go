package jobs

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/aristath/sector-cycles/internal/modules/indices"
)

// GenerateJob rebuilds every index over the trailing year. Registered
// on a nightly cron schedule; safe to re-run, generation is idempotent.
type GenerateJob struct {
	svc *indices.Service
	log zerolog.Logger
}

// NewGenerateJob creates a new index generation job
func NewGenerateJob(svc *indices.Service, log zerolog.Logger) *GenerateJob {
	return &GenerateJob{
		svc: svc,
		log: log.With().Str("job", "index_generation").Logger(),
	}
}

// Name returns the job identifier
func (j *GenerateJob) Name() string {
	return "index_generation"
}

// Run executes one generation batch over the default trailing year
func (j *GenerateJob) Run() error {
	result, err := j.svc.GenerateAll("", "")
	if err != nil {
		return fmt.Errorf("index generation batch failed: %w", err)
	}

	if len(result.Failures) > 0 {
		j.log.Warn().
			Str("run_id", result.RunID).
			Int("failed", len(result.Failures)).
			Msg("Some categories failed during scheduled generation")
	}

	return nil
}
