package backup

import (
	"context"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/younsl/ebs-autobackup/internal/models"
)

// ProviderFactory returns the provider serving a region
type ProviderFactory func(ctx context.Context, region string) (Provider, error)

// RegionHook is called with the result of every processed region
type RegionHook func(ctx context.Context, result models.RegionResult)

// Runner processes regions one after another
type Runner struct {
	cfg         Config
	providerFor ProviderFactory
	clock       clock.Clock
	log         logrus.FieldLogger
	afterRegion RegionHook
}

// NewRunner creates a Runner
func NewRunner(cfg Config, providerFor ProviderFactory, clk clock.Clock, log logrus.FieldLogger) *Runner {
	return &Runner{
		cfg:         cfg,
		providerFor: providerFor,
		clock:       clk,
		log:         log,
	}
}

// AfterRegion registers a hook called once per region, after it is processed
func (r *Runner) AfterRegion(hook RegionHook) {
	r.afterRegion = hook
}

// Run processes every region in order and returns one result per region
func (r *Runner) Run(ctx context.Context, regions []string) []models.RegionResult {
	results := make([]models.RegionResult, 0, len(regions))

	for _, region := range regions {
		r.log.WithField("region", region).Infof("Processing region %s", region)

		var result models.RegionResult
		provider, err := r.providerFor(ctx, region)
		if err != nil {
			r.log.WithField("region", region).WithError(err).Warn("Failed to create provider")
			result = models.RegionResult{Region: region, Err: err}
		} else {
			result = NewProcessor(r.cfg, region, provider, r.clock, r.log).ProcessRegion(ctx)
		}

		if r.afterRegion != nil {
			r.afterRegion(ctx, result)
		}
		results = append(results, result)
	}

	return results
}
