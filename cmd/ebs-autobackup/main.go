package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/younsl/ebs-autobackup/internal/logging"
	"github.com/younsl/ebs-autobackup/internal/models"
	"github.com/younsl/ebs-autobackup/internal/version"
	"github.com/younsl/ebs-autobackup/pkg/aws"
	"github.com/younsl/ebs-autobackup/pkg/backup"
	"github.com/younsl/ebs-autobackup/pkg/formatter"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

// options holds the command line flags
type options struct {
	regions           []string
	showVersion       bool
	honorRetentionTag bool
	useSyslog         bool
	logLevel          string
	metricsNamespace  string
	showSummary       bool
}

// runFunc performs a backup run once the arguments have been validated
type runFunc func(ctx context.Context, cfg backup.Config, opts *options, log *logrus.Logger) error

func main() {
	if err := newRootCmd(run).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(runBackup runFunc) *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ebs-autobackup <backup_type_description> <num_of_snapshots_to_keep> [instance-id]",
		Short: "Snapshot attached EBS volumes and rotate expired snapshots",
		Long: `ebs-autobackup snapshots every EBS volume attached to an instance in the
given regions, tags each snapshot with an AutoBackup retention policy, and
deletes AutoBackup snapshots older than the retention window.

Volumes without a Name tag are named after their instance and device. The
root device of a named instance is permanently tagged "<instance>-system".
Volumes whose name ends in "-swap" are never backed up.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				return nil
			}
			return cobra.RangeArgs(2, 3)(cmd, args)
		},
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showVersion {
				fmt.Fprintln(cmd.OutOrStdout(), version.Get())
				return nil
			}

			cfg, err := parseConfig(args, opts.honorRetentionTag)
			if err != nil {
				return err
			}

			// Arguments are valid from here on; don't print usage for run failures
			cmd.SilenceUsage = true

			log, err := logging.New(logging.Options{
				Level:  opts.logLevel,
				Syslog: opts.useSyslog,
			})
			if err != nil {
				return err
			}

			return runBackup(cmd.Context(), cfg, opts, log)
		},
	}

	rootCmd.Flags().BoolVarP(&opts.showVersion, "version", "v", false, "Show version information")
	rootCmd.Flags().StringSliceVarP(&opts.regions, "regions", "r", nil,
		"AWS regions to back up (comma separated, default: region of this instance from instance metadata)")
	rootCmd.Flags().BoolVar(&opts.honorRetentionTag, "honor-retention-tag", false,
		fmt.Sprintf("Expire snapshots after their RetentionPeriodDays instead of the fixed %d days", backup.ExpiryWindowDays))
	rootCmd.Flags().BoolVar(&opts.useSyslog, "syslog", true, "Send log output to the local syslog")
	rootCmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&opts.metricsNamespace, "metrics-namespace", "",
		"Publish run counters to this CloudWatch namespace (disabled when empty)")
	rootCmd.Flags().BoolVar(&opts.showSummary, "summary", false, "Print a summary table of the run")

	return rootCmd
}

// parseConfig turns the positional arguments into the run configuration
func parseConfig(args []string, honorRetentionTag bool) (backup.Config, error) {
	retentionDays, err := strconv.Atoi(args[1])
	if err != nil {
		return backup.Config{}, fmt.Errorf("num_of_snapshots_to_keep must be an integer, got %q", args[1])
	}

	cfg := backup.Config{
		BackupType:        args[0],
		RetentionDays:     retentionDays,
		HonorRetentionTag: honorRetentionTag,
	}
	if len(args) == 3 {
		cfg.InstanceID = args[2]
	}

	if err := cfg.Validate(); err != nil {
		return backup.Config{}, err
	}
	return cfg, nil
}

// regionLookup returns the region this process runs in
type regionLookup func(ctx context.Context) (string, error)

func instanceRegion(ctx context.Context) (string, error) {
	return aws.CurrentRegion(ctx, aws.NewMetadataClient())
}

// resolveRegions returns the regions given on the command line, or the
// region of this instance when none were given. Only command line values
// are checked, and only for their format; the AWS API rejects unknown ones.
func resolveRegions(ctx context.Context, requested []string, lookup regionLookup, log logrus.FieldLogger) ([]string, error) {
	if len(requested) == 0 {
		region, err := lookup(ctx)
		if err != nil {
			return nil, err
		}
		return []string{region}, nil
	}

	var validRegions []string
	for _, region := range requested {
		region = strings.TrimSpace(region)
		if utils.IsValidRegion(region) {
			validRegions = append(validRegions, region)
		} else {
			log.Warnf("Skipping invalid region '%s'", region)
		}
	}

	if len(validRegions) == 0 {
		return nil, fmt.Errorf("no valid regions specified")
	}
	return validRegions, nil
}

func run(ctx context.Context, cfg backup.Config, opts *options, log *logrus.Logger) error {
	runStarted := time.Now()

	targetRegions, err := resolveRegions(ctx, opts.regions, instanceRegion, log)
	if err != nil {
		return err
	}

	publishers := make(map[string]*aws.MetricsPublisher)
	providerFor := func(ctx context.Context, region string) (backup.Provider, error) {
		awsCfg, err := aws.LoadConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		if opts.metricsNamespace != "" {
			publishers[region] = aws.NewMetricsPublisher(awsCfg, opts.metricsNamespace)
		}
		return aws.NewEC2Client(awsCfg), nil
	}

	runner := backup.NewRunner(cfg, providerFor, clock.WallClock, log)
	runner.AfterRegion(func(ctx context.Context, result models.RegionResult) {
		publisher, ok := publishers[result.Region]
		if !ok {
			return
		}
		if err := publisher.Publish(ctx, cfg.BackupType, result, time.Now()); err != nil {
			log.WithField("region", result.Region).WithError(err).Warn("Failed to publish metrics")
		}
	})

	results := runner.Run(ctx, targetRegions)

	if opts.showSummary {
		formatter.PrintRunTable(os.Stdout, results, runStarted, time.Since(runStarted))
		formatter.PrintRunSummary(os.Stdout, results)
	}

	for _, result := range results {
		if result.Failed() {
			return fmt.Errorf("backup finished with failures, see log for details")
		}
	}
	return nil
}
