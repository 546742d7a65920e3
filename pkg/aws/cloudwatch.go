package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/younsl/ebs-autobackup/internal/models"
)

// AWS CloudWatch Metric Names
const (
	metricSnapshotsCreated       = "SnapshotsCreated"
	metricSnapshotsDeleted       = "SnapshotsDeleted"
	metricSnapshotDeleteFailures = "SnapshotDeleteFailures"
	metricVolumesFailed          = "VolumesFailed"
)

// CloudWatchAPI is the subset of the CloudWatch API used to publish run metrics
type CloudWatchAPI interface {
	PutMetricData(context.Context, *cloudwatch.PutMetricDataInput, ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// MetricsPublisher publishes per-region backup counters to CloudWatch
type MetricsPublisher struct {
	client    CloudWatchAPI
	namespace string
}

// NewMetricsPublisher creates a MetricsPublisher for a region config
func NewMetricsPublisher(cfg aws.Config, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
	}
}

// NewMetricsPublisherWithAPI creates a MetricsPublisher around an existing API implementation
func NewMetricsPublisherWithAPI(api CloudWatchAPI, namespace string) *MetricsPublisher {
	return &MetricsPublisher{
		client:    api,
		namespace: namespace,
	}
}

// Publish sends the counters of one region run
func (p *MetricsPublisher) Publish(ctx context.Context, backupType string, result models.RegionResult, timestamp time.Time) error {
	created, deleted, deleteFailures, volumesFailed := result.Counts()

	dimensions := []cwTypes.Dimension{
		{Name: aws.String("Region"), Value: aws.String(result.Region)},
		{Name: aws.String("BackupType"), Value: aws.String(backupType)},
	}

	datum := func(name string, value int) cwTypes.MetricDatum {
		return cwTypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dimensions,
			Timestamp:  aws.Time(timestamp),
			Unit:       cwTypes.StandardUnitCount,
			Value:      aws.Float64(float64(value)),
		}
	}

	_, err := p.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(p.namespace),
		MetricData: []cwTypes.MetricDatum{
			datum(metricSnapshotsCreated, created),
			datum(metricSnapshotsDeleted, deleted),
			datum(metricSnapshotDeleteFailures, deleteFailures),
			datum(metricVolumesFailed, volumesFailed),
		},
	})
	if err != nil {
		return fmt.Errorf("error publishing metrics to %s: %w", p.namespace, err)
	}
	return nil
}
