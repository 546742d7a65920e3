package aws

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

const availabilityZonePath = "placement/availability-zone"

// MetadataAPI is the subset of the instance metadata client used for region discovery
type MetadataAPI interface {
	GetMetadata(context.Context, *imds.GetMetadataInput, ...func(*imds.Options)) (*imds.GetMetadataOutput, error)
}

// NewMetadataClient creates an IMDS client for the host this process runs on
func NewMetadataClient() *imds.Client {
	return imds.New(imds.Options{
		Retryer: aws.NopRetryer{},
	})
}

// CurrentRegion returns the region of the host, derived from its availability zone
func CurrentRegion(ctx context.Context, client MetadataAPI) (string, error) {
	out, err := client.GetMetadata(ctx, &imds.GetMetadataInput{Path: availabilityZonePath})
	if err != nil {
		return "", fmt.Errorf("error reading availability zone from instance metadata: %w", err)
	}
	defer out.Content.Close()

	body, err := io.ReadAll(out.Content)
	if err != nil {
		return "", fmt.Errorf("error reading availability zone from instance metadata: %w", err)
	}

	region := utils.RegionFromAvailabilityZone(string(body))
	if region == "" {
		return "", fmt.Errorf("unexpected availability zone %q from instance metadata", string(body))
	}
	return region, nil
}
