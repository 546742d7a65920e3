package utils

import (
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/younsl/ebs-autobackup/internal/models"
)

// ReservedTagPrefix marks tag keys reserved for internal AWS use
const ReservedTagPrefix = "aws:"

// IsReservedTagKey reports whether a tag key is in the reserved namespace
func IsReservedTagKey(key string) bool {
	return strings.HasPrefix(key, ReservedTagPrefix)
}

// GetTagsMap converts a slice of EC2 tags to a map, dropping reserved keys
func GetTagsMap(tags []types.Tag) models.Tags {
	result := make(models.Tags)
	for _, tag := range tags {
		if tag.Key == nil || IsReservedTagKey(*tag.Key) {
			continue
		}
		result[*tag.Key] = aws.ToString(tag.Value)
	}
	return result
}

// GetTagsMapFromDescriptions converts DescribeTags output to a map, dropping reserved keys
func GetTagsMapFromDescriptions(tags []types.TagDescription) models.Tags {
	result := make(models.Tags)
	for _, tag := range tags {
		if tag.Key == nil || IsReservedTagKey(*tag.Key) {
			continue
		}
		result[*tag.Key] = aws.ToString(tag.Value)
	}
	return result
}

// FilterReservedTags returns a copy of tags without reserved keys
func FilterReservedTags(tags models.Tags) models.Tags {
	result := make(models.Tags, len(tags))
	for k, v := range tags {
		if !IsReservedTagKey(k) {
			result[k] = v
		}
	}
	return result
}

// ConvertToEC2Tags converts a map of tags to a slice of EC2 tags, sorted by key
func ConvertToEC2Tags(tags models.Tags) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		result = append(result, types.Tag{
			Key:   aws.String(k),
			Value: aws.String(tags[k]),
		})
	}
	return result
}
