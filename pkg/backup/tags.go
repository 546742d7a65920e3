package backup

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/younsl/ebs-autobackup/internal/models"
	"github.com/younsl/ebs-autobackup/pkg/utils"
)

// TagStore reads and writes user-visible tags. Keys under the reserved
// aws: prefix are never returned and never written.
type TagStore struct {
	provider TagProvider
	log      logrus.FieldLogger
}

// NewTagStore creates a TagStore
func NewTagStore(provider TagProvider, log logrus.FieldLogger) *TagStore {
	return &TagStore{
		provider: provider,
		log:      log,
	}
}

// Get returns the tags of a resource without reserved keys
func (s *TagStore) Get(ctx context.Context, resourceID string) (models.Tags, error) {
	tags, err := s.provider.GetTags(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return utils.FilterReservedTags(tags), nil
}

// Set writes the desired tags whose current value is missing or different
// and returns what was written. Calling it again with the same tags is a no-op.
func (s *TagStore) Set(ctx context.Context, resourceID string, desired models.Tags) (models.Tags, error) {
	current, err := s.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(desired))
	for k := range desired {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changed := make(models.Tags)
	for _, key := range keys {
		value := desired[key]
		if utils.IsReservedTagKey(key) {
			s.log.WithField("resource", resourceID).Warnf("Refusing to write reserved tag %s", key)
			continue
		}
		if existing, ok := current[key]; ok && existing == value {
			continue
		}
		s.log.WithField("resource", resourceID).Infof("Tagging %s with [%s: %s]", resourceID, key, value)
		changed[key] = value
	}

	if len(changed) == 0 {
		return changed, nil
	}
	if err := s.provider.CreateTags(ctx, resourceID, changed); err != nil {
		return nil, err
	}
	return changed, nil
}
