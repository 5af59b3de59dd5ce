package routines

import (
	"github.com/ibsurgeon/fts-udr-go/internal/stats"
	"github.com/ibsurgeon/fts-udr-go/internal/trigger"
)

// IndexStatistics implements INDEX_STATISTICS.
func (s *Service) IndexStatistics(indexName string) (stats.Info, error) {
	if err := requireArg("index name", indexName); err != nil {
		return stats.Info{}, err
	}
	return s.stats.IndexStatistics(indexName)
}

// IndexFiles implements INDEX_FILES.
func (s *Service) IndexFiles(indexName string) ([]stats.FileInfo, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	return s.stats.IndexFiles(indexName)
}

// IndexSegmentInfos implements INDEX_SEGMENT_INFOS.
func (s *Service) IndexSegmentInfos(indexName string) ([]stats.SegmentInfo, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	return s.stats.IndexSegmentInfos(indexName)
}

// IndexFields implements INDEX_FIELDS.
func (s *Service) IndexFields(indexName string) ([]string, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	return s.stats.IndexFields(indexName)
}

// IndexFieldInfos implements INDEX_FIELD_INFOS.
func (s *Service) IndexFieldInfos(indexName string) ([]stats.FieldInfo, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	return s.stats.IndexFieldInfos(indexName)
}

// IndexTerms implements INDEX_TERMS; field may be empty to list every
// field's dictionary.
func (s *Service) IndexTerms(indexName, field string) ([]stats.TermInfo, error) {
	if err := requireArg("index name", indexName); err != nil {
		return nil, err
	}
	return s.stats.IndexTerms(indexName, field)
}

// MakeTrigger implements MAKE_TRIGGER: the change-log trigger DDL for a
// relation's active indexes.
func (s *Service) MakeTrigger(relationName string, multiAction bool, position int) (trigger.Script, error) {
	if err := requireArg("relation name", relationName); err != nil {
		return trigger.Script{}, err
	}
	return trigger.Generate(s.repo, s.intro, relationName, trigger.Options{
		MultiAction: multiAction,
		Position:    position,
	})
}
