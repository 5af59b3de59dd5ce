package routines

import (
	"os"

	"github.com/ibsurgeon/fts-udr-go/internal/analyzer"
	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/extractor"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/indexwriter"
	"github.com/ibsurgeon/fts-udr-go/internal/relation"

	"github.com/ibsurgeon/fts-udr-go/pkg/config"
)

// CreateIndex implements CREATE_INDEX: catalog rows with status N plus the
// auto-selected key segment. With keyField empty, a single-column primary
// key is used when eligible, and RDB$DB_KEY when the relation has no
// primary key at all; a composite key demands an explicit choice.
func (s *Service) CreateIndex(name, relationName, analyzerName, keyField, description string) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	if err := requireArg("relation name", relationName); err != nil {
		return err
	}
	if analyzerName == "" {
		analyzerName = "STANDARD"
	}
	if !analyzer.IsBuiltin(analyzerName) && !s.repo.HasUserAnalyzer(analyzerName) {
		return ftserr.New(ftserr.NoSuchAnalyzer, "analyzer %q does not exist", analyzerName)
	}
	if _, err := s.intro.Relation(relationName); err != nil {
		return err
	}

	keyField, err := s.resolveKeyField(relationName, keyField)
	if err != nil {
		return err
	}

	if err := s.repo.CreateIndex(name, relationName, analyzerName, description); err != nil {
		return err
	}
	if err := s.repo.AddIndexField(name, keyField, true, nil); err != nil {
		// Roll the index row back so a failed create leaves no residue.
		_ = s.repo.DropIndex(name)
		return err
	}
	log.Info("index created", "index", name, "relation", relationName, "key", keyField)
	return nil
}

func (s *Service) resolveKeyField(relationName, keyField string) (string, error) {
	if keyField != "" {
		fi, err := s.intro.Field(relationName, keyField)
		if err != nil {
			return "", err
		}
		if !relation.IsKeyEligible(fi) {
			return "", ftserr.New(ftserr.UnsupportedKeyType,
				"field %q of %q cannot serve as a full-text key", keyField, relationName)
		}
		return fi.Name, nil
	}

	pk, err := s.intro.PrimaryKey(relationName)
	if err != nil {
		return "", err
	}
	switch len(pk) {
	case 0:
		return relation.DBKeyPseudoColumn, nil
	case 1:
		fi, err := s.intro.Field(relationName, pk[0])
		if err != nil {
			return "", err
		}
		if !relation.IsKeyEligible(fi) {
			return "", ftserr.New(ftserr.UnsupportedKeyType,
				"primary key %q of %q cannot serve as a full-text key", pk[0], relationName)
		}
		return fi.Name, nil
	default:
		return "", ftserr.New(ftserr.CompositePKRequiresKey,
			"relation %q has a composite primary key; specify the key field explicitly", relationName)
	}
}

// DropIndex implements DROP_INDEX: catalog rows and the on-disk directory.
func (s *Service) DropIndex(name string) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	if err := s.repo.DropIndex(name); err != nil {
		return err
	}
	path := config.IndexDirectory(s.root, name)
	if err := os.RemoveAll(path); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "removing index directory %q", path)
	}
	log.Info("index dropped", "index", name)
	return nil
}

// SetIndexActive implements SET_INDEX_ACTIVE. Any status may be parked
// at I; reactivation always lands on U so a rebuild refreshes whatever
// changed while inactive.
func (s *Service) SetIndexActive(name string, active bool) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	idx, err := s.repo.GetIndex(name, false)
	if err != nil {
		return err
	}
	switch {
	case active && idx.Status == catalog.StatusInactive:
		return s.repo.SetStatus(name, catalog.StatusNeedsBuild)
	case !active && idx.Status != catalog.StatusInactive:
		return s.repo.SetStatus(name, catalog.StatusInactive)
	default:
		return nil
	}
}

// AddIndexField implements ADD_INDEX_FIELD for a non-key segment; the
// catalog flips a complete index to U.
func (s *Service) AddIndexField(name, fieldName string, boost *float64) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	if err := requireArg("field name", fieldName); err != nil {
		return err
	}
	idx, err := s.repo.GetIndex(name, false)
	if err != nil {
		return err
	}
	if _, err := s.intro.Field(idx.Relation, fieldName); err != nil {
		return err
	}
	return s.repo.AddIndexField(name, fieldName, false, boost)
}

// DropIndexField implements DROP_INDEX_FIELD.
func (s *Service) DropIndexField(name, fieldName string) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	if err := requireArg("field name", fieldName); err != nil {
		return err
	}
	return s.repo.DropIndexField(name, fieldName)
}

// SetIndexFieldBoost implements SET_INDEX_FIELD_BOOST.
func (s *Service) SetIndexFieldBoost(name, fieldName string, boost *float64) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	if err := requireArg("field name", fieldName); err != nil {
		return err
	}
	return s.repo.SetIndexFieldBoost(name, fieldName, boost)
}

// ListIndexes loads every index, optionally with segments.
func (s *Service) ListIndexes(withSegments bool) ([]catalog.Index, error) {
	return s.repo.AllIndexes(withSegments)
}

// GetIndex loads one index with its segments.
func (s *Service) GetIndex(name string) (catalog.Index, error) {
	if err := requireArg("index name", name); err != nil {
		return catalog.Index{}, err
	}
	return s.repo.GetIndex(name, true)
}

// RebuildIndex implements REBUILD_INDEX: recreate the directory,
// add every eligible row from a full scan, then close. Status lands on C
// on success and on U on any failure.
func (s *Service) RebuildIndex(name string) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	idx, err := s.repo.GetIndex(name, true)
	if err != nil {
		return err
	}

	if err := s.rebuild(idx); err != nil {
		if serr := s.repo.SetStatus(name, catalog.StatusNeedsBuild); serr != nil {
			log.Error("demoting index after failed rebuild", "index", name, "error", serr)
		}
		return err
	}
	if err := s.repo.SetStatus(name, catalog.StatusComplete); err != nil {
		return err
	}
	log.Info("index rebuilt", "index", name)
	return nil
}

func (s *Service) rebuild(idx catalog.Index) error {
	ext, err := extractor.New(s.db, s.intro, idx)
	if err != nil {
		return err
	}

	w, err := indexwriter.Recreate(config.IndexDirectory(s.root, idx.Name), idx, s.repo)
	if err != nil {
		return err
	}
	defer w.Close()

	cursor, err := ext.FullScan()
	if err != nil {
		return err
	}
	defer cursor.Close()

	batch := w.NewBatch()
	for {
		doc, ok, err := cursor.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := batch.Add(doc); err != nil {
			return err
		}
	}
	if err := batch.Flush(); err != nil {
		return err
	}
	return w.Optimize()
}

// OptimizeIndex implements OPTIMIZE_INDEX: acquire the writer, request
// compaction, release.
func (s *Service) OptimizeIndex(name string) error {
	if err := requireArg("index name", name); err != nil {
		return err
	}
	idx, err := s.repo.GetIndex(name, true)
	if err != nil {
		return err
	}
	path := config.IndexDirectory(s.root, name)
	if !indexwriter.DirectoryExists(path) {
		return ftserr.New(ftserr.IndexNotBuilt, "index %q has no on-disk directory", name)
	}
	w, err := indexwriter.Open(path, idx, s.repo)
	if err != nil {
		return err
	}
	defer w.Close()
	return w.Optimize()
}
