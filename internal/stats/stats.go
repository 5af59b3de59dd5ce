// Package stats reads the on-disk structure of an index without writing
// to it. The file-kind taxonomy is Lucene's; bleve's scorch store is not
// extension-for-extension identical, so the classifier maps scorch's
// layout onto the nearest Lucene kind and leaves anything unrecognised
// out of the byte totals.
package stats

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	index "github.com/blevesearch/bleve_index_api"

	// Opening an index reconstructs its mapping, which may reference the
	// analyzer components the registry package registers.
	_ "github.com/ibsurgeon/fts-udr-go/internal/analyzer"

	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/logging"

	"github.com/ibsurgeon/fts-udr-go/pkg/config"
)

var log = logging.GetLogger("stats")

// FileKind classifies one index file, using the Lucene-era vocabulary the
// original exposes.
type FileKind string

const (
	KindSegments          FileKind = "SEGMENTS"
	KindSegmentsGen       FileKind = "SEGMENTS_GEN"
	KindDeletable         FileKind = "DELETABLE"
	KindNorms             FileKind = "NORMS"
	KindFreq              FileKind = "FREQ"
	KindProx              FileKind = "PROX"
	KindTerms             FileKind = "TERMS"
	KindTermsIndex        FileKind = "TERMS_INDEX"
	KindFieldsIndex       FileKind = "FIELDS_INDEX"
	KindFields            FileKind = "FIELDS"
	KindVectorsFields     FileKind = "VECTORS_FIELDS"
	KindVectorsDocuments  FileKind = "VECTORS_DOCUMENTS"
	KindVectorsIndex      FileKind = "VECTORS_INDEX"
	KindCompoundFile      FileKind = "COMPOUND_FILE"
	KindCompoundFileStore FileKind = "COMPOUND_FILE_STORE"
	KindDeletes           FileKind = "DELETES"
	KindFieldInfos        FileKind = "FIELD_INFOS"
	KindPlainNorms        FileKind = "PLAIN_NORMS"
	KindSeparateNorms     FileKind = "SEPARATE_NORMS"
	KindUnknown           FileKind = ""
)

// ClassifyFile maps one file of a scorch directory to its nearest Lucene
// kind: each .zap segment packs postings, stored fields and dictionaries
// into a single compound file; root.bolt is the root referencing the live
// segment set; index_meta.json records the store generation/config.
func ClassifyFile(name string) FileKind {
	base := filepath.Base(name)
	switch {
	case base == "root.bolt":
		return KindSegments
	case base == "index_meta.json":
		return KindSegmentsGen
	case strings.HasSuffix(base, ".zap"):
		return KindCompoundFile
	default:
		return KindUnknown
	}
}

// FileInfo describes one file of an index directory.
type FileInfo struct {
	Name string
	Kind FileKind
	Size int64
}

// SegmentInfo describes one on-disk segment.
type SegmentInfo struct {
	Name         string
	DocCount     uint64
	Size         int64
	CompoundFile bool
	DelCount     uint64
	DelFileName  string
}

// FieldInfo describes one indexed field.
type FieldInfo struct {
	Name      string
	TermCount uint64
	DocFreq   uint64
}

// TermInfo is one dictionary entry.
type TermInfo struct {
	Field   string
	Term    string
	DocFreq uint64
}

// Info is the whole-index statistics row.
type Info struct {
	IndexName     string
	AnalyzerName  string
	Status        catalog.Status
	Directory     string
	Exists        bool
	Optimized     bool
	HasDeletions  bool
	DocCount      uint64
	DeletedCount  uint64
	FieldCount    int
	TotalSize     int64
	SegmentsCount int
}

// Reader serves the read-only statistics routines for one invocation.
type Reader struct {
	repo *catalog.Repository
	root string
}

// New builds a statistics reader over the catalog and FTS root.
func New(repo *catalog.Repository, root string) *Reader {
	return &Reader{repo: repo, root: root}
}

func (r *Reader) open(path string) (bleve.Index, error) {
	b, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "opening index at %q", path)
	}
	return b, nil
}

// IndexStatistics assembles the whole-index row for indexName.
func (r *Reader) IndexStatistics(indexName string) (Info, error) {
	idx, err := r.repo.GetIndex(indexName, false)
	if err != nil {
		return Info{}, err
	}

	path := config.IndexDirectory(r.root, indexName)
	info := Info{
		IndexName:    idx.Name,
		AnalyzerName: idx.Analyzer,
		Status:       idx.Status,
		Directory:    path,
	}
	files, err := r.listFiles(path)
	if err != nil {
		return Info{}, err
	}
	if files == nil {
		return info, nil
	}
	info.Exists = true

	segments := 0
	for _, f := range files {
		if f.Kind != KindUnknown {
			info.TotalSize += f.Size
		}
		if f.Kind == KindCompoundFile {
			segments++
		}
	}
	info.SegmentsCount = segments
	info.Optimized = segments <= 1

	b, err := r.open(path)
	if err != nil {
		return Info{}, err
	}
	defer b.Close()

	docCount, err := b.DocCount()
	if err != nil {
		return Info{}, ftserr.Wrap(ftserr.IndexLibraryError, err, "counting documents in %q", indexName)
	}
	info.DocCount = docCount

	fields, err := b.Fields()
	if err != nil {
		return Info{}, ftserr.Wrap(ftserr.IndexLibraryError, err, "listing fields of %q", indexName)
	}
	info.FieldCount = len(fields)

	info.DeletedCount = deletedDocs(b.StatsMap())
	info.HasDeletions = info.DeletedCount > 0
	return info, nil
}

// deletedDocs digs the tombstone count out of the store's stats map,
// tolerating absent keys across store versions.
func deletedDocs(stats map[string]interface{}) uint64 {
	idx, ok := stats["index"].(map[string]interface{})
	if !ok {
		return 0
	}
	for _, key := range []string{"num_recs_to_reclaim", "TotDeleted"} {
		switch v := idx[key].(type) {
		case uint64:
			return v
		case float64:
			return uint64(v)
		}
	}
	return 0
}

// IndexFiles lists and classifies every file under the index directory.
// A nil slice means the directory does not exist.
func (r *Reader) IndexFiles(indexName string) ([]FileInfo, error) {
	if _, err := r.repo.GetIndex(indexName, false); err != nil {
		return nil, err
	}
	return r.listFiles(config.IndexDirectory(r.root, indexName))
}

func (r *Reader) listFiles(path string) ([]FileInfo, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "reading index directory %q", path)
	}

	var files []FileInfo
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(path, p)
		if err != nil {
			rel = d.Name()
		}
		files = append(files, FileInfo{Name: rel, Kind: ClassifyFile(p), Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "walking index directory %q", path)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// IndexSegmentInfos lists the on-disk segments. Scorch's zap segments are
// always compound single-file segments; per-segment document and deletion
// counts live inside the segment files and are not surfaced here.
func (r *Reader) IndexSegmentInfos(indexName string) ([]SegmentInfo, error) {
	files, err := r.IndexFiles(indexName)
	if err != nil {
		return nil, err
	}
	var segs []SegmentInfo
	for _, f := range files {
		if f.Kind != KindCompoundFile {
			continue
		}
		segs = append(segs, SegmentInfo{
			Name:         strings.TrimSuffix(filepath.Base(f.Name), ".zap"),
			Size:         f.Size,
			CompoundFile: true,
		})
	}
	return segs, nil
}

// IndexFields lists the indexed field names.
func (r *Reader) IndexFields(indexName string) ([]string, error) {
	b, path, err := r.openExisting(indexName)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	fields, err := b.Fields()
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "listing fields at %q", path)
	}
	sort.Strings(fields)
	return fields, nil
}

// IndexFieldInfos reports per-field term and document-frequency totals,
// per FTS_STATISTICS.cpp's FTS$INDEX_FIELD_INFOS breakdown.
func (r *Reader) IndexFieldInfos(indexName string) ([]FieldInfo, error) {
	b, _, err := r.openExisting(indexName)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	fields, err := b.Fields()
	if err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "listing fields of %q", indexName)
	}
	sort.Strings(fields)

	infos := make([]FieldInfo, 0, len(fields))
	for _, field := range fields {
		fi := FieldInfo{Name: field}
		err := r.eachTerm(b, field, func(entry *index.DictEntry) {
			fi.TermCount++
			fi.DocFreq += entry.Count
		})
		if err != nil {
			return nil, err
		}
		infos = append(infos, fi)
	}
	return infos, nil
}

// IndexTerms lists the dictionary of one field, or of every field when
// field is empty: (field, term, doc_freq) rows.
func (r *Reader) IndexTerms(indexName, field string) ([]TermInfo, error) {
	b, _, err := r.openExisting(indexName)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	fields := []string{field}
	if field == "" {
		fields, err = b.Fields()
		if err != nil {
			return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "listing fields of %q", indexName)
		}
		sort.Strings(fields)
	}

	var terms []TermInfo
	for _, f := range fields {
		f := f
		err := r.eachTerm(b, f, func(entry *index.DictEntry) {
			terms = append(terms, TermInfo{Field: f, Term: entry.Term, DocFreq: entry.Count})
		})
		if err != nil {
			return nil, err
		}
	}
	return terms, nil
}

func (r *Reader) eachTerm(b bleve.Index, field string, fn func(entry *index.DictEntry)) error {
	dict, err := b.FieldDict(field)
	if err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "opening dictionary of field %q", field)
	}
	defer dict.Close()

	for {
		entry, err := dict.Next()
		if err != nil {
			return ftserr.Wrap(ftserr.IndexLibraryError, err, "reading dictionary of field %q", field)
		}
		if entry == nil {
			return nil
		}
		fn(entry)
	}
}

// openExisting resolves and opens an index that must exist on disk.
func (r *Reader) openExisting(indexName string) (bleve.Index, string, error) {
	idx, err := r.repo.GetIndex(indexName, false)
	if err != nil {
		return nil, "", err
	}
	path := config.IndexDirectory(r.root, idx.Name)
	if _, err := os.Stat(path); err != nil {
		return nil, "", ftserr.New(ftserr.IndexNotBuilt, "index %q has no on-disk directory", indexName)
	}
	b, err := r.open(path)
	if err != nil {
		return nil, "", err
	}
	log.Debug("opened index read-only", "index", indexName, "path", path)
	return b, path, nil
}
