// Package indexwriter owns the per-index on-disk writer lifecycle:
// open, add/update/delete, optimize, close, and full rebuild, all on
// github.com/blevesearch/bleve/v2 directories.
package indexwriter

import (
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/ibsurgeon/fts-udr-go/internal/analyzer"
	"github.com/ibsurgeon/fts-udr-go/internal/catalog"
	"github.com/ibsurgeon/fts-udr-go/internal/extractor"
	"github.com/ibsurgeon/fts-udr-go/internal/ftserr"
	"github.com/ibsurgeon/fts-udr-go/internal/logging"
)

var log = logging.GetLogger("indexwriter")

// Writer wraps one index's open bleve directory. At most one Writer may
// hold a directory at a time, enforced by the underlying store's lock.
type Writer struct {
	index catalog.Index
	path  string
	idx   bleve.Index
}

// DirectoryExists reports whether an index's on-disk directory is present.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// BuildMapping assembles the bleve index mapping for idx: one analyzed
// text field per non-key segment, the key field stored but not indexed
// (row identity also doubles as the bleve document id), and the index's
// analyzer installed for every analyzed field. With more than one
// analyzed field each is also copied into the composite _all field;
// multi-field searches themselves query each field separately.
func BuildMapping(idx catalog.Index, src analyzer.Source) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	analyzerName, err := analyzer.Install(im, idx.Analyzer, src)
	if err != nil {
		return nil, err
	}

	dm := bleve.NewDocumentStaticMapping()
	fieldSegs := idx.FieldSegments()
	for _, seg := range fieldSegs {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzerName
		fm.Store = false
		fm.IncludeTermVectors = true
		fm.IncludeInAll = len(fieldSegs) > 1
		dm.AddFieldMappingsAt(seg.FieldName, fm)
	}
	if keySeg, ok := idx.KeySegment(); ok {
		km := bleve.NewTextFieldMapping()
		km.Index = false
		km.Store = true
		km.IncludeInAll = false
		km.IncludeTermVectors = false
		dm.AddFieldMappingsAt(keySeg.FieldName, km)
	}

	im.DefaultMapping = dm
	im.DefaultAnalyzer = analyzerName
	im.StoreDynamic = false
	im.IndexDynamic = false
	if len(fieldSegs) == 1 {
		im.DefaultField = fieldSegs[0].FieldName
	}
	return im, nil
}

// Open acquires the writer for idx's directory, creating the directory
// with a fresh mapping when absent. Fails with *index-busy* when another
// writer holds the directory's lock.
func Open(path string, idx catalog.Index, src analyzer.Source) (*Writer, error) {
	var (
		b   bleve.Index
		err error
	)
	if DirectoryExists(path) {
		b, err = bleve.Open(path)
	} else {
		var im *mapping.IndexMappingImpl
		im, err = BuildMapping(idx, src)
		if err != nil {
			return nil, err
		}
		b, err = bleve.New(path, im)
	}
	if err != nil {
		return nil, classifyOpenError(path, err)
	}
	log.Debug("opened index writer", "index", idx.Name, "path", path)
	return &Writer{index: idx, path: path, idx: b}, nil
}

// classifyOpenError maps lock contention on the directory to *index-busy*
// and everything else to *index-library-error*.
func classifyOpenError(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporarily unavailable") ||
		strings.Contains(msg, "resource busy") ||
		strings.Contains(msg, "locked") {
		return ftserr.Wrap(ftserr.IndexBusy, err, "index directory %q is held by another writer", path)
	}
	return ftserr.Wrap(ftserr.IndexLibraryError, err, "opening index at %q", path)
}

// docData flattens an extracted document into the field map bleve indexes.
// The key term is stored both as the bleve document id and under the key
// field name so hits carry the row identity either way.
func (w *Writer) docData(doc extractor.Document) map[string]interface{} {
	data := make(map[string]interface{}, len(doc.Fields)+1)
	for _, f := range doc.Fields {
		data[f.Name] = f.Text
	}
	if keySeg, ok := w.index.KeySegment(); ok {
		data[keySeg.FieldName] = doc.KeyTerm
	}
	return data
}

// Add indexes a new document, keyed by its encoded key term. Applied
// for change-type I; calling it for a key that already exists replaces
// the previous document, so a replayed insert degrades to an update.
func (w *Writer) Add(doc extractor.Document) error {
	if err := w.idx.Index(doc.KeyTerm, w.docData(doc)); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "indexing document %q in %q", doc.KeyTerm, w.index.Name)
	}
	return nil
}

// Update replaces the document stored under keyTerm.
func (w *Writer) Update(keyTerm string, doc extractor.Document) error {
	doc.KeyTerm = keyTerm
	return w.Add(doc)
}

// Delete removes the document stored under keyTerm; deleting an absent
// key is a no-op, so reapplied deletes converge.
func (w *Writer) Delete(keyTerm string) error {
	if err := w.idx.Delete(keyTerm); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "deleting document %q from %q", keyTerm, w.index.Name)
	}
	return nil
}

// Batch groups many adds for a rebuild pass, flushing every flushEvery
// documents.
type Batch struct {
	w     *Writer
	batch *bleve.Batch
}

const flushEvery = 512

// NewBatch starts a bulk-add batch for rebuild.
func (w *Writer) NewBatch() *Batch {
	return &Batch{w: w, batch: w.idx.NewBatch()}
}

// Add queues one document, flushing the underlying batch when full.
func (b *Batch) Add(doc extractor.Document) error {
	if err := b.batch.Index(doc.KeyTerm, b.w.docData(doc)); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "batching document %q for %q", doc.KeyTerm, b.w.index.Name)
	}
	if b.batch.Size() >= flushEvery {
		return b.Flush()
	}
	return nil
}

// Flush applies the queued documents.
func (b *Batch) Flush() error {
	if b.batch.Size() == 0 {
		return nil
	}
	if err := b.w.idx.Batch(b.batch); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "applying batch to %q", b.w.index.Name)
	}
	b.batch = b.w.idx.NewBatch()
	return nil
}

// Optimize requests segment compaction. Bleve's scorch store merges
// segments continuously in the background and offers no blocking
// force-merge, so this only confirms pending work has been handed to the
// store; the Lucene-style single-segment guarantee does not exist here.
func (w *Writer) Optimize() error {
	log.Debug("optimize requested; scorch merges in the background", "index", w.index.Name)
	return nil
}

// Close releases the directory lock. Bleve persists batches as they are
// applied, so there is no separate commit step to run first.
func (w *Writer) Close() error {
	if err := w.idx.Close(); err != nil {
		return ftserr.Wrap(ftserr.IndexLibraryError, err, "closing index %q", w.index.Name)
	}
	return nil
}

// DocCount reports the number of live documents.
func (w *Writer) DocCount() (uint64, error) {
	n, err := w.idx.DocCount()
	if err != nil {
		return 0, ftserr.Wrap(ftserr.IndexLibraryError, err, "counting documents in %q", w.index.Name)
	}
	return n, nil
}

// Recreate removes the on-disk directory and opens a fresh writer with
// a newly built mapping: the delete-all step of a rebuild.
func Recreate(path string, idx catalog.Index, src analyzer.Source) (*Writer, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, ftserr.Wrap(ftserr.IndexLibraryError, err, "removing index directory %q", path)
	}
	return Open(path, idx, src)
}
