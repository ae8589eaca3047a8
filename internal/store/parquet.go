package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	apperrors "chcli/internal/errors"
	"chcli/pkg/contracts/domain"
)

// CompanyWriter streams CompanyRow batches into a parquet file. Rows are
// written to a temporary sibling first; Close syncs and renames it into
// place, so a partially written file never carries the final name.
type CompanyWriter struct {
	path    string
	tmpPath string
	file    *os.File
	writer  *parquet.GenericWriter[domain.CompanyRow]
	rows    int64
}

// NewCompanyWriter creates a writer targeting path.
func NewCompanyWriter(path string) (*CompanyWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.StoreWriteError(path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, apperrors.StoreWriteError(path, err)
	}

	return &CompanyWriter{
		path:    path,
		tmpPath: tmp.Name(),
		file:    tmp,
		writer:  parquet.NewGenericWriter[domain.CompanyRow](tmp, parquet.Compression(&parquet.Snappy)),
	}, nil
}

// Write appends a batch of rows.
func (w *CompanyWriter) Write(rows []domain.CompanyRow) error {
	n, err := w.writer.Write(rows)
	w.rows += int64(n)
	if err != nil {
		return apperrors.StoreWriteError(w.path, err)
	}
	return nil
}

// Rows returns the number of rows written so far.
func (w *CompanyWriter) Rows() int64 {
	return w.rows
}

// Close finalises the file: flushes the parquet footer, syncs and renames
// the temporary file over the target path.
func (w *CompanyWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		w.discard()
		return apperrors.StoreWriteError(w.path, err)
	}
	if err := w.file.Sync(); err != nil {
		w.discard()
		return apperrors.StoreWriteError(w.path, err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.tmpPath)
		return apperrors.StoreWriteError(w.path, err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return apperrors.StoreWriteError(w.path, err)
	}
	return nil
}

// Abort drops the temporary file without touching the target path.
func (w *CompanyWriter) Abort() {
	w.discard()
}

func (w *CompanyWriter) discard() {
	w.file.Close()
	os.Remove(w.tmpPath)
}

// CompanyReader streams CompanyRow batches back out of a parquet file.
type CompanyReader struct {
	path   string
	file   *os.File
	reader *parquet.GenericReader[domain.CompanyRow]
}

// OpenCompanyReader opens the parquet file at path.
func OpenCompanyReader(path string) (*CompanyReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.StoreReadError(path, err)
	}

	// NewGenericReader panics on malformed input instead of returning an
	// error, so recover it into one.
	var reader *parquet.GenericReader[domain.CompanyRow]
	if err := func() (rerr error) {
		defer func() {
			if r := recover(); r != nil {
				rerr = fmt.Errorf("%v", r)
			}
		}()
		reader = parquet.NewGenericReader[domain.CompanyRow](f)
		return nil
	}(); err != nil {
		f.Close()
		return nil, apperrors.Wrap(err, "STORE_FORMAT", fmt.Sprintf("Not a parquet file: %s", path))
	}

	return &CompanyReader{path: path, file: f, reader: reader}, nil
}

// ReadBatch fills rows and reports how many were read. It returns io.EOF
// once the file is exhausted, possibly together with a final short batch.
func (r *CompanyReader) ReadBatch(rows []domain.CompanyRow) (int, error) {
	return r.reader.Read(rows)
}

// NumRows returns the total row count from the parquet footer.
func (r *CompanyReader) NumRows() int64 {
	return r.reader.NumRows()
}

// Close releases the reader and the underlying file.
func (r *CompanyReader) Close() error {
	err := r.reader.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}
