package tfidf

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/fwojciec/siteqa"
)

// snapshotMagic prefixes every encoded snapshot. The trailing digit is the
// format version and changes whenever the encoded layout does.
const snapshotMagic = "SQTFIDF1"

// Encode writes s to w.
func Encode(w io.Writer, s *Snapshot) error {
	if s == nil {
		return siteqa.Errorf(siteqa.EINVALID, "nil snapshot")
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := gob.NewEncoder(bw).Encode(s); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return bw.Flush()
}

// Decode reads a snapshot written by Encode.
// Returns EINVALID if the data is not a snapshot of the current format.
func Decode(r io.Reader) (*Snapshot, error) {
	br := bufio.NewReader(r)

	header := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, siteqa.Errorf(siteqa.EINVALID, "read snapshot header: %v", err)
	}
	if string(header) != snapshotMagic {
		return nil, siteqa.Errorf(siteqa.EINVALID, "unsupported snapshot format %q", header)
	}

	var s Snapshot
	if err := gob.NewDecoder(br).Decode(&s); err != nil {
		return nil, siteqa.Errorf(siteqa.EINVALID, "decode snapshot: %v", err)
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	if s.Vocabulary == nil {
		s.Vocabulary = map[string]int{}
	}
	return &s, nil
}

// check verifies that every column a query can touch is in range.
func (s *Snapshot) check() error {
	if len(s.Rows) != len(s.Docs) {
		return siteqa.Errorf(siteqa.EINVALID, "snapshot has %d rows for %d documents", len(s.Rows), len(s.Docs))
	}
	terms := len(s.IDF)
	for term, col := range s.Vocabulary {
		if col < 0 || col >= terms {
			return siteqa.Errorf(siteqa.EINVALID, "term %q maps to column %d of %d", term, col, terms)
		}
	}
	for i, row := range s.Rows {
		if len(row.Weights) != len(row.Cols) {
			return siteqa.Errorf(siteqa.EINVALID, "row %d has %d weights for %d columns", i, len(row.Weights), len(row.Cols))
		}
		for _, col := range row.Cols {
			if col < 0 || int(col) >= terms {
				return siteqa.Errorf(siteqa.EINVALID, "row %d references column %d of %d", i, col, terms)
			}
		}
	}
	return nil
}
