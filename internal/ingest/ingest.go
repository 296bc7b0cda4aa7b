// Package ingest walks a file or directory tree and hands each input an
// io.Reader, transparently decoding gzip-compressed files along the way.
// It is the "file/directory ingestion" collaborator named in spec.md §6,
// feeding either the pcap or the JSON-record pipeline.
package ingest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is one ingested input: its path and an already gzip-decoded
// reader. Close releases both the underlying file and, if one was
// opened, the gzip reader.
type Source struct {
	Path    string
	r       io.Reader
	closers []io.Closer
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close releases every resource opened for this source, in reverse order.
func (s *Source) Close() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if e := s.closers[i].Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}

// Open opens a single file, decoding it with gzip if its name ends in
// ".gz" or its content carries a gzip magic header.
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}

	src := &Source{Path: path, closers: []io.Closer{f}}

	br := bufio.NewReader(f)
	magic, _ := br.Peek(2)
	if strings.HasSuffix(path, ".gz") || bytes.Equal(magic, []byte{0x1f, 0x8b}) {
		gr, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("ingest: gzip %s: %w", path, err)
		}
		src.r = gr
		src.closers = append(src.closers, gr)
		return src, nil
	}

	src.r = br
	return src, nil
}

// Walk calls fn once for every regular file under root (root itself, if
// root is a file). Directories are walked recursively in lexical order.
// fn is responsible for closing the Source it is given.
func Walk(root string, fn func(*Source) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("ingest: stat %s: %w", root, err)
	}
	if !info.IsDir() {
		src, err := Open(root)
		if err != nil {
			return err
		}
		return fn(src)
	}

	return filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		src, err := Open(path)
		if err != nil {
			return err
		}
		return fn(src)
	})
}
