// Package persistence archives result records as JSON files.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// File is an open archive file.
type File struct {
	// Path is the full path of the file on disk.
	Path string

	fp *os.File
}

// New creates the file <datadir>/<yyyy>/<mm>/<dd>/<kind>-<uuid>.json, along
// with any missing directory.
func New(datadir, kind, uuid string) (*File, error) {
	return newAt(datadir, kind, uuid, time.Now().UTC())
}

func newAt(datadir, kind, uuid string, t time.Time) (*File, error) {
	dir := filepath.Join(datadir, t.Format("2006/01/02"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	name := filepath.Join(dir, kind+"-"+uuid+".json")
	fp, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &File{Path: name, fp: fp}, nil
}

// Write serializes v as indented JSON.
func (f *File) Write(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = f.fp.Write(append(data, '\n'))
	return err
}

// Archive writes v to a new file for kind and uuid under datadir and returns
// its path.
func Archive(datadir, kind, uuid string, v interface{}) (string, error) {
	f, err := New(datadir, kind, uuid)
	if err != nil {
		return "", err
	}
	if err := f.Write(v); err != nil {
		f.Close()
		return "", err
	}
	return f.Path, f.Close()
}

// Close closes the underlying file.
func (f *File) Close() error {
	return f.fp.Close()
}
