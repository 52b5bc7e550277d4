package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/ezoic/mtrf/pkg/errors"
)

// SaveModel writes m to filename using encoding/gob. The parent directory
// must already exist.
//
// Example:
//
//	if err := model.SaveModel(trained, "results/subject01.trf"); err != nil {
//		log.Fatal(err)
//	}
func SaveModel(m interface{}, filename string) error {
	dir := filepath.Dir(filename)
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "failed to create file: directory %s does not exist", dir)
	}
	if !info.IsDir() {
		return errors.Newf("failed to create file: %s is not a directory", dir)
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create file %s", filename)
	}
	defer func() { _ = file.Close() }()

	if err := SaveModelToWriter(m, file); err != nil {
		return err
	}
	return file.Sync()
}

// SaveModelToWriter gob-encodes m to w.
func SaveModelToWriter(m interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModel decodes filename into m, which must be a pointer.
func LoadModel(m interface{}, filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return errors.Wrapf(err, "failed to open file: %s does not exist", filename)
	}

	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open file %s", filename)
	}
	defer func() { _ = file.Close() }()

	return LoadModelFromReader(m, file)
}

// LoadModelFromReader gob-decodes r into m, which must be a pointer.
func LoadModelFromReader(m interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(m); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
