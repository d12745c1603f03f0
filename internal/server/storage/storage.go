// Package storage reads the compressed light-curve files from a local
// directory or an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dmitrijs2005/transitwatch/internal/common"
)

// Object is an open file. Size is -1 when unknown.
type Object struct {
	Body io.ReadCloser
	Size int64
}

// FileStore opens files by bare name. Missing files yield common.ErrorNotFound.
type FileStore interface {
	Open(ctx context.Context, name string) (*Object, error)
}

// checkName rejects anything that is not a plain file name.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || path.Clean(name) != name {
		return fmt.Errorf("%w: invalid file name %q", common.ErrorValidation, name)
	}
	return nil
}
