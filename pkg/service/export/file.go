package export

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bnra/pkg/utils/safe"
)

type fileExporter struct {
	path string
}

// NewFile returns a Service writing the report to a local file. "-" writes to stdout.
func NewFile(path string) Service {
	return &fileExporter{path: path}
}

func (x *fileExporter) Export(ctx context.Context, report *Report) (string, error) {
	if x.path == "-" {
		return x.path, Encode(os.Stdout, report)
	}

	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return "", goerr.Wrap(err, "failed to create output directory", goerr.V("path", x.path))
	}

	// #nosec G304 - path is provided by CLI argument
	f, err := os.Create(x.path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create output file", goerr.V("path", x.path))
	}
	defer safe.Close(ctx, f, x.path)

	if err := Encode(f, report); err != nil {
		return "", err
	}
	return x.path, nil
}
