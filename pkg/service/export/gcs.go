package export

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
)

// LatestObject is the name of the object that always holds the last report
const LatestObject = "latest.json"

type gcsExporter struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS returns a Service writing each report to
// gs://<bucket>/<prefix>/<run ID>.json and gs://<bucket>/<prefix>/latest.json
func NewGCS(client *storage.Client, bucket, prefix string) (Service, error) {
	if client == nil {
		return nil, goerr.New("storage client is required")
	}
	if bucket == "" {
		return nil, goerr.New("bucket is required")
	}
	return &gcsExporter{client: client, bucket: bucket, prefix: prefix}, nil
}

func (x *gcsExporter) Export(ctx context.Context, report *Report) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, report); err != nil {
		return "", err
	}

	name := path.Join(x.prefix, string(report.Run.ID)+".json")
	if err := x.write(ctx, name, buf.Bytes()); err != nil {
		return "", err
	}
	if err := x.write(ctx, path.Join(x.prefix, LatestObject), buf.Bytes()); err != nil {
		return "", err
	}

	return fmt.Sprintf("gs://%s/%s", x.bucket, name), nil
}

func (x *gcsExporter) write(ctx context.Context, name string, data []byte) error {
	w := x.client.Bucket(x.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("bucket", x.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to upload object", goerr.V("bucket", x.bucket), goerr.V("object", name))
	}
	return nil
}
