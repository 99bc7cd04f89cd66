// Package upload publishes a generated report directory to object storage
// and returns the public URL of its entry page.
package upload

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"
	"gocloud.dev/blob"

	// Bucket URL schemes supported by Open.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/cicd-ai-toolkit/report-publisher/pkg/errors"
)

// IndexFile is the entry page every report must have.
const IndexFile = "index.html"

// Uploader copies report directories into a bucket.
type Uploader struct {
	bucket  *blob.Bucket
	baseURL string
	prefix  string
}

// Open opens the bucket at bucketURL (gs://, s3://, file:// or mem://).
// baseURL is the public URL the bucket is served under.
func Open(ctx context.Context, bucketURL, baseURL, prefix string) (*Uploader, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.UploadError("failed to open bucket", err).WithContext("bucket", bucketURL)
	}
	return New(bucket, baseURL, prefix), nil
}

// New creates an Uploader over an open bucket. The Uploader owns bucket.
func New(bucket *blob.Bucket, baseURL, prefix string) *Uploader {
	return &Uploader{
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
		prefix:  strings.Trim(prefix, "/"),
	}
}

// Close closes the bucket.
func (u *Uploader) Close() error {
	return u.bucket.Close()
}

// Upload copies every regular file under dir to <prefix>/<key>/ and
// returns the URL of the uploaded index.html.
func (u *Uploader) Upload(ctx context.Context, dir, key string) (string, error) {
	root := path.Join(u.prefix, strings.Trim(key, "/"))

	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.UploadError("report directory not readable", err).WithContext("dir", dir)
	}
	if !info.IsDir() {
		return "", errors.UploadError("report path is not a directory", nil).WithContext("dir", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, IndexFile)); err != nil {
		return "", errors.UploadError("report has no "+IndexFile, err).WithContext("dir", dir)
	}

	uploaded := 0
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		// Skip non-regular files.
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		objectKey := path.Join(root, filepath.ToSlash(rel))
		if err := u.uploadFile(ctx, p, objectKey); err != nil {
			return fmt.Errorf("uploading %s: %w", objectKey, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return "", errors.UploadError("failed to upload report", err).WithContext("dir", dir)
	}

	reportURL := u.baseURL + "/" + path.Join(root, IndexFile)
	clog.InfoContextf(ctx, "Uploaded %d report files to %s", uploaded, reportURL)
	return reportURL, nil
}

func (u *Uploader) uploadFile(ctx context.Context, src, key string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	opts := &blob.WriterOptions{ContentType: contentType(src)}
	return u.bucket.Upload(ctx, key, f, opts)
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
