package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/deepdaiv-multimodal/bubblelatte/logger"
)

// Config contains minimal settings for creating the S3 client. Empty values
// fall back to the standard AWS config/credential chain.
type Config struct {
	Region string
	// Profile selects a named shared config/credentials profile.
	Profile string
	// UsePathStyle forces path-style addressing for S3-compatible providers.
	UsePathStyle bool
}

// Mirror reads dataset media from an S3 bucket laid out the same way as the
// local dataset root: <prefix>video/<id>.mp4 and <prefix>audio/<id>.wav.
type Mirror struct {
	client *s3.Client
	bucket string
	prefix string
	log    logger.Logger
}

// NewMirror creates a Mirror over bucket/prefix using the default AWS
// configuration chain with optional overrides from cfg.
func NewMirror(ctx context.Context, cfg Config, bucket, prefix string, log logger.Logger) (*Mirror, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
	})

	if prefix != "" && prefix[len(prefix)-1] != '/' {
		prefix += "/"
	}

	return &Mirror{client: client, bucket: bucket, prefix: prefix, log: log}, nil
}

// Exists returns true if the object exists; a 404/NotFound is reported as
// (false, nil), anything else as an error.
func (m *Mirror) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.prefix + key),
	})
	if err == nil {
		return true, nil
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == 404 {
		return false, nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound" {
		return false, nil
	}
	return false, err
}

// Download streams the object to dest, writing through a temp file and
// renaming so a partial download never looks like valid media.
func (m *Mirror) Download(ctx context.Context, key, dest string) error {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.prefix + key),
	})
	if err != nil {
		return fmt.Errorf("fetching %s: %w", key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, out.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dest, err)
	}
	return os.Rename(tmp.Name(), dest)
}

// SyncCatalog downloads any video/<id>.mp4 and audio/<id>.wav objects that
// the local dataset root is missing, for the given catalog ids. It returns
// the number of files downloaded. Ids absent from the mirror are skipped
// with a warning; they simply stay unavailable locally.
func (m *Mirror) SyncCatalog(ctx context.Context, ids []string, root string) (int, error) {
	downloaded := 0
	for _, id := range ids {
		for _, key := range []string{
			"video/" + id + ".mp4",
			"audio/" + id + ".wav",
		} {
			dest := filepath.Join(root, filepath.FromSlash(key))
			if _, err := os.Stat(dest); err == nil {
				continue
			}

			ok, err := m.Exists(ctx, key)
			if err != nil {
				return downloaded, fmt.Errorf("checking %s: %w", key, err)
			}
			if !ok {
				m.log.Warnf("mirror is missing %s; skipping", key)
				continue
			}

			if err := m.Download(ctx, key, dest); err != nil {
				return downloaded, err
			}
			m.log.Infof("fetched %s", key)
			downloaded++
		}
	}
	return downloaded, nil
}
