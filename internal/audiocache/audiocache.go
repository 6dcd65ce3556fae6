// Package audiocache stores generated text-to-speech audio in S3 so each
// reading is synthesized at most once.
//
// The cache is a deliberate deferred-task boundary: the handler that
// generated the audio returns its response immediately and the upload runs
// in the background. The idempotency contract is put-if-absent — a key that
// already exists is never overwritten, so concurrent generations of the
// same reading converge on one object.
package audiocache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/quizfiesta/funnel-api/internal/pkg/logger"
)

// Cache is the capability handlers depend on.
type Cache interface {
	// Get returns the cached audio for key, or (nil, false) on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// PutAsync schedules a background upload of audio under key. Existing
	// keys are left untouched. The call never blocks on the network.
	PutAsync(key string, audio []byte)
}

// S3Cache implements Cache against an S3 bucket.
type S3Cache struct {
	client *s3.Client
	bucket string
}

// New creates an S3-backed audio cache.
func New(ctx context.Context, bucket, region string) (*S3Cache, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Cache{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

func (c *S3Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// Treat any retrieval failure as a miss; the caller regenerates.
		return nil, false, nil
	}
	defer out.Body.Close()

	audio, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, false, fmt.Errorf("read cached audio %s: %w", key, err)
	}
	return audio, true, nil
}

// PutAsync uploads in a goroutine detached from the request context, so a
// finished response cannot cancel the cache write.
func (c *S3Cache) PutAsync(key string, audio []byte) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(key),
		})
		if err == nil {
			// Already cached; put-if-absent means we leave it alone.
			return
		}

		_, err = c.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(c.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(audio),
			ContentType: aws.String("audio/mpeg"),
		})
		if err != nil {
			logger.Warn("audio cache upload failed", "key", key, "error", err)
			return
		}
		logger.Debug("audio cached", "key", key, "bytes", len(audio))
	}()
}
