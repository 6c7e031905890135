// Package report archives each run's summary to S3 so partial failures stay
// auditable after the Lambda's logs rotate out.
package report

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	jsoniter "github.com/json-iterator/go"

	"github.com/bvmarkets/quickrefresh/pkg/config"
	"github.com/bvmarkets/quickrefresh/pkg/refresh"
)

var json = jsoniter.ConfigFastest

// Uploader is the slice of manager.Uploader the archiver needs.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Archiver writes run summaries to a configured bucket. The zero uploader is
// replaced by a real S3 uploader on first use.
type Archiver struct {
	cfg      config.S3ReportConfig
	uploader Uploader
}

func NewArchiver(cfg config.S3ReportConfig) *Archiver {
	return &Archiver{cfg: cfg}
}

// UploadIfEnabled marshals the summary and uploads it under
// <prefix>refresh-<targetDate>.json. Disabled archivers are a no-op.
func (a *Archiver) UploadIfEnabled(ctx context.Context, summary refresh.Summary) error {
	if !a.cfg.Enabled {
		return nil
	}

	body, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run report: %w", err)
	}

	uploader, err := a.ensureUploader(ctx)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("%srefresh-%s.json", a.cfg.Prefix, summary.TargetDate)
	res, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("upload run report: %w", err)
	}

	log.Printf("[Report] Uploaded run report to %s", res.Location)
	return nil
}

func (a *Archiver) ensureUploader(ctx context.Context) (Uploader, error) {
	if a.uploader != nil {
		return a.uploader, nil
	}

	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(a.cfg.Region)}
	if a.cfg.AccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(a.cfg.AccessKey, a.cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if a.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(a.cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	a.uploader = manager.NewUploader(client)
	return a.uploader, nil
}
