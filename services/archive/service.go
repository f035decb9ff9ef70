package archive

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"

	"github.com/mailboost/mailboost/config"
	"github.com/mailboost/mailboost/interfaces"
	"github.com/mailboost/mailboost/internal/tracing"
	"github.com/mailboost/mailboost/internal/utils"
	"github.com/mailboost/mailboost/services/archive/aws_client"
)

// emailArchiveService keeps a raw copy of every processed notification in
// object storage. Archiving is an audit convenience: a failed upload is
// logged by the caller and never blocks acknowledgment.
type emailArchiveService struct {
	client aws_client.S3Client
	bucket string
}

// NewEmailArchiveService builds an archive backed by Cloudflare R2, or a
// disabled archive when the storage credentials are not configured.
func NewEmailArchiveService(cfg *config.ArchiveConfig) interfaces.ArchiveService {
	if !cfg.Enabled() {
		return &disabledArchive{}
	}

	client := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       cfg.AccountID,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
	})

	return &emailArchiveService{
		client: client,
		bucket: cfg.Bucket,
	}
}

func (s *emailArchiveService) Enabled() bool {
	return true
}

func (s *emailArchiveService) StoreMessage(ctx context.Context, uid uint32, raw []byte) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "EmailArchiveService.StoreMessage")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagMessage(span, uid)

	key := fmt.Sprintf("inbox/%s/%d_%s.eml", utils.Now().Format("2006-01-02"), uid, utils.NewID("msg"))
	span.SetTag("key", key)

	err := s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("message/rfc822"),
	})
	if err != nil {
		tracing.TraceErr(span, err)
	}
	return err
}

type disabledArchive struct{}

func (s *disabledArchive) Enabled() bool { return false }

func (s *disabledArchive) StoreMessage(ctx context.Context, uid uint32, raw []byte) error {
	return nil
}
