package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/logging"
	sc "github.com/dmitrijs2005/booktag/internal/server/config"
	"github.com/dmitrijs2005/booktag/internal/server/models"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/booktag/internal/timex"
	"github.com/google/uuid"
)

const (
	manifestPageSize    = 500
	manifestLinkTTL     = 15 * time.Minute
	manifestContentType = "text/csv"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ManifestService exports the provisioned codes as a CSV print manifest in
// object storage.
type ManifestService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	clock       timex.Clock
	logger      logging.Logger
}

func NewManifestService(db dbx.DBTX, m repomanager.RepositoryManager, cfg *sc.Config, logger logging.Logger) *ManifestService {
	return &ManifestService{
		db:          db,
		repomanager: m,
		config:      cfg,
		clock:       timex.SystemClock,
		logger:      logger.With("module", "manifest"),
	}
}

// manifestKey returns manifests/YYYY/MM/DD/<uuid>.csv for t.
func manifestKey(t time.Time) string {
	return fmt.Sprintf("manifests/%04d/%02d/%02d/%s.csv", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *ManifestService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// RenderManifest writes every code as code,is_registered,created_at with a
// header row, in id order.
func (s *ManifestService) RenderManifest(ctx context.Context) ([]byte, int, error) {
	repo := s.repomanager.QRCodes(s.db)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"code", "is_registered", "created_at"}); err != nil {
		return nil, 0, err
	}

	rows := 0
	for offset := 0; ; offset += manifestPageSize {
		page, err := repo.List(ctx, manifestPageSize, offset)
		if err != nil {
			return nil, 0, fmt.Errorf("error listing qr codes: %w", err)
		}
		for _, q := range page {
			if err := w.Write(manifestRecord(q)); err != nil {
				return nil, 0, err
			}
		}
		rows += len(page)
		if len(page) < manifestPageSize {
			break
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), rows, nil
}

func manifestRecord(q *models.QRCode) []string {
	return []string{
		q.Code,
		strconv.FormatBool(q.IsRegistered()),
		q.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ExportManifest uploads the current manifest and returns its storage key
// and a presigned GET URL valid for 15 minutes.
func (s *ManifestService) ExportManifest(ctx context.Context) (string, string, error) {
	body, rows, err := s.RenderManifest(ctx)
	if err != nil {
		return "", "", err
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := manifestKey(s.clock())

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String(manifestContentType),
	}); err != nil {
		return "", "", fmt.Errorf("error uploading manifest: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(manifestLinkTTL))
	if err != nil {
		return "", "", fmt.Errorf("error presigning manifest: %w", err)
	}

	s.logger.Info(ctx, "manifest exported", "key", key, "rows", rows)
	return key, req.URL, nil
}
