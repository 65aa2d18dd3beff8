package storage

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"listings_backend/pkg/config"
	"listings_backend/pkg/utils/image"
	"listings_backend/pkg/utils/validation"
)

// R2Store uploads webp-encoded images to a Cloudflare R2 bucket.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewR2Store(ctx context.Context, cfg config.StorageConfig) (*R2Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
		o.UsePathStyle = true
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.r2.dev", cfg.Bucket)
	}

	return &R2Store{client: client, bucket: cfg.Bucket, publicURL: publicURL}, nil
}

func (s *R2Store) Upload(ctx context.Context, file *multipart.FileHeader, folder string) (UploadResult, error) {
	if err := validation.ValidateImage(file); err != nil {
		return UploadResult{}, err
	}

	processed, err := image.ProcessImage(file)
	if err != nil {
		return UploadResult{}, err
	}

	key := ObjectKey(folder, image.Extension)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          processed.Body,
		ContentType:   aws.String(image.ContentType),
		ContentLength: aws.Int64(processed.Size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("could not upload file to R2: %w", err)
	}

	return UploadResult{
		URL:        s.publicURL + "/" + key,
		ExternalID: key,
	}, nil
}

func (s *R2Store) Delete(ctx context.Context, externalID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(externalID),
	})
	if err != nil {
		return fmt.Errorf("could not delete %s from R2: %w", externalID, err)
	}
	return nil
}
