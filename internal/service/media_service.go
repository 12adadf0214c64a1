package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	cfg "github.com/maheshrc27/postbridge/configs"
	"github.com/maheshrc27/postbridge/internal/models"
	"github.com/maheshrc27/postbridge/internal/repository"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxUploadSize = 100 << 20

// ObjectStore puts media objects where providers can fetch them by URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	URL(key string) string
}

// R2Store uploads to a Cloudflare R2 bucket through the S3 API.
type R2Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func NewR2Store(ctx context.Context, r2 cfg.R2) (*R2Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID))
	})
	return &R2Store{client: client, bucket: r2.BucketName, publicURL: strings.TrimRight(r2.PublicURL, "/")}, nil
}

func (r *R2Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}

	_, err := r.client.PutObject(ctx, input)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *R2Store) URL(key string) string {
	return r.publicURL + "/" + key
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error)
	List(ctx context.Context, userID int64) ([]*models.MediaAsset, error)
}

type mediaService struct {
	store ObjectStore
	ma    repository.MediaAssetRepository
}

func NewMediaService(store ObjectStore, ma repository.MediaAssetRepository) MediaService {
	return &mediaService{store: store, ma: ma}
}

var allowedMedia = map[string]struct{}{
	"mp4": {}, "mov": {}, "jpg": {}, "png": {}, "gif": {}, "webp": {},
}

// Upload sniffs each file, stores it under a random key and records the asset.
// The returned URLs are what posts reference in media_urls.
func (s *mediaService) Upload(ctx context.Context, userID int64, files []*multipart.FileHeader) ([]*models.MediaAsset, error) {
	if userID == 0 {
		return nil, validationError("user is not valid")
	}
	if len(files) == 0 {
		return nil, validationError("no files provided")
	}

	assets := make([]*models.MediaAsset, 0, len(files))
	for _, file := range files {
		asset, err := s.uploadOne(ctx, userID, file)
		if err != nil {
			return assets, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func (s *mediaService) uploadOne(ctx context.Context, userID int64, file *multipart.FileHeader) (*models.MediaAsset, error) {
	if file.Size > maxUploadSize {
		return nil, validationError("file %s exceeds %d MB", file.Filename, maxUploadSize>>20)
	}

	content, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	fileBytes, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}

	kind, err := filetype.Match(fileBytes)
	if err != nil || kind == types.Unknown {
		return nil, validationError("file %s has an unsupported type", file.Filename)
	}
	if _, ok := allowedMedia[kind.Extension]; !ok {
		return nil, validationError("file type %s is not allowed", kind.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := id + "." + kind.Extension

	if err := s.store.Put(ctx, key, fileBytes, kind.MIME.Value); err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: file.Filename,
		FileType: kind.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.store.URL(key),
	}
	asset.ID, err = s.ma.Create(ctx, nil, asset)
	if err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, userID int64) ([]*models.MediaAsset, error) {
	return s.ma.ListByUserID(ctx, userID)
}
