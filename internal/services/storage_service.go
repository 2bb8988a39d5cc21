// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/config"
	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// StorageService stores payment receipts in S3 and attaches them to billing
// records. Without AWS credentials it degrades to a local placeholder so
// development does not need a bucket.
type StorageService struct {
	db       *gorm.DB
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

const (
	receiptFolder  = "receipts"
	receiptMaxSize = 10 * 1024 * 1024
)

var receiptAllowedTypes = []string{".jpg", ".jpeg", ".png", ".pdf"}

// NewStorageService never fails: when AWS credentials are missing or the
// session cannot be created, receipts fall back to local placeholder URLs.
func NewStorageService(db *gorm.DB, cfg *config.Config) *StorageService {
	if cfg.AWS.AccessKeyID == "" {
		return &StorageService{db: db, config: cfg}
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to create AWS session, receipts will use local storage")
		return &StorageService{db: db, config: cfg}
	}

	return &StorageService{
		db:       db,
		s3Client: s3.New(sess),
		config:   cfg,
	}
}

// AttachReceipt uploads a receipt file and links it to the billing record.
// God attaches receipts anywhere; organization members only to their own
// records.
func (s *StorageService) AttachReceipt(ctx context.Context, actor models.Actor, billingRecordID uuid.UUID, file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	var record models.BillingRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", billingRecordID).Error; err != nil {
		return nil, wrapDBError(err, "billing record")
	}
	if actor.Role != models.RoleGod {
		if actor.OrganizationID == nil || *actor.OrganizationID != record.OrganizationID {
			return nil, NewNotFoundError("billing record")
		}
	}

	if header.Size > receiptMaxSize {
		return nil, NewValidationError("file exceeds the %d byte limit", receiptMaxSize)
	}
	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, t := range receiptAllowedTypes {
		if ext == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, NewValidationError("file type %s is not allowed", ext)
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, NewInternalError("failed to read file", err)
	}

	key := fmt.Sprintf("%s/%s/%s%s", receiptFolder, record.OrganizationID, uuid.New(), ext)
	contentType := header.Header.Get("Content-Type")

	var result *UploadResult
	if s.s3Client != nil {
		result, err = s.uploadToS3(fileBytes, key, contentType)
	} else {
		result, err = s.uploadToLocal(fileBytes, key, contentType)
	}
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.BillingRecord{}).
		Where("id = ?", record.ID).
		Update("receipt_url", result.URL).Error
	if err != nil {
		return nil, wrapDBError(err, "billing record")
	}

	logrus.WithFields(logrus.Fields{
		"billing_record_id": record.ID,
		"key":               result.Key,
		"size":              result.Size,
	}).Info("Receipt attached")

	return result, nil
}

func (s *StorageService) uploadToS3(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, NewUnavailableError(err)
	}

	return &UploadResult{
		URL:      s.getS3URL(key),
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key, contentType string) (*UploadResult, error) {
	// Development fallback, nothing is actually persisted.
	url := fmt.Sprintf("http://%s:%s/uploads/%s", s.config.Server.Host, s.config.Server.Port, key)

	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(fileBytes)),
		MimeType: contentType,
	}, nil
}

func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("Skipping delete, S3 not configured")
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return NewUnavailableError(err)
	}
	return nil
}

// GeneratePresignedURL returns a temporary download link for a stored
// receipt. Receipts are private objects.
func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", NewUnavailableError(fmt.Errorf("S3 client not configured"))
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.AWS.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", NewUnavailableError(err)
	}
	return url, nil
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
