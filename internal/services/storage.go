package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/google/uuid"
	"github.com/wayfare/wayfare-backend/internal/config"
)

// Storage uploads KYC proof documents to S3, falling back to local disk
// when AWS credentials are not configured.
type Storage struct {
	uploader  *s3manager.Uploader
	bucket    string
	region    string
	uploadDir string
	baseURL   string
	useS3     bool
}

// InitStorage initializes either S3 or local storage based on configuration.
func InitStorage(cfg config.StorageConfig) (*Storage, error) {
	if cfg.AWSRegion != "" && cfg.AWSAccessKey != "" && cfg.AWSSecretKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWSRegion),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWSAccessKey,
				cfg.AWSSecretKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %v", err)
		}

		return &Storage{
			uploader: s3manager.NewUploader(sess),
			bucket:   cfg.Bucket,
			region:   cfg.AWSRegion,
			useS3:    true,
		}, nil
	}

	// Fallback to local storage
	if err := os.MkdirAll(filepath.Join(cfg.UploadDir, "kyc"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %v", err)
	}

	return &Storage{
		uploadDir: cfg.UploadDir,
		baseURL:   cfg.BaseURL,
		useS3:     false,
	}, nil
}

// UploadDocument stores a proof document and returns its public URL.
func (s *Storage) UploadDocument(file *multipart.FileHeader, folder string) (string, error) {
	if s.useS3 {
		return s.uploadToS3(file, folder)
	}
	return s.uploadLocally(file, folder)
}

func (s *Storage) uploadToS3(file *multipart.FileHeader, folder string) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("S3 bucket name not configured")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	buffer := bytes.NewBuffer(nil)
	if _, err := io.Copy(buffer, src); err != nil {
		return "", fmt.Errorf("failed to read file: %v", err)
	}

	contentType := http.DetectContentType(buffer.Bytes())

	fileName := fmt.Sprintf("%s/%s%s", folder, uuid.New().String(), filepath.Ext(file.Filename))

	_, err = s.uploader.Upload(&s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(buffer.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %v", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, fileName), nil
}

func (s *Storage) uploadLocally(file *multipart.FileHeader, folder string) (string, error) {
	folderPath := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create folder directory: %v", err)
	}

	fileName := uuid.New().String() + filepath.Ext(file.Filename)
	filePath := filepath.Join(folderPath, fileName)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %v", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %v", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %v", err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", s.baseURL, folder, fileName), nil
}
