package storage

import (
	"os"
	"strings"

	"cadview/db"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type StorageType uint8

const (
	StorageTypeFile StorageType = 0
	StorageTypeS3   StorageType = 1
)

const (
	StorageLocationModels  = "/models"
	StorageLocationGallery = "/gallery"
)

type Bucket struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   int64
	UpdatedAt   int64
	Name          string `gorm:"type:varchar(200)"` // Display name, or S3 bucket name
	StorageType   StorageType
	Path          string // Path on a drive or a prefix in a S3 bucket
	Region        string // S3 region
	Endpoint      string // Custom S3-compatible endpoint (optional)
	AuthDetails   string // Authentication details. In case of S3 bucket - "key:secret"
	SSEEncryption string `gorm:"type:varchar(32)"`
}

func (b *Bucket) Create() error {
	err := db.Instance.Create(b).Error
	if err != nil {
		return err
	}
	if b.StorageType == StorageTypeFile {
		// Pre-create locations on disk
		if err = os.MkdirAll(b.Path+StorageLocationModels, 0777); err != nil {
			return err
		}
		if err = os.MkdirAll(b.Path+StorageLocationGallery, 0777); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bucket) IsS3() bool {
	return b.StorageType == StorageTypeS3
}

// GetRemotePath prefixes the object key with the configured bucket prefix
func (b *Bucket) GetRemotePath(path string) string {
	if b.Path == "" {
		return strings.TrimLeft(path, "/")
	}
	return strings.TrimRight(b.Path, "/") + "/" + strings.TrimLeft(path, "/")
}

// CreateSVC creates a new S3 client for the bucket
func (b *Bucket) CreateSVC() *s3.S3 {
	auth := strings.SplitN(b.AuthDetails, ":", 2)
	if len(auth) != 2 {
		panic("S3 bucket AuthDetails must be in 'key:secret' format")
	}
	cfg := aws.Config{
		Region:      aws.String(b.Region),
		Credentials: credentials.NewStaticCredentials(auth[0], auth[1], ""),
	}
	if b.Endpoint != "" {
		cfg.Endpoint = aws.String(b.Endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}
	return s3.New(session.Must(session.NewSession(&cfg)))
}
