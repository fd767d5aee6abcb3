// Package storage adaptador del almacén de facturas de compra sobre S3/MinIO.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/jhoicas/bodega-erp/internal/application/ports"
	"github.com/jhoicas/bodega-erp/pkg/config"
)

var _ ports.InvoiceStorage = (*MinioStorage)(nil)

// MinioStorage sube y borra adjuntos en un bucket. Cada subida usa una ruta nueva,
// así un reemplazo nunca pisa el archivo anterior antes de confirmar la compra.
type MinioStorage struct {
	client *minio.Client
	bucket string
}

// NewMinioStorage conecta con el almacén y crea el bucket si no existe.
func NewMinioStorage(ctx context.Context, cfg config.StorageConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("crear bucket %s: %w", cfg.Bucket, err)
		}
	}
	return &MinioStorage{client: client, bucket: cfg.Bucket}, nil
}

// Upload guarda el archivo en purchases/{purchaseID}/{uuid}-{nombre}.
func (s *MinioStorage) Upload(ctx context.Context, purchaseID string, file ports.InvoiceUpload) (*ports.StoredObject, error) {
	objectName := ObjectPath(purchaseID, uuid.New().String(), file.FileName)
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := file.Size
	if size <= 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, objectName, file.Body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload invoice: %w", err)
	}
	u := *s.client.EndpointURL()
	u.Path = path.Join("/", s.bucket, objectName)
	return &ports.StoredObject{URL: u.String(), Path: objectName, ContentType: contentType}, nil
}

// Remove borra el objeto; uno inexistente no es error.
func (s *MinioStorage) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return fmt.Errorf("remove invoice: %w", err)
	}
	return nil
}

// ObjectPath ruta del objeto; el nombre original se limpia de separadores.
func ObjectPath(purchaseID, token, fileName string) string {
	name := path.Base("/" + fileName)
	if name == "/" || name == "." {
		name = "factura"
	}
	name = strings.NewReplacer("\\", "_", " ", "_").Replace(name)
	return fmt.Sprintf("purchases/%s/%s-%s", purchaseID, token, name)
}
