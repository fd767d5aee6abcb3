package ports

import (
	"context"
	"io"
)

// InvoiceUpload archivo de factura recibido junto con la compra.
type InvoiceUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject resultado de subir un archivo: URL de descarga, ruta y tipo de contenido.
type StoredObject struct {
	URL         string
	Path        string
	ContentType string
}

// InvoiceStorage define el puerto de salida hacia el almacén de archivos.
// Las operaciones ocurren fuera de la transacción del libro.
type InvoiceStorage interface {
	Upload(ctx context.Context, purchaseID string, file InvoiceUpload) (*StoredObject, error)
	Remove(ctx context.Context, path string) error
}
