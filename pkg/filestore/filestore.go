package filestore

import "context"

// StoreFile describes a document held inside a File Search Store.
type StoreFile struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	MimeType    string `json:"mimeType"`
	SizeBytes   int64  `json:"sizeBytes"`
	State       string `json:"state"`
}

// FileSearchStore is the single integration surface for the Gemini
// File Search Store API. Services depend on this interface, never on
// the REST implementation directly.
type FileSearchStore interface {
	// CreateStore provisions a store and returns its resource name
	// (e.g. "fileSearchStores/abc123").
	CreateStore(ctx context.Context, displayName string) (string, error)

	// UploadFile uploads raw bytes into the store and waits for the
	// import operation to complete.
	UploadFile(ctx context.Context, storeName, fileName, mimeType string, data []byte) (*StoreFile, error)

	// ListFiles returns the documents currently in the store.
	ListFiles(ctx context.Context, storeName string) ([]StoreFile, error)

	// DeleteStore removes the store and everything in it.
	DeleteStore(ctx context.Context, storeName string) error
}
