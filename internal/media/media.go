// Package media stores and removes the picture/link attachments that
// live as JSON arrays on a node row (spec §6). Two interchangeable
// backends implement Store: a local filesystem directory and a
// generic HTTP blob endpoint, so the admin-curated media a node
// references resolves to a real URL either way.
package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// Store persists a file body and returns the URL a node's Picture or
// Link record should carry.
type Store interface {
	Put(ctx context.Context, subpath string, body io.Reader) (url string, err error)
	Delete(ctx context.Context, url string) error
}

// LocalFS is the default backend: files land under uploads/<subpath>.
type LocalFS struct {
	BaseDir string
	BaseURL string
}

func NewLocalFS(baseDir, baseURL string) *LocalFS {
	return &LocalFS{BaseDir: baseDir, BaseURL: strings.TrimSuffix(baseURL, "/")}
}

func (l *LocalFS) Put(ctx context.Context, subpath string, body io.Reader) (string, error) {
	full := filepath.Join(l.BaseDir, filepath.Clean("/"+subpath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", apperr.Internal(err, "create upload directory")
	}
	f, err := os.Create(full)
	if err != nil {
		return "", apperr.Internal(err, "create upload file")
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", apperr.Internal(err, "write upload file")
	}
	return fmt.Sprintf("%s/%s", l.BaseURL, strings.TrimPrefix(subpath, "/")), nil
}

func (l *LocalFS) Delete(ctx context.Context, url string) error {
	rel := strings.TrimPrefix(url, l.BaseURL+"/")
	full := filepath.Join(l.BaseDir, filepath.Clean("/"+rel))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return apperr.Internal(err, "delete upload file")
	}
	return nil
}

// HTTPBlob is the generic fallback for any PUT/DELETE-addressable blob
// service (Azure Blob Storage and friends) — spec §6's "configurable,
// addressable by URL" wording, with no service-specific SDK.
type HTTPBlob struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPBlob(endpoint string) *HTTPBlob {
	return &HTTPBlob{Endpoint: strings.TrimSuffix(endpoint, "/"), Client: &http.Client{Timeout: 30 * time.Second}}
}

func (h *HTTPBlob) Put(ctx context.Context, subpath string, body io.Reader) (string, error) {
	buf, err := io.ReadAll(body)
	if err != nil {
		return "", apperr.Internal(err, "read upload body")
	}
	url := fmt.Sprintf("%s/%s", h.Endpoint, strings.TrimPrefix(subpath, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(buf))
	if err != nil {
		return "", apperr.Internal(err, "build blob put request")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return "", apperr.Internal(err, "blob put request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", apperr.Internal(nil, "blob put failed with status %d", resp.StatusCode)
	}
	return url, nil
}

func (h *HTTPBlob) Delete(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return apperr.Internal(err, "build blob delete request")
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return apperr.Internal(err, "blob delete request")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return apperr.Internal(nil, "blob delete failed with status %d", resp.StatusCode)
	}
	return nil
}

// subpathFor generates a content-addressed-ish path so concurrent
// uploads for the same node never collide.
func subpathFor(nodeID int64, filename string) string {
	return fmt.Sprintf("nodes/%d/%s-%s", nodeID, uuid.NewString(), filename)
}

// UploadPicture stores body and returns a Picture ready to append to a
// node's Pictures array.
func UploadPicture(ctx context.Context, s Store, nodeID int64, filename, description string, body io.Reader) (model.Picture, error) {
	url, err := s.Put(ctx, subpathFor(nodeID, filename), body)
	if err != nil {
		return model.Picture{}, err
	}
	return model.Picture{URL: url, Description: description, Timestamp: time.Now()}, nil
}

// DeletePicture removes the backing file for url.
func DeletePicture(ctx context.Context, s Store, url string) error {
	return s.Delete(ctx, url)
}

// AddLink builds a Link record; links reference an external URL and
// never touch the blob Store.
func AddLink(url, title, description string) model.Link {
	return model.Link{URL: url, Title: title, Description: description, Timestamp: time.Now()}
}
