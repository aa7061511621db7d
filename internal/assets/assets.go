// Package assets abstracts the UI bundle served by the HTTP control
// surface behind a provider interface, so the default embed.FS-backed
// bundle can be swapped for a disk-backed one without touching the HTTP
// layer.
package assets

import (
	"embed"
	"errors"
	"io/fs"
	"mime"
	"path"
	"path/filepath"
)

// ErrNotFound is returned when the requested asset does not exist.
var ErrNotFound = errors.New("asset not found")

// Provider resolves a request path to the bytes and media type to serve.
type Provider interface {
	GetAsset(path string) ([]byte, string, error)
}

//go:embed ui
var embedded embed.FS

// Embedded is the default Provider, backed by the UI bundle compiled into
// the binary.
type Embedded struct{}

// GetAsset implements Provider. An empty path or "/" resolves to
// index.html.
func (Embedded) GetAsset(reqPath string) ([]byte, string, error) {
	clean := path.Clean("/" + reqPath)
	if clean == "/" {
		clean = "/index.html"
	}

	data, err := embedded.ReadFile("ui" + clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	mediaType := mime.TypeByExtension(filepath.Ext(clean))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}

	return data, mediaType, nil
}
