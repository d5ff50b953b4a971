// Package onelake reads lakehouse files and Delta logs through the OneLake blob endpoint.
// The container is the workspace ID and paths start with the lakehouse ID.
package onelake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

// Client downloads OneLake content to a filesystem.
type Client struct {
	blobs BlobAPI
	fs    afero.Fs
}

// New creates a client. A nil fs writes to the OS filesystem.
func New(blobs BlobAPI, fs afero.Fs) *Client {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Client{blobs: blobs, fs: fs}
}

// Summary counts what a download wrote.
type Summary struct {
	Files   int   `json:"files" yaml:"files"`
	Folders int   `json:"folders" yaml:"folders"`
	Bytes   int64 `json:"bytes" yaml:"bytes"`
}

// DownloadFiles copies everything under <lakehouse>/Files/ into dest, keeping the folder layout.
// A lakehouse without files is an empty summary, not an error.
func (c *Client) DownloadFiles(ctx context.Context, workspaceID, lakehouseID, dest string) (Summary, error) {
	var summary Summary
	prefix := lakehouseID + "/Files/"
	blobs, err := c.blobs.List(ctx, workspaceID, prefix)
	if errors.Is(err, errUtils.ErrNotFound) {
		log.Debug("No lakehouse files", "lakehouse", lakehouseID)
		return summary, nil
	}
	if err != nil {
		return summary, err
	}

	for _, b := range blobs {
		rel := strings.TrimPrefix(b.Name, prefix)
		if rel == "" || !localPath(rel) {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if b.IsFolder {
			if err := c.fs.MkdirAll(target, 0o755); err != nil {
				return summary, fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
			}
			summary.Folders++
			continue
		}
		n, err := c.download(ctx, workspaceID, b.Name, target)
		if err != nil {
			return summary, err
		}
		summary.Files++
		summary.Bytes += n
	}
	return summary, nil
}

func (c *Client) download(ctx context.Context, container, name, target string) (int64, error) {
	body, err := c.blobs.Download(ctx, container, name)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if err := c.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	f, err := c.fs.Create(target)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		return n, fmt.Errorf("%w: %s: %v", errUtils.ErrOneLake, name, err)
	}
	log.Trace("Downloaded blob", "blob", name, "bytes", n)
	return n, nil
}

// localPath rejects names that would escape the destination folder.
func localPath(rel string) bool {
	clean := path.Clean("/" + rel)
	return clean != "/" && !strings.Contains(rel, "..")
}
