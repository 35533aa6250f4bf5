// Sensorboard - Sensor Ingestion and Charting Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sensorboard

package export

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
)

// Disposition selects how a download is served.
type Disposition string

const (
	DispositionAttachment Disposition = "attachment"
	DispositionInline     Disposition = "inline"
)

// Valid reports whether d is a known disposition.
func (d Disposition) Valid() bool {
	return d == DispositionAttachment || d == DispositionInline
}

// Navigator opens a download URL.
type Navigator interface {
	Open(ctx context.Context, rawURL string) error
}

// FileNavigator fetches download URLs and stores the attachment in Dir.
type FileNavigator struct {
	Dir    string
	Client *http.Client

	mu   sync.Mutex
	last string
}

// Open implements Navigator.
func (n *FileNavigator) Open(ctx context.Context, rawURL string) error {
	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(msg)}
	}

	name := attachmentName(resp.Header.Get("Content-Disposition"), rawURL)
	target := filepath.Join(n.Dir, name)
	f, err := os.Create(target) // #nosec G304 -- name is reduced to its base element
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", target, err)
	}

	n.mu.Lock()
	n.last = target
	n.mu.Unlock()
	return nil
}

// LastFile returns the path of the most recently saved download.
func (n *FileNavigator) LastFile() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last
}

// attachmentName prefers the Content-Disposition filename and falls back to
// the filename segment of the download URL.
func attachmentName(header, rawURL string) string {
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := safeBase(params["filename"]); name != "" {
			return name
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		// /download/{filename}/{key}/{disposition}
		dir, _ := path.Split(path.Clean(u.Path))
		dir, _ = path.Split(path.Clean(dir))
		if name := safeBase(path.Base(path.Clean(dir))); name != "" {
			return name
		}
	}
	return "export.bin"
}

func safeBase(name string) string {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == ".." {
		return ""
	}
	return name
}

// RecordingNavigator remembers opened URLs without fetching them.
type RecordingNavigator struct {
	mu   sync.Mutex
	urls []string
}

// Open implements Navigator.
func (n *RecordingNavigator) Open(_ context.Context, rawURL string) error {
	n.mu.Lock()
	n.urls = append(n.urls, rawURL)
	n.mu.Unlock()
	return nil
}

// URLs returns the opened URLs in order.
func (n *RecordingNavigator) URLs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.urls))
	copy(out, n.urls)
	return out
}
