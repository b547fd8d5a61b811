// Package fetch retrieves the zipped NC DAC extract archives from the
// public downloads site and unpacks them for the build engine.
package fetch

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DefaultDownloadsURL is the NC DAC Offender Public Information site.
const DefaultDownloadsURL = "https://webapps.doc.state.nc.us/opi/downloads.do?method=view"

// Client downloads and unpacks extract archives.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient returns a Client. A nil logger discards log output.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		logger:     logger,
	}
}

// ZipLinks fetches pageURL and returns every anchor href ending in .zip,
// resolved against the page URL.
func (c *Client) ZipLinks(ctx context.Context, pageURL string) ([]string, error) {
	if pageURL == "" {
		pageURL = DefaultDownloadsURL
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid downloads URL %s: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", pageURL, resp.Status)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasSuffix(attr.Val, ".zip") {
					continue
				}
				if ref, err := base.Parse(attr.Val); err == nil {
					links = append(links, ref.String())
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links, nil
}

// Download retrieves rawURL into destDir and returns the local path. The
// local name is the last path segment of the URL.
func (c *Client) Download(ctx context.Context, rawURL, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: unexpected status %s", rawURL, resp.Status)
	}

	name := path.Base(req.URL.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("download %s: cannot derive local name", rawURL)
	}
	localPath := filepath.Join(destDir, name)

	f, err := os.Create(localPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(localPath)
		return "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return localPath, nil
}

// Unzip extracts every file of the archive at zipPath into destDir.
// Entries that would escape destDir are rejected.
func Unzip(zipPath, destDir string) error {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target := filepath.Join(destDir, filepath.Clean(f.Name))
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("archive %s: illegal entry path %q", zipPath, f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o750); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("archive %s: %w", zipPath, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// FetchAll downloads every zip linked from pageURL into destDir, unpacks
// each archive in place, and removes the archives when cleanup is set.
func (c *Client) FetchAll(ctx context.Context, pageURL, destDir string, cleanup bool) error {
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return err
	}

	links, err := c.ZipLinks(ctx, pageURL)
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return fmt.Errorf("no zip archives linked from %s", pageURL)
	}
	c.logger.Info("found archives", "count", len(links))

	for _, link := range links {
		c.logger.Info("downloading", "url", link)
		localPath, err := c.Download(ctx, link, destDir)
		if err != nil {
			return err
		}
		if err := Unzip(localPath, destDir); err != nil {
			return err
		}
		if cleanup {
			if err := os.Remove(localPath); err != nil {
				c.logger.Warn("could not remove archive", "path", localPath, "error", err)
			}
		}
	}
	return nil
}
