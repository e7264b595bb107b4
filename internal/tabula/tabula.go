// Package tabula adapts the tabula-java extraction engine. The PDF is
// downloaded with a user-agent override, then the jar is invoked in lattice
// (ruled-line) mode with JSON output, one table object per detected region.
package tabula

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"

	"github.com/stanle/cityperthscraper/pkg/scraper/internalerr"
	"github.com/stanle/cityperthscraper/pkg/scraper/reconcile"
)

// Extractor runs tabula-java over a remote PDF.
type Extractor struct {
	JavaPath   string // defaults to "java"
	JarPath    string
	UserAgent  string
	HTTPClient *http.Client
}

// rawTable mirrors one entry of tabula-java's JSON output.
type rawTable struct {
	Data [][]struct {
		Text string `json:"text"`
	} `json:"data"`
}

// Tables downloads the PDF and returns its per-page table fragments in page
// order. A retrieval failure wraps internalerr.ErrTransientFetch so the
// caller can skip the document and retry it next run.
func (e *Extractor) Tables(ctx context.Context, pdfURL string) ([]reconcile.Fragment, error) {
	path, err := e.download(ctx, pdfURL)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	java := e.JavaPath
	if java == "" {
		java = "java"
	}

	// Quiet the jar's logging the same way tabula's own silent option does.
	cmd := exec.CommandContext(ctx, java,
		"-Dorg.slf4j.simpleLogger.defaultLogLevel=off",
		"-Dorg.apache.commons.logging.Log=org.apache.commons.logging.impl.NoOpLog",
		"-jar", e.JarPath,
		"--format", "JSON",
		"--lattice",
		"--pages", "all",
		"--silent",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tabula-java: %w\n%s", err, stderr.String())
	}
	if stderr.Len() > 0 {
		log.Printf("tabula-java stderr: %s", stderr.String())
	}

	return parseTables(stdout.Bytes())
}

// parseTables decodes tabula-java JSON output into fragments. The first data
// row of each table region is taken as its column labels, matching how the
// engine reports lattice tables.
func parseTables(data []byte) ([]reconcile.Fragment, error) {
	var tables []rawTable
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("decode tabula output: %w", err)
	}

	var frags []reconcile.Fragment
	for _, tbl := range tables {
		var frag reconcile.Fragment
		for i, row := range tbl.Data {
			cells := make([]string, len(row))
			for j, c := range row {
				cells[j] = c.Text
			}
			if i == 0 {
				frag.Columns = cells
				continue
			}
			frag.Rows = append(frag.Rows, cells)
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

// download fetches the PDF to a temp file, overriding the User-Agent; the
// council server rejects the default Go client string.
func (e *Extractor) download(ctx context.Context, pdfURL string) (string, error) {
	client := e.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", internalerr.ErrTransientFetch, pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fetch %s: HTTP %d", internalerr.ErrTransientFetch, pdfURL, resp.StatusCode)
	}

	f, err := os.CreateTemp("", "cityperth-*.pdf")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("%w: download %s: %v", internalerr.ErrTransientFetch, pdfURL, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
