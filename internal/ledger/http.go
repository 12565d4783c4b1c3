package ledger

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/quantperf/internal/contracts"
	"github.com/wonny/quantperf/pkg/httputil"
)

// maxDocumentBytes bounds a remote ledger document
const maxDocumentBytes = 64 << 20

// HTTPSource fetches ledger documents from GET {baseURL}/runs/{runID}/ledger
type HTTPSource struct {
	client  *httputil.Client
	baseURL string
}

// NewHTTPSource creates a remote ledger source
func NewHTTPSource(client *httputil.Client, baseURL string) *HTTPSource {
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Load implements Source
func (s *HTTPSource) Load(ctx context.Context, runID string) (*contracts.Ledger, error) {
	endpoint := fmt.Sprintf("%s/runs/%s/ledger", s.baseURL, url.PathEscape(runID))

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger %s: %w", runID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch ledger %s: unexpected status %d", runID, resp.StatusCode)
	}

	doc, err := Decode(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch ledger %s: %w", runID, err)
	}
	return doc.Ledger()
}
