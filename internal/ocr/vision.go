package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/davidbz/modelbench/internal/observability"
)

// MaxPagesPerRequest is the most pages files:annotate accepts in one synchronous call.
const MaxPagesPerRequest = 5

// ErrVisionEmptyResponse indicates the Vision API returned no file response.
var ErrVisionEmptyResponse = errors.New("empty response from Vision API")

// VisionClient recognizes PDF pages with the Google Cloud Vision files:annotate endpoint.
type VisionClient struct {
	apiKey      string
	endpoint    string
	featureType string
	httpClient  *http.Client
}

// NewVisionClient creates a client. httpClient carries the request timeout.
func NewVisionClient(apiKey, endpoint string, httpClient *http.Client) (*VisionClient, error) {
	if apiKey == "" {
		return nil, errors.New("vision API key is required")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &VisionClient{
		apiKey:      apiKey,
		endpoint:    endpoint,
		featureType: "DOCUMENT_TEXT_DETECTION",
		httpClient:  httpClient,
	}, nil
}

type annotateRequest struct {
	Requests []annotateFileRequest `json:"requests"`
}

type annotateFileRequest struct {
	InputConfig inputConfig     `json:"inputConfig"`
	Features    []visionFeature `json:"features"`
	Pages       []int           `json:"pages"`
}

type inputConfig struct {
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}

type visionFeature struct {
	Type string `json:"type"`
}

type visionStatus struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type annotateResponse struct {
	Responses []struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text string `json:"text"`
			} `json:"fullTextAnnotation"`
			Context struct {
				PageNumber int `json:"pageNumber"`
			} `json:"context"`
			Error *visionStatus `json:"error"`
		} `json:"responses"`
		Error *visionStatus `json:"error"`
	} `json:"responses"`
}

// RecognizePages returns the recognized text of each requested page, keyed by page number.
// At most MaxPagesPerRequest pages may be requested at once.
func (c *VisionClient) RecognizePages(ctx context.Context, data []byte, pages []int) (map[int]string, error) {
	if len(pages) == 0 {
		return map[int]string{}, nil
	}
	if len(pages) > MaxPagesPerRequest {
		return nil, fmt.Errorf("at most %d pages per request, got %d", MaxPagesPerRequest, len(pages))
	}

	logger := observability.FromContext(ctx)

	body, err := json.Marshal(annotateRequest{
		Requests: []annotateFileRequest{{
			InputConfig: inputConfig{
				Content:  base64.StdEncoding.EncodeToString(data),
				MimeType: "application/pdf",
			},
			Features: []visionFeature{{Type: c.featureType}},
			Pages:    pages,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"?key="+c.apiKey, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("sending pages to Vision API", observability.Any("pages", pages))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send vision request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read vision response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed annotateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}

	if len(parsed.Responses) == 0 {
		return nil, ErrVisionEmptyResponse
	}

	file := parsed.Responses[0]
	if file.Error != nil && file.Error.Message != "" {
		return nil, fmt.Errorf("vision API error: %s (code: %d)", file.Error.Message, file.Error.Code)
	}

	texts := make(map[int]string, len(file.Responses))
	for i, page := range file.Responses {
		number := page.Context.PageNumber
		if number == 0 && i < len(pages) {
			number = pages[i]
		}
		if page.Error != nil && page.Error.Message != "" {
			logger.Warn("vision could not read page",
				observability.Int("page", number),
				observability.String("reason", page.Error.Message))
			continue
		}
		texts[number] = strings.TrimSpace(page.FullTextAnnotation.Text)
	}

	return texts, nil
}
