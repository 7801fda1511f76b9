package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"geostream/internal/types"
)

// contentTypes maps the supported bulk-upload file types to their MIME
// content types. Anything else is rejected before a request is made.
var contentTypes = map[string]string{
	"csv":  "text/csv",
	"json": "application/json",
	"xml":  "application/xml",
}

// TraitsClientConfig holds the configuration for creating a BETYdbClient.
type TraitsClientConfig struct {
	// TraitsURL is the traits collection endpoint without the file-type
	// suffix, e.g. https://bety.example.org/api/v1/traits. The upload POST
	// goes to {TraitsURL}.{fileType}.
	TraitsURL string
	Key       types.SecretString
	Logger    *slog.Logger
}

// TraitsEndpoint derives the traits collection endpoint from a base store
// URL.
func TraitsEndpoint(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/api/v1/traits"
}

// BETYdbClient implements TraitsUploader against the BETYdb bulk-upload
// endpoint. The file content is posted wholesale; BETYdb handles parsing.
type BETYdbClient struct {
	base      *BaseClient
	traitsURL string
	key       types.SecretString
	logger    *slog.Logger
}

var _ TraitsUploader = (*BETYdbClient)(nil)

// NewBETYdbClient creates a BETYdbClient.
func NewBETYdbClient(httpClient *http.Client, cfg TraitsClientConfig) *BETYdbClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BETYdbClient{
		base:      NewBaseClient(httpClient, "betydb", "GeostreamLoader/1.0"),
		traitsURL: strings.TrimSuffix(cfg.TraitsURL, "/"),
		key:       cfg.Key,
		logger:    logger,
	}
}

// uploadResponse is the BETYdb bulk-upload response envelope.
type uploadResponse struct {
	Data struct {
		IDsOfNewTraits []types.ResourceID `json:"ids_of_new_traits"`
	} `json:"data"`
}

// UploadTraits posts the raw file content to {traitsURL}.{fileType}?key=...
// and returns the ids of the created trait records. Only 200 and 201 are
// treated as success.
func (c *BETYdbClient) UploadTraits(ctx context.Context, content []byte, fileType string) ([]types.ResourceID, error) {
	contentType, ok := contentTypes[fileType]
	if !ok {
		return nil, types.NewAppError(
			types.ErrCodeValidationFileType,
			fmt.Sprintf("unsupported file type %q", fileType),
			nil,
		)
	}

	query := url.Values{"key": {c.key.Unmask()}}
	uploadURL := fmt.Sprintf("%s.%s?%s", c.traitsURL, fileType, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(content))
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create upload request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.base.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewAppError(
			types.ErrCodeUpstreamTraits,
			fmt.Sprintf("trait upload returned %d", resp.StatusCode),
			nil,
		).WithDetails(map[string]any{"body": string(snippet)})
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, types.NewAppError(types.ErrCodeUpstreamTraits, "failed to decode upload response", err)
	}

	c.logger.InfoContext(ctx, "trait file submitted",
		"file_type", fileType,
		"new_traits", len(decoded.Data.IDsOfNewTraits),
	)
	return decoded.Data.IDsOfNewTraits, nil
}
