// YouTube Data API v3 [VideoService] implementation
//
// Uses the search endpoint restricted to embeddable videos. Requests carry the API key and, when
// configured, an OAuth bearer token.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"

	"github.com/desertthunder/onehit/internal/models"
	"github.com/desertthunder/onehit/internal/shared"
)

const defaultYTBaseURL string = "https://www.googleapis.com/youtube/v3"

// YouTubeImage represents a thumbnail in YouTube Data API responses.
type YouTubeImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// YouTubeSearchResult is one item of a search.list response.
type YouTubeSearchResult struct {
	ID struct {
		Kind    string `json:"kind"`
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title      string                  `json:"title"`
		Thumbnails map[string]YouTubeImage `json:"thumbnails"`
	} `json:"snippet"`
}

type youtubeSearchResponse struct {
	Items []YouTubeSearchResult `json:"items"`
}

type youtubeErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// YouTubeService implements [VideoService] against the YouTube Data API.
type YouTubeService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[any]
}

// NewYouTubeService creates a new YouTube search client.
func NewYouTubeService(cfg shared.YouTubeConfig, logger *log.Logger) *YouTubeService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	client := http.DefaultClient
	if cfg.AccessToken != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
		client = oauth2.NewClient(context.Background(), ts)
	}

	return &YouTubeService{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: client,
		cb:         newBreaker("youtube", DefaultBreakerSettings(), logger),
	}
}

// Name returns the service name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	if y.apiKey != "" {
		params.Set("key", y.apiKey)
	}
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp youtubeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error.Message != "" {
			return fmt.Errorf("%w: youtube API error (status %d): %s", shared.ErrAPIRequest, resp.StatusCode, errResp.Error.Message)
		}
		return fmt.Errorf("%w: youtube API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// SearchVideo returns the first embeddable video matching query with its default thumbnail.
//
// Calls GET /search?part=id,snippet&type=video&videoEmbeddable=true.
func (y *YouTubeService) SearchVideo(ctx context.Context, query string) (*models.Video, error) {
	return guarded(y.cb, "search", func() (*models.Video, error) {
		params := url.Values{}
		params.Set("part", "id,snippet")
		params.Set("type", "video")
		params.Set("videoEmbeddable", "true")
		params.Set("maxResults", "1")
		params.Set("q", query)

		var resp youtubeSearchResponse
		if err := y.doRequest(ctx, "/search", params, &resp); err != nil {
			return nil, err
		}

		if len(resp.Items) == 0 || resp.Items[0].ID.VideoID == "" {
			return nil, nil
		}

		item := resp.Items[0]
		thumb := item.Snippet.Thumbnails["default"]
		return &models.Video{
			ID:        item.ID.VideoID,
			Thumbnail: models.Thumbnail{URL: thumb.URL, Width: thumb.Width, Height: thumb.Height},
		}, nil
	})
}
