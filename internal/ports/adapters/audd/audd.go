// Package audd recognizes music samples through the AudD API.
package audd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/forPelevin/clipscan/internal/ports"
	"github.com/forPelevin/clipscan/internal/types"
)

// requestTimeout bounds one recognition call. A slow service fails the
// window; the scan loop decides whether to keep going.
const requestTimeout = 30 * time.Second

type Adapter struct {
	token   string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func New(token, baseURL string) *Adapter {
	return &Adapter{
		token:   token,
		baseURL: normalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: requestTimeout},
		// AudD is priced per call; one request per second keeps sequential
		// window scanning well inside plan limits.
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Recognize uploads one audio sample and returns the normalized match.
// A well-formed "no result" response returns (nil, nil). Service-level
// failures and transport failures both come back as errors; neither is
// retried here.
func (a *Adapter) Recognize(ctx context.Context, samplePath string) (*types.Match, error) {
	if a.token == "" {
		return nil, ports.ErrRecognizerNotConfigured
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("audd rate limiter: %w", err)
	}

	body, contentType, err := buildRequestBody(a.token, samplePath)
	if err != nil {
		return nil, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, a.baseURL+"/", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("audd timeout after %s", requestTimeout)
		}
		return nil, fmt.Errorf("audd request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("audd status %d and read body failed: %v", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("audd status %d: %s", resp.StatusCode, truncate(redactSecrets(string(rb), a.token), 400))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("audd malformed response: %w", err)
	}
	return env.toMatch()
}

type envelope struct {
	Status string `json:"status"`
	Error  *struct {
		Code    int    `json:"error_code"`
		Message string `json:"error_message"`
	} `json:"error"`
	Result *trackPayload `json:"result"`
}

type trackPayload struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Label       string `json:"label"`
}

func (e envelope) toMatch() (*types.Match, error) {
	if e.Status != "success" {
		if e.Error != nil {
			return nil, fmt.Errorf("audd service error %d: %s", e.Error.Code, e.Error.Message)
		}
		return nil, fmt.Errorf("audd service error: status %q", e.Status)
	}
	if e.Result == nil {
		return nil, nil // no match
	}
	return &types.Match{
		Title:       orUnknown(e.Result.Title),
		Artists:     []string{orUnknown(e.Result.Artist)},
		Album:       orUnknown(e.Result.Album),
		ReleaseDate: orUnknown(e.Result.ReleaseDate),
		Label:       orUnknown(e.Result.Label),
	}, nil
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return types.Unknown
	}
	return s
}

// buildRequestBody assembles the multipart form AudD expects: the credential,
// the extra return sections, and the sample itself. The sample is read fully
// up front; windows are a few hundred KB at most.
func buildRequestBody(token, samplePath string) (io.Reader, string, error) {
	sample, err := os.ReadFile(samplePath)
	if err != nil {
		return nil, "", fmt.Errorf("read sample: %w", err)
	}

	var buf strings.Builder
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("api_token", token); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("return", "timecode,spotify"); err != nil {
		return nil, "", err
	}
	fw, err := w.CreateFormFile("file", "sample.mp3")
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(sample); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return strings.NewReader(buf.String()), w.FormDataContentType(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

var apiTokenFieldRE = regexp.MustCompile(`(?i)(api[_-]?token\s*[:=]\s*)([^\n\r,;&]+)`)

func redactSecrets(s, token string) string {
	if s == "" {
		return s
	}
	out := s
	if token != "" {
		out = strings.ReplaceAll(out, token, "[REDACTED]")
	}
	return apiTokenFieldRE.ReplaceAllString(out, "${1}[REDACTED]")
}
