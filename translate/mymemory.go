package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"babel.town/lang"
)

const MyMemoryURL = "https://api.mymemory.translated.net/get"

// MyMemory is a client for the MyMemory translation API.
type MyMemory struct {
	Endpoint   string
	Email      string
	HTTPClient *http.Client
	logger     *log.Logger
}

func NewMyMemory(endpoint, email string, logger *log.Logger) *MyMemory {
	if endpoint == "" {
		endpoint = MyMemoryURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &MyMemory{
		Endpoint:   endpoint,
		Email:      email,
		HTTPClient: &http.Client{},
		logger:     logger,
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	ResponseStatus  responseStatus `json:"responseStatus"`
	ResponseDetails string         `json:"responseDetails"`
}

// responseStatus accepts both 200 and "403": the service quotes the status
// on some error responses.
type responseStatus int

func (s *responseStatus) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid responseStatus %s: %w", data, err)
	}
	*s = responseStatus(n)
	return nil
}

func (m *MyMemory) Translate(ctx context.Context, text string, from string) (string, error) {
	query := url.Values{}
	query.Set("q", text)
	query.Set("langpair", fmt.Sprintf("%s|%s", from, lang.Target))
	if m.Email != "" {
		query.Set("de", m.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.Endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mymemory request: %w", err)
	}
	defer resp.Body.Close()

	var body myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &StatusError{Service: "mymemory", Status: resp.StatusCode}
		}
		return "", fmt.Errorf("decode mymemory response: %w", err)
	}

	if body.ResponseStatus != http.StatusOK {
		return "", &StatusError{
			Service: "mymemory",
			Status:  int(body.ResponseStatus),
			Details: body.ResponseDetails,
		}
	}

	m.logger.Debug("tell", "from", from, "match", body.ResponseData.Match)

	return body.ResponseData.TranslatedText, nil
}
