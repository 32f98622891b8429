package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/giwty/steam-library-manager/db"
)

var (
	steamIdRegex    = regexp.MustCompile(`^\d{17}$`)
	profileUrlRegex = regexp.MustCompile(`steamcommunity\.com/profiles/(\d{17})`)
	vanityUrlRegex  = regexp.MustCompile(`steamcommunity\.com/id/([^/]+)`)
)

type ownedGame struct {
	AppId           int64  `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"`
	ImgIconUrl      string `json:"img_icon_url"`
}

type ownedGamesResponse struct {
	Response struct {
		Games []ownedGame `json:"games"`
	} `json:"response"`
}

// Client fetches the owned games listing for a Steam account.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("steam api base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// GetOwnedGames returns the account's library. The provider reports playtime
// in minutes; entries carry whole hours.
func (c *Client) GetOwnedGames(ctx context.Context, steamId, apiKey string) ([]db.LibraryEntry, error) {
	if steamId == "" || apiKey == "" {
		return nil, errors.New("both steam id and api key are required")
	}
	endpoint := fmt.Sprintf("%s/steamGames?steamid=%s&key=%s", c.baseURL, steamId, apiKey)

	var result ownedGamesResponse
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				return retry.Unrecoverable(errors.New("got a non 200 response - " + resp.Status))
			}

			result = ownedGamesResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Attempts(2),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
	)
	if err != nil {
		return nil, err
	}

	if result.Response.Games == nil {
		return nil, errors.New("invalid response from steam api")
	}

	entries := make([]db.LibraryEntry, 0, len(result.Response.Games))
	for _, game := range result.Response.Games {
		entries = append(entries, db.LibraryEntry{
			Title:    game.Name,
			Playtime: game.PlaytimeForever / 60,
			AppID:    game.AppId,
			IconRef:  game.ImgIconUrl,
		})
	}
	return entries, nil
}

// ExtractSteamId accepts a bare 17 digit Steam ID or a profile URL and
// returns the numeric ID. Vanity URLs need an extra API round trip and are
// rejected.
func ExtractSteamId(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", errors.New("no steam id provided")
	}
	if steamIdRegex.MatchString(input) {
		return input, nil
	}
	if m := profileUrlRegex.FindStringSubmatch(input); m != nil {
		return m[1], nil
	}
	if vanityUrlRegex.MatchString(input) {
		return "", errors.New("custom steam urls are not supported, use the numeric steam id or profile url")
	}
	return input, nil
}
