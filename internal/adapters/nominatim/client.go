package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// Client implements ports.Geocoder against a Nominatim-compatible API.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a Nominatim client. userAgent is sent on every request as the
// public instance's usage policy requires.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Municipality string `json:"municipality"`
	State        string `json:"state"`
	Country      string `json:"country"`
	Postcode     string `json:"postcode"`
}

// Forward resolves "address, region" to the best matching coordinate.
// It returns nil when nothing matched.
func (c *Client) Forward(ctx context.Context, addr, region string) (*domain.GeoPoint, error) {
	q := addr
	if region != "" {
		q += ", " + region
	}
	params := url.Values{
		"q":              {q},
		"format":         {"json"},
		"limit":          {"1"},
		"addressdetails": {"1"},
	}

	var places []place
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("parse latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("parse longitude %q: %w", places[0].Lon, err)
	}
	return &domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// Reverse returns the address at p, or nil when the provider knows none.
func (c *Client) Reverse(ctx context.Context, p domain.GeoPoint) (*domain.LocationInfo, error) {
	params := url.Values{
		"lat":            {strconv.FormatFloat(p.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(p.Lon, 'f', -1, 64)},
		"format":         {"json"},
		"addressdetails": {"1"},
	}

	var pl place
	if err := c.get(ctx, "/reverse", params, &pl); err != nil {
		return nil, err
	}
	if pl.Error != "" || pl.DisplayName == "" {
		return nil, nil
	}

	city := pl.Address.City
	if city == "" {
		city = pl.Address.Town
	}
	if city == "" {
		city = pl.Address.Municipality
	}

	return &domain.LocationInfo{
		FormattedAddress: pl.DisplayName,
		City:             city,
		State:            pl.Address.State,
		Country:          pl.Address.Country,
		PostalCode:       pl.Address.Postcode,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("nominatim %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nominatim %s: %w", path, err)
	}
	return nil
}
