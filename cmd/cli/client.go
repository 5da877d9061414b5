package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// apiError is a non-2xx answer; Message is the server's {"message"} text.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http %d", e.Status)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

type card struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type cardBody struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

type loginResult struct {
	Token string `json:"token"`
	User  struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type profile struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type message struct {
	Message string `json:"message"`
}

// apiClient talks to the card market REST API.
type apiClient struct {
	base  *url.URL
	http  *http.Client
	token string
}

func newHTTPClient(caPath string, insecure bool) (*http.Client, error) {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	switch {
	case insecure:
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // dev flag
	case caPath != "":
		pem, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("bad CA cert")
		}
		tr.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}
	return &http.Client{Transport: tr, Timeout: 30 * time.Second}, nil
}

func newAPIClient(server string, hc *http.Client, token string) (*apiClient, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	base, err := url.Parse(strings.TrimRight(server, "/"))
	if err != nil {
		return nil, fmt.Errorf("bad server url: %w", err)
	}
	return &apiClient{base: base, http: hc, token: token}, nil
}

// do sends body as JSON and decodes a 2xx answer into out (if non-nil).
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		// the server expects the raw token, no scheme
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var m message
		_ = json.Unmarshal(raw, &m)
		return &apiError{Status: resp.StatusCode, Message: m.Message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *apiClient) register(ctx context.Context, username, email, password string) (string, error) {
	var m message
	err := c.do(ctx, http.MethodPost, "/api/auth/register",
		map[string]string{"username": username, "email": email, "password": password}, &m)
	return m.Message, err
}

func (c *apiClient) login(ctx context.Context, email, password string) (loginResult, error) {
	var out loginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	return out, err
}

func (c *apiClient) profile(ctx context.Context) (profile, error) {
	var out profile
	err := c.do(ctx, http.MethodGet, "/api/profile", nil, &out)
	return out, err
}

func (c *apiClient) listCards(ctx context.Context) ([]card, error) {
	var out []card
	err := c.do(ctx, http.MethodGet, "/api/cards", nil, &out)
	return out, err
}

func (c *apiClient) getCard(ctx context.Context, id string) (card, error) {
	var out card
	err := c.do(ctx, http.MethodGet, "/api/cards/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *apiClient) createCard(ctx context.Context, in cardBody) (card, error) {
	var out card
	err := c.do(ctx, http.MethodPost, "/api/cards", in, &out)
	return out, err
}

func (c *apiClient) updateCard(ctx context.Context, id string, in cardBody) (card, error) {
	var out card
	err := c.do(ctx, http.MethodPut, "/api/cards/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *apiClient) deleteCard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/cards/"+url.PathEscape(id), nil, nil)
}
