// Package remote is the device agent's HTTP client for the mining API.
// Network failures and 5xx responses come back wrapped as transient so the
// sync loop retries them; 4xx responses map onto the logical sentinels and
// are never retried.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ptc_mining/internal/domain"
)

type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// SetToken installs the JWT used on subsequent calls.
func (s *Store) SetToken(token string) {
	s.token = token
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Auth signs in (or up) and stores the returned token on the client.
func (s *Store) Auth(ctx context.Context, firebaseUID, email, displayName string) (*AuthResult, error) {
	var out AuthResult
	err := s.do(ctx, http.MethodPost, "/api/auth", map[string]string{
		"firebase_uid": firebaseUID,
		"email":        email,
		"display_name": displayName,
	}, &out)
	if err != nil {
		return nil, err
	}
	s.token = out.Token
	return &out, nil
}

func (s *Store) Me(ctx context.Context) (*domain.User, error) {
	var out struct {
		User *domain.User `json:"user"`
	}
	if err := s.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	return out.User, nil
}

func (s *Store) StartMining(ctx context.Context) (*domain.MiningSession, error) {
	var out domain.MiningSession
	if err := s.do(ctx, http.MethodPost, "/api/mining/start", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CompleteMining(ctx context.Context, sessionID int64) (*domain.MiningSession, error) {
	var out domain.MiningSession
	path := fmt.Sprintf("/api/mining/complete/%d", sessionID)
	if err := s.do(ctx, http.MethodPost, path, struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) CancelMining(ctx context.Context, sessionID int64) error {
	path := fmt.Sprintf("/api/mining/cancel/%d", sessionID)
	return s.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

func (s *Store) AdBuff(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := s.do(ctx, http.MethodPost, "/api/mining/ad-buff", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Store) RedeemReferral(ctx context.Context, code string) error {
	return s.do(ctx, http.MethodPost, "/api/referrals/redeem", map[string]string{"code": code}, nil)
}

// Sync pushes the device snapshot and returns the server's merged view.
func (s *Store) Sync(ctx context.Context, snap domain.CacheSnapshot) (domain.CacheSnapshot, error) {
	var out domain.CacheSnapshot
	if err := s.do(ctx, http.MethodPost, "/api/sync", snap, &out); err != nil {
		return domain.CacheSnapshot{}, err
	}
	return out, nil
}

func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	res, err := s.client.Do(req)
	if err != nil {
		return domain.Transient(fmt.Errorf("%s %s: %w", method, path, err))
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		return domain.Transient(fmt.Errorf("%s %s: server returned %d", method, path, res.StatusCode))
	}
	if res.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: %s: %w", method, path, apiErr.Error, sentinelFor(res.StatusCode))
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return domain.Transient(fmt.Errorf("decode response: %w", err))
		}
	}
	return nil
}

func sentinelFor(status int) error {
	switch status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	case http.StatusBadRequest:
		return domain.ErrValidation
	default:
		return domain.ErrValidation
	}
}
