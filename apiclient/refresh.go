package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/saptapadi/admin-gateway/session"
)

var (
	// ErrNoRefreshToken means the session holds no refresh token, so no
	// refresh call was attempted.
	ErrNoRefreshToken = errors.New("no refresh token in session")

	// ErrRefreshRejected means the refresh endpoint answered with a
	// non-success status or an unusable body.
	ErrRefreshRejected = errors.New("refresh token rejected")
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
	} `json:"data"`
}

// refreshOnce coalesces concurrent refresh triggers into a single upstream
// call: a caller arriving while a refresh is in flight awaits that flight's
// outcome instead of issuing its own, which would burn the single-use
// refresh token. Once the flight settles the handle resets, so a later
// expiry starts a fresh one. On failure the flight clears the session and
// fires the forced-logout hook exactly once.
func (c *Client) refreshOnce(ctx context.Context) error {
	_, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		if err := c.refresh(ctx); err != nil {
			if clearErr := c.store.Clear(); clearErr != nil {
				c.logger.Error().Err(clearErr).Msg("clearing session after refresh failure")
			}
			if c.onAuthFailure != nil {
				c.onAuthFailure()
			}
			return nil, err
		}
		return nil, nil
	})
	return err
}

// refresh exchanges the stored refresh token for a new token pair and writes
// the pair atomically. Any failure leaves the tokens for refreshOnce to
// clear.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken := c.store.Read().RefreshToken
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return errors.Wrap(err, "[Client.refresh] marshalling refresh request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.refreshPath, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "[Client.refresh] building refresh request")
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "[Client.refresh] calling refresh endpoint")
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < http.StatusOK || httpResp.StatusCode >= http.StatusMultipleChoices {
		return errors.Wrapf(ErrRefreshRejected, "status %d", httpResp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&parsed); err != nil {
		return errors.Wrap(err, "[Client.refresh] decoding refresh response")
	}
	if !parsed.Success || parsed.Data.Token == "" || parsed.Data.RefreshToken == "" {
		return ErrRefreshRejected
	}

	if err := c.store.Write(session.TokenPair{
		AccessToken:  parsed.Data.Token,
		RefreshToken: parsed.Data.RefreshToken,
	}); err != nil {
		return errors.Wrap(err, "[Client.refresh] storing refreshed tokens")
	}
	return nil
}
