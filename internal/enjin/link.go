package enjin

import (
	"context"
	"errors"
	"time"
)

// ErrVerificationPending indicates the wallet owner has not approved the
// link request within the polling window.
var ErrVerificationPending = errors.New("wallet verification still pending")

const (
	defaultVerifyAttempts = 30
	defaultVerifyInterval = time.Second
)

// AccountLink is the start of the wallet verification handshake: a QR code
// for the wallet app and the id used to poll for approval.
type AccountLink struct {
	QRCode         string
	VerificationID string
}

const requestAccountQuery = `
query { RequestAccount { qrCode verificationId } }`

const accountVerifiedQuery = `
query GetAccountVerified($vid: String) {
  GetAccountVerified(verificationId: $vid) { verified account { address } }
}`

// RequestAccountLink starts the wallet-link handshake.
func (c *Client) RequestAccountLink(ctx context.Context) (AccountLink, error) {
	var resp struct {
		RequestAccount struct {
			QRCode         string `json:"qrCode"`
			VerificationID string `json:"verificationId"`
		} `json:"RequestAccount"`
	}
	if err := c.query(ctx, "request_account", requestAccountQuery, nil, &resp); err != nil {
		return AccountLink{}, err
	}
	return AccountLink{
		QRCode:         resp.RequestAccount.QRCode,
		VerificationID: resp.RequestAccount.VerificationID,
	}, nil
}

// WaitForVerification polls the handshake until the wallet owner approves,
// the attempts run out, or the context ends. It returns the linked address.
func (c *Client) WaitForVerification(ctx context.Context, verificationID string, attempts int, interval time.Duration) (string, error) {
	if attempts <= 0 {
		attempts = defaultVerifyAttempts
	}
	if interval <= 0 {
		interval = defaultVerifyInterval
	}
	for i := 0; i < attempts; i++ {
		var resp struct {
			GetAccountVerified struct {
				Verified bool `json:"verified"`
				Account  struct {
					Address string `json:"address"`
				} `json:"account"`
			} `json:"GetAccountVerified"`
		}
		vars := map[string]any{"vid": verificationID}
		if err := c.query(ctx, "account_verified", accountVerifiedQuery, vars, &resp); err != nil {
			return "", err
		}
		if resp.GetAccountVerified.Verified {
			return resp.GetAccountVerified.Account.Address, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}
	}
	return "", ErrVerificationPending
}
