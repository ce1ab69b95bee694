package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// MicrosoftClientID is the fixed client id the launcher registers itself
// under with Microsoft's identity platform; also substituted into the
// ${clientid} argv placeholder.
const MicrosoftClientID = "00000000402b5328"

const microsoftClientID = MicrosoftClientID

var (
	microsoftOAuthEndpoint = oauth2.Endpoint{
		AuthURL:  "https://login.microsoftonline.com/consumers/oauth2/v2.0/authorize",
		TokenURL: "https://login.microsoftonline.com/consumers/oauth2/v2.0/token",
	}

	deviceCodeURL = "https://login.microsoftonline.com/consumers/oauth2/v2.0/devicecode"
)

// oauthConfig returns the oauth2.Config used for both the device-code
// exchange and subsequent refresh-token grants. x/oauth2's core Config
// doesn't expose RFC 8628 device-flow helpers, so the device-code and
// polling requests below are made directly against the endpoint instead of
// through Config.Exchange.
func oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID: microsoftClientID,
		Scopes:   []string{"XboxLive.signin", "offline_access"},
		Endpoint: microsoftOAuthEndpoint,
	}
}

// DeviceAuth is the RFC 8628 device authorization response: a code for the
// client to poll with, and a short code the user types into verificationURI.
type DeviceAuth struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	ExpiresAt       time.Time
	Interval        time.Duration
}

// StartDeviceCode requests a new device code from Microsoft's identity
// platform, entering the "AwaitingDevice" state of §4.2's login state
// machine.
func StartDeviceCode(ctx context.Context, client *http.Client) (*DeviceAuth, error) {
	form := url.Values{
		"client_id": {microsoftClientID},
		"scope":     {"XboxLive.signin offline_access"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceCodeURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: build device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: device code request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		DeviceCode      string `json:"device_code"`
		UserCode        string `json:"user_code"`
		VerificationURI string `json:"verification_uri"`
		ExpiresIn       int    `json:"expires_in"`
		Interval        int    `json:"interval"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("auth: parse device code response: %w", err)
	}
	if body.DeviceCode == "" {
		return nil, fmt.Errorf("auth: empty device code in response (status %d)", resp.StatusCode)
	}

	interval := time.Duration(body.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	return &DeviceAuth{
		DeviceCode:      body.DeviceCode,
		UserCode:        body.UserCode,
		VerificationURI: body.VerificationURI,
		ExpiresAt:       time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
		Interval:        interval,
	}, nil
}

// deviceErrAuthorizationPending and deviceErrSlowDown are the transient
// poll statuses from §4.2's state machine; ErrDeviceCodeExpired terminates
// the loop without a token.
var (
	deviceErrAuthorizationPending = errors.New("authorization_pending")
	deviceErrSlowDown             = errors.New("slow_down")
	// ErrDeviceCodeExpired is returned by PollDeviceCode once ExpiresAt has
	// passed with no successful exchange.
	ErrDeviceCodeExpired = errors.New("auth: device code expired")
)

// PollDeviceCode polls the token endpoint until the user completes the
// device-code flow, the code expires, or ctx is cancelled. It respects the
// server-provided interval and backs off by 5s on slow_down, per §4.2 "the
// manager respects interval and backs off on slow_down; it must stop at
// expires_at".
func PollDeviceCode(ctx context.Context, client *http.Client, da *DeviceAuth) (*oauth2.Token, error) {
	interval := da.Interval
	for {
		if time.Now().After(da.ExpiresAt) {
			return nil, ErrDeviceCodeExpired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		tok, err := exchangeDeviceCode(ctx, client, da.DeviceCode)
		switch {
		case err == nil:
			return tok, nil
		case errors.Is(err, deviceErrAuthorizationPending):
			continue
		case errors.Is(err, deviceErrSlowDown):
			interval += 5 * time.Second
			continue
		default:
			return nil, err
		}
	}
}

func exchangeDeviceCode(ctx context.Context, client *http.Client, deviceCode string) (*oauth2.Token, error) {
	form := url.Values{
		"client_id":   {microsoftClientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}
	return doTokenRequest(ctx, client, form)
}

func doTokenRequest(ctx context.Context, client *http.Client, form url.Values) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, microsoftOAuthEndpoint.TokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("auth: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: read token response: %w", err)
	}

	var body struct {
		Error        string `json:"error"`
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("auth: parse token response %#q: %w", string(raw), err)
	}

	switch body.Error {
	case "":
		// fall through to success
	case "authorization_pending":
		return nil, deviceErrAuthorizationPending
	case "slow_down":
		return nil, deviceErrSlowDown
	case "expired_token", "code_expired":
		return nil, ErrDeviceCodeExpired
	default:
		return nil, fmt.Errorf("%w: %s", ErrPermanent, body.Error)
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("auth: token response missing access_token (status %d)", resp.StatusCode)
	}

	return &oauth2.Token{
		AccessToken:  body.AccessToken,
		RefreshToken: body.RefreshToken,
		Expiry:       time.Now().Add(time.Duration(body.ExpiresIn) * time.Second),
	}, nil
}

// xblAuthenticate exchanges a Microsoft access token for an Xbox Live token
// via the user.authenticate endpoint.
func xblAuthenticate(ctx context.Context, client *http.Client, msAccessToken string) (token, userHash string, err error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"AuthMethod": "RPS",
			"SiteName":   "user.auth.xboxlive.com",
			"RpsTicket":  "d=" + msAccessToken,
		},
		"RelyingParty": "http://auth.xboxlive.com",
		"TokenType":    "JWT",
	}
	return postXboxAuth(ctx, client, "https://user.auth.xboxlive.com/user/authenticate", payload)
}

// xstsAuthorize exchanges an Xbox Live token for an XSTS token scoped to
// Minecraft services.
func xstsAuthorize(ctx context.Context, client *http.Client, xblToken string) (token, userHash string, err error) {
	payload := map[string]any{
		"Properties": map[string]any{
			"SandboxId":  "RETAIL",
			"UserTokens": []string{xblToken},
		},
		"RelyingParty": "rp://api.minecraftservices.com/",
		"TokenType":    "JWT",
	}
	return postXboxAuth(ctx, client, "https://xsts.auth.xboxlive.com/xsts/v2/authorize", payload)
}

func postXboxAuth(ctx context.Context, client *http.Client, endpoint string, payload map[string]any) (token, userHash string, err error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("auth: marshal xbox auth request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", "", fmt.Errorf("auth: build xbox auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("auth: xbox auth request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Token           string `json:"Token"`
		DisplayClaims   struct {
			Xui []struct {
				Uhs string `json:"uhs"`
			} `json:"xui"`
		} `json:"DisplayClaims"`
		XErr json.Number `json:"XErr"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("auth: parse xbox auth response: %w", err)
	}
	if body.Token == "" {
		if body.XErr != "" {
			return "", "", fmt.Errorf("%w: xbox auth error %s", ErrPermanent, body.XErr)
		}
		return "", "", fmt.Errorf("auth: xbox auth response missing token (status %d)", resp.StatusCode)
	}
	if len(body.DisplayClaims.Xui) == 0 {
		return "", "", fmt.Errorf("auth: xbox auth response missing user hash")
	}
	return body.Token, body.DisplayClaims.Xui[0].Uhs, nil
}

// minecraftServicesLogin exchanges an XSTS token/user-hash for a Minecraft
// Services access token.
func minecraftServicesLogin(ctx context.Context, client *http.Client, xstsToken, userHash string) (string, error) {
	payload := map[string]string{
		"identityToken": "XBL3.0 x=" + userHash + ";" + xstsToken,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("auth: marshal minecraft login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.minecraftservices.com/authentication/login_with_xbox", bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("auth: build minecraft login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: minecraft login request: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("auth: parse minecraft login response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("%w: minecraft services login failed (status %d)", ErrPermanent, resp.StatusCode)
	}
	return body.AccessToken, nil
}

// minecraftProfile fetches the player's UUID and display name using a
// Minecraft Services access token.
func minecraftProfile(ctx context.Context, client *http.Client, mcAccessToken string) (username, uuid string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.minecraftservices.com/minecraft/profile", nil)
	if err != nil {
		return "", "", fmt.Errorf("auth: build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+mcAccessToken)

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("auth: profile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", "", fmt.Errorf("%w: account does not own minecraft", ErrPermanent)
	}

	var body struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", fmt.Errorf("auth: parse profile response: %w", err)
	}
	if body.ID == "" {
		return "", "", fmt.Errorf("%w: profile response missing id (status %d)", ErrPermanent, resp.StatusCode)
	}
	return body.Name, formatDashedUUID(body.ID), nil
}

// formatDashedUUID inserts hyphens into a bare 32-hex-digit UUID as returned
// by the Minecraft profile API.
func formatDashedUUID(raw string) string {
	if len(raw) != 32 {
		return raw
	}
	return raw[0:8] + "-" + raw[8:12] + "-" + raw[12:16] + "-" + raw[16:20] + "-" + raw[20:32]
}

// CompleteDeviceLogin exchanges a successful device-code token for a full
// Minecraft AccountData, chaining Xbox Live -> XSTS -> Minecraft Services ->
// profile, the flow real Microsoft-account Minecraft logins require beyond
// the bare OAuth2 token.
func CompleteDeviceLogin(ctx context.Context, client *http.Client, tok *oauth2.Token) (AccountData, error) {
	xblToken, xblHash, err := xblAuthenticate(ctx, client, tok.AccessToken)
	if err != nil {
		return AccountData{}, fmt.Errorf("auth: xbox live authenticate: %w", err)
	}
	xstsToken, xstsHash, err := xstsAuthorize(ctx, client, xblToken)
	if err != nil {
		return AccountData{}, fmt.Errorf("auth: xsts authorize: %w", err)
	}
	_ = xblHash
	mcToken, err := minecraftServicesLogin(ctx, client, xstsToken, xstsHash)
	if err != nil {
		return AccountData{}, fmt.Errorf("auth: minecraft services login: %w", err)
	}
	username, uuid, err := minecraftProfile(ctx, client, mcToken)
	if err != nil {
		return AccountData{}, fmt.Errorf("auth: minecraft profile: %w", err)
	}

	return AccountData{
		Username:     username,
		NiceUsername: username,
		UUID:         uuid,
		AccessToken:  mcToken,
		RefreshToken: tok.RefreshToken,
		AccountType:  Microsoft,
	}, nil
}

// RefreshMicrosoft implements Refresher for Microsoft accounts: exchanges
// the stored OAuth2 refresh token for a new Microsoft access token, then
// replays the Xbox Live/XSTS/Minecraft Services chain.
func RefreshMicrosoft(ctx context.Context, client *http.Client, account AccountData) (AccountData, error) {
	if account.RefreshToken == "" {
		return account, fmt.Errorf("%w: no refresh token stored", ErrPermanent)
	}

	form := url.Values{
		"client_id":     {microsoftClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {account.RefreshToken},
		"scope":         {"XboxLive.signin offline_access"},
	}
	tok, err := doTokenRequest(ctx, client, form)
	if err != nil {
		// doTokenRequest already wraps genuine OAuth credential errors in
		// ErrPermanent; network/parse failures stay unwrapped so callers can
		// retry instead of forcing a re-login.
		return account, fmt.Errorf("auth: refresh microsoft token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = account.RefreshToken
	}

	updated, err := CompleteDeviceLogin(ctx, client, tok)
	if err != nil {
		return account, err
	}
	return updated, nil
}
