package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrNeedsTwoFactor is wrapped alongside ErrPermanent by
// LoginYggdrasil/RefreshYggdrasil when the authserver rejects a login
// because the account requires a TOTP code and none (or a stale one) was
// supplied, per §4.2's NeedsTwoFactor state. errors.Is(err, ErrPermanent)
// call sites are unaffected; callers that want to drive the
// Retry(u, p+:otp) transition can check for ErrNeedsTwoFactor specifically.
var ErrNeedsTwoFactor = errors.New("auth: account requires a two-factor code")

// yggdrasilEndpoints gives the fixed Yggdrasil-compatible authserver base
// URL for ElyBy and LittleSkin (credentials mode); BlessingSkin instances
// are self-hosted and use AccountData.CustomAuthURL instead.
var yggdrasilEndpoints = map[AccountType]string{
	ElyBy:      "https://authserver.ely.by",
	LittleSkin: "https://littleskin.cn/api/yggdrasil",
}

// yggdrasilError is the tolerant response shape shared by all three
// credential providers, following stryder.go's defensive decode: the
// subset of fields the caller cares about, decoded leniently.
type yggdrasilError struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
}

type yggdrasilProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type yggdrasilLoginResponse struct {
	AccessToken     string           `json:"accessToken"`
	ClientToken     string           `json:"clientToken"`
	SelectedProfile yggdrasilProfile `json:"selectedProfile"`
	yggdrasilError
}

// LoginYggdrasil performs a username+password (optionally TOTP-appended)
// login against an ElyBy/LittleSkin/BlessingSkin-compatible authserver, per
// §4.2's credential-login branch of the state machine.
func LoginYggdrasil(ctx context.Context, client *http.Client, accountType AccountType, baseURL, username, password, totpSecret string) (AccountData, error) {
	if baseURL == "" {
		var ok bool
		baseURL, ok = yggdrasilEndpoints[accountType]
		if !ok {
			return AccountData{}, fmt.Errorf("auth: %s requires a base_url", accountType)
		}
	}

	pw := password
	if totpSecret != "" {
		otp, err := currentTOTP(totpSecret)
		if err != nil {
			return AccountData{}, fmt.Errorf("auth: compute totp: %w", err)
		}
		pw = password + ":" + otp
	}

	payload := map[string]any{
		"username": username,
		"password": pw,
		"agent":    map[string]any{"name": "Minecraft", "version": 1},
	}
	resp, err := postYggdrasil(ctx, client, baseURL+"/authserver/authenticate", payload)
	if err != nil {
		return AccountData{}, err
	}
	if resp.AccessToken == "" {
		return AccountData{}, classifyYggdrasilError(resp.yggdrasilError)
	}

	return AccountData{
		Username:      username,
		NiceUsername:  resp.SelectedProfile.Name,
		UUID:          resp.SelectedProfile.ID,
		AccessToken:   resp.AccessToken,
		RefreshToken:  resp.ClientToken,
		AccountType:   accountType,
		CustomAuthURL: baseURL,
	}, nil
}

// RefreshYggdrasil implements Refresher for ElyBy, LittleSkin (credentials
// mode), and BlessingSkin: it re-validates the stored client token against
// the authserver's /refresh endpoint, per §4.2's "re-login with stored
// refresh token" mechanism.
func RefreshYggdrasil(ctx context.Context, client *http.Client, account AccountData) (AccountData, error) {
	baseURL := account.CustomAuthURL
	if baseURL == "" {
		var ok bool
		baseURL, ok = yggdrasilEndpoints[account.AccountType]
		if !ok {
			return account, fmt.Errorf("%w: %s", ErrBlessingSkinRequiresAuthURL, account.AccountType)
		}
	}

	payload := map[string]any{
		"accessToken": account.AccessToken,
		"clientToken": account.RefreshToken,
	}
	resp, err := postYggdrasil(ctx, client, baseURL+"/authserver/refresh", payload)
	if err != nil {
		return account, err
	}
	if resp.AccessToken == "" {
		return account, classifyYggdrasilError(resp.yggdrasilError)
	}

	account.AccessToken = resp.AccessToken
	account.RefreshToken = resp.ClientToken
	if resp.SelectedProfile.Name != "" {
		account.NiceUsername = resp.SelectedProfile.Name
		account.UUID = resp.SelectedProfile.ID
	}
	return account, nil
}

func postYggdrasil(ctx context.Context, client *http.Client, url string, payload map[string]any) (yggdrasilLoginResponse, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: marshal yggdrasil request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: build yggdrasil request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := client.Do(req)
	if err != nil {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: yggdrasil request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode >= 500 {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: yggdrasil server error (status %d)", httpResp.StatusCode)
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: read yggdrasil response: %w", err)
	}

	var resp yggdrasilLoginResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return yggdrasilLoginResponse{}, fmt.Errorf("auth: parse yggdrasil response %#q: %w", string(raw), err)
	}
	return resp, nil
}

// classifyYggdrasilError distinguishes the "needs TOTP" permanent error
// from other permanent credential failures; network/5xx errors never reach
// here since postYggdrasil already surfaced those as plain errors.
func classifyYggdrasilError(e yggdrasilError) error {
	if e.Error == "ForbiddenOperationException" && e.ErrorMessage == "Invalid credentials." {
		return fmt.Errorf("%w: invalid credentials", ErrPermanent)
	}
	if e.Error == "ForbiddenOperationException" && strings.Contains(e.ErrorMessage, "two factor auth") {
		return fmt.Errorf("%w: %w", ErrPermanent, ErrNeedsTwoFactor)
	}
	if e.Error != "" {
		return fmt.Errorf("%w: %s: %s", ErrPermanent, e.Error, e.ErrorMessage)
	}
	return fmt.Errorf("%w: empty access token in response", ErrPermanent)
}
