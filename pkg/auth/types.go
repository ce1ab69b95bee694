// Package auth implements the provider-polymorphic authentication manager:
// Microsoft device-code OAuth2, Yggdrasil-style credential logins (ElyBy,
// LittleSkin, BlessingSkin) with optional TOTP, and offline accounts, behind
// a uniform AccountData façade.
package auth

import (
	"crypto/md5"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// AccountType distinguishes the five provider variants of §4.2.
type AccountType int

const (
	Microsoft AccountType = iota
	ElyBy
	LittleSkin
	BlessingSkin
	Offline
)

func (t AccountType) String() string {
	switch t {
	case Microsoft:
		return "microsoft"
	case ElyBy:
		return "elyby"
	case LittleSkin:
		return "littleskin"
	case BlessingSkin:
		return "blessing"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// AccountData is the provider-agnostic result of a successful login,
// consumed by Launch Composition's argv builder.
type AccountData struct {
	// Username is the provider-native identifier.
	Username string
	// NiceUsername is the display name; preserved even when Username is
	// namespaced for storage.
	NiceUsername string
	UUID         string

	AccessToken  string
	RefreshToken string

	// NeedsRefresh makes the next EnsureValid call run a provider refresh
	// even when AccessToken is set; a successful refresh clears it.
	NeedsRefresh bool

	AccountType AccountType

	// CustomAuthURL is required for BlessingSkin refresh.
	CustomAuthURL string
}

// ErrOfflineHasNoTokens marks a caller error: offline accounts never carry
// tokens and should short-circuit EnsureValid before reaching a provider.
var ErrOfflineHasNoTokens = errors.New("auth: offline accounts have no tokens")

// ErrBlessingSkinRequiresAuthURL is returned when a BlessingSkin AccountData
// has no CustomAuthURL set, which refresh requires.
var ErrBlessingSkinRequiresAuthURL = errors.New("auth: blessingskin account missing custom_auth_url")

// StorageKey returns the namespaced key used to disambiguate accounts
// sharing a raw username across providers, per §4.2 "Username namespacing".
// Microsoft accounts use the raw username unqualified.
func (a AccountData) StorageKey() string {
	switch a.AccountType {
	case ElyBy:
		return a.Username + " (elyby)"
	case LittleSkin:
		return a.Username + " (littleskin)"
	case BlessingSkin:
		return a.Username + " (blessing)"
	default:
		return a.Username
	}
}

// OfflineUUID derives the deterministic "OfflinePlayer:<username>" UUID that
// vanilla Minecraft uses for offline accounts: an MD5-based (version-3-like)
// UUID over the exact string, with the variant/version bits fixed the way
// the client does it.
func OfflineUUID(username string) string {
	sum := md5.Sum([]byte("OfflinePlayer:" + username))
	sum[6] = (sum[6] & 0x0f) | 0x30 // version 3
	sum[8] = (sum[8] & 0x3f) | 0x80 // RFC 4122 variant
	id, err := uuid.FromBytes(sum[:])
	if err != nil {
		// sum is always exactly 16 bytes; FromBytes cannot fail here.
		panic(fmt.Sprintf("auth: offline uuid: %v", err))
	}
	return id.String()
}

// ZeroUUID is used for offline/no-token game arguments.
const ZeroUUID = "00000000-0000-0000-0000-000000000000"
