package auth

import "testing"

func TestOfflineUUIDDeterministic(t *testing.T) {
	a := OfflineUUID("Player")
	b := OfflineUUID("Player")
	if a != b {
		t.Fatalf("OfflineUUID not deterministic: %q != %q", a, b)
	}
	if OfflineUUID("Other") == a {
		t.Fatalf("OfflineUUID collided for different usernames")
	}
}

func TestLoginOffline(t *testing.T) {
	acc := LoginOffline("Player")
	if acc.AccountType != Offline {
		t.Fatalf("AccountType = %v, want Offline", acc.AccountType)
	}
	if acc.AccessToken != "" || acc.RefreshToken != "" {
		t.Fatalf("offline account carries tokens: %+v", acc)
	}
	if acc.UUID == "" {
		t.Fatalf("offline account has empty UUID")
	}
}
