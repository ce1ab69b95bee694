package auth

// LoginOffline creates an Offline AccountData for username, with no tokens
// required and a deterministic UUID derived the same way vanilla Minecraft
// derives its offline-mode player UUIDs, per §4.2's StartOffline branch.
func LoginOffline(username string) AccountData {
	return AccountData{
		Username:     username,
		NiceUsername: username,
		UUID:         OfflineUUID(username),
		AccountType:  Offline,
	}
}
