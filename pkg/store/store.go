// Package store implements the encrypted token store: a password-unlocked,
// file-backed alternative to the OS keyring used to persist per-username
// refresh/access tokens between launcher sessions.
package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, fixed by the format.
const (
	argonMemoryKiB  = 65536
	argonIterations = 3
	argonThreads    = 4
	argonKeyLen     = 32

	saltSize  = 16
	nonceSize = 12

	fileVersion = 1
)

// verificationPlaintext is encrypted at init and at every save; a failed
// decrypt of this blob on unlock means the password was wrong.
const verificationPlaintext = "QuantumLauncher_PasswordVerification_v1"

var (
	// ErrNotUnlocked is returned by any token operation performed before
	// unlock or initialize has populated the session cache.
	ErrNotUnlocked = errors.New("store: not unlocked")
	// ErrInvalidPassword is returned by unlock/change_password when the
	// verification blob fails to decrypt or does not match.
	ErrInvalidPassword = errors.New("store: invalid password")
	// ErrTokenNotFound is returned by Read when username has no entry.
	ErrTokenNotFound = errors.New("store: token not found")
	// ErrAlreadyExists is returned by Initialize when the file already
	// exists; the shell decides whether to overwrite.
	ErrAlreadyExists = errors.New("store: file already exists")
)

// encryptedToken is the on-disk shape of one ciphertext: a random nonce and
// the AES-GCM sealed output (ciphertext with the tag appended).
type encryptedToken struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// fileFormat is the on-disk JSON shape of the encrypted tokens file.
type fileFormat struct {
	Version      uint32                    `json:"version"`
	Salt         string                    `json:"salt"`
	Verification encryptedToken            `json:"verification"`
	Tokens       map[string]encryptedToken `json:"tokens"`
}

// session holds the password-derived key and decrypted tokens for as long as
// the store stays unlocked.
type session struct {
	key    []byte
	salt   []byte
	tokens map[string]string
}

// Store is the encrypted, file-backed token store described in §4.1. A
// single reader-writer lock guards the in-memory session cache; disk is the
// source of truth only between sessions, matching the source's
// TOKEN_CACHE/RwLock split.
type Store struct {
	path string

	mu   sync.RWMutex
	sess *session
}

// New returns a Store rooted at path. The file is not read until Initialize
// or Unlock is called.
func New(path string) *Store {
	return &Store{path: path}
}

// Exists reports whether the backing file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// IsUnlocked reports whether the session cache is currently populated.
func (s *Store) IsUnlocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess != nil
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonIterations, argonMemoryKiB, argonThreads, argonKeyLen)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("store: new cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("store: random bytes: %w", err)
	}
	return b, nil
}

func sealString(gcm cipher.AEAD, plaintext string) (encryptedToken, error) {
	nonce, err := randomBytes(nonceSize)
	if err != nil {
		return encryptedToken{}, err
	}
	ct := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	return encryptedToken{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}, nil
}

func openString(gcm cipher.AEAD, tok encryptedToken) (string, error) {
	nonce, err := base64.StdEncoding.DecodeString(tok.Nonce)
	if err != nil {
		return "", fmt.Errorf("store: decode nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(tok.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("store: decode ciphertext: %w", err)
	}
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidPassword
	}
	return string(pt), nil
}

// Initialize creates a new, empty store file encrypted under password and
// unlocks the session with it. Returns ErrAlreadyExists if the file is
// already present; the shell decides whether to overwrite by calling
// os.Remove first.
func (s *Store) Initialize(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Exists() {
		return ErrAlreadyExists
	}

	salt, err := randomBytes(saltSize)
	if err != nil {
		return err
	}
	key := deriveKey(password, salt)

	sess := &session{key: key, salt: salt, tokens: map[string]string{}}
	if err := s.writeLocked(sess); err != nil {
		return err
	}
	s.sess = sess
	return nil
}

// Unlock reads the store file, verifies password against the verification
// blob, and populates the session cache with the decrypted tokens.
func (s *Store) Unlock(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("store: read file: %w", err)
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("store: parse file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return fmt.Errorf("store: decode salt: %w", err)
	}
	key := deriveKey(password, salt)

	gcm, err := newAEAD(key)
	if err != nil {
		return err
	}

	verified, err := openString(gcm, f.Verification)
	if err != nil {
		return ErrInvalidPassword
	}
	if verified != verificationPlaintext {
		return ErrInvalidPassword
	}

	tokens := make(map[string]string, len(f.Tokens))
	for username, tok := range f.Tokens {
		pt, err := openString(gcm, tok)
		if err != nil {
			return ErrInvalidPassword
		}
		tokens[username] = pt
	}

	s.sess = &session{key: key, salt: salt, tokens: tokens}
	return nil
}

// Lock clears the in-memory session. It never fails.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sess = nil
}

// Store adds or replaces the token for username and rewrites the file.
func (s *Store) Store(username, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return ErrNotUnlocked
	}
	s.sess.tokens[username] = token
	return s.writeLocked(s.sess)
}

// Read returns the cleartext token for username from the session cache.
func (s *Store) Read(username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return "", ErrNotUnlocked
	}
	tok, ok := s.sess.tokens[username]
	if !ok {
		return "", ErrTokenNotFound
	}
	return tok, nil
}

// Delete removes username's token and rewrites the file.
func (s *Store) Delete(username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		return ErrNotUnlocked
	}
	delete(s.sess.tokens, username)
	return s.writeLocked(s.sess)
}

// List returns all usernames currently stored, for migration purposes.
func (s *Store) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, ErrNotUnlocked
	}
	out := make([]string, 0, len(s.sess.tokens))
	for username := range s.sess.tokens {
		out = append(out, username)
	}
	return out, nil
}

// ChangePassword re-encrypts every token under a freshly generated salt and
// key derived from newPassword. If the store is not already unlocked, it
// first unlocks with old.
func (s *Store) ChangePassword(old, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sess == nil {
		if err := s.unlockLocked(old); err != nil {
			return err
		}
	}

	salt, err := randomBytes(saltSize)
	if err != nil {
		return err
	}
	key := deriveKey(newPassword, salt)

	newSess := &session{key: key, salt: salt, tokens: s.sess.tokens}
	if err := s.writeLocked(newSess); err != nil {
		return err
	}
	s.sess = newSess
	return nil
}

// unlockLocked is Unlock's body, callable while s.mu is already held for
// writing (used by ChangePassword).
func (s *Store) unlockLocked(password string) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("store: read file: %w", err)
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("store: parse file: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return fmt.Errorf("store: decode salt: %w", err)
	}
	key := deriveKey(password, salt)
	gcm, err := newAEAD(key)
	if err != nil {
		return err
	}
	verified, err := openString(gcm, f.Verification)
	if err != nil || verified != verificationPlaintext {
		return ErrInvalidPassword
	}
	tokens := make(map[string]string, len(f.Tokens))
	for username, tok := range f.Tokens {
		pt, err := openString(gcm, tok)
		if err != nil {
			return ErrInvalidPassword
		}
		tokens[username] = pt
	}
	s.sess = &session{key: key, salt: salt, tokens: tokens}
	return nil
}

// MigrateFromKeyring initializes the file if absent (or unlocks it if
// present) under password, then stores every (username, token) pair.
func (s *Store) MigrateFromKeyring(password string, tokens map[string]string) error {
	if !s.Exists() {
		if err := s.Initialize(password); err != nil {
			return err
		}
	} else {
		s.mu.Lock()
		needUnlock := s.sess == nil
		s.mu.Unlock()
		if needUnlock {
			if err := s.Unlock(password); err != nil {
				return err
			}
		}
	}
	for username, token := range tokens {
		if err := s.Store(username, token); err != nil {
			return err
		}
	}
	return nil
}

// ExportAll returns every (username, token) pair in the session cache, for
// migrating back to an OS keyring. Not present in spec.md's operation table
// (dropped by the distillation); kept from the original's export_for_keyring.
func (s *Store) ExportAll() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.sess == nil {
		return nil, ErrNotUnlocked
	}
	out := make(map[string]string, len(s.sess.tokens))
	for username, token := range s.sess.tokens {
		out[username] = token
	}
	return out, nil
}

// DeleteFile removes the backing file entirely and locks the session. Use
// when migrating away from encrypted file storage.
func (s *Store) DeleteFile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: delete file: %w", err)
	}
	s.sess = nil
	return nil
}

// writeLocked encrypts sess's tokens and a fresh verification blob, then
// writes the complete file atomically (temp file + rename). Callers must
// hold s.mu for writing.
func (s *Store) writeLocked(sess *session) error {
	gcm, err := newAEAD(sess.key)
	if err != nil {
		return err
	}

	verification, err := sealString(gcm, verificationPlaintext)
	if err != nil {
		return err
	}

	tokens := make(map[string]encryptedToken, len(sess.tokens))
	for username, token := range sess.tokens {
		enc, err := sealString(gcm, token)
		if err != nil {
			return err
		}
		tokens[username] = enc
	}

	f := fileFormat{
		Version:      fileVersion,
		Salt:         base64.StdEncoding.EncodeToString(sess.salt),
		Verification: verification,
		Tokens:       tokens,
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("store: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".encrypted_tokens-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("store: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("store: rename temp file: %w", err)
	}
	return nil
}
