package auth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"
)

// currentTOTP computes the RFC 6238 time-based one-time password for
// secret at the current 30-second step, technique copied from
// pkg/juno/login.go's hotp/totp helpers (EA's SID login second factor),
// adapted to the `password:otp` scheme ElyBy/LittleSkin/BlessingSkin
// expect instead of being appended to a login form field.
func currentTOTP(secret string) (string, error) {
	key, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.ReplaceAll(secret, " ", "")))
	if err != nil {
		return "", fmt.Errorf("auth: parse totp secret: %w", err)
	}
	return hotp(totpCounter(time.Now(), 0), key, 6), nil
}

// totpCounter returns the RFC 6238 time-based counter for hotp.
func totpCounter(t time.Time, step time.Duration) uint64 {
	if t.IsZero() {
		t = time.Now()
	}
	if step == 0 {
		step = 30 * time.Second
	}
	return uint64(math.Floor(float64(t.Unix()) / step.Seconds()))
}

// hotp computes an RFC 4226 one-time password of n digits for counter c
// under key k.
func hotp(c uint64, k []byte, n int) string {
	if n <= 0 {
		n = 6
	}
	h := hmac.New(sha1.New, k)
	binary.Write(h, binary.BigEndian, c)
	dst := h.Sum(nil)

	off := dst[len(dst)-1] & 0xf
	val := int64(((int(dst[off]))&0x7f)<<24 |
		((int(dst[off+1] & 0xff)) << 16) |
		((int(dst[off+2] & 0xff)) << 8) |
		((int(dst[off+3]) & 0xff) << 0))
	return fmt.Sprintf("%0*d", n, val%int64(math.Pow10(n)))
}
