package auth

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cardigann/harhar"
)

// CaptureHAR wraps client's transport with a HAR recorder for the duration
// of fn, then hands the recorded archive to save. Ported from
// origin.AuthMgr's SaveHAR hook: a debugging aid that captures every HTTP
// request/response made during one login or refresh attempt, for
// troubleshooting provider-side failures without reproducing them live.
func CaptureHAR(client *http.Client, save func(write func(w io.Writer) error, err error), fn func(*http.Client) error) error {
	rec := harhar.NewRecorder()
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	rec.RoundTripper = base

	traced := &http.Client{
		Transport:     rec,
		CheckRedirect: client.CheckRedirect,
		Jar:           client.Jar,
		Timeout:       client.Timeout,
	}

	err := fn(traced)
	if save != nil {
		save(func(w io.Writer) error {
			return json.NewEncoder(w).Encode(rec.HAR)
		}, err)
	}
	return err
}
