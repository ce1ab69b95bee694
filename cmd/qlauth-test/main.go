// Command qlauth-test debugs the Microsoft device-code login flow.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/pflag"

	"github.com/cobaltforge/launchcore/pkg/auth"
)

var opt struct {
	HAR  string
	Help bool
}

func init() {
	pflag.StringVarP(&opt.HAR, "har", "H", "", "Write requests to a HAR file (use http://www.softwareishard.com/har/viewer/ to view it)")
	pflag.BoolVarP(&opt.Help, "help", "h", false, "Show this help text")
}

func main() {
	pflag.Parse()

	if pflag.NArg() != 0 || opt.Help {
		fmt.Printf("usage: %s [options]\n\noptions:\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if opt.Help {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx := context.Background()
	client := &http.Client{}

	var account auth.AccountData
	run := func(c *http.Client) error {
		da, err := auth.StartDeviceCode(ctx, c)
		if err != nil {
			return fmt.Errorf("start device code: %w", err)
		}
		fmt.Printf("go to %s and enter code %s\n", da.VerificationURI, da.UserCode)

		tok, err := auth.PollDeviceCode(ctx, c, da)
		if err != nil {
			return fmt.Errorf("poll device code: %w", err)
		}

		account, err = auth.CompleteDeviceLogin(ctx, c, tok)
		if err != nil {
			return fmt.Errorf("complete device login: %w", err)
		}
		return nil
	}

	var err error
	if opt.HAR != "" {
		err = auth.CaptureHAR(client, func(write func(w io.Writer) error, runErr error) {
			f, openErr := os.Create(opt.HAR)
			if openErr != nil {
				fmt.Fprintf(os.Stderr, "error: open har file: %v\n", openErr)
				return
			}
			defer f.Close()
			if writeErr := write(f); writeErr != nil {
				fmt.Fprintf(os.Stderr, "error: write har file: %v\n", writeErr)
			}
		}, run)
	} else {
		err = run(client)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Username=%s\n", account.Username)
	fmt.Printf("NiceUsername=%s\n", account.NiceUsername)
	fmt.Printf("UUID=%s\n", account.UUID)
	fmt.Printf("AccessToken=%s\n", account.AccessToken)
	fmt.Printf("RefreshToken=%s\n", account.RefreshToken)
}
