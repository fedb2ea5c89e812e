package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/subcommands"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/sheets/v4"
)

type oauthCmd struct {
	port string
	out  string
}

func (*oauthCmd) Name() string     { return "oauth" }
func (*oauthCmd) Synopsis() string { return "mint the Google OAuth token used by the sheet mirror" }
func (*oauthCmd) Usage() string {
	return `lendbook-admin oauth [-port <port>] [-out <file>]

  Runs the browser authorization flow against the OAuth client in
  GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE and saves the
  token. The client must list http://localhost:<port>/callback among
  its authorized redirect URIs.
`
}

func (c *oauthCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "8085", "Local port for the OAuth redirect")
	f.StringVar(&c.out, "out", "", "Token output file (defaults to GOOGLE_OAUTH_TOKEN_FILE or token.json)")
}

func (c *oauthCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, err := oauthClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	cfg.RedirectURL = "http://localhost:" + c.port + "/callback"

	codeCh := make(chan string, 1)
	mux := http.NewServeMux()
	srv := &http.Server{Addr: ":" + c.port, Handler: mux}
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		codeCh <- code
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()
	defer srv.Close()

	url := cfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL to authorize:\n%s\n", url)

	select {
	case code := <-codeCh:
		tok, err := cfg.Exchange(ctx, code)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: token exchange: %v\n", err)
			return subcommands.ExitFailure
		}
		outFile := c.out
		if outFile == "" {
			outFile = os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")
		}
		if outFile == "" {
			outFile = "token.json"
		}
		if err := saveToken(outFile, tok); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Saved token to %s\n", outFile)
		return subcommands.ExitSuccess
	case <-time.After(5 * time.Minute):
		fmt.Fprintln(os.Stderr, "Error: authorization timed out")
		return subcommands.ExitFailure
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "Error: interrupted")
		return subcommands.ExitFailure
	}
}

// oauthClientConfig loads the OAuth client from the environment, inline
// JSON taking precedence over a file path.
func oauthClientConfig() (*oauth2.Config, error) {
	var raw []byte
	switch {
	case os.Getenv("GOOGLE_OAUTH_CLIENT_JSON") != "":
		raw = []byte(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON"))
	case os.Getenv("GOOGLE_OAUTH_CLIENT_FILE") != "":
		var err error
		raw, err = os.ReadFile(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE"))
		if err != nil {
			return nil, fmt.Errorf("read client file: %w", err)
		}
	default:
		return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	cfg, err := google.ConfigFromJSON(raw, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}
