package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "lendbook/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ports.RowWriter = (*Client)(nil)
	_ ports.RowReader = (*Client)(nil)
)

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional: GOOGLE_SHEET_NAME (default "Ledger").
// Auth uses a service account when one is configured
// (GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS) and otherwise falls back to an OAuth
// client plus stored token (GOOGLE_OAUTH_CLIENT_JSON/_FILE with
// GOOGLE_OAUTH_TOKEN_JSON/_FILE, the pair written by the admin oauth
// command).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Ledger"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if creds, ok := serviceAccountCredentials(ctx); ok {
		slog.InfoContext(ctx, "Creating Google Sheets service with service account",
			"credentials_size", len(creds))
		service, err := gsheet.NewService(ctx,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
		if err != nil {
			return nil, fmt.Errorf("create sheets service: %w", err)
		}
		return service, nil
	}

	httpClient, err := oauthHTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with OAuth token")
	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials(ctx context.Context) ([]byte, bool) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), true
	}

	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, false
	}

	creds, err := os.ReadFile(file)
	if err != nil {
		slog.WarnContext(ctx, "Failed to read service account file, trying OAuth",
			"path", file,
			"error", err)
		return nil, false
	}
	return creds, true
}

// oauthHTTPClient builds an HTTP client from the OAuth client config and
// the token minted by the admin oauth command. The oauth2 transport
// refreshes the token automatically when it expires.
func oauthHTTPClient(ctx context.Context) (*http.Client, error) {
	clientJSON, err := readCredential("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	cfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}

	tokenJSON, err := readCredential("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	return cfg.Client(ctx, &token), nil
}

// readCredential returns the inline variable when set, otherwise the
// contents of the file variable.
func readCredential(inlineVar, fileVar string) ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv(inlineVar)); inline != "" {
		return []byte(inline), nil
	}
	if path := strings.TrimSpace(os.Getenv(fileVar)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing credentials (set %s or %s)", inlineVar, fileVar)
}

// ReplaceRows clears the mirror sheet and writes header plus rows from
// A1. Values are written raw so ROC dates and ticket strings stay
// literal text.
func (c *Client) ReplaceRows(ctx context.Context, header []string, rows [][]string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	clearRange := fmt.Sprintf("%s!A:Z", c.sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, toAny(header))
	for _, row := range rows {
		values = append(values, toAny(row))
	}

	writeRange := fmt.Sprintf("%s!A1", c.sheetName)
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}

	slog.InfoContext(ctx, "Replaced mirror sheet contents",
		"sheet", c.sheetName,
		"rows", len(rows))

	return nil
}

// ReadRows returns the header row and every data row of the mirror
// sheet. An empty sheet yields nil header and rows.
func (c *Client) ReadRows(ctx context.Context) ([]string, [][]string, error) {
	if c.svc == nil {
		return nil, nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:Z", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil
	}

	header := toStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, row := range resp.Values[1:] {
		rows = append(rows, toStrings(row))
	}
	return header, rows, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
