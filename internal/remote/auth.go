package remote

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drivev3 "google.golang.org/api/drive/v3"
)

// LoadOAuthConfig reads the OAuth client secret JSON downloaded from the
// API console and builds an oauth2 config with the full drive scope.
func LoadOAuthConfig(clientSecretPath string) (*oauth2.Config, error) {
	data, err := os.ReadFile(clientSecretPath)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, drivev3.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file: %w", err)
	}
	return cfg, nil
}

// Authorize runs the out-of-band OAuth consent flow: print the consent URL,
// read the resulting authorization code from input, and exchange it for a
// token. Returns the serialized token blob for the credential store.
func Authorize(ctx context.Context, oauth *oauth2.Config, in io.Reader, out io.Writer) (json.RawMessage, error) {
	// The state nonce guards against pasted-URL mixups; with a manual
	// copy/paste flow there is no redirect to verify it against, but the
	// URL still requires it.
	state := uuid.NewString()
	url := oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Fprintf(out, "Open the following URL in your browser and grant access:\n\n  %s\n\n", url)
	fmt.Fprint(out, "Paste the authorization code here: ")

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("no authorization code provided")
	}

	token, err := oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	blob, err := json.Marshal(token)
	if err != nil {
		return nil, fmt.Errorf("encoding token: %w", err)
	}
	return blob, nil
}
