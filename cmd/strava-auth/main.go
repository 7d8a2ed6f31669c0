// strava-auth performs the one-time OAuth authorization-code exchange
// and seeds the stored Strava credentials. Run it locally, open the
// printed URL, approve access, then paste the code query param back.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/stridelog/server/pkg/bootstrap"
	"github.com/stridelog/server/pkg/types"
)

func main() {
	clientID := flag.String("client-id", os.Getenv("STRAVA_CLIENT_ID"), "Strava application client ID")
	clientSecret := flag.String("client-secret", os.Getenv("STRAVA_CLIENT_SECRET"), "Strava application client secret")
	redirectURL := flag.String("redirect-url", "http://localhost/exchange_token", "registered redirect URL")
	flag.Parse()

	if *clientID == "" || *clientSecret == "" {
		fmt.Fprintln(os.Stderr, "client-id and client-secret are required (flags or STRAVA_CLIENT_ID/STRAVA_CLIENT_SECRET)")
		os.Exit(1)
	}

	conf := &oauth2.Config{
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		RedirectURL:  *redirectURL,
		Scopes:       []string{"activity:read_all"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://www.strava.com/oauth/authorize",
			TokenURL: "https://www.strava.com/oauth/token",
		},
	}

	fmt.Println("Open this URL in a browser and approve access:")
	fmt.Println()
	fmt.Println(conf.AuthCodeURL("", oauth2.SetAuthURLParam("approval_prompt", "force")))
	fmt.Println()
	fmt.Print("Paste the value of the 'code' query parameter here: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "read code:", err)
		os.Exit(1)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		fmt.Fprintln(os.Stderr, "no code provided")
		os.Exit(1)
	}

	ctx := context.Background()
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		fmt.Fprintln(os.Stderr, "code exchange failed:", err)
		os.Exit(1)
	}

	svc, err := bootstrap.NewService(ctx)
	if err != nil {
		slog.Error("Service init failed", "error", err)
		os.Exit(1)
	}

	err = svc.DB.UpdateCredentials(ctx, types.SourceStrava, map[string]interface{}{
		"source":        string(types.SourceStrava),
		"access_token":  token.AccessToken,
		"refresh_token": token.RefreshToken,
		"expires_at":    token.Expiry.UTC(),
		"updated_at":    time.Now().UTC(),
	})
	if err != nil {
		slog.Error("Failed to store credentials", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Stored Strava credentials (access token valid until %s)\n", token.Expiry.UTC().Format(time.RFC3339))
}
