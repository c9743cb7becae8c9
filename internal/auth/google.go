package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"fintrack/internal/core"
)

// GoogleAuthenticator runs the OAuth web flow against Google and resolves
// the signed-in profile.
type GoogleAuthenticator struct {
	cfg *oauth2.Config
}

func NewGoogleAuthenticator(clientID, clientSecret, redirectURL string) *GoogleAuthenticator {
	return &GoogleAuthenticator{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// AuthURL returns the consent page URL carrying state.
func (g *GoogleAuthenticator) AuthURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the Google profile. The returned
// user is keyed by the Google subject id.
func (g *GoogleAuthenticator) Exchange(ctx context.Context, code string) (core.User, error) {
	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return core.User{}, fmt.Errorf("token exchange: %w", err)
	}

	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(g.cfg.TokenSource(ctx, tok)))
	if err != nil {
		return core.User{}, fmt.Errorf("create oauth2 service: %w", err)
	}

	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return core.User{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	if info.Id == "" || info.Email == "" {
		return core.User{}, fmt.Errorf("incomplete userinfo response")
	}

	return core.User{
		ID:      "google:" + info.Id,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}
