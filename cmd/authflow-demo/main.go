package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/tesseral-labs/authflow/pkg/accesstoken"
	"github.com/tesseral-labs/authflow/pkg/authapi"
	"github.com/tesseral-labs/authflow/pkg/config"
	"github.com/tesseral-labs/authflow/pkg/fakeidm"
	"github.com/tesseral-labs/authflow/pkg/flow"
	"github.com/tesseral-labs/authflow/pkg/tokenstore"
)

// The demo boots the fake identity backend in-process, seeds an organization
// that requires a password, and walks a full email login end to end: submit
// email, verify the challenge code, choose the organization, verify the
// password, exchange for a session, and finally refresh the access token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	var challengeCode string
	idm := fakeidm.NewServer("demo-signing-secret",
		fakeidm.WithProject("project_demo", "Authflow Demo"),
		fakeidm.WithChallengeHook(func(email, code string) {
			slog.Info("verification code issued", "email", email, "code", code)
			challengeCode = code
		}),
	)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		slog.Error("failed to listen", "err", err)
		os.Exit(1)
	}
	backend := &http.Server{Handler: idm.Handler()}
	go func() {
		if err := backend.Serve(listener); err != nil && err != http.ErrServerClosed {
			slog.Error("backend server stopped", "err", err)
		}
	}()
	defer backend.Close()
	backendURL := "http://" + listener.Addr().String()
	slog.Info("fake identity backend listening", "url", backendURL)

	org := idm.SeedOrganization(fakeidm.Organization{
		DisplayName:       "Demo Corp",
		LogInWithEmail:    true,
		LogInWithPassword: true,
	})
	if _, err := idm.SeedUser(fakeidm.User{
		OrganizationID: org.ID,
		Email:          "founder@democorp.test",
		DisplayName:    "Demo Founder",
	}, "demo-password"); err != nil {
		slog.Error("failed to seed user", "err", err)
		os.Exit(1)
	}

	var store tokenstore.Store
	if cfg.Token.Dir != "" {
		store, err = tokenstore.NewFileStore(cfg.Token.Dir)
		if err != nil {
			slog.Error("failed to open token store", "dir", cfg.Token.Dir, "err", err)
			os.Exit(1)
		}
	} else {
		store = tokenstore.NewInMemStore()
	}

	client := authapi.NewClient(backendURL, store,
		authapi.WithHTTPClient(&http.Client{Timeout: cfg.Backend.HTTPTimeout}))
	service := flow.NewService(client, store)

	ctx := context.Background()
	step, err := service.Start(ctx)
	must(err, "start login")
	slog.Info("login started", "step", step)

	step, err = service.SubmitEmail(ctx, "founder@democorp.test")
	must(err, "submit email")
	slog.Info("email submitted", "step", step)

	step, err = service.VerifyEmailCode(ctx, challengeCode)
	must(err, "verify email code")
	slog.Info("email verified", "step", step)

	step, err = service.ChooseOrganization(ctx, org.ID)
	must(err, "choose organization")
	slog.Info("organization chosen", "step", step)

	step, err = service.VerifyPassword(ctx, "demo-password")
	must(err, "verify password")
	slog.Info("password verified", "step", step)

	must(service.Finish(ctx), "finish login")

	token, ok := store.GetAccessToken()
	if !ok {
		slog.Error("no access token after login")
		os.Exit(1)
	}
	claims, err := accesstoken.ParseClaims(token)
	must(err, "parse access token claims")
	slog.Info("logged in",
		"user_id", claims.User.ID,
		"email", claims.User.Email,
		"organization", claims.Organization.DisplayName,
		"project", claims.Project.DisplayName,
		"expires_at", claims.ExpiresAt().Format(time.RFC3339),
	)

	// Drop the access token and let the refresher mint a new one from the
	// refresh token.
	must(store.SetAccessToken(""), "clear access token")
	refresher := tokenstore.NewRefresher(store, service.RefreshAccessToken,
		tokenstore.WithRefreshSkew(cfg.Token.RefreshSkew))
	if _, ok := refresher.AccessToken(ctx); !ok {
		slog.Info("refresh in flight, waiting for the store notification")
	}
	waitForToken(store)

	refreshed, _ := store.GetAccessToken()
	claims, err = accesstoken.ParseClaims(refreshed)
	must(err, "parse refreshed claims")
	slog.Info("access token refreshed", "expires_at", claims.ExpiresAt().Format(time.RFC3339))
}

func waitForToken(store tokenstore.Store) {
	done := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func() {
		if token, ok := store.GetAccessToken(); ok && token != "" {
			select {
			case done <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if token, ok := store.GetAccessToken(); ok && token != "" {
		return
	}
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		slog.Error("timed out waiting for refreshed access token")
		os.Exit(1)
	}
}

func must(err error, what string) {
	if err != nil {
		slog.Error("demo failed", "op", what, "err", err)
		os.Exit(1)
	}
}
