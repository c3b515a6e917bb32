package commands

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"jokebot/internal/config"
)

func TestRootCommands(t *testing.T) {
	var names []string
	for _, c := range NewRootCmd().Commands() {
		names = append(names, c.Name())
	}
	sort.Strings(names)

	for _, want := range []string{"detect", "serve"} {
		i := sort.SearchStrings(names, want)
		if i == len(names) || names[i] != want {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestDetectRequiresText(t *testing.T) {
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"detect"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error without query text")
	}
}

func TestBuildServer(t *testing.T) {
	cfg := config.Config{JokeAPIURL: "http://127.0.0.1:1"}

	srv, cleanup, err := buildServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildServer() error = %v", err)
	}
	defer cleanup()

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestBuildServerDefaultsAcceptUnauthenticatedWebhook(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, k := range []string{"WEBHOOK_AUTH", "TOKEN_FILE", "INTENTS_FILE", "VOICE_ENABLED"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	srv, cleanup, err := buildServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildServer() without token.secret error = %v", err)
	}
	defer cleanup()

	body := `{"queryResult":{"intent":{"displayName":"HelloWorld"}}}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestBuildServerMissingToken(t *testing.T) {
	cfg := config.Config{
		WebhookAuth: true,
		TokenFile:   filepath.Join(t.TempDir(), "token.secret"),
	}
	if _, _, err := buildServer(context.Background(), cfg); err == nil {
		t.Fatal("expected startup error for missing token file")
	}
}

func TestBuildServerWithToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.secret")
	if err := os.WriteFile(path, []byte("s3cret\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := config.Config{WebhookAuth: true, TokenFile: path, WebhookUser: "dialogflow"}

	srv, cleanup, err := buildServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("buildServer() error = %v", err)
	}
	defer cleanup()

	resp, err := srv.App().Test(httptest.NewRequest(http.MethodPost, "/", nil))
	if err != nil {
		t.Fatalf("Test() error = %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBuildServerBadIntentsFile(t *testing.T) {
	cfg := config.Config{IntentsFile: filepath.Join(t.TempDir(), "missing.yaml")}
	if _, _, err := buildServer(context.Background(), cfg); err == nil {
		t.Fatal("expected startup error for missing intents file")
	}
}

func TestClientOptions(t *testing.T) {
	if got := clientOptions(config.Config{}); got != nil {
		t.Errorf("clientOptions() = %v, want nil", got)
	}
	if got := clientOptions(config.Config{DialogflowCredentials: "creds.json"}); len(got) != 1 {
		t.Errorf("clientOptions() = %v, want one credentials option", got)
	}
}
