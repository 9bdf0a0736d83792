package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/shiksha-ai/server/internal/auth"
	"github.com/shiksha-ai/server/internal/config"
)

// mockEnv selects in-process providers and in-memory storage.
func mockEnv(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"APP_ENV":             "development",
		"LLM_PROVIDER":        "mock",
		"SPEECH_PROVIDER":     "mock",
		"OCR_PROVIDER":        "mock",
		"JWT_SECRET":          "test-secret",
		"MONGODB_URI":         "",
		"DATABASE_URL":        "",
		"ELEVEN_LABS_API_KEY": "",
		"EXPORT_FONT_PATH":    "",
	} {
		t.Setenv(key, value)
	}
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestTokenCommand(t *testing.T) {
	mockEnv(t)

	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"token", "--user", "student-7"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token command failed: %v", err)
	}

	tokens, err := auth.NewManager("test-secret", 0)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := tokens.ValidateToken(strings.TrimSpace(stdout.String()))
	if err != nil {
		t.Fatalf("printed token is invalid: %v", err)
	}
	if claims.UserID != "student-7" {
		t.Errorf("UserID = %q, want student-7", claims.UserID)
	}
}

func TestTokenCommandRequiresUser(t *testing.T) {
	mockEnv(t)

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"token"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error without --user")
	}
}

func TestNewAppWithMockProviders(t *testing.T) {
	mockEnv(t)

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load failed: %v", err)
	}
	app, err := newApp(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("newApp failed: %v", err)
	}
	defer app.Close()

	found := false
	for _, r := range app.echo.Routes() {
		if r.Path == "/api/chat/ws" {
			found = true
		}
	}
	if !found {
		t.Error("chat stream route not registered")
	}
}
