package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jo-hoe/cartoonize/internal/backend/database"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`logLevel: error
uploadDir: %q
database:
  type: sqlite
  connectionString: %q
`, filepath.Join(dir, "uploads"), filepath.Join(dir, "users.db"))

	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Cleanup(func() { configPathFlag = "" })
	return configPath
}

func runCLI(args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserAdd(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI("useradd", "alice", "--password", "secret123", "--config", configPath)
	if err != nil {
		t.Fatalf("useradd failed: %v", err)
	}
	if !strings.Contains(out, "added user alice") {
		t.Errorf("unexpected output %q", out)
	}

	_, err = runCLI("useradd", "alice", "--password", "other", "--config", configPath)
	if !errors.Is(err, database.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken for duplicate, got %v", err)
	}
}

func TestUserAdd_PasswordFromEnv(t *testing.T) {
	configPath := writeTestConfig(t)
	t.Setenv(passwordEnv, "from-env")

	if _, err := runCLI("useradd", "bob", "--config", configPath); err != nil {
		t.Fatalf("useradd failed: %v", err)
	}
}

func TestUserAdd_RequiresPassword(t *testing.T) {
	configPath := writeTestConfig(t)
	t.Setenv(passwordEnv, "")

	if _, err := runCLI("useradd", "carol", "--config", configPath); err == nil {
		t.Fatal("expected error without password")
	}
	if _, err := runCLI("useradd", "--config", configPath); err == nil {
		t.Fatal("expected error without username")
	}
}

func TestNewLogger(t *testing.T) {
	if _, err := newLogger("json", "debug"); err != nil {
		t.Errorf("json logger: %v", err)
	}
	if _, err := newLogger("text", "warn"); err != nil {
		t.Errorf("text logger: %v", err)
	}
	if _, err := newLogger("text", "verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Cleanup(func() { configPathFlag = "" })

	t.Setenv("CONFIG_PATH", "/etc/cartoonize/config.yaml")
	if got := getConfigPath(); got != "/etc/cartoonize/config.yaml" {
		t.Errorf("expected CONFIG_PATH, got %q", got)
	}

	configPathFlag = "/tmp/flag.yaml"
	if got := getConfigPath(); got != "/tmp/flag.yaml" {
		t.Errorf("expected flag to win, got %q", got)
	}
}
