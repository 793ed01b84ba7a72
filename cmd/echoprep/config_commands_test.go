package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"echoprep/internal/batch"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "validate"}, target); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestConfigValidateRequireSplit(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Split.Dirs.Test = env.cfg.Split.Dirs.Train
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"config", "validate", "--split"}, env.configPath)
	if code := batch.ExitCode(err); code != batch.ExitConfiguration {
		t.Fatalf("expected exit %d, got %d (%v)", batch.ExitConfiguration, code, err)
	}
}

func TestConfigInvalidFileIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(env.configPath, []byte("[logging]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if code := batch.ExitCode(err); code != batch.ExitConfiguration {
		t.Fatalf("expected exit %d, got %d (%v)", batch.ExitConfiguration, code, err)
	}
}

func TestConfigShowReflectsLogLevelFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"--log-level", "debug", "config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "level = 'debug'") && !strings.Contains(out, `level = "debug"`) {
		t.Fatalf("expected debug level in output:\n%s", out)
	}
	requireContains(t, out, env.cfg.Split.Dirs.Train)
}
