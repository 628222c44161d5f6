package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/brief/internal/config"
)

const commonInfoYAML = `clientName: Иван
clientSurname: Петров
email: ivan@example.com
address: Ленина 5
area: 45
`

type result struct {
	code   int
	stdout string
	stderr string
}

func invoke(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func newProject(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvStorage, config.EnvRedisAddr, config.EnvRedisPassword, config.EnvRedisDB, config.EnvDebounce, config.EnvLogLevel, config.EnvExportDir} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

func TestInitCreatesBriefDir(t *testing.T) {
	dir := newProject(t)
	res := invoke(t, "", "-project", dir, "init")
	if res.code != 0 {
		t.Fatalf("init failed: %s", res.stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, config.BriefDir, "config.yaml")); err != nil {
		t.Fatalf("expected config.yaml: %v", err)
	}
}

func TestSubmitThenStatusPersists(t *testing.T) {
	dir := newProject(t)
	res := invoke(t, commonInfoYAML, "-project", dir, "submit")
	if res.code != 0 {
		t.Fatalf("submit failed: %s", res.stderr)
	}
	if !strings.Contains(res.stdout, "Stage(2)") {
		t.Fatalf("expected position in output, got %q", res.stdout)
	}

	res = invoke(t, "", "-project", dir, "status")
	if res.code != 0 {
		t.Fatalf("status failed: %s", res.stderr)
	}
	if !strings.Contains(res.stdout, "Position: Stage(2) (1/6 answered)") {
		t.Fatalf("unexpected status header:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "common-info") || !strings.Contains(res.stdout, "[submitted]") {
		t.Fatalf("expected submitted common info:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "> 2. residents") {
		t.Fatalf("expected residents to be active:\n%s", res.stdout)
	}
}

func TestSubmitReportsFieldErrors(t *testing.T) {
	dir := newProject(t)
	res := invoke(t, "clientName: Иван\n", "-project", dir, "submit", "-stage", "common-info")
	if res.code != 1 {
		t.Fatalf("expected exit 1, got %d", res.code)
	}
	if !strings.Contains(res.stderr, "email") {
		t.Fatalf("expected field error on stderr, got %q", res.stderr)
	}
}

func TestSubmitFromFile(t *testing.T) {
	dir := newProject(t)
	answers := filepath.Join(t.TempDir(), "common.yaml")
	if err := os.WriteFile(answers, []byte(commonInfoYAML), 0o644); err != nil {
		t.Fatalf("write answers: %v", err)
	}
	res := invoke(t, "", "-project", dir, "submit", "-file", answers)
	if res.code != 0 {
		t.Fatalf("submit failed: %s", res.stderr)
	}
}

func TestExportToPath(t *testing.T) {
	dir := newProject(t)
	if res := invoke(t, commonInfoYAML, "-project", dir, "submit"); res.code != 0 {
		t.Fatalf("submit failed: %s", res.stderr)
	}
	out := filepath.Join(t.TempDir(), "brief.json")
	res := invoke(t, "", "-project", dir, "export", "-format", "json", "-out", out)
	if res.code != 0 {
		t.Fatalf("export failed: %s", res.stderr)
	}
	if strings.TrimSpace(res.stdout) != out {
		t.Fatalf("expected path %s, got %q", out, res.stdout)
	}
	if !strings.Contains(res.stderr, "1 of 6 stages answered") {
		t.Fatalf("expected incomplete warning, got %q", res.stderr)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "Петров") {
		t.Fatalf("expected client surname in export")
	}

	res = invoke(t, "", "-project", dir, "export", "-format", "pdf")
	if res.code != 1 {
		t.Fatalf("expected unknown format to fail, got %d", res.code)
	}
}

func TestResetNeedsConfirmation(t *testing.T) {
	dir := newProject(t)
	if res := invoke(t, commonInfoYAML, "-project", dir, "submit"); res.code != 0 {
		t.Fatalf("submit failed: %s", res.stderr)
	}
	if res := invoke(t, "", "-project", dir, "reset"); res.code != 1 {
		t.Fatalf("reset without -yes must fail, got %d", res.code)
	}
	if res := invoke(t, "", "-project", dir, "reset", "-yes"); res.code != 0 {
		t.Fatalf("reset failed: %s", res.stderr)
	}
	res := invoke(t, "", "-project", dir, "status")
	if !strings.Contains(res.stdout, "Position: Stage(1) (0/6 answered)") {
		t.Fatalf("expected fresh questionnaire:\n%s", res.stdout)
	}
}

func TestSuggestFiltersSelected(t *testing.T) {
	res := invoke(t, "", "suggest", "-name", "Кухня", "-selected", "Холодильник")
	if res.code != 0 {
		t.Fatalf("suggest failed: %s", res.stderr)
	}
	if !strings.Contains(res.stdout, "Group: kitchen") {
		t.Fatalf("expected kitchen group:\n%s", res.stdout)
	}
	if strings.Contains(res.stdout, "Холодильник") {
		t.Fatalf("selected item must be filtered:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "- Духовой шкаф (Кухня)") {
		t.Fatalf("expected oven suggestion:\n%s", res.stdout)
	}

	if res := invoke(t, "", "suggest", "-name", "X", "-type", "garage"); res.code != 1 {
		t.Fatalf("unknown room type must fail, got %d", res.code)
	}
}

func TestUnknownCommand(t *testing.T) {
	dir := newProject(t)
	res := invoke(t, "", "-project", dir, "frobnicate")
	if res.code != 2 || !strings.Contains(res.stderr, "usage:") {
		t.Fatalf("expected usage with exit 2, got %d %q", res.code, res.stderr)
	}
}
