package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
)

// executeCommand runs the command line with args and returns captured stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), VersionInfo{Version: "1.2.3", Commit: "abc", Date: "today"}, args, &out, &errOut)
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

const demoScene = `
shell: {id: main, style: border, text: Demo, size: [24, 5]}
controls:
  - {id: hi, kind: label, parent: main, text: hello, location: [1, 1], size: [10, 1]}
`

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand(VersionInfo{})
	if root.Use != "syncaccess" {
		t.Errorf("Use = %q", root.Use)
	}

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "script", "config", "version"} {
		if !names[want] {
			t.Errorf("missing subcommand %q", want)
		}
	}
	if root.PersistentFlags().Lookup("config").Shorthand != "c" {
		t.Error("--config has no -c shorthand")
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.Contains(out, "syncaccess 1.2.3") || !strings.Contains(out, "Commit: abc") {
		t.Errorf("output = %q", out)
	}
}

func TestConfig_Defaults(t *testing.T) {
	out, err := executeCommand(t, "config", "--defaults")
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	for _, want := range []string{"[dispatcher]", "queueSize = 1024", "[screen]"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfig_FromFile(t *testing.T) {
	path := writeFile(t, "syncaccess.toml", "[screen]\nwidth = 33\n")

	out, err := executeCommand(t, "config", "-c", path)
	if err != nil {
		t.Fatalf("config error = %v", err)
	}
	if !strings.Contains(out, "width = 33") {
		t.Errorf("output = %q", out)
	}
}

func TestConfig_InvalidFile(t *testing.T) {
	path := writeFile(t, "syncaccess.toml", "[screen]\nwidth = -1\n")

	if _, err := executeCommand(t, "config", "-c", path); err == nil {
		t.Error("invalid settings accepted")
	}
}

func TestRun_Headless(t *testing.T) {
	path := writeFile(t, "scene.yaml", demoScene)

	out, err := executeCommand(t, "run", "--headless", path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !strings.Contains(out, `"Demo"`) || !strings.Contains(out, `"hello"`) {
		t.Errorf("tree = %q", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "  ") {
		t.Errorf("tree lines = %q, want the label indented under the shell", lines)
	}
}

func TestRun_JSON(t *testing.T) {
	path := writeFile(t, "scene.yaml", demoScene)

	out, err := executeCommand(t, "run", "--headless", "--json", path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if !gjson.Valid(out) {
		t.Fatalf("output is not JSON:\n%s", out)
	}
	if got := gjson.Get(out, `nodes.#(id=="hi").parent`).String(); got != "main" {
		t.Errorf("hi parent = %q", got)
	}
	if !strings.Contains(out, "\n  ") {
		t.Errorf("JSON not indented:\n%s", out)
	}
}

func TestRun_Query(t *testing.T) {
	path := writeFile(t, "scene.yaml", demoScene)

	out, err := executeCommand(t, "run", "--headless", "--query", `nodes.#(id=="hi").location`, path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	if out != "[1,1]\n" {
		t.Errorf("output = %q", out)
	}

	if _, err := executeCommand(t, "run", "--headless", "--query", "nodes.99.id", path); err == nil {
		t.Error("empty query result accepted")
	}
}

func TestRun_Simulate(t *testing.T) {
	path := writeFile(t, "scene.yaml", demoScene)
	cfg := writeFile(t, "syncaccess.toml", "[screen]\nwidth = 24\nheight = 5\n")

	out, err := executeCommand(t, "run", "--simulate", "--concurrent", "-c", cfg, path)
	if err != nil {
		t.Fatalf("run error = %v", err)
	}
	rows := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5:\n%s", len(rows), out)
	}
	if !strings.Contains(rows[0], "Demo") {
		t.Errorf("title row = %q", rows[0])
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("label not drawn:\n%s", out)
	}
}

func TestRun_Errors(t *testing.T) {
	scenePath := writeFile(t, "scene.yaml", demoScene)
	bad := writeFile(t, "bad.yaml", "shell: {id: main}\ncontrols:\n  - {id: x, kind: slider, parent: main}\n")

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"run", "--headless", filepath.Join(t.TempDir(), "nope.yaml")}},
		{"invalid scene", []string{"run", "--headless", bad}},
		{"exclusive flags", []string{"run", "--headless", "--simulate", scenePath}},
		{"no args", []string{"run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := executeCommand(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestScript_Headless(t *testing.T) {
	path := writeFile(t, "demo.lua", `
shell("main")
control("label", "greeting")
set_text("greeting", "hi")
attach("greeting", "main")
create("main")
create("greeting")
print(text("greeting"), created("greeting"))
`)

	out, err := executeCommand(t, "script", "--headless", "--tree", "main", path)
	if err != nil {
		t.Fatalf("script error = %v", err)
	}
	if !strings.HasPrefix(out, "hi\ttrue\n") {
		t.Errorf("print output = %q", out)
	}
	if !strings.Contains(out, `"hi"`) {
		t.Errorf("tree missing label:\n%s", out)
	}
}

func TestScript_ErrorFails(t *testing.T) {
	path := writeFile(t, "bad.lua", `text("nobody")`)

	_, err := executeCommand(t, "script", "--headless", path)
	if err == nil || !strings.Contains(err.Error(), "unknown node") {
		t.Errorf("script error = %v, want unknown node", err)
	}
}
