package framework

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
		want  Framework
	}{
		{
			"vitest wins over jest in devDependencies",
			func(t *testing.T, root string) {
				writeFile(t, root, "package.json",
					`{"devDependencies": {"vitest": "^1.0.0", "jest": "^29.0.0"}}`)
			},
			Vitest,
		},
		{
			"jest from devDependencies",
			func(t *testing.T, root string) {
				writeFile(t, root, "package.json", `{"devDependencies": {"jest": "^29.0.0"}}`)
			},
			Jest,
		},
		{
			"mocha from dependencies",
			func(t *testing.T, root string) {
				writeFile(t, root, "package.json", `{"dependencies": {"mocha": "^10.0.0"}}`)
			},
			Mocha,
		},
		{
			"js project with no test dep defaults to jest",
			func(t *testing.T, root string) {
				writeFile(t, root, "package.json", `{"dependencies": {"express": "^4.0.0"}}`)
			},
			Jest,
		},
		{
			"mocharc yaml",
			func(t *testing.T, root string) {
				writeFile(t, root, ".mocharc.yml", "spec: test/**/*.spec.js\ntimeout: 5000\n")
			},
			Mocha,
		},
		{
			"pytest from pyproject ini_options",
			func(t *testing.T, root string) {
				writeFile(t, root, "pyproject.toml",
					"[tool.pytest.ini_options]\ntestpaths = [\"tests\"]\n")
			},
			Pytest,
		},
		{
			"pytest from pytest.ini",
			func(t *testing.T, root string) {
				writeFile(t, root, "pytest.ini", "[pytest]\n")
			},
			Pytest,
		},
		{
			"go module",
			func(t *testing.T, root string) {
				writeFile(t, root, "go.mod", "module example.com/x\n\ngo 1.24\n")
			},
			GoTest,
		},
		{
			"maven project",
			func(t *testing.T, root string) {
				writeFile(t, root, "pom.xml", "<project></project>")
			},
			JUnit,
		},
		{
			"empty directory defaults to jest",
			func(t *testing.T, root string) {},
			Jest,
		},
		{
			"package.json outranks go.mod",
			func(t *testing.T, root string) {
				writeFile(t, root, "package.json", `{"devDependencies": {"mocha": "1"}}`)
				writeFile(t, root, "go.mod", "module example.com/x\n")
			},
			Mocha,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(t, root)
			if got := Detect(root); got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectIsTotal(t *testing.T) {
	// Detection on a nonexistent directory still yields a framework.
	if got := Detect(filepath.Join(t.TempDir(), "missing")); got != Jest {
		t.Errorf("Detect(missing) = %s, want %s", got, Jest)
	}
}

func TestParse(t *testing.T) {
	for _, f := range All() {
		got, ok := Parse(string(f))
		if !ok || got != f {
			t.Errorf("Parse(%q) = %v, %v", f, got, ok)
		}
	}
	if _, ok := Parse("rspec"); ok {
		t.Error("Parse(rspec) should fail")
	}
}
