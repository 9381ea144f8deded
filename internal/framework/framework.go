// Package framework infers the active test framework for a repository.
// Detection is intentionally total: it checks manifest markers in a
// fixed priority order and falls back to the most common framework for
// the ecosystem instead of failing.
package framework

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Framework is the closed enumeration of supported test frameworks.
type Framework string

const (
	Jest   Framework = "jest"
	Mocha  Framework = "mocha"
	Vitest Framework = "vitest"
	Pytest Framework = "pytest"
	GoTest Framework = "go-test"
	JUnit  Framework = "junit"
)

// All lists every supported framework.
func All() []Framework {
	return []Framework{Jest, Mocha, Vitest, Pytest, GoTest, JUnit}
}

// Parse validates a framework name supplied by a caller.
func Parse(s string) (Framework, bool) {
	for _, f := range All() {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// packageJSON is the subset of package.json we care about.
type packageJSON struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

// pyprojectTOML is the subset of pyproject.toml we care about.
type pyprojectTOML struct {
	Tool struct {
		Pytest struct {
			IniOptions map[string]interface{} `toml:"ini_options"`
		} `toml:"pytest"`
	} `toml:"tool"`
}

// Detect infers the test framework for the repository at root.
// Priority: JS package manifest dependencies (vitest > jest > mocha),
// mocha/vitest/jest config files, Python project markers, go.mod,
// JVM build files. No marker at all defaults to Jest.
func Detect(root string) Framework {
	if f, ok := detectFromPackageJSON(root); ok {
		return f
	}
	if f, ok := detectFromJSConfigFiles(root); ok {
		return f
	}
	if detectPytest(root) {
		return Pytest
	}
	if fileExists(filepath.Join(root, "go.mod")) {
		return GoTest
	}
	if fileExists(filepath.Join(root, "pom.xml")) ||
		fileExists(filepath.Join(root, "build.gradle")) ||
		fileExists(filepath.Join(root, "build.gradle.kts")) {
		return JUnit
	}
	return Jest
}

func detectFromPackageJSON(root string) (Framework, bool) {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return "", false
	}

	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return "", false
	}

	hasDep := func(name string) bool {
		if _, ok := pkg.DevDependencies[name]; ok {
			return true
		}
		_, ok := pkg.Dependencies[name]
		return ok
	}

	switch {
	case hasDep("vitest"):
		return Vitest, true
	case hasDep("jest"):
		return Jest, true
	case hasDep("mocha"):
		return Mocha, true
	}

	// A JS project with no recognized test dependency still gets the
	// ecosystem default.
	return Jest, true
}

func detectFromJSConfigFiles(root string) (Framework, bool) {
	for _, name := range []string{".mocharc.yml", ".mocharc.yaml"} {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		// Parse to confirm it is actually a mocha config and not a
		// stray file with the same name.
		var cfg map[string]interface{}
		if yaml.Unmarshal(data, &cfg) == nil {
			return Mocha, true
		}
	}
	if fileExists(filepath.Join(root, ".mocharc.json")) {
		return Mocha, true
	}

	for _, name := range []string{"vitest.config.ts", "vitest.config.js", "vitest.config.mts"} {
		if fileExists(filepath.Join(root, name)) {
			return Vitest, true
		}
	}
	for _, name := range []string{"jest.config.js", "jest.config.ts", "jest.config.json"} {
		if fileExists(filepath.Join(root, name)) {
			return Jest, true
		}
	}
	return "", false
}

func detectPytest(root string) bool {
	if fileExists(filepath.Join(root, "pytest.ini")) ||
		fileExists(filepath.Join(root, "conftest.py")) {
		return true
	}

	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err == nil {
		var py pyprojectTOML
		if toml.Unmarshal(data, &py) == nil && len(py.Tool.Pytest.IniOptions) > 0 {
			return true
		}
		// A Python project without explicit pytest options still most
		// likely tests with pytest.
		return true
	}

	return fileExists(filepath.Join(root, "setup.cfg")) &&
		fileExists(filepath.Join(root, "setup.py"))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
