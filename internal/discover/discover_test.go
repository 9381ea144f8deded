package discover

import (
	"context"
	"testing"

	"tia/internal/config"
	"tia/internal/framework"
	"tia/internal/testutil"
)

const jestUserTest = `import { getUser } from "../src/user";

describe("user", () => {
  it("loads a user", () => {
    expect(getUser(1)).toBeDefined();
  });

  // @slow hits the real database
  it("saves a user", () => {});

  test("rejects bad ids", () => {});
});
`

func newDiscoverer(root string) *Discoverer {
	return New(root, config.DefaultConfig(), nil)
}

func TestDiscoverJest(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"package.json":          `{"devDependencies": {"jest": "^29.0.0"}}`,
		"src/user.ts":           "export function getUser(id) { return {id}; }",
		"src/user.test.ts":      jestUserTest,
		"src/order.spec.ts":     `it("totals an order", () => {});`,
		"src/helpers.ts":        "export const x = 1;",
		"node_modules/a/b.test.js": `it("vendored", () => {});`,
	})

	files, err := newDiscoverer(root).Discover(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("got %d test files, want 2: %+v", len(files), files)
	}
	// Sorted by path
	if files[0].Path != "src/order.spec.ts" || files[1].Path != "src/user.test.ts" {
		t.Errorf("unexpected order: %q, %q", files[0].Path, files[1].Path)
	}
	if files[1].TestCount != 3 {
		t.Errorf("user.test.ts TestCount = %d, want 3", files[1].TestCount)
	}
	if files[0].Framework != "jest" {
		t.Errorf("Framework = %q, want jest", files[0].Framework)
	}
}

func TestDiscoverFilters(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"src/a.test.ts":      `it("a", () => {});`,
		"src/b.test.ts":      `it("b", () => {});`,
		"legacy/c.test.ts":   `it("c", () => {});`,
	})
	d := newDiscoverer(root)

	t.Run("include keeps only matches", func(t *testing.T) {
		files, _ := d.Discover(context.Background(), Options{
			Framework: framework.Jest,
			Include:   []string{"src/"},
		})
		if len(files) != 2 {
			t.Errorf("got %d files, want 2", len(files))
		}
	})

	t.Run("exclude always removes", func(t *testing.T) {
		files, _ := d.Discover(context.Background(), Options{
			Framework: framework.Jest,
			Include:   []string{".test."},
			Exclude:   []string{"legacy"},
		})
		for _, f := range files {
			if f.Path == "legacy/c.test.ts" {
				t.Error("excluded file survived")
			}
		}
		if len(files) != 2 {
			t.Errorf("got %d files, want 2", len(files))
		}
	})
}

func TestDiscoverFileCap(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 30; i++ {
		files[string(rune('a'+i%26))+"/f"+string(rune('0'+i%10))+".test.js"] = `it("x", () => {});`
	}
	root := testutil.TempRepo(t, files)

	cfg := config.DefaultConfig()
	cfg.Discovery.MaxFiles = 5

	got, err := New(root, cfg, nil).Discover(context.Background(), Options{Framework: framework.Jest})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(got) > 5 {
		t.Errorf("cap not applied: %d files", len(got))
	}
}

func TestAnalyzeFilePytest(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"tests/test_billing.py": `import pytest

def test_invoice_total():
    assert total([1, 2]) == 3

@pytest.mark.slow
def test_integration_sync():
    pass

async def test_async_fetch():
    pass

def helper():
    pass
`,
	})

	cases := newDiscoverer(root).AnalyzeFile("tests/test_billing.py", framework.Pytest)
	if len(cases) != 3 {
		t.Fatalf("got %d cases, want 3: %+v", len(cases), cases)
	}

	if cases[0].Name != "test_invoice_total" || cases[0].Line != 3 {
		t.Errorf("first case = %s:%d", cases[0].Name, cases[0].Line)
	}
	if cases[1].Type != TypeIntegration {
		t.Errorf("test_integration_sync type = %s, want integration", cases[1].Type)
	}
	if len(cases[1].Tags) == 0 || cases[1].Tags[0] != "slow" {
		t.Errorf("tags = %v, want [slow]", cases[1].Tags)
	}
	if cases[2].Name != "test_async_fetch" {
		t.Errorf("async def not matched: %+v", cases[2])
	}
}

func TestAnalyzeFileGo(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"store/store_test.go": `package store

import "testing"

func TestPutGet(t *testing.T) {}

func BenchmarkPut(b *testing.B) {}

func helper(t *testing.T) {}
`,
	})

	cases := newDiscoverer(root).AnalyzeFile("store/store_test.go", framework.GoTest)
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want 2", len(cases))
	}
	if cases[0].Name != "TestPutGet" {
		t.Errorf("case 0 = %q", cases[0].Name)
	}
	if cases[1].Type != TypePerformance {
		t.Errorf("BenchmarkPut type = %s, want performance", cases[1].Type)
	}
}

func TestAnalyzeFileJUnit(t *testing.T) {
	root := testutil.TempRepo(t, map[string]string{
		"src/test/java/OrderTest.java": `public class OrderTest {
    @Test
    public void computesTotal() {
    }

    @ParameterizedTest
    void handlesEmptyCart() {
    }

    public void notATest() {
    }
}
`,
	})

	cases := newDiscoverer(root).AnalyzeFile("src/test/java/OrderTest.java", framework.JUnit)
	if len(cases) != 2 {
		t.Fatalf("got %d cases, want 2: %+v", len(cases), cases)
	}
	if cases[0].Name != "computesTotal" || cases[1].Name != "handlesEmptyCart" {
		t.Errorf("names = %q, %q", cases[0].Name, cases[1].Name)
	}
}

func TestAnalyzeFileUnreadable(t *testing.T) {
	root := testutil.TempRepo(t, nil)
	cases := newDiscoverer(root).AnalyzeFile("missing.test.ts", framework.Jest)
	if len(cases) != 0 {
		t.Errorf("expected no cases for missing file, got %d", len(cases))
	}
}

func TestCaseIdStability(t *testing.T) {
	a := CaseId("src/user.test.ts", 4, "loads a user")
	b := CaseId("src/user.test.ts", 4, "loads a user")
	if a != b {
		t.Error("id not deterministic")
	}
	if a == CaseId("src/user.test.ts", 5, "loads a user") {
		t.Error("id must depend on line")
	}
	if a == CaseId("src/other.test.ts", 4, "loads a user") {
		t.Error("id must depend on file")
	}
	if len(a) != 32 {
		t.Errorf("id length = %d, want 32", len(a))
	}
}

func TestClassifyTypePrecedence(t *testing.T) {
	tests := []struct {
		path string
		name string
		want TestType
	}{
		{"e2e/checkout.test.ts", "integration flow", TypeE2E},
		{"tests/integration/api.test.ts", "x", TypeIntegration},
		{"src/user.test.ts", "integration with billing", TypeIntegration},
		{"perf/load.test.ts", "x", TypePerformance},
		{"src/render.test.ts", "matches snapshot", TypeSnapshot},
		{"src/user.test.ts", "loads a user", TypeUnit},
	}

	for _, tt := range tests {
		if got := ClassifyType(tt.path, tt.name); got != tt.want {
			t.Errorf("ClassifyType(%q, %q) = %s, want %s", tt.path, tt.name, got, tt.want)
		}
	}
}

func TestExtractTagsWindow(t *testing.T) {
	lines := []string{
		"// @flaky depends on network timing", // 6 lines above: outside window
		"",
		"",
		"",
		"",
		"",
		`it("fetches remote data", () => {});`,
	}
	tags := extractTags(lines, 6)
	if len(tags) != 0 {
		t.Errorf("marker outside 5-line window matched: %v", tags)
	}

	lines[1] = "// @flaky"
	tags = extractTags(lines, 6)
	if len(tags) != 1 || tags[0] != "flaky" {
		t.Errorf("tags = %v, want [flaky]", tags)
	}
}
