package inventory

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestLoadSeedFileYAML(t *testing.T) {
	path := writeSeed(t, "seed.yaml", `
materials:
  - name: エスプレッソ豆
    current: 3
    threshold: 2
    unit: kg
    supplier: Roastery
    daily_use: 0.25
    category: ドリンク
    note: シングルオリジン
  - name: 紙カップ
    current: "120"
    threshold: 50
    unit: 個
    supplier: 備品業者
suppliers:
  - name: Roastery
    method: Email
    contact: orders@roastery.example
`)

	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(seed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(seed.Items))
	}
	beans := seed.Items[0]
	if beans.Name != "エスプレッソ豆" || beans.Unit != "kg" || beans.Supplier != "Roastery" {
		t.Errorf("unexpected item %+v", beans)
	}
	if beans.Category != "ドリンク" || beans.Note != "シングルオリジン" {
		t.Errorf("Expected category and note to load, got %q / %q", beans.Category, beans.Note)
	}
	if beans.DailyUse.String() != "0.25" {
		t.Errorf("Expected daily use 0.25, got %s", beans.DailyUse)
	}
	cups := seed.Items[1]
	if cups.Current.String() != "120" || !cups.DailyUse.IsZero() {
		t.Errorf("unexpected cups %+v", cups)
	}
	if len(seed.Suppliers) != 1 {
		t.Fatalf("Expected 1 supplier, got %d", len(seed.Suppliers))
	}
	if sup := seed.Suppliers[0]; sup.Method != "email" || sup.Contact != "orders@roastery.example" {
		t.Errorf("unexpected supplier %+v", sup)
	}
}

func TestLoadSeedFileTOML(t *testing.T) {
	path := writeSeed(t, "seed.toml", `
[[materials]]
name = "抹茶"
current = 1.5
threshold = 1
unit = "袋"
supplier = "茶屋"
daily_use = 0.1
`)
	seed, err := LoadSeedFile(path)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(seed.Items) != 1 || seed.Items[0].Current.String() != "1.5" {
		t.Fatalf("unexpected seed %+v", seed.Items)
	}
}

func TestLoadSeedFileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no materials", "suppliers: []\n", "no materials"},
		{"negative stock", "materials:\n  - name: 卵\n    current: -1\n", "cannot be negative"},
		{"missing name", "materials:\n  - current: 1\n", "name is required"},
		{"oversized stock", "materials:\n  - name: 卵\n    current: \"30000000000000000000\"\n", "cannot exceed"},
		{"bad number", "materials:\n  - name: 卵\n    threshold: lots\n", "invalid threshold"},
		{"nameless supplier", "materials:\n  - name: 卵\nsuppliers:\n  - method: email\n", "supplier name is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadSeedFile(writeSeed(t, "seed.yaml", tc.content))
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestLoadSeedFileMissing(t *testing.T) {
	if _, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Expected an error for a missing file")
	}
}
