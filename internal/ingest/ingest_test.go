package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b-soup.csv"), "Ingredient,Qty\nCarrot,3\n")
	writeFile(t, filepath.Join(root, "a-bread.PDF"), "%PDF-1.4")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(root, "costs.xlsm"), "PK")
	writeFile(t, filepath.Join(root, "sub", "pie.docx"), "PK")
	writeFile(t, filepath.Join(root, ".cache", "hidden.csv"), "x")
	writeFile(t, filepath.Join(root, ".secret.png"), "x")

	ups, stats, err := ReadDirectory(root, true)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, u := range ups {
		names = append(names, u.Filename)
	}
	want := []string{"a-bread.PDF", "b-soup.csv", "costs.xlsm", "pie.docx"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	if ups[0].MimeType != "application/pdf" || ups[2].MimeType != "" {
		t.Errorf("mime = %q / %q", ups[0].MimeType, ups[2].MimeType)
	}
	if string(ups[1].Data) != "Ingredient,Qty\nCarrot,3\n" {
		t.Errorf("data = %q", ups[1].Data)
	}
	if stats.Scanned != 5 || stats.Matched != 4 || stats.Rejected != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	all, _, err := ReadDirectory(root, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 6 {
		t.Errorf("with hidden = %d files", len(all))
	}
}

func TestReadDirectory_BadRoot(t *testing.T) {
	if _, _, err := ReadDirectory("  ", false); err == nil {
		t.Fatal("expected error for blank root")
	}
	if _, _, err := ReadDirectory(filepath.Join(t.TempDir(), "missing"), false); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestCandidate(t *testing.T) {
	cases := map[string]bool{
		"a.docx": true, "a.XLSX": true, "a.xls": true, "a.jpeg": true,
		"a.xlsm": true, "a.docm": true,
		"a.txt": false, "a": false, "a.heic": false,
	}
	for path, want := range cases {
		if got := Candidate(path); got != want {
			t.Errorf("Candidate(%q) = %v", path, got)
		}
	}
}

func recv(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
	}
	return ""
}

func TestWatch_EmitsNewFilesAndInitialScan(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "existing.csv")
	writeFile(t, existing, "a,b\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Watch(ctx, WatchConfig{
		Roots:       []string{root},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := recv(t, events); got != existing {
		t.Fatalf("initial = %q", got)
	}

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	fresh := filepath.Join(root, "fresh.pdf")
	writeFile(t, fresh, "%PDF")
	if got := recv(t, events); got != fresh {
		t.Fatalf("event = %q", got)
	}

	nested := filepath.Join(root, "later", "pie.docx")
	writeFile(t, nested, "PK")
	if got := recv(t, events); got != nested {
		t.Fatalf("nested = %q", got)
	}

	cancel()
	for range events {
	}
}

func TestWatch_NoRoots(t *testing.T) {
	if _, _, err := Watch(context.Background(), WatchConfig{}); err == nil {
		t.Fatal("expected error")
	}
}
