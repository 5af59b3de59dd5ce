package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveFTSDirectoryPrefersConfOverIni(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "fts.conf"), `
database = mydb
{
    ftsDirectory = /var/fts/conf-wins
}
`)
	writeFile(t, filepath.Join(dir, "fts.ini"), "[mydb]\nftsDirectory = /var/fts/ini-loses\n")

	got, err := ResolveFTSDirectory("mydb")
	if err != nil {
		t.Fatalf("ResolveFTSDirectory: %v", err)
	}
	if got != "/var/fts/conf-wins" {
		t.Errorf("expected fts.conf entry to win, got %q", got)
	}
}

func TestResolveFTSDirectoryFallsBackToIni(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "fts.ini"), "[mydb]\nftsDirectory = /var/fts/from-ini\n")

	got, err := ResolveFTSDirectory("mydb")
	if err != nil {
		t.Fatalf("ResolveFTSDirectory: %v", err)
	}
	if got != "/var/fts/from-ini" {
		t.Errorf("expected ini entry, got %q", got)
	}
}

func TestResolveFTSDirectoryNoConfig(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if _, err := ResolveFTSDirectory("mydb"); err == nil {
		t.Fatal("expected error when neither file exists")
	}
}

func TestResolveFTSDirectoryUnknownDatabase(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "fts.ini"), "[otherdb]\nftsDirectory = /var/fts/other\n")

	if _, err := ResolveFTSDirectory("mydb"); err == nil {
		t.Fatal("expected error for a database with no matching block")
	}
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}
