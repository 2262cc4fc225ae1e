package scan

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ihavespoons/quarry/internal/errdefs"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func tinyRepo(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "a.py", strings.Repeat("a", 50))
	writeFile(t, root, "b.md", strings.Repeat("b", 30))
	writeFile(t, root, "sub/c.js", strings.Repeat("c", 20))
	return root
}

func paths(res *Result) []string {
	out := make([]string, len(res.Files))
	for i, f := range res.Files {
		out[i] = f.Path
	}
	return out
}

func TestCollectOrderAndTotal(t *testing.T) {
	root := tinyRepo(t)

	res, err := Collect(root, Options{Extensions: []string{".py", ".md", ".js"}})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	want := []string{"a.py", "b.md", "sub/c.js"}
	if !reflect.DeepEqual(paths(res), want) {
		t.Errorf("expected %v, got %v", want, paths(res))
	}
	if res.TotalBytes != 100 {
		t.Errorf("expected total 100 bytes, got %d", res.TotalBytes)
	}
	if res.Truncated {
		t.Error("walk should not be truncated")
	}
}

func TestCollectDeterminism(t *testing.T) {
	root := tinyRepo(t)
	opts := Options{Extensions: []string{".py", ".md", ".js"}}

	first, err := Collect(root, opts)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Collect(root, opts)
		if err != nil {
			t.Fatalf("Collect failed: %v", err)
		}
		if !reflect.DeepEqual(paths(again), paths(first)) {
			t.Fatalf("run %d gave %v, first run gave %v", i, paths(again), paths(first))
		}
	}

	// Strictly increasing POSIX-path order.
	ps := paths(first)
	for i := 1; i < len(ps); i++ {
		if ps[i-1] >= ps[i] {
			t.Errorf("paths not strictly increasing: %q >= %q", ps[i-1], ps[i])
		}
	}
}

func TestCollectTotalByteBudget(t *testing.T) {
	root := tinyRepo(t)

	res, err := Collect(root, Options{
		Extensions:    []string{".py", ".md", ".js"},
		MaxTotalBytes: 1,
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if !res.Truncated {
		t.Error("expected truncated walk")
	}
	if len(res.Warnings) == 0 {
		t.Error("expected at least one warning")
	}
	if res.TotalBytes > 1 {
		t.Errorf("total %d exceeds budget", res.TotalBytes)
	}
}

func TestCollectBudgetIsGlobal(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", strings.Repeat("a", 30))
	writeFile(t, root, "b.txt", strings.Repeat("b", 30))
	writeFile(t, root, "c.txt", strings.Repeat("c", 30))

	res, err := Collect(root, Options{MaxTotalBytes: 70})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if !res.Truncated {
		t.Error("expected truncated walk")
	}
	if len(res.Files) != 2 {
		t.Errorf("expected 2 files inside budget, got %d", len(res.Files))
	}
	var sum int64
	for _, f := range res.Files {
		sum += f.Size
	}
	if sum != res.TotalBytes || sum > 70 {
		t.Errorf("total %d, summed %d, budget 70", res.TotalBytes, sum)
	}
}

func TestCollectMaxFileBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "ok")
	writeFile(t, root, "big.txt", strings.Repeat("x", 100))

	res, err := Collect(root, Options{MaxFileBytes: 10})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	got := paths(res)
	if !reflect.DeepEqual(got, []string{"small.txt"}) {
		t.Errorf("expected only small.txt, got %v", got)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("expected one warning, got %v", res.Warnings)
	}
}

func TestGitignoreRespected(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\nignored/\n")
	writeFile(t, root, "keep.py", "print('keep')")
	writeFile(t, root, "drop.log", "nope")
	writeFile(t, root, "ignored/drop.py", "print('drop')")

	res, err := Collect(root, Options{
		Extensions:       []string{".py", ".log"},
		RespectGitignore: true,
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	got := paths(res)
	if !reflect.DeepEqual(got, []string{"keep.py"}) {
		t.Errorf("expected only keep.py, got %v", got)
	}
}

func TestGitignoreDisabled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".gitignore", "*.log\n")
	writeFile(t, root, "keep.py", "print('keep')")
	writeFile(t, root, "drop.log", "nope")

	res, err := Collect(root, Options{
		Extensions:       []string{".py", ".log"},
		RespectGitignore: false,
	})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	got := paths(res)
	if !reflect.DeepEqual(got, []string{"drop.log", "keep.py"}) {
		t.Errorf("expected both files, got %v", got)
	}
}

func TestHiddenFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "visible.txt", "yes")
	writeFile(t, root, ".secret", "no")
	writeFile(t, root, ".config/inner.txt", "no")

	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"visible.txt"}) {
		t.Errorf("expected only visible.txt, got %v", got)
	}

	res, err = Collect(root, Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{".config/inner.txt", ".secret", "visible.txt"}
	if got := paths(res); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDefaultExcludedDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.js", "ok")
	writeFile(t, root, "node_modules/dep/index.js", "no")
	writeFile(t, root, "build/out.js", "no")
	writeFile(t, root, "__pycache__/m.py", "no")

	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"main.js"}) {
		t.Errorf("expected only main.js, got %v", got)
	}
}

func TestDefaultExcludedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "ok")
	writeFile(t, root, ".DS_Store", "junk")

	res, err := Collect(root, Options{IncludeHidden: true})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"keep.txt"}) {
		t.Errorf("expected only keep.txt, got %v", got)
	}
}

func TestLockfileExclusion(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.py", "ok")
	writeFile(t, root, "poetry.lock", "pins")

	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"app.py", "poetry.lock"}) {
		t.Errorf("lockfiles kept by default, got %v", got)
	}

	res, err = Collect(root, Options{ExcludeLockfiles: true})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"app.py"}) {
		t.Errorf("expected only app.py, got %v", got)
	}
}

func TestIncludeExcludeGlobs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.py", "a")
	writeFile(t, root, "b.md", "b")
	writeFile(t, root, "sub/c.py", "c")

	res, err := Collect(root, Options{IncludeGlobs: []string{"*.py"}})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"a.py", "sub/c.py"}) {
		t.Errorf("include glob gave %v", got)
	}

	res, err = Collect(root, Options{ExcludeGlobs: []string{"sub/"}})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"a.py", "b.md"}) {
		t.Errorf("exclude glob gave %v", got)
	}
}

func TestExtensionNormalization(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.PY", "a")
	writeFile(t, root, "b.md", "b")

	// Extensions without a dot, mixed case on disk.
	res, err := Collect(root, Options{Extensions: []string{"py"}})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"a.PY"}) {
		t.Errorf("expected a.PY, got %v", got)
	}
}

func TestBinarySkip(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "text.txt", "plain")
	writeFile(t, root, "blob.bin", "abc\x00def")

	res, err := Collect(root, Options{BinaryPolicy: BinarySkip})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"text.txt"}) {
		t.Errorf("expected only text.txt, got %v", got)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "blob.bin") {
		t.Errorf("expected binary warning naming blob.bin, got %v", res.Warnings)
	}
}

func TestBinaryError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "blob.bin", "abc\x00def")

	_, err := Collect(root, Options{BinaryPolicy: BinaryError})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errdefs.IsInput(err) {
		t.Errorf("expected an input error, got %v", err)
	}
	if !strings.Contains(errdefs.As(err).Why, "blob.bin") {
		t.Errorf("error should name the offending file: %v", errdefs.As(err).Why)
	}
}

func TestPerFileErrorsAreWarnings(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions do not apply to root")
	}

	root := t.TempDir()
	writeFile(t, root, "good.txt", "fine")
	writeFile(t, root, "bad.txt", "secret")
	if err := os.Chmod(filepath.Join(root, "bad.txt"), 0000); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(filepath.Join(root, "bad.txt"), 0644) })

	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("walk must not abort on per-file errors: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"good.txt"}) {
		t.Errorf("expected only good.txt, got %v", got)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a warning for the unreadable file")
	}
}

func TestSymlinkedDirectories(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	writeFile(t, target, "inner.txt", "linked")
	writeFile(t, root, "plain.txt", "here")
	if err := os.Symlink(target, filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// Not following: the link is skipped silently, no warning.
	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := paths(res); !reflect.DeepEqual(got, []string{"plain.txt"}) {
		t.Errorf("expected only plain.txt, got %v", got)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}

	// Following: the linked directory is walked like any other.
	res, err = Collect(root, Options{FollowSymlinks: true})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	want := []string{"link/inner.txt", "plain.txt"}
	if got := paths(res); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestUnknownEncoding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x")

	_, err := Collect(root, Options{Encoding: "no-such-encoding"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errdefs.IsInput(err) {
		t.Errorf("expected an input error, got %v", err)
	}
}

func TestLatin1Decoding(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "latin.txt", "caf\xe9")

	res, err := Collect(root, Options{Encoding: "iso-8859-1"})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected one file, got %d", len(res.Files))
	}
	if res.Files[0].Content != "café" {
		t.Errorf("expected decoded 'café', got %q", res.Files[0].Content)
	}
}

func TestInvalidUTF8Replaced(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.txt", "ok \xff\xfe end")

	res, err := Collect(root, Options{})
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(res.Files) != 1 {
		t.Fatalf("expected one file, got %d", len(res.Files))
	}
	if !strings.Contains(res.Files[0].Content, "�") {
		t.Errorf("expected replacement runes in %q", res.Files[0].Content)
	}
}

func TestMissingRoot(t *testing.T) {
	_, err := Collect(filepath.Join(t.TempDir(), "nope"), Options{})
	if err == nil {
		t.Fatal("expected an error for a missing root")
	}
	if !errdefs.IsInput(err) {
		t.Errorf("expected an input error, got %v", err)
	}
}
