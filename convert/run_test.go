package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mbook/config"
	"mbook/state"
)

// setupTestEnv creates a test environment with proper context and logger.
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv) {
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	// no network in tests, core fonts are used
	cfg.Document.Fonts = config.FontsConfig{}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	return ctx, env
}

func manifest(title string) string {
	return `{
	"title": "` + title + `",
	"pages": [
		{"id": "cover", "imageUrl": "photo.png", "description": "Where it all started"},
		{"id": "p1", "title": "Childhood", "description": "Summers by the sea", "date": "1950s"},
		{"id": "back", "title": "Thank you"}
	]
}`
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = 0xc0
	}
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("png: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, content := range files {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	writeFile(t, path, buf.Bytes())
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected output %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("%s is not PDF", path)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("unexpected output %s (err=%v)", path, err)
	}
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	err := process(ctx, "/nonexistent/path/book.json", t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, env := setupTestEnv(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	if err := process(ctx, t.TempDir(), t.TempDir(), env.Log); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env := setupTestEnv(t)
	srcDir, dst := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "maria.json")
	writeFile(t, src, []byte(manifest("Vida de Maria")))
	writePNG(t, filepath.Join(srcDir, "photo.png"))

	if err := process(ctx, src, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertPDF(t, filepath.Join(dst, "Vida de Maria.pdf"))
}

func TestProcess_NotManifest(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, src, []byte("just notes"))

	err := process(ctx, src, t.TempDir(), env.Log)
	if err == nil || !strings.Contains(err.Error(), "not recognized") {
		t.Errorf("expected not recognized error, got %v", err)
	}
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, env := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "missing.json")

	// parent exists, file does not
	err := process(ctx, src, t.TempDir(), env.Log)
	if err == nil {
		t.Error("expected error for missing file in existing directory")
	}
}

func TestProcess_Directory(t *testing.T) {
	tests := []struct {
		name   string
		noDirs bool
		want   []string
	}{
		{"keep structure", false, []string{"Avó Ana.pdf", filepath.Join("tios", "Tio João.pdf"), filepath.Join("tios", "Tia Rosa.pdf")}},
		{"flat", true, []string{"Avó Ana.pdf", "Tio João.pdf", "Tia Rosa.pdf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env := setupTestEnv(t)
			env.NoDirs = tt.noDirs

			src, dst := t.TempDir(), t.TempDir()
			writeFile(t, filepath.Join(src, "ana.json"), []byte(manifest("Avó Ana")))
			writeFile(t, filepath.Join(src, "tios", "joao.yaml"), []byte("title: Tio João\npages:\n  - id: c\n    description: Cover\n"))
			writeFile(t, filepath.Join(src, "tios", "broken.json"), []byte("{not json"))
			writeFile(t, filepath.Join(src, "readme.txt"), []byte("skip me"))
			writeZip(t, filepath.Join(src, "tios", "rosa.zip"), map[string]string{"rosa.json": manifest("Tia Rosa")})

			if err := process(ctx, src, dst, env.Log); err != nil {
				t.Fatalf("process() error = %v", err)
			}
			for _, name := range tt.want {
				assertPDF(t, filepath.Join(dst, name))
			}
		})
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()
	zipPath := filepath.Join(t.TempDir(), "books.zip")
	writeZip(t, zipPath, map[string]string{
		"silva/silva.json": manifest("Família Silva"),
		"costa/costa.json": manifest("Família Costa"),
		"costa/photo.jpg":  "not a manifest",
	})

	if err := process(ctx, zipPath, dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertPDF(t, filepath.Join(dst, "silva", "Família Silva.pdf"))
	assertPDF(t, filepath.Join(dst, "costa", "Família Costa.pdf"))
}

func TestProcess_ArchiveWithPath(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()
	zipPath := filepath.Join(t.TempDir(), "books.zip")
	writeZip(t, zipPath, map[string]string{
		"silva/silva.json": manifest("Família Silva"),
		"costa/costa.json": manifest("Família Costa"),
	})

	if err := process(ctx, filepath.Join(zipPath, "silva"), dst, env.Log); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	assertPDF(t, filepath.Join(dst, "silva", "Família Silva.pdf"))
	assertMissing(t, filepath.Join(dst, "costa", "Família Costa.pdf"))
}

func TestProcess_Overwrite(t *testing.T) {
	for _, overwrite := range []bool{false, true} {
		ctx, env := setupTestEnv(t)
		env.Overwrite = overwrite

		srcDir, dst := t.TempDir(), t.TempDir()
		src := filepath.Join(srcDir, "book.json")
		writeFile(t, src, []byte(manifest("Memories")))
		out := filepath.Join(dst, "Memories.pdf")
		writeFile(t, out, []byte("old"))

		if err := process(ctx, src, dst, env.Log); err != nil {
			t.Fatalf("process() error = %v", err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if replaced := bytes.HasPrefix(data, []byte("%PDF-")); replaced != overwrite {
			t.Errorf("overwrite=%v: output replaced = %v", overwrite, replaced)
		}
	}
}

func TestProcessBook_InvalidManifest(t *testing.T) {
	ctx, env := setupTestEnv(t)
	dst := t.TempDir()

	tests := map[string]string{
		"not json":  "{broken",
		"no pages":  `{"title": "Empty", "pages": []}`,
		"dup pages": `{"title": "Dup", "pages": [{"id": "a"}, {"id": "a"}]}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if err := processBook(ctx, []byte(data), "book.json", "", dst, env.Log); err == nil {
				t.Error("expected error")
			}
		})
	}
	entries, _ := os.ReadDir(dst)
	if len(entries) != 0 {
		t.Errorf("no output expected, found %d entries", len(entries))
	}
}

func TestProcessBook_Report(t *testing.T) {
	ctx, env := setupTestEnv(t)
	rptName := filepath.Join(t.TempDir(), "report.zip")
	rpt, err := (&config.ReporterConfig{Destination: rptName}).Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	env.Rpt = rpt

	dst := t.TempDir()
	for _, src := range []string{"one/book.json", "two/book.json"} {
		if err := processBook(ctx, []byte(manifest("Same Title")), filepath.FromSlash(src), "", dst, env.Log); err != nil {
			t.Fatalf("processBook(%s) error = %v", src, err)
		}
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(rptName)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer zr.Close()

	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"sources/one/book.json", "sources/two/book.json", "outlines/one/book.json.txt", "results/one/Same Title.pdf", "results/two/Same Title.pdf"} {
		if !names[want] {
			t.Errorf("report misses %s, has %v", want, names)
		}
	}
}
