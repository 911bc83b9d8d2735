package state

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"mbook/book"
	"mbook/config"
	imgutil "mbook/utils/images"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())
	if ctx == nil {
		t.Fatal("ContextWithEnv() returned nil")
	}

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}

	if env.start.IsZero() {
		t.Error("Environment start time not set")
	}
	if len(env.DefaultLogo) == 0 {
		t.Error("Default logo not set")
	}
}

func TestEnvFromContext(t *testing.T) {
	t.Run("valid context", func(t *testing.T) {
		ctx := ContextWithEnv(context.Background())
		env := EnvFromContext(ctx)

		if env == nil {
			t.Error("Expected non-nil environment")
		}
	})

	t.Run("panic on missing env", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when env not in context")
			}
		}()

		EnvFromContext(context.Background())
	})
}

func TestLocalEnv_Uptime(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	time.Sleep(10 * time.Millisecond)
	uptime := env.Uptime()

	if uptime < 10*time.Millisecond {
		t.Errorf("Uptime() = %v, expected at least 10ms", uptime)
	}
	if uptime > 1*time.Second {
		t.Errorf("Uptime() = %v, unexpectedly large", uptime)
	}
}

func TestLocalEnv_RedirectStdLog(t *testing.T) {
	t.Run("with logger", func(t *testing.T) {
		env := &LocalEnv{
			Log: zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))),
		}

		env.RedirectStdLog()
		if env.restoreStdLog == nil {
			t.Error("Expected restoreStdLog to be set")
		}
		env.RestoreStdLog()
	})

	t.Run("without logger", func(t *testing.T) {
		env := &LocalEnv{}

		env.RedirectStdLog()
		if env.restoreStdLog != nil {
			t.Error("Expected restoreStdLog to remain nil")
		}
		env.RestoreStdLog()
	})
}

func TestLocalEnv_AssetLoader(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	t.Run("cache enabled", func(t *testing.T) {
		env := EnvFromContext(ContextWithEnv(context.Background()))
		env.Cfg = cfg
		env.Log = zaptest.NewLogger(t)

		if l := env.AssetLoader(t.TempDir()); l == nil {
			t.Fatal("AssetLoader() returned nil")
		}
		first := env.assetCache
		if first == nil {
			t.Fatal("expected asset cache to be created")
		}
		env.AssetLoader("")
		if env.assetCache != first {
			t.Error("asset cache must be shared between loaders")
		}
	})

	t.Run("cache disabled", func(t *testing.T) {
		noCache := *cfg
		noCache.Document.Images.CacheTTL = 0

		env := EnvFromContext(ContextWithEnv(context.Background()))
		env.Cfg = &noCache
		env.Log = zaptest.NewLogger(t)

		if l := env.AssetLoader(""); l == nil {
			t.Fatal("AssetLoader() returned nil")
		}
		if env.assetCache != nil {
			t.Error("asset cache should not be created when TTL is 0")
		}
	})
}

func TestLocalEnv_Composer(t *testing.T) {
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.CreationDate = "2023-02-01"
	// no network in tests, core fonts are used
	cfg.Document.Fonts = config.FontsConfig{}

	env := EnvFromContext(ContextWithEnv(context.Background()))
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)

	tests := []struct {
		name      string
		createdAt string
		want      string
	}{
		{"configured date", "", "D:20230201"},
		{"book date wins", "2024-05-17T10:00:00Z", "D:20240517100000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &book.Book{
				Title:     "Avó Lurdes",
				Language:  "pt-BR",
				CreatedAt: tt.createdAt,
				Pages:     []book.Page{{ID: "c", Description: "Capa"}, {ID: "b", Title: "Fim"}},
			}
			doc, err := env.Composer(b, env.AssetLoader(t.TempDir())).Compose(context.Background(), b.Title, b.Pages, nil)
			if err != nil {
				t.Fatalf("Compose() error = %v", err)
			}
			if doc.Pages != 2 {
				t.Errorf("pages = %d, want 2", doc.Pages)
			}
			if !bytes.Contains(doc.Data, []byte(tt.want)) {
				t.Errorf("document does not carry creation date %s", tt.want)
			}
		})
	}
}

func TestDefaultLogoRasterize(t *testing.T) {
	env := newLocalEnv()
	img, err := imgutil.RasterizeSVG(env.DefaultLogo, 256, 256, nil)
	if err != nil {
		t.Fatalf("rasterize default logo: %v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 256 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
}
