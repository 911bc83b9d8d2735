// Package convert implements compose command: finds book manifests in a file,
// directory or zip archive and renders each into PDF document.
package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"mbook/archive"
	"mbook/book"
	"mbook/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process determines the input type (directory, archive, path inside
// archive or single manifest) and processes it accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if isManifestFile(head) && len(tail) == 0 {
			data, err := os.ReadFile(head)
			if err != nil {
				return fmt.Errorf("unable to read book manifest: %w", err)
			}
			if err := processBook(ctx, data, filepath.Base(head), filepath.Dir(head), dst, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as book manifest (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding manifests and archives and
// processes them. Failure of a single book does not stop processing.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		if !isManifestFile(path) {
			log.Debug("Skipping file, not recognized as manifest or archive", zap.String("file", path))
			return nil
		}

		count++

		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if err := processBook(ctx, data, rel, filepath.Dir(path), dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// processArchive finds manifests under "pathIn" inside archive and processes
// them. Relative image references of archived manifests are resolved against
// archive location.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	env := state.EnvFromContext(ctx)

	return archive.Walk(path, pathIn, manifestExts, func(archivePath string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		count++

		data, err := archive.ReadFile(f, env.Cfg.Document.Images.MaxBytes)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archivePath), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if err := processBook(ctx, data, filepath.Join(pathOut, filepath.FromSlash(f.FileHeader.Name)), filepath.Dir(path), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archivePath), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
}

// processBook renders single manifest. "src" is the source path relative to
// the original input (base file name when single file was specified),
// "baseDir" is used to resolve relative asset references, "dst" is the
// destination directory.
func processBook(ctx context.Context, data []byte, src, baseDir, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string
	pages := 0

	log.Info("Composition starting", zap.String("from", src))
	defer func(start time.Time) {
		// if multiple books are being processed we do not want to stop
		if r := recover(); r != nil {
			log.Error("Composition ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("composition panic: %v", r)
		} else if rerr == nil {
			log.Info("Composition completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.Int("pages", pages))
		}
	}(time.Now())

	b, err := book.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("unable to parse book manifest (%s): %w", src, err)
	}

	outputName = buildOutputPath(b, src, dst, env)

	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	doc, err := env.Composer(b, env.AssetLoader(baseDir)).Compose(ctx, b.Title, b.PrintPages(), nil)
	if err != nil {
		return fmt.Errorf("unable to compose document: %w", err)
	}
	pages = doc.Pages

	if err := os.WriteFile(outputName, doc.Data, 0644); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}

	// Store composition source and result for debugging, names follow
	// relative paths so different books never collide
	if env.Rpt != nil {
		rel, err := filepath.Rel(dst, outputName)
		if err != nil {
			rel = filepath.Base(outputName)
		}
		env.Rpt.StoreData("sources/"+filepath.ToSlash(src), data)
		env.Rpt.StoreData("outlines/"+filepath.ToSlash(src)+".txt", []byte(b.Outline()))
		env.Rpt.Store("results/"+filepath.ToSlash(rel), outputName)
	}
	return nil
}
