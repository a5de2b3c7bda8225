// Package process implements the flatten subcommand: locating stylesheets in
// files, directories and zip archives, rewriting their nesting and writing the
// results out.
package process

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssnest/archive"
	"cssnest/config"
	"cssnest/css"
	"cssnest/state"
)

const styleExt = ".css"

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("flatten")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if dst != "-" {
		if len(dst) == 0 {
			if dst, err = os.Getwd(); err != nil {
				return fmt.Errorf("unable to get working directory: %w", err)
			}
		}
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core logic independently of CLI framework. It determines
// the input type (directory, archive, or single stylesheet) and processes
// accordingly.
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

		if isArchiveFile(head) {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, filepath.ToSlash(tail), dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if isStyleFile(head) && len(tail) == 0 {
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to open file (%s): %w", head, err)
			}
			defer file.Close()
			if err := processSheet(ctx, file, filepath.Base(head), dst, log); err != nil {
				return fmt.Errorf("unable to process file (%s): %w", head, err)
			}
			break
		}
		return fmt.Errorf("input was not recognized as stylesheet (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir collects stylesheets and archives under dir and processes them in
// natural name order, so runs over the same tree are deterministic.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) error {
	var files []string
	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
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
		if isStyleFile(path) || isArchiveFile(path) {
			files = append(files, path)
			return nil
		}
		log.Debug("Skipping file, not recognized as stylesheet or archive", zap.String("file", path))
		return nil
	})
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
		return nil
	}
	sort.Sort(natural.StringSlice(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		if isArchiveFile(path) {
			if err := processArchive(ctx, path, "", dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			continue
		}

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processSheet(ctx, file, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		file.Close()
	}
	return nil
}

// processArchive walks stylesheets inside the zip archive under "pathIn" and
// processes them.
func processArchive(ctx context.Context, path, pathIn, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	err = archive.Walk(path, pathIn, styleExt, func(archive string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processSheet(ctx, r, filepath.FromSlash(f.FileHeader.Name), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", archive), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processSheet flattens a single stylesheet. "src" is the source path relative
// to the original input (always including file name): just the base name when
// an actual file was specified, the relative path inside the archive or
// directory otherwise. "dst" is the destination directory, or "-" for stdout.
func processSheet(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) error {
	env := state.EnvFromContext(ctx)

	log.Info("Flattening starting", zap.String("from", src))

	var outputName string
	defer func(start time.Time) {
		log.Info("Flattening completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read stylesheet (%s): %w", src, err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("input/"+filepath.ToSlash(src), data)
	}

	sheet := css.NewParser(env.Log, env.Cfg.Style.MarkerAtRules...).Parse(data, src)
	for _, w := range sheet.Warnings {
		log.Warn("Stylesheet problem", zap.String("source", src), zap.String("problem", w))
	}

	flat := css.NewFlattener(env.Log).Flatten(sheet)
	out := []byte(flat.String())

	if dst == "-" {
		outputName = "stdout"
		_, err := os.Stdout.Write(out)
		return err
	}

	outputName = buildOutputPath(src, dst, env)

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

	if err := os.WriteFile(outputName, out, 0644); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}
	if env.Rpt != nil {
		env.Rpt.StoreData("output/"+filepath.ToSlash(filepath.Base(outputName)), out)
	}
	return nil
}

// buildOutputPath derives the destination file name: source extension is
// replaced with the configured suffix and source subdirectories are mirrored
// under dst unless NoDirs is set.
func buildOutputPath(src, dst string, env *state.LocalEnv) string {
	dir, name := filepath.Split(src)
	name = config.CleanFileName(strings.TrimSuffix(name, filepath.Ext(name))) + env.Cfg.Style.OutputSuffix
	if env.NoDirs {
		return filepath.Join(dst, name)
	}
	return filepath.Join(dst, dir, name)
}

func isStyleFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), styleExt)
}

func isArchiveFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}
