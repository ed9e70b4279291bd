package paginate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hidez8891/zip"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"rtflow/archive"
	"rtflow/config"
	"rtflow/content"
	"rtflow/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("paginate")

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
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	if err := applyFlags(cmd, env.Cfg, log); err != nil {
		return err
	}

	sel, err := parseSelection(cmd.String("select"))
	if err != nil {
		return err
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("surface", env.Cfg.Render.Surface))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, sel, log)
}

// applyFlags superimposes command line overrides on configuration.
func applyFlags(cmd *cli.Command, cfg *config.Config, log *zap.Logger) error {
	if cmd.IsSet("surface") {
		kind, err := config.ParseSurfaceKind(cmd.String("surface"))
		if err != nil {
			return fmt.Errorf("unknown surface requested: %w", err)
		}
		cfg.Render.Surface = kind
	}
	if cmd.IsSet("format") {
		format, err := config.ParseSourceFormat(cmd.String("format"))
		if err != nil {
			log.Warn("Unknown source format requested, switching to auto detection", zap.Error(err))
			format = config.SourceFormatAuto
		}
		cfg.Document.Format = format
	}
	if cmd.IsSet("containers") {
		n := int(cmd.Int("containers"))
		if n < 1 {
			return fmt.Errorf("maximum number of containers must be positive: %d", n)
		}
		cfg.Layout.MaxContainers = n
	}
	for _, name := range []string{"width", "height"} {
		if !cmd.IsSet(name) {
			continue
		}
		v := cmd.Float(name)
		if v <= 0 {
			return fmt.Errorf("container %s must be positive: %g", name, v)
		}
		for i := range cfg.Layout.Containers {
			if name == "width" {
				cfg.Layout.Containers[i].Width = v
			} else {
				cfg.Layout.Containers[i].Height = v
			}
		}
	}
	return nil
}

// parseSelection parses "START:END" range of content positions, empty string
// selects nothing.
func parseSelection(s string) (Selection, error) {
	if len(s) == 0 {
		return Selection{}, nil
	}
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return Selection{}, fmt.Errorf("bad selection %q, expected START:END", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return Selection{}, fmt.Errorf("bad selection start %q: %w", from, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return Selection{}, fmt.Errorf("bad selection end %q: %w", to, err)
	}
	if start < 0 || end < 0 {
		return Selection{}, fmt.Errorf("bad selection %q, positions cannot be negative", s)
	}
	return Selection{Start: min(start, end), End: max(start, end)}, nil
}

// process handles the core processing logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, sel Selection, log *zap.Logger) error {
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
			if err := processDir(ctx, head, dst, sel, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		arc, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, sel, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if len(tail) == 0 {
			// single file is processed whatever its name, format detection
			// takes care of the rest
			file, err := os.Open(head)
			if err != nil {
				return fmt.Errorf("unable to process file: %w", err)
			}
			defer file.Close()
			if err := processSource(ctx, file, filepath.Base(head), os.DirFS(filepath.Dir(head)), dst, sel, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as archive (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding source documents and archives and
// processes them in natural order of their paths.
func processDir(ctx context.Context, dir, dst string, sel Selection, log *zap.Logger) error {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Sort(natural.StringSlice(paths))

	count := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))

		arc, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			continue
		}
		if arc {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(rel), dst, sel, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			continue
		}
		if !isSourceName(path) {
			log.Debug("Skipping file, not recognized as source or archive", zap.String("file", path))
			continue
		}

		count++
		if err := processFile(ctx, path, rel, dst, sel, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
	}
	if count == 0 {
		log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return nil
}

func processFile(ctx context.Context, path, rel, dst string, sel Selection, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return processSource(ctx, file, rel, os.DirFS(filepath.Dir(path)), dst, sel, log)
}

// processArchive walks all files inside archive, finds source documents under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, sel Selection, log *zap.Logger) (err error) {
	env := state.EnvFromContext(ctx)

	pathIn = filepath.ToSlash(pathIn)
	match := func(name string) bool {
		if !isSourceName(name) {
			return false
		}
		name = env.DecodeName(name)
		return len(pathIn) == 0 || name == pathIn || strings.HasPrefix(name, strings.TrimSuffix(pathIn, "/")+"/")
	}

	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path), zap.String("path", pathIn))
		}
	}()

	return archive.Walk(path, match, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++

		data, err := archive.ReadFile(f, env.Cfg.Document.MaxFileSize)
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
			return nil
		}
		// relative references inside archives are not followed
		name := filepath.Join(pathOut, filepath.FromSlash(env.DecodeName(f.Name)))
		if err := processSource(ctx, bytes.NewReader(data), name, nil, dst, sel, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.Name), zap.Error(err))
		}
		return nil
	})
}

// processSource lays out single source document and saves its pages. "src"
// is part of the source path (always including file name) relative to the
// original path. "dst" is the destination directory where pages should be
// written.
func processSource(ctx context.Context, r io.Reader, src string, res fs.FS, dst string, sel Selection, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var pages int

	log.Info("Pagination starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: image decoders are fed whatever documents contain, one broken
		// source should not stop processing of the rest.
		if r := recover(); r != nil {
			log.Error("Pagination ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("pagination panic: %v", r)
		} else {
			log.Info("Pagination completed", zap.Duration("elapsed", time.Since(start)), zap.Int("pages", pages))
		}
	}(time.Now())

	s, err := content.Load(ctx, r, src, res, log)
	if err != nil {
		return fmt.Errorf("unable to load source (%s): %w", src, err)
	}

	ch, err := Paginate(ctx, s, sel, log)
	if err != nil {
		return fmt.Errorf("unable to lay out source (%s): %w", src, err)
	}

	// Store chain state for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("chain/%s.txt", filepath.ToSlash(src)), []byte(ch.Dump()))
	}

	pages, err = writePages(ch, s, src, dst, env, log)
	return err
}

// writePages saves every drawn page of the chain in chain order. Failure to
// save one page does not prevent saving the others.
func writePages(ch *Chain, s *content.Source, src, dst string, env *state.LocalEnv, log *zap.Logger) (int, error) {
	drawn := make(map[string]bool)
	for _, pi := range ch.Surface.Pages() {
		drawn[pi.Link] = true
	}

	var (
		errs    error
		written int
	)
	for i, l := range ch.Links {
		if !drawn[l.Name()] {
			log.Debug("Page was never drawn", zap.String("link", l.Name()))
			continue
		}
		name := buildPagePath(s, src, dst, l.Name(), i+1, env)
		if err := writePage(ch, l.Name(), name, env, log); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		written++
	}
	return written, errs
}

func writePage(ch *Chain, link, outputName string, env *state.LocalEnv, log *zap.Logger) (err error) {
	// Check if output file already exists
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

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create page file: %w", err)
	}
	defer func() {
		if er := out.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close page file: %w", er))
		}
	}()
	if err := ch.Surface.WritePage(out, link); err != nil {
		return err
	}
	log.Debug("Page saved", zap.String("link", link), zap.String("to", outputName))
	return nil
}
