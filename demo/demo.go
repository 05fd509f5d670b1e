package demo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
)

// ErrNoDemos indicates nothing was selected for the bundle.
var ErrNoDemos = errors.New("no demos found")

// EntryFile marks a directory as a demo.
const EntryFile = "run.py"

// DefaultWorkers bounds concurrent demo copies.
const DefaultWorkers = 8

// Demo is one demo in the bundle.
type Demo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Dir   string `json:"-"` // Source directory
}

// Bundle is an assembled, deployable directory.
type Bundle struct {
	Dir      string   `json:"dir"`
	Demos    []Demo   `json:"demos"`
	WheelURL string   `json:"wheel_url"`
	Files    []string `json:"files"` // Slash-separated, relative to Dir, sorted
}

// Options describe what the bundle is built for.
type Options struct {
	Package  string // Distribution name whose pins are replaced by WheelURL
	Version  string
	WheelURL string
	SHA      string
	PRNumber int
	SDK      string // Space SDK, "gradio" when empty
}

// Assembler builds demo bundles.
type Assembler struct {
	root    string
	include []string
	exclude []string
	workers int
	loader  *Loader
	logger  *slog.Logger
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithInclude restricts the bundle to the named demos.
func WithInclude(names ...string) AssemblerOption {
	return func(a *Assembler) { a.include = names }
}

// WithExclude drops the named demos.
func WithExclude(names ...string) AssemblerOption {
	return func(a *Assembler) { a.exclude = names }
}

// WithWorkers sets the copy parallelism.
func WithWorkers(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithLoader sets the template loader.
func WithLoader(l *Loader) AssemblerOption {
	return func(a *Assembler) { a.loader = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) AssemblerOption {
	return func(a *Assembler) { a.logger = l }
}

// NewAssembler creates an Assembler for the demos under root.
func NewAssembler(root string, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		root:    root,
		workers: DefaultWorkers,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.loader == nil {
		a.loader = NewLoader("")
	}
	return a
}

// Discover lists the selected demos in name order.
func (a *Assembler) Discover() ([]Demo, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, fmt.Errorf("read demo root: %w", err)
	}

	var demos []Demo
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || skipDir(name) {
			continue
		}
		if len(a.include) > 0 && !slices.Contains(a.include, name) {
			continue
		}
		if slices.Contains(a.exclude, name) {
			continue
		}
		dir := filepath.Join(a.root, name)
		if _, err := os.Stat(filepath.Join(dir, EntryFile)); err != nil {
			continue
		}
		demos = append(demos, Demo{Name: name, Title: titleCase(name), Dir: dir})
	}

	sort.Slice(demos, func(i, j int) bool { return demos[i].Name < demos[j].Name })
	return demos, nil
}

// Assemble copies the selected demos into stagingDir and writes the
// generated files.
func (a *Assembler) Assemble(ctx context.Context, stagingDir string, opts Options) (*Bundle, error) {
	if opts.WheelURL == "" {
		return nil, fmt.Errorf("assemble: wheel URL is required")
	}

	demos, err := a.Discover()
	if err != nil {
		return nil, err
	}
	if len(demos) == 0 {
		return nil, fmt.Errorf("%w under %s", ErrNoDemos, a.root)
	}

	demosDir := filepath.Join(stagingDir, "demos")
	if err := os.MkdirAll(demosDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	p := pool.New().WithContext(ctx).WithCancelOnError().WithMaxGoroutines(a.workers)
	for _, d := range demos {
		p.Go(func(ctx context.Context) error {
			if err := copyTree(ctx, d.Dir, filepath.Join(demosDir, d.Name)); err != nil {
				return fmt.Errorf("copy demo %s: %w", d.Name, err)
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	a.logger.Info("demos copied", "count", len(demos), "staging", stagingDir)

	reqs, err := MergeRequirements(opts.Package, opts.WheelURL, demos)
	if err != nil {
		return nil, err
	}
	if err := writeFile(stagingDir, "requirements.txt", strings.Join(reqs, "\n")+"\n"); err != nil {
		return nil, err
	}

	if opts.SDK == "" {
		opts.SDK = "gradio"
	}
	data := templateData{
		Options: opts,
		Demos:   demos,
		Title:   fmt.Sprintf("PR %d All Demos", opts.PRNumber),
		Heading: fmt.Sprintf("Demos for pull request #%d", opts.PRNumber),
	}
	for _, name := range []string{"app.py", "README.md"} {
		content, err := a.loader.Render(name, data)
		if err != nil {
			return nil, err
		}
		if err := writeFile(stagingDir, name, content); err != nil {
			return nil, err
		}
	}

	files, err := listFiles(stagingDir)
	if err != nil {
		return nil, err
	}

	return &Bundle{Dir: stagingDir, Demos: demos, WheelURL: opts.WheelURL, Files: files}, nil
}

type templateData struct {
	Options
	Demos   []Demo
	Title   string
	Heading string
}

// MergeRequirements returns wheelURL followed by the de-duplicated
// requirements of every demo, in first-seen order. Lines naming pkg are
// dropped so the wheel is the only source of the package.
func MergeRequirements(pkg, wheelURL string, demos []Demo) ([]string, error) {
	out := []string{wheelURL}
	seen := map[string]bool{wheelURL: true}
	pkgName := normalizeName(pkg)

	for _, d := range demos {
		f, err := os.Open(filepath.Join(d.Dir, "requirements.txt"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read requirements for %s: %w", d.Name, err)
		}

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if i := strings.Index(line, " #"); i >= 0 {
				line = strings.TrimSpace(line[:i])
			}
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if pkgName != "" && requirementName(line) == pkgName {
				continue
			}
			if !seen[line] {
				seen[line] = true
				out = append(out, line)
			}
		}
		err = scanner.Err()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read requirements for %s: %w", d.Name, err)
		}
	}
	return out, nil
}

var reqName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*`)

func requirementName(line string) string {
	return normalizeName(reqName.FindString(line))
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

func normalizeName(name string) string {
	return nameSeparators.ReplaceAllString(strings.ToLower(name), "-")
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && (strings.HasPrefix(d.Name(), ".") || d.Name() == "__pycache__") {
				return filepath.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeFile(dir, name, content string) error {
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bundle files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}
