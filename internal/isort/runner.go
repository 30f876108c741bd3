// Package isort invokes the external isort tool and translates its results
// for the protocol layer.
package isort

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	"isort-lsp/internal/document"
	"isort-lsp/internal/settings"
)

const (
	// Module is the Python module name of the tool.
	Module = "isort"
	// Display is the user-facing tool name.
	Display = "isort"
	// MinVersion is the oldest tool version the server supports.
	MinVersion = "5.10.1"
)

var log = commonlog.GetLogger("isort-lsp.runner")

// Result is the normalized output of one tool invocation. Exception carries
// the traceback when a companion process reports a remote failure; it is
// also folded into Stderr so output parsing sees it.
type Result struct {
	Stdout    string
	Stderr    string
	Exception string
}

// Strategy selects how a tool invocation is executed.
type Strategy int

const (
	// StrategyPath runs the configured executable directly.
	StrategyPath Strategy = iota
	// StrategyRPC delegates to a companion process under the configured
	// interpreter.
	StrategyRPC
	// StrategyModule runs the tool module under the server's own Python.
	StrategyModule
)

// Runner dispatches tool invocations across the three execution strategies.
type Runner struct {
	rpc *RPCPool

	hostOnce sync.Once
	hostPath string

	stdlibOnce sync.Once
	stdlibDirs []string
}

func NewRunner() *Runner {
	return &Runner{rpc: NewRPCPool()}
}

// RunOnDocument runs the tool against one document. A nil result with nil
// error means a precondition skipped the run; callers must treat that as
// "no findings", never as an empty success.
func (r *Runner) RunOnDocument(doc *document.Document, s settings.Settings, extra []string, useStdin bool) (*Result, error) {
	path, kind := document.Locate(doc.URI)

	switch {
	case kind == document.KindInteractive:
		log.Debugf("skipping interactive window: %s", doc.URI)
		return nil, nil
	case r.IsStdlibFile(path):
		log.Debugf("skipping standard library file: %s", path)
		return nil, nil
	case !IsPython(doc.Text):
		log.Warningf("skipping document that does not parse as Python: %s", doc.URI)
		return nil, nil
	}

	cwd := settings.ResolveCwd(s, doc)
	if strings.Contains(cwd, "${fileDirname}") {
		cwd = strings.ReplaceAll(cwd, "${fileDirname}", filepath.Dir(path))
	}

	// The tool treats all stdin input as LF-terminated; the document's own
	// endings are restored when edits are built.
	source := strings.ReplaceAll(doc.Text, "\r\n", "\n")

	switch r.selectStrategy(s) {
	case StrategyPath:
		argv := buildArgv(s.Path, s, extra, useStdin, path)
		log.Infof("%s; CWD: %s", strings.Join(argv, " "), cwd)
		return r.runProcess(argv[0], argv[1:], cwd, nil, useStdin, source)
	case StrategyRPC:
		argv := buildArgv([]string{Module}, s, extra, useStdin, path)
		log.Infof("%s -m %s; CWD: %s", strings.Join(s.Interpreter, " "), strings.Join(argv, " "), cwd)
		return r.runOverRPC(s, argv, useStdin, cwd, source)
	default:
		argv := buildArgv([]string{Module}, s, extra, useStdin, path)
		log.Infof("-m %s; CWD: %s", strings.Join(argv, " "), cwd)
		return r.runModule(s, argv, cwd, useStdin, source)
	}
}

// Run invokes the tool without a document, for probes like --version-number.
// Only the configured arguments apply; no stdin marker or filename is added.
func (r *Runner) Run(s settings.Settings, extra []string) (*Result, error) {
	cwd := settings.ResolveCwd(s, nil)

	switch r.selectStrategy(s) {
	case StrategyPath:
		argv := append(slices.Clone(s.Path), extra...)
		log.Infof("%s; CWD: %s", strings.Join(argv, " "), cwd)
		return r.runProcess(argv[0], argv[1:], cwd, nil, true, "")
	case StrategyRPC:
		argv := append([]string{Module}, extra...)
		log.Infof("%s -m %s; CWD: %s", strings.Join(s.Interpreter, " "), strings.Join(argv, " "), cwd)
		return r.runOverRPC(s, argv, true, cwd, "")
	default:
		argv := append([]string{Module}, extra...)
		log.Infof("-m %s; CWD: %s", strings.Join(argv, " "), cwd)
		return r.runModule(s, argv, cwd, true, "")
	}
}

// Shutdown terminates all companion processes.
func (r *Runner) Shutdown() {
	r.rpc.Shutdown()
}

// selectStrategy picks the execution strategy. An explicit executable path
// always wins; a configured interpreter other than the server's own routes
// through the companion process.
func (r *Runner) selectStrategy(s settings.Settings) Strategy {
	if len(s.Path) > 0 {
		return StrategyPath
	}
	if len(s.Interpreter) > 0 && !r.isOwnInterpreter(s.Interpreter[0]) {
		return StrategyRPC
	}
	return StrategyModule
}

// buildArgv assembles the tool argument vector. Stdin mode needs the "-"
// marker before any options, plus --filename at the end so the tool still
// discovers per-project configuration for the real path.
func buildArgv(base []string, s settings.Settings, extra []string, useStdin bool, docPath string) []string {
	argv := slices.Clone(base)
	if useStdin {
		argv = append(argv, "-")
	}
	argv = append(argv, s.Args...)
	argv = append(argv, extra...)
	if useStdin {
		argv = append(argv, "--filename", docPath)
	} else {
		argv = append(argv, docPath)
	}
	return argv
}

// runProcess executes a command directly. A non-zero exit is not an error
// here: check mode reports findings through the exit code and stderr.
func (r *Runner) runProcess(name string, args []string, cwd string, env []string, useStdin bool, source string) (*Result, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = cwd
	if env != nil {
		cmd.Env = env
	}
	if useStdin {
		cmd.Stdin = strings.NewReader(source)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("run %s: %w", name, err)
		}
	}

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if result.Stderr != "" {
		log.Info(result.Stderr)
	}
	return result, nil
}

// runModule runs the tool module under the server's own Python, with the
// bundled libraries injected into the subprocess module search path.
func (r *Runner) runModule(s settings.Settings, argv []string, cwd string, useStdin bool, source string) (*Result, error) {
	python := r.ownInterpreter()
	if python == "" {
		return nil, errors.New("no python interpreter found on PATH")
	}

	result, err := r.runProcess(python, append([]string{"-m"}, argv...), cwd, moduleEnv(s.ImportStrategy), useStdin, source)
	if err != nil {
		return nil, err
	}
	if reason, skipped := fileSkipped(result); skipped {
		log.Warningf("%s skipped the file: %s", Display, reason)
		return nil, nil
	}
	return result, nil
}

// runOverRPC delegates the invocation to a companion process running under
// the configured interpreter.
func (r *Runner) runOverRPC(s settings.Settings, argv []string, useStdin bool, cwd, source string) (*Result, error) {
	resp, err := r.rpc.Run(RunRequest{
		Workspace:   s.WorkspaceFS,
		Interpreter: s.Interpreter,
		Module:      Module,
		Argv:        argv,
		UseStdin:    useStdin,
		Cwd:         cwd,
		Source:      source,
		Env: map[string]string{
			"LS_IMPORT_STRATEGY": s.ImportStrategy,
		},
	})
	if err != nil {
		return nil, err
	}

	result := &Result{Stdout: resp.Stdout, Stderr: resp.Stderr}
	if resp.Exception != "" {
		log.Error(resp.Exception)
		result.Exception = resp.Exception
		result.Stderr = resp.Exception
	} else if result.Stderr != "" {
		log.Info(result.Stderr)
	}
	return result, nil
}

// fileSkipped detects the tool's own skip report, raised for files matched
// by its skip or skip_glob configuration.
func fileSkipped(result *Result) (string, bool) {
	for _, line := range strings.Split(result.Stderr, "\n") {
		if strings.Contains(line, "was skipped as it's listed in") {
			return strings.TrimSpace(line), true
		}
	}
	return "", false
}

// ownInterpreter resolves the server's default Python once.
func (r *Runner) ownInterpreter() string {
	r.hostOnce.Do(func() {
		for _, name := range []string{"python3", "python"} {
			if path, err := exec.LookPath(name); err == nil {
				r.hostPath = path
				return
			}
		}
	})
	return r.hostPath
}

// isOwnInterpreter reports whether the configured interpreter is the same
// one the server would use anyway, making the companion process pointless.
func (r *Runner) isOwnInterpreter(path string) bool {
	own := r.ownInterpreter()
	return own != "" && settings.NormalizePath(path) == settings.NormalizePath(own)
}

// IsStdlibFile reports whether path is inside the Python standard library.
// Such files are never linted or formatted.
func (r *Runner) IsStdlibFile(path string) bool {
	r.stdlibOnce.Do(func() {
		r.stdlibDirs = queryStdlibDirs(r.ownInterpreter())
	})
	if path == "" {
		return false
	}
	norm := settings.NormalizePath(path)
	for _, dir := range r.stdlibDirs {
		if strings.HasPrefix(norm, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// queryStdlibDirs asks the interpreter for its standard library locations.
func queryStdlibDirs(python string) []string {
	if python == "" {
		return nil
	}
	out, err := exec.Command(python, "-c",
		"import sysconfig\nfor p in ('stdlib', 'platstdlib'):\n    print(sysconfig.get_paths()[p])").Output()
	if err != nil {
		return nil
	}

	var dirs []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			dirs = append(dirs, settings.NormalizePath(line))
		}
	}
	return dirs
}

// moduleEnv builds the subprocess environment with the bundled libraries on
// PYTHONPATH.
func moduleEnv(importStrategy string) []string {
	libs := bundledLibsDir()
	if libs == "" {
		return nil
	}
	env := environWithout("PYTHONPATH")
	return append(env, "PYTHONPATH="+mergePythonPath(os.Getenv("PYTHONPATH"), libs, importStrategy))
}

// mergePythonPath positions the bundled libraries relative to an existing
// module search path. useBundled puts them ahead of any user site-packages
// so the shipped tool wins; fromEnvironment defers to the user's
// environment.
func mergePythonPath(current, libs, importStrategy string) string {
	switch {
	case current == "":
		return libs
	case strings.Contains(current, libs):
		return current
	case importStrategy == "fromEnvironment":
		return current + string(os.PathListSeparator) + libs
	default:
		return libs + string(os.PathListSeparator) + current
	}
}

func environWithout(key string) []string {
	env := os.Environ()
	filtered := make([]string, 0, len(env))
	prefix := key + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			filtered = append(filtered, kv)
		}
	}
	return filtered
}

// bundledLibsDir locates the tool libraries shipped alongside the server
// binary, if present.
func bundledLibsDir() string {
	return bundledPath("libs")
}

// runnerScriptPath locates the companion runner script shipped alongside
// the server binary.
func runnerScriptPath() string {
	return bundledPath("tool", "lsp_runner.py")
}

func bundledPath(parts ...string) string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	path := filepath.Join(append([]string{filepath.Dir(exe), "bundled"}, parts...)...)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
