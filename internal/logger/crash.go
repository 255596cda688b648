// Package logger provides the slog setup and crash logging for CostWing.
package logger

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// MaxCrashLogs is how many crash logs are kept; older ones are pruned.
	MaxCrashLogs = 10

	defaultCrashDir = ".costwing/crash_logs"
	crashPrefix     = "crash_"
	crashSuffix     = ".log"
	crashStamp      = "20060102_150405"
)

// runState is what a crash log records about the interrupted run.
type runState struct {
	mu          sync.RWMutex
	dir         string
	version     string
	command     string
	projectFile string
	runOptions  string
}

var current = &runState{}

func (s *runState) update(f func(*runState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f(s)
}

// SetDir sets the directory crash logs are written to.
func SetDir(dir string) {
	current.update(func(s *runState) { s.dir = dir })
}

// SetVersion records the application version.
func SetVersion(version string) {
	current.update(func(s *runState) { s.version = version })
}

// SetCommand records the command path being executed, e.g. "costwing smooth".
func SetCommand(cmd string) {
	current.update(func(s *runState) { s.command = cmd })
}

// SetProjectFile records the project file being scheduled.
func SetProjectFile(path string) {
	current.update(func(s *runState) { s.projectFile = clip(strings.TrimSpace(path), 500) })
}

// SetRunOptions records the engine options of the current run,
// e.g. "objective=balance_resources extraHours=4".
func SetRunOptions(opts string) {
	current.update(func(s *runState) { s.runOptions = clip(opts, 2000) })
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... [truncated]"
}

// Dir returns the crash log directory.
func Dir() string {
	current.mu.RLock()
	defer current.mu.RUnlock()
	if current.dir == "" {
		return defaultCrashDir
	}
	return current.dir
}

// CrashLog is one recorded panic.
type CrashLog struct {
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Command     string    `json:"command"`
	PanicValue  string    `json:"panic_value"`
	StackTrace  string    `json:"stack_trace"`
	ProjectFile string    `json:"project_file,omitempty"`
	RunOptions  string    `json:"run_options,omitempty"`
	GoVersion   string    `json:"go_version"`
	OS          string    `json:"os"`
	Arch        string    `json:"arch"`
}

// HandlePanic recovers a panic, writes a crash log and exits with status 1.
// Usage: defer logger.HandlePanic()
func HandlePanic() {
	r := recover()
	if r == nil {
		return
	}
	entry := newCrashLog(r, debug.Stack())
	path, err := writeCrashLog(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n[CRASH] could not write crash log: %v\n[CRASH] panic: %v\n%s\n", err, r, entry.StackTrace)
		os.Exit(1)
	}
	reportCrash(os.Stderr, path)
	os.Exit(1)
}

func reportCrash(w io.Writer, path string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CostWing stopped unexpectedly. The crash log is at:")
	fmt.Fprintf(w, "  %s\n", path)
	fmt.Fprintln(w, "Run 'costwing crashes --show' to print it, and include it when reporting the issue:")
	fmt.Fprintln(w, "  https://github.com/josephgoksu/CostWing/issues")
}

func newCrashLog(panicValue any, stack []byte) CrashLog {
	current.mu.RLock()
	defer current.mu.RUnlock()

	return CrashLog{
		Timestamp:   time.Now(),
		Version:     current.version,
		Command:     current.command,
		PanicValue:  fmt.Sprint(panicValue),
		StackTrace:  string(stack),
		ProjectFile: current.projectFile,
		RunOptions:  current.runOptions,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
}

// writeCrashLog stores entry and prunes old logs. It returns the file written.
func writeCrashLog(entry CrashLog) (string, error) {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create crash log dir: %w", err)
	}
	path := crashLogPath(dir, entry.Timestamp)
	if err := os.WriteFile(path, []byte(entry.String()), 0o644); err != nil {
		return "", fmt.Errorf("write crash log: %w", err)
	}
	if err := prune(dir, MaxCrashLogs); err != nil {
		fmt.Fprintf(os.Stderr, "[WARN] failed to prune crash logs: %v\n", err)
	}
	return path, nil
}

func crashLogPath(dir string, t time.Time) string {
	return filepath.Join(dir, crashPrefix+t.Format(crashStamp)+crashSuffix)
}

// String renders the crash log as plain text.
func (c CrashLog) String() string {
	var sb strings.Builder
	rule := strings.Repeat("=", 80)

	fmt.Fprintf(&sb, "%s\nCOSTWING CRASH LOG\n%s\n\n", rule, rule)
	fmt.Fprintf(&sb, "Timestamp: %s\n", c.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(&sb, "Version:   %s\n", c.Version)
	fmt.Fprintf(&sb, "Command:   %s\n", c.Command)
	fmt.Fprintf(&sb, "Go:        %s\n", c.GoVersion)
	fmt.Fprintf(&sb, "OS/Arch:   %s/%s\n", c.OS, c.Arch)

	section(&sb, "PANIC VALUE", c.PanicValue)
	section(&sb, "STACK TRACE", c.StackTrace)
	section(&sb, "PROJECT FILE", c.ProjectFile)
	section(&sb, "RUN OPTIONS", c.RunOptions)

	fmt.Fprintf(&sb, "\n%s\nEND OF CRASH LOG\n%s\n", rule, rule)
	return sb.String()
}

// section writes a titled block; empty bodies are skipped.
func section(sb *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	rule := strings.Repeat("-", 80)
	fmt.Fprintf(sb, "\n%s\n%s\n%s\n%s", rule, title, rule, body)
	if !strings.HasSuffix(body, "\n") {
		sb.WriteString("\n")
	}
}

// CrashLogFile is a crash log on disk.
type CrashLogFile struct {
	Path string    `json:"path"`
	Time time.Time `json:"time"`
}

// CrashLogs lists the crash logs in Dir, newest first.
func CrashLogs() ([]CrashLogFile, error) {
	return listCrashLogs(Dir())
}

func listCrashLogs(dir string) ([]CrashLogFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read crash log dir: %w", err)
	}

	var out []CrashLogFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, crashPrefix) || !strings.HasSuffix(name, crashSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, crashPrefix), crashSuffix)
		t, err := time.ParseInLocation(crashStamp, stamp, time.Local)
		if err != nil {
			continue
		}
		out = append(out, CrashLogFile{Path: filepath.Join(dir, name), Time: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.After(out[j].Time)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// prune keeps the newest keep logs in dir.
func prune(dir string, keep int) error {
	logs, err := listCrashLogs(dir)
	if err != nil || len(logs) <= keep {
		return err
	}
	for _, l := range logs[keep:] {
		if err := os.Remove(l.Path); err != nil {
			return fmt.Errorf("remove %s: %w", filepath.Base(l.Path), err)
		}
	}
	return nil
}

// ReadCrashLog returns the contents of a crash log file.
func ReadCrashLog(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read crash log: %w", err)
	}
	return string(data), nil
}
