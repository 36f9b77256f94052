package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/dolla/internal/cli"
	"github.com/theirongolddev/dolla/internal/daemon"
	"github.com/theirongolddev/dolla/internal/logging"
	"github.com/theirongolddev/dolla/internal/model"

	"github.com/spf13/cobra"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Store     string    `json:"store"`
	Inbox     []string  `json:"inbox,omitempty"`
}

var daemonOpts struct {
	addr         string
	interval     time.Duration
	inbox        []string
	pidFile      string
	logFile      string
	eventsBuffer int
	detach       bool
	child        bool
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch inbox folders and serve spending over a local HTTP/SSE API",
	Long: `Run a background watcher. Every interval it imports new or changed files
from the --inbox folders into the ledger, re-reads the ledger, and publishes
spending changes at /v1/status, /v1/events and /v1/stream.`,
	RunE: runDaemon,
}

func init() {
	o := &daemonOpts
	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&o.addr, "addr", "127.0.0.1:8787", "Listen address for the local API")
	pf.DurationVar(&o.interval, "interval", 15*time.Second, "How often to poll the inbox and ledger")
	pf.StringVar(&o.pidFile, "pid-file", filepath.Join(logging.CacheDir(), "dollad.pid"), "Daemon pid file")
	pf.StringVar(&o.logFile, "log-file", filepath.Join(logging.CacheDir(), "dollad.log"), "Output file when running with --detach")
	pf.IntVar(&o.eventsBuffer, "events-buffer", 200, "Events kept for /v1/events and stream replay")

	f := daemonCmd.Flags()
	f.StringSliceVar(&o.inbox, "inbox", nil, "Folder or file to import from on every poll (repeatable)")
	f.BoolVar(&o.detach, "detach", false, "Fork into the background")
	f.BoolVar(&o.child, "child", false, "")
	_ = f.MarkHidden("child")

	daemonCmd.AddCommand(
		&cobra.Command{Use: "status", Short: "Show whether the daemon is up and what it last saw", RunE: runDaemonStatus},
		&cobra.Command{Use: "stop", Short: "Stop the running daemon", RunE: runDaemonStop},
	)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	lock := pidLock(daemonOpts.pidFile)
	switch {
	case daemonOpts.detach && daemonOpts.child:
		return errors.New("--detach and --child are mutually exclusive")
	case daemonOpts.detach:
		return spawnDetached(lock)
	default:
		return serveForeground(lock)
	}
}

// spawnDetached re-executes the current command line as a --child with its
// output appended to the daemon log.
func spawnDetached(lock pidLock) error {
	if pid, ok := lock.running(); ok {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	for _, dir := range []string{filepath.Dir(string(lock)), filepath.Dir(daemonOpts.logFile)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	//nolint:gosec // log path comes from the local user's flags
	out, err := os.OpenFile(daemonOpts.logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer func() { _ = out.Close() }()

	child := exec.Command(exe, childArgs(os.Args[1:])...) //nolint:gosec // re-exec of our own binary
	child.Stdout, child.Stderr = out, out
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d)\n", child.Process.Pid)
	fmt.Printf("  Status: http://%s/v1/status\n", daemonOpts.addr)
	fmt.Printf("  Log:    %s\n", daemonOpts.logFile)
	return nil
}

func serveForeground(lock pidLock) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := lock.acquire(); err != nil {
		return err
	}
	defer lock.release()

	if err := lock.writeState(daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      daemonOpts.addr,
		StartedAt: time.Now(),
		Store:     storePath(),
		Inbox:     daemonOpts.inbox,
	}); err != nil {
		logger.Warn("write daemon state", "err", err)
	}

	fallback, err := importFallbackCategory(sess.registry)
	if err != nil {
		return err
	}
	pm, _ := model.ParsePaymentMethod(appConfig.Entry.DefaultPaymentMethod)

	svc := daemon.New(daemon.Config{
		Inbox:        daemonOpts.inbox,
		Days:         flagDays,
		Interval:     daemonOpts.interval,
		Addr:         daemonOpts.addr,
		EventsBuffer: daemonOpts.eventsBuffer,
		Logger:       logger,
		Prepare: func(recs []model.ExpenseRecord) {
			assignCategories(recs, sess.registry, fallback, pm, appConfig.Entry.DefaultIcon)
		},
	}, sess.db, sess.ledger)

	fmt.Printf("  dolla daemon on http://%s (pid %d)\n", daemonOpts.addr, os.Getpid())
	if len(daemonOpts.inbox) > 0 {
		fmt.Printf("  Importing from %s every %s\n", strings.Join(daemonOpts.inbox, ", "), daemonOpts.interval)
	}

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	lock := pidLock(daemonOpts.pidFile)
	pid, err := lock.owner()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !pidAlive(pid) {
		fmt.Printf("  Daemon: not running (stale pid %d in %s)\n", pid, lock)
		return nil
	}

	addr := daemonOpts.addr
	if st, err := lock.state(); err == nil && st.Addr != "" {
		addr = st.Addr
	}

	st, err := fetchDaemonStatus(addr)
	if err != nil {
		fmt.Printf("  Daemon: pid %d, API at %s %s\n", pid, addr, cli.RenderError("unreachable: "+err.Error()))
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	rows := [][]string{
		{"PID", strconv.Itoa(pid)},
		{"Address", "http://" + addr},
		{"Last poll", lastPoll},
		{"Polls", strconv.FormatInt(st.PollCount, 10)},
		{"Expenses", strconv.Itoa(st.Summary.Expenses)},
		{"Spent", cli.FormatMoney(st.Summary.Spent, appConfig.General.CurrencySymbol)},
		{"Imported", strconv.Itoa(st.Imported)},
	}
	if st.LastError != "" {
		rows = append(rows, []string{"Last error", st.LastError})
	}
	fmt.Println(cli.RenderTable(cli.Table{Title: "Daemon", Rows: rows}))
	return nil
}

func fetchDaemonStatus(addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return st, err
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	lock := pidLock(daemonOpts.pidFile)
	pid, ok := lock.running()
	if !ok {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()
	timeout := time.After(8 * time.Second)
	for {
		select {
		case <-tick.C:
			if !pidAlive(pid) {
				lock.release()
				fmt.Printf("  Stopped daemon (pid %d)\n", pid)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("daemon (pid %d) did not exit within 8s", pid)
		}
	}
}

// childArgs rewrites a --detach invocation into the argv of its child.
func childArgs(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for _, a := range args {
		if a != "--detach" && !strings.HasPrefix(a, "--detach=") {
			out = append(out, a)
		}
	}
	return append(out, "--child")
}

// pidLock is a pid file path. Runtime state is kept beside it in
// <pid-file>.json.
type pidLock string

func (p pidLock) statePath() string { return string(p) + ".json" }

func (p pidLock) owner() (int, error) {
	data, err := os.ReadFile(string(p))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%s: invalid pid %q", p, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// running reports the owning pid when that process is still alive.
func (p pidLock) running() (int, bool) {
	pid, err := p.owner()
	if err != nil {
		return 0, false
	}
	return pid, pidAlive(pid)
}

// acquire claims the lock for this process, clearing a stale one.
func (p pidLock) acquire() error {
	if pid, ok := p.running(); ok {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	if err := os.MkdirAll(filepath.Dir(string(p)), 0o750); err != nil {
		return fmt.Errorf("create pid directory: %w", err)
	}
	return os.WriteFile(string(p), []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600)
}

func (p pidLock) release() {
	_ = os.Remove(string(p))
	_ = os.Remove(p.statePath())
}

func (p pidLock) writeState(st daemonRuntimeState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p.statePath(), append(data, '\n'), 0o600)
}

func (p pidLock) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	data, err := os.ReadFile(p.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// pidAlive probes pid with signal 0. EPERM still means the process exists.
func pidAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
