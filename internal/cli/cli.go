package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"

	"sessions-admin/internal/api"
	"sessions-admin/internal/app"
	"sessions-admin/internal/dashboard"
	"sessions-admin/internal/devserver"
	"sessions-admin/internal/timefmt"
	"sessions-admin/internal/types"
	"sessions-admin/internal/utils"
)

// Run executes the command line in os.Args and returns the exit code.
func Run() int {
	return Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Main is Run with explicit arguments and streams.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	r := &runner{stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return r.runTUI(args)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "tui":
		return r.runTUI(rest)
	case "login":
		return r.runLogin(rest)
	case "logout":
		return r.runLogout(rest)
	case "status":
		return r.runStatus(rest)
	case "list":
		return r.runList(rest)
	case "delete":
		return r.runDelete(rest)
	case "send":
		return r.runSend(rest)
	case "send-all":
		return r.runSendAll(rest)
	case "mock-server":
		return r.runMockServer(rest)
	case "help":
		r.usage()
		return 0
	default:
		r.usage()
		return 1
	}
}

type runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// Notices arrive from errgroup goroutines during send.
	outMu sync.Mutex
}

func (r *runner) usage() {
	fmt.Fprintln(r.stderr, "sessions-admin <command> [options]")
	fmt.Fprintln(r.stderr, "Commands: tui, login, logout, status, list, delete, send, send-all, mock-server")
}

func (r *runner) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

func (r *runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.stdout, format, args...)
}

func (r *runner) fail(err error) int {
	fmt.Fprintf(r.stderr, "error: %v\n", err)
	return 1
}

// open builds the App for a one-shot subcommand. Logs go to stderr when
// --verbose is set and to the shared log file otherwise.
func (r *runner) open(common *commonFlags, opts app.Options) (*app.App, error) {
	cfg, err := resolveConfig(common)
	if err != nil {
		return nil, err
	}
	var logger *utils.Logger
	if common.verbose {
		logger = utils.NewWriterLogger(cfg.Logging.Level, r.stderr)
	} else {
		logger, err = utils.NewFileLogger(cfg.Logging.Level, cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
	}
	return app.New(cfg, logger.With("run", utils.NewID("cli")), opts)
}

// notices prints dashboard notices as they are raised: info to stdout,
// errors to stderr.
func (r *runner) notices() dashboard.Notifier {
	return func(n dashboard.Notice) {
		r.outMu.Lock()
		defer r.outMu.Unlock()
		if n.Level == dashboard.LevelError {
			fmt.Fprintln(r.stderr, n.Text)
			return
		}
		fmt.Fprintln(r.stdout, n.Text)
	}
}

func (r *runner) runLogin(args []string) int {
	fs := r.flagSet("login")
	common := addCommonFlags(fs)
	email := fs.String("email", "", "account email (default: last used)")
	password := fs.String("password", "", "account password (read from stdin when empty)")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}

	a, err := r.open(common, app.Options{})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	if *email == "" {
		*email = a.LastEmail()
	}
	if *password == "" {
		fmt.Fprint(r.stderr, "Password: ")
		line, err := bufio.NewReader(r.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return r.fail(err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}
	if strings.TrimSpace(*email) == "" || *password == "" {
		fmt.Fprintln(r.stderr, "usage: sessions-admin login --email <email> [--password <password>]")
		return 1
	}

	ctx, cancel := contextWithSignals()
	defer cancel()
	user, err := a.Login(ctx, strings.TrimSpace(*email), *password)
	if err != nil {
		return r.fail(err)
	}
	r.printf("Logged in as %s <%s>\n", user.Name, user.Email)
	return 0
}

func (r *runner) runLogout(args []string) int {
	fs := r.flagSet("logout")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	a, err := r.open(common, app.Options{})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := a.Auth.Bootstrap(ctx); err != nil {
		return r.fail(err)
	}
	if !a.Auth.Authenticated() {
		r.printf("Not logged in\n")
		return 0
	}
	a.Logout(ctx)
	r.printf("Logged out\n")
	return 0
}

type statusReport struct {
	API           string      `json:"api"`
	Storage       string      `json:"storage"`
	StoragePath   string      `json:"storagePath"`
	Authenticated bool        `json:"authenticated"`
	User          *types.User `json:"user,omitempty"`
	TokenExpires  string      `json:"tokenExpires,omitempty"`
}

func (r *runner) runStatus(args []string) int {
	fs := r.flagSet("status")
	common := addCommonFlags(fs)
	format := fs.String("format", "pretty", "output format: json|pretty")
	refresh := fs.Bool("refresh", false, "exchange the refresh cookie for a new access token")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	a, err := r.open(common, app.Options{})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := a.Auth.Bootstrap(ctx); err != nil {
		return r.fail(err)
	}
	if *refresh && a.Auth.Authenticated() {
		if err := a.RefreshToken(ctx); err != nil {
			return r.fail(fmt.Errorf("refresh: %w", err))
		}
	}

	report := statusReport{
		API:           a.Client.BaseURL(),
		Storage:       a.Config.Storage.Driver,
		StoragePath:   a.Config.Storage.Path,
		Authenticated: a.Auth.Authenticated(),
	}
	if user, ok := a.Auth.User(); ok {
		report.User = &user
	}
	if exp, ok := a.Auth.TokenExpiry(); ok {
		report.TokenExpires = exp.UTC().Format("2006-01-02T15:04:05Z07:00")
	}

	if *format == "json" {
		return r.printJSON(report)
	}
	r.printf("API:      %s\n", report.API)
	r.printf("Storage:  %s (%s)\n", report.Storage, report.StoragePath)
	if report.User == nil {
		r.printf("User:     not logged in\n")
		return 0
	}
	r.printf("User:     %s <%s>\n", report.User.Name, report.User.Email)
	if report.TokenExpires != "" {
		r.printf("Token:    expires %s\n", report.TokenExpires)
	}
	return 0
}

// loadDashboard restores the stored login and fetches the session list.
func (r *runner) loadDashboard(ctx context.Context, a *app.App, search string) error {
	if _, err := a.RequireLogin(ctx); err != nil {
		return err
	}
	if err := a.Dashboard.Refresh(ctx); err != nil {
		if api.IsUnauthorized(err) {
			return fmt.Errorf("session expired; run `sessions-admin login` again: %w", err)
		}
		return fmt.Errorf("load sessions: %w", err)
	}
	a.Dashboard.SetSearch(search)
	return nil
}

func (r *runner) runList(args []string) int {
	fs := r.flagSet("list")
	common := addCommonFlags(fs)
	format := fs.String("format", "pretty", "output format: json|pretty")
	search := fs.String("search", "", "filter by session, topic, email, mobile or faculty")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	a, err := r.open(common, app.Options{})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := r.loadDashboard(ctx, a, *search); err != nil {
		return r.fail(err)
	}

	visible := a.Dashboard.Visible()
	if *format == "json" {
		return r.printJSON(visible)
	}
	if len(visible) == 0 {
		r.printf("%s\n", a.Dashboard.EmptyText())
		return 0
	}
	r.printf("%s\n%s\n", sessionTable(visible), a.Dashboard.Summary())
	return 0
}

func sessionTable(sessions []types.Session) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "SESSION", "DATE", "TIME", "HALL", "FACULTY", "TYPE", "EMAIL")
	for _, s := range sessions {
		t.Row(
			s.ID,
			s.SessionName,
			timefmt.FormatDate(s.Date),
			timefmt.To12Hour(s.StartTime)+" - "+timefmt.To12Hour(s.EndTime),
			s.HallName,
			s.FacultyName,
			types.FacultyType(s.FacultyType).Label(),
			s.Email,
		)
	}
	return t.Render()
}

func (r *runner) runDelete(args []string) int {
	fs := r.flagSet("delete")
	common := addCommonFlags(fs)
	yes := fs.Bool("yes", false, "confirm the deletion")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(r.stderr, "usage: sessions-admin delete <session-id> --yes")
		return 1
	}
	id := fs.Arg(0)

	a, err := r.open(common, app.Options{Notifier: r.notices()})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := r.loadDashboard(ctx, a, ""); err != nil {
		return r.fail(err)
	}
	if err := a.Dashboard.RequestDelete(id); err != nil {
		return r.fail(fmt.Errorf("%s: %w", id, err))
	}
	if !*yes {
		pending, _ := a.Dashboard.PendingDelete()
		a.Dashboard.CancelDelete()
		fmt.Fprintf(r.stderr, "refusing to delete %q without --yes\n", pending.SessionName)
		return 1
	}
	if err := a.Dashboard.ConfirmDelete(ctx); err != nil {
		return 1
	}
	r.printf("Deleted %s\n", id)
	return 0
}

func (r *runner) runSend(args []string) int {
	fs := r.flagSet("send")
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(r.stderr, "usage: sessions-admin send <session-id>...")
		return 1
	}

	a, err := r.open(common, app.Options{Notifier: r.notices()})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := r.loadDashboard(ctx, a, ""); err != nil {
		return r.fail(err)
	}

	// Every id is attempted; one failure does not cancel the others.
	var g errgroup.Group
	g.SetLimit(4)
	for _, id := range fs.Args() {
		id := id
		g.Go(func() error {
			if err := a.Dashboard.SendEmail(ctx, id); err != nil {
				if errors.Is(err, dashboard.ErrNotFound) {
					r.outMu.Lock()
					fmt.Fprintf(r.stderr, "%s: session not found\n", id)
					r.outMu.Unlock()
				}
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 1
	}
	return 0
}

func (r *runner) runSendAll(args []string) int {
	fs := r.flagSet("send-all")
	common := addCommonFlags(fs)
	search := fs.String("search", "", "count only sessions matching this filter in the notice")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}
	a, err := r.open(common, app.Options{Notifier: r.notices()})
	if err != nil {
		return r.fail(err)
	}
	defer a.Close()

	ctx, cancel := contextWithSignals()
	defer cancel()
	if err := r.loadDashboard(ctx, a, *search); err != nil {
		return r.fail(err)
	}
	if err := a.Dashboard.SendAllEmails(ctx); err != nil {
		return 1
	}
	return 0
}

func (r *runner) runMockServer(args []string) int {
	fs := r.flagSet("mock-server")
	addr := fs.String("addr", "127.0.0.1:8080", "listen address")
	name := fs.String("name", "Admin", "account name")
	email := fs.String("email", "admin@example.com", "account email")
	password := fs.String("password", "admin123", "account password")
	seed := fs.Bool("seed", true, "start with sample sessions")
	verbose := fs.Bool("verbose", false, "log every request")
	if err := fs.Parse(args); err != nil {
		return exitCode(err)
	}

	level := "info"
	if *verbose {
		level = "debug"
	}
	logger := utils.NewWriterLogger(level, r.stderr)
	defer logger.Sync()

	server := devserver.New(devserver.Options{Logger: logger.With("component", "devserver")})
	if _, err := server.AddUser(*name, *email, *password); err != nil {
		return r.fail(err)
	}
	if *seed {
		server.Seed(sampleSessions()...)
	}

	ctx, cancel := contextWithSignals()
	defer cancel()
	logger.Infof("mock backend on http://%s/api (login %s)", *addr, *email)
	if err := server.Start(ctx, *addr); err != nil {
		return r.fail(err)
	}
	return 0
}

func sampleSessions() []types.Session {
	return []types.Session{
		{
			SessionName: "Opening Keynote",
			TopicName:   "Advances in Cardiology",
			Date:        "2025-03-14T00:00:00.000Z",
			HallName:    "Hall A",
			FacultyName: "Dr. Meera Rao",
			FacultyType: string(types.FacultyKeynote),
			Email:       "meera.rao@example.com",
			Mobile:      "9876543210",
			StartTime:   "9:00 AM",
			EndTime:     "10:00 AM",
		},
		{
			SessionName: "Stroke Care Panel",
			TopicName:   "Acute Stroke Pathways",
			Date:        "2025-03-14T00:00:00.000Z",
			HallName:    "Hall B",
			FacultyName: "Dr. Arjun Iyer",
			FacultyType: string(types.FacultyPanelist),
			Email:       "arjun.iyer@example.com",
			Mobile:      "9123456780",
			StartTime:   "11:30 AM",
			EndTime:     "12:30 PM",
		},
	}
}

func (r *runner) printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return r.fail(err)
	}
	r.printf("%s\n", data)
	return 0
}

func contextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
