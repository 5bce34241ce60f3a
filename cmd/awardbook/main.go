// Command awardbook is the staff console for the award records: it creates
// accounts, reviews enrolments, reports progress and maintains the table
// files.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"awardbook/internal/accounts"
	"awardbook/internal/award"
	"awardbook/internal/core"
	"awardbook/internal/logging"
	"awardbook/internal/metrics"
	"awardbook/internal/records"
)

var (
	exitFunc = os.Exit
	// readPassword reads without echo when stdin is a terminal.
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

const usage = `usage: awardbook [flags] <command> [args]

commands:
  init                              create empty tables if none exist
  create-staff -username U -name N  add a staff login (password prompted)
  create-student -username U -centre C -level L -year Y
                                    add a student login (password prompted)
  populate [-n N] [-target S]       write a generated student set
  overview                          list every student's progress
  pending                           list students awaiting approval
  approve <student id>              accept a student's enrolment
  reject <student id>               return a student's enrolment
  check                             evaluate the integrity rules
  backup -target S                  copy the tables under suffix S
`

func main() {
	code := cli(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("awardbook", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }
	var (
		env, dir, suffix string
		suffixSet        bool
	)
	fs.StringVar(&env, "config-env", "", "configuration environment (default $AWARDBOOK_ENV or dev)")
	fs.StringVar(&dir, "config-dir", ".", "directory holding .env and config/")
	fs.Func("suffix", "table set suffix, overriding table_suffix", func(v string) error {
		suffix, suffixSet = v, true
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	cfg, err := core.LoadConfig(env, dir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}
	if suffixSet {
		cfg.TableSuffix = suffix
	}

	a, err := newApp(context.Background(), cfg, stdin, stdout, stderr)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "awardbook: %v\n", err)
		return 1
	}
	code := a.dispatch(fs.Arg(0), fs.Args()[1:])
	if err := a.close(); err != nil {
		_, _ = fmt.Fprintf(stderr, "awardbook: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

type app struct {
	ctx     context.Context
	cfg     core.Config
	svc     *core.Service
	in      *bufio.Reader
	stdin   io.Reader
	out     io.Writer
	errOut  io.Writer
	prom    *metrics.Prometheus
	closers []io.Closer
}

func newApp(ctx context.Context, cfg core.Config, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	hasher, err := accounts.NewHasher(accounts.Scheme(cfg.PasswordScheme))
	if err != nil {
		return nil, err
	}
	a := &app{ctx: ctx, cfg: cfg, in: bufio.NewReader(stdin), stdin: stdin, out: stdout, errOut: stderr}

	backend, err := core.OpenBackend(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	if c, ok := backend.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	files, err := core.OpenFiles(ctx, cfg)
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("open %s evidence store: %w", cfg.BlobDriver, err)
	}

	opts := []core.Option{
		core.WithLogger(logging.New(level)),
		core.WithHasher(hasher),
		core.WithSuffix(cfg.TableSuffix),
	}
	if cfg.MetricsFile != "" {
		a.prom = metrics.NewPrometheus()
		opts = append(opts, core.WithMetrics(a.prom))
	}
	if cfg.TraceFile != "" {
		f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("open trace file: %w", err)
		}
		a.closers = append(a.closers, f)
		opts = append(opts, core.WithTracer(metrics.NewJSONTracer(f)))
	}
	a.svc = core.NewService(backend, files, opts...)
	return a, nil
}

func (a *app) close() error {
	var errs []error
	if a.prom != nil {
		if err := a.prom.WriteTextfile(a.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) dispatch(cmd string, args []string) int {
	var err error
	switch cmd {
	case "init":
		err = a.initTables()
	case "create-staff":
		err = a.createStaff(args)
	case "create-student":
		err = a.createStudent(args)
	case "populate":
		err = a.populate(args)
	case "overview":
		err = a.overview()
	case "pending":
		err = a.pending()
	case "approve", "reject":
		err = a.review(cmd, args)
	case "check":
		return a.check()
	case "backup":
		err = a.backup(args)
	default:
		_, _ = fmt.Fprintf(a.errOut, "unknown command %q\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		var fe flagError
		if errors.As(err, &fe) {
			return 2
		}
		_, _ = fmt.Fprintf(a.errOut, "%s failed: %v\n", cmd, err)
		return 1
	}
	return 0
}

// flagError marks a subcommand argument problem already reported.
type flagError struct{ error }

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return flagError{err}
	}
	return nil
}

func (a *app) initTables() error {
	if err := a.svc.Open(a.ctx); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "Tables ready at %s (suffix %q).\n", a.svc.Location(), a.svc.Suffix())
	return err
}

// password prompts twice, reading without echo from a terminal and line by
// line otherwise.
func (a *app) password() (string, string, error) {
	read := func(prompt string) (string, error) {
		_, _ = fmt.Fprint(a.errOut, prompt)
		if f, ok := a.stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
			b, err := readPassword(int(f.Fd()))
			_, _ = fmt.Fprintln(a.errOut)
			return string(b), err
		}
		line, err := a.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	pwd, err := read("Password: ")
	if err != nil {
		return "", "", err
	}
	confirm, err := read("Confirm password: ")
	return pwd, confirm, err
}

func (a *app) createStaff(args []string) error {
	fs := a.flags("create-staff")
	username := fs.String("username", "", "login name")
	fullname := fs.String("name", "", "full name")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := a.svc.Open(a.ctx); err != nil {
		return err
	}
	pwd, confirm, err := a.password()
	if err != nil {
		return err
	}
	staff, res, err := a.svc.CreateStaffAccount(a.ctx, accounts.StaffAccountForm{
		Username: *username, Fullname: *fullname, Password: pwd, ConfirmPassword: confirm,
	})
	a.printViolations(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Created staff account %s.\n", staff.Username)
	return err
}

func (a *app) createStudent(args []string) error {
	fs := a.flags("create-student")
	username := fs.String("username", "", "login name")
	centre := fs.String("centre", "", "centre ID")
	level := fs.String("level", "", "award level: bronze, silver or gold")
	year := fs.String("year", "", "year group, 7 to 13")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if err := a.svc.Open(a.ctx); err != nil {
		return err
	}
	pwd, confirm, err := a.password()
	if err != nil {
		return err
	}
	st, res, err := a.svc.CreateStudentAccount(a.ctx, accounts.StudentAccountForm{
		Username: *username, Password: pwd, ConfirmPassword: confirm,
		CentreID: *centre, AwardLevel: strings.ToLower(*level), YearGroup: *year,
	})
	a.printViolations(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Created student %d with login %s.\n", st.ID, *username)
	return err
}

func (a *app) populate(args []string) error {
	fs := a.flags("populate")
	n := fs.Int("n", 20, "number of students to generate")
	target := fs.String("target", core.TestSuffix, "suffix of the generated table set")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *n < 0 {
		return fmt.Errorf("-n must not be negative")
	}
	if err := a.svc.Load(a.ctx); err != nil {
		return err
	}
	usernames, err := a.svc.Populate(a.ctx, *n, *target, nil)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Usernames added:\n  %s\nAll students use password %q. Saved with suffix %q.\n",
		strings.Join(usernames, "; "), core.TestPassword, *target)
	return err
}

func (a *app) overview() error {
	if err := a.svc.Load(a.ctx); err != nil {
		return err
	}
	rows, err := a.svc.Overview(a.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tLEVEL\tPROGRESS\tVOLUNTEERING\tSKILL\tPHYSICAL")
	for _, r := range rows {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.StudentID, r.Username, dash(r.Fullname), r.AwardLevel, r.Progress,
			r.Sections[records.Volunteering], r.Sections[records.Skill], r.Sections[records.Physical])
	}
	return tw.Flush()
}

func (a *app) pending() error {
	if err := a.svc.Load(a.ctx); err != nil {
		return err
	}
	students, err := a.svc.PendingApproval(a.ctx)
	if err != nil {
		return err
	}
	if len(students) == 0 {
		_, err = fmt.Fprintln(a.out, "No students awaiting approval.")
		return err
	}
	for _, st := range students {
		e, _ := st.Enrolment()
		if _, err := fmt.Fprintf(a.out, "%d\t%s\t%s\tsubmitted %s\n", st.ID, e.Fullname, st.AwardLevel, e.SubmissionDate.Format("2006/01/02")); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) review(cmd string, args []string) error {
	if len(args) != 1 {
		_, _ = fmt.Fprintf(a.errOut, "usage: awardbook %s <student id>\n", cmd)
		return flagError{errors.New("missing student id")}
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("student id %q is not a number", args[0])
	}
	if err := a.svc.Load(a.ctx); err != nil {
		return err
	}
	var res award.Result
	if cmd == "approve" {
		res, err = a.svc.ApproveStudent(a.ctx, id)
	} else {
		res, err = a.svc.RejectStudent(a.ctx, id)
	}
	a.printViolations(res)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.out, "Student %d %sd.\n", id, cmd)
	return err
}

// check exits 1 when a blocking violation is found.
func (a *app) check() int {
	if err := a.svc.Load(a.ctx); err != nil {
		_, _ = fmt.Fprintf(a.errOut, "check failed: %v\n", err)
		return 1
	}
	res, err := a.svc.Check(a.ctx)
	if err != nil {
		_, _ = fmt.Fprintf(a.errOut, "check failed: %v\n", err)
		return 1
	}
	if len(res.Violations) == 0 {
		_, _ = fmt.Fprintln(a.out, "No rule violations.")
		return 0
	}
	a.printViolations(res)
	if res.HasBlocking() {
		return 1
	}
	return 0
}

func (a *app) backup(args []string) error {
	fs := a.flags("backup")
	target := fs.String("target", "", "suffix of the copy")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if *target == "" {
		return fmt.Errorf("-target is required")
	}
	if err := a.svc.Load(a.ctx); err != nil {
		return err
	}
	if err := a.svc.Backup(a.ctx, *target); err != nil {
		return err
	}
	_, err := fmt.Fprintf(a.out, "Backed up tables to suffix %q.\n", *target)
	return err
}

func (a *app) printViolations(res award.Result) {
	for _, v := range res.Violations {
		_, _ = fmt.Fprintf(a.out, "[%s] %s: %s\n", v.Severity, v.Rule, v.Message)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
