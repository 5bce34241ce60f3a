package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"awardbook/internal/accounts"
	"awardbook/internal/award"
	"awardbook/internal/blob"
	"awardbook/internal/infra/persistence/memory"
	"awardbook/internal/logging"
	"awardbook/internal/metrics"
	"awardbook/internal/records"
	"awardbook/internal/validation"
)

var (
	// ErrInvalidCredentials is returned for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotLoaded is returned by operations issued before Open.
	ErrNotLoaded = errors.New("tables have not been loaded")
)

// ErrNotFound indicates that the requested entity does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Service runs every award operation against one database. Mutations are
// applied in a transaction: the tables are snapshotted first, the rules
// engine runs afterwards, and any error or blocking violation restores the
// snapshot. Successful mutations are written through to the backend.
type Service struct {
	mu      sync.Mutex
	db      *records.Database
	suffix  string
	loaded  bool
	log     logging.Logger
	now     func() time.Time
	hasher  accounts.Hasher
	rules   *award.Engine
	metrics metrics.Recorder
	tracer  metrics.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the time source; tests pin it.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithHasher sets the password hasher for new accounts.
func WithHasher(h accounts.Hasher) Option {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithRules replaces the default rules engine.
func WithRules(e *award.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.rules = e
		}
	}
}

// WithMetrics sets the operation recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(t metrics.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithSuffix selects which table set is used, e.g. " (test students)".
func WithSuffix(suffix string) Option {
	return func(s *Service) { s.suffix = suffix }
}

// NewService constructs a service over backend and the evidence store.
func NewService(backend records.Backend, files blob.Store, opts ...Option) *Service {
	s := &Service{
		log:     logging.Noop(),
		now:     time.Now,
		hasher:  accounts.PBKDF2Hasher{},
		rules:   award.NewDefaultEngine(),
		metrics: metrics.Noop(),
		tracer:  metrics.NoopTracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.db = records.NewDatabase(backend, files, records.WithLogger(s.log))
	return s
}

// Suffix is the table set in use.
func (s *Service) Suffix() string { return s.suffix }

// Location describes where the tables are stored.
func (s *Service) Location() string { return s.db.Location() }

// Open loads the tables. When none exist yet an empty set is written
// first; a partially missing set is an error.
func (s *Service) Open(ctx context.Context) error {
	return s.observe(ctx, "open", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		err := s.db.Load(ctx, s.suffix)
		var missing *records.MissingTablesError
		if errors.As(err, &missing) && len(missing.Files) == len(s.db.Tables()) {
			s.log.Info("creating empty tables", "location", s.db.Location(), "suffix", s.suffix)
			err = s.db.Save(ctx, s.suffix)
		}
		if err != nil {
			return errors.Wrap(err, "open tables")
		}
		s.loaded = true
		s.recordRows()
		return nil
	})
}

// Load replaces the in-memory tables with the stored ones.
func (s *Service) Load(ctx context.Context) error {
	return s.observe(ctx, "load", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := s.db.Load(ctx, s.suffix); err != nil {
			return errors.Wrap(err, "load tables")
		}
		s.loaded = true
		s.recordRows()
		return nil
	})
}

// Save evaluates the rules and writes every table. Blocking violations
// abort the save with a RuleViolationError.
func (s *Service) Save(ctx context.Context) (award.Result, error) {
	var res award.Result
	err := s.observe(ctx, "save", func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			return ErrNotLoaded
		}
		var err error
		if res, err = s.rules.Evaluate(ctx, s.db); err != nil {
			return err
		}
		if res.HasBlocking() {
			return award.RuleViolationError{Result: res}
		}
		return errors.Wrap(s.db.Save(ctx, s.suffix), "save tables")
	})
	return res, err
}

// Backup writes the loaded tables under another suffix. The tables in use
// keep their own suffix.
func (s *Service) Backup(ctx context.Context, suffix string) error {
	if suffix == s.suffix {
		return errors.Errorf("backup suffix %q is the suffix in use", suffix)
	}
	return s.view(ctx, "backup", func(db *records.Database) error {
		if err := db.Save(ctx, suffix); err != nil {
			return errors.Wrapf(err, "back up tables to %q", suffix)
		}
		s.log.Info("tables backed up", "location", db.Location(), "suffix", suffix)
		return nil
	})
}

// Check runs the rules engine without changing anything.
func (s *Service) Check(ctx context.Context) (award.Result, error) {
	var res award.Result
	err := s.view(ctx, "check", func(db *records.Database) error {
		var err error
		res, err = s.rules.Evaluate(ctx, db)
		return err
	})
	return res, err
}

// observe wraps fn with a span and an operation metric.
func (s *Service) observe(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	err := fn(ctx)
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
	span.End(err)
	if err != nil {
		s.log.Debug("operation failed", "operation", op, "error", err)
	}
	return err
}

// view runs a read-only operation.
func (s *Service) view(ctx context.Context, op string, fn func(*records.Database) error) error {
	return s.observe(ctx, op, func(context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			return ErrNotLoaded
		}
		return fn(s.db)
	})
}

// run executes fn in a transaction and persists the result.
func (s *Service) run(ctx context.Context, op string, fn func(ctx context.Context, db *records.Database) error) (award.Result, error) {
	var res award.Result
	err := s.observe(ctx, op, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loaded {
			return ErrNotLoaded
		}
		snapshot := memory.NewStore()
		if err := s.db.SaveTo(ctx, snapshot, ""); err != nil {
			return errors.Wrap(err, "snapshot tables")
		}
		rollback := func(cause error) error {
			if err := s.db.LoadFrom(ctx, snapshot, ""); err != nil {
				s.log.Error("rollback failed", "operation", op, "error", err)
				return errors.Wrapf(cause, "rollback failed (%v)", err)
			}
			return cause
		}
		if err := fn(ctx, s.db); err != nil {
			return rollback(err)
		}
		var err error
		if res, err = s.rules.Evaluate(ctx, s.db); err != nil {
			return rollback(err)
		}
		if res.HasBlocking() {
			return rollback(award.RuleViolationError{Result: res})
		}
		for _, v := range res.Violations {
			s.log.Warn("rule violation", "rule", v.Rule, "severity", string(v.Severity), "table", v.Table, "key", v.Key, "message", v.Message)
		}
		if err := s.db.Save(ctx, s.suffix); err != nil {
			return rollback(errors.Wrap(err, "save tables"))
		}
		s.recordRows()
		return nil
	})
	return res, err
}

func (s *Service) recordRows() {
	for _, t := range s.db.Tables() {
		s.metrics.SetRows(t.Name(), t.Len())
	}
}

func studentOf(db *records.Database, id int) (*records.Student, error) {
	st, ok := db.Students.Get(id)
	if !ok {
		return nil, ErrNotFound{Entity: "student", ID: fmt.Sprint(id)}
	}
	return st, nil
}

// CreateStudentAccount validates the form, then adds the login and a
// partial student record. If the student cannot be added the login is
// removed again.
func (s *Service) CreateStudentAccount(ctx context.Context, form accounts.StudentAccountForm) (*records.Student, award.Result, error) {
	if err := form.Validate(); err != nil {
		return nil, award.Result{}, err
	}
	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, award.Result{}, errors.Wrap(err, "hash password")
	}
	var created *records.Student
	res, err := s.run(ctx, "create_student_account", func(_ context.Context, db *records.Database) error {
		var err error
		created, err = addStudent(db, form.Username, hash, form.CentreID, form.AwardLevel, form.YearGroup)
		return err
	})
	if err == nil {
		s.log.Info("student account created", "username", form.Username, "student_id", created.ID)
	}
	return created, res, err
}

func addStudent(db *records.Database, username, hash, centreID, level, yearGroup string) (*records.Student, error) {
	if _, taken := db.Staff.Get(username); taken {
		return nil, validation.Errorf(validation.Mismatch, "username", username, "username is already taken")
	}
	if _, taken := db.Credentials.Get(username); taken {
		return nil, validation.Errorf(validation.Mismatch, "username", username, "username is already taken")
	}
	id, err := records.NextID(db.Students)
	if err != nil {
		return nil, err
	}
	st, err := records.NewStudent(id, centreID, level, yearGroup)
	if err != nil {
		return nil, err
	}
	cred, err := records.NewCredential(username, hash, id)
	if err != nil {
		return nil, err
	}
	if err := db.Credentials.Add(cred); err != nil {
		return nil, err
	}
	if err := db.Students.Add(st); err != nil {
		_ = db.Credentials.Delete(username)
		return nil, err
	}
	return st, nil
}

// CreateStaffAccount validates the form and adds a staff login.
func (s *Service) CreateStaffAccount(ctx context.Context, form accounts.StaffAccountForm) (*records.Staff, award.Result, error) {
	if err := form.Validate(); err != nil {
		return nil, award.Result{}, err
	}
	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return nil, award.Result{}, errors.Wrap(err, "hash password")
	}
	var created *records.Staff
	res, err := s.run(ctx, "create_staff_account", func(_ context.Context, db *records.Database) error {
		if _, taken := db.Credentials.Get(form.Username); taken {
			return validation.Errorf(validation.Mismatch, "username", form.Username, "username is already taken")
		}
		var err error
		if created, err = records.NewStaff(form.Username, hash, form.Fullname); err != nil {
			return err
		}
		return db.Staff.Add(created)
	})
	if err == nil {
		s.log.Info("staff account created", "username", form.Username)
	}
	return created, res, err
}

// AuthenticateStudent returns the student whose login matches.
func (s *Service) AuthenticateStudent(ctx context.Context, username, password string) (*records.Student, error) {
	var st *records.Student
	err := s.view(ctx, "authenticate_student", func(db *records.Database) error {
		cred, ok := db.Credentials.Get(username)
		if !ok || !accounts.Verify(password, cred.PasswordHash) {
			return ErrInvalidCredentials
		}
		var err error
		st, err = studentOf(db, cred.StudentID)
		return err
	})
	return st, err
}

// AuthenticateStaff returns the staff member whose login matches.
func (s *Service) AuthenticateStaff(ctx context.Context, username, password string) (*records.Staff, error) {
	var staff *records.Staff
	err := s.view(ctx, "authenticate_staff", func(db *records.Database) error {
		row, ok := db.Staff.Get(username)
		if !ok || !accounts.Verify(password, row.PasswordHash) {
			return ErrInvalidCredentials
		}
		staff = row
		return nil
	})
	return staff, err
}

// Student returns a student by id.
func (s *Service) Student(ctx context.Context, id int) (*records.Student, error) {
	var st *records.Student
	err := s.view(ctx, "get_student", func(db *records.Database) error {
		var err error
		st, err = studentOf(db, id)
		return err
	})
	return st, err
}

// CompleteEnrolment records a partial student's personal details.
func (s *Service) CompleteEnrolment(ctx context.Context, studentID int, form records.EnrolmentForm) (award.Result, error) {
	return s.run(ctx, "complete_enrolment", func(_ context.Context, db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		return st.CompleteEnrolment(form, s.now())
	})
}

// ApproveStudent accepts a student whose details await review.
func (s *Service) ApproveStudent(ctx context.Context, studentID int) (award.Result, error) {
	return s.run(ctx, "approve_student", func(_ context.Context, db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		return st.Approve()
	})
}

// RejectStudent returns a student's details for resubmission.
func (s *Service) RejectStudent(ctx context.Context, studentID int) (award.Result, error) {
	return s.run(ctx, "reject_student", func(_ context.Context, db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		return st.Reject()
	})
}

// PendingApproval lists students awaiting review, ordered by id.
func (s *Service) PendingApproval(ctx context.Context) ([]*records.Student, error) {
	var out []*records.Student
	err := s.view(ctx, "pending_approval", func(db *records.Database) error {
		for _, st := range db.Students.Rows() {
			if st.Phase() == records.PhasePendingApproval {
				out = append(out, st)
			}
		}
		return nil
	})
	return out, err
}

// TimeframeOptions lists the lengths a student may still pick for typ.
func (s *Service) TimeframeOptions(ctx context.Context, studentID int, typ records.SectionType) ([]award.Months, error) {
	var out []award.Months
	err := s.view(ctx, "timeframe_options", func(db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		out = award.PossibleTimeframes(st.AwardLevel, typ, award.ChosenTimeframes(st, db.Sections))
		return nil
	})
	return out, err
}

// StartSection validates the proposal against the student's level and
// existing sections, then links the new section to the student.
func (s *Service) StartSection(ctx context.Context, studentID int, p records.SectionProposal) (*records.Section, award.Result, error) {
	var created *records.Section
	res, err := s.run(ctx, "start_section", func(_ context.Context, db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		id, err := records.NextID(db.Sections)
		if err != nil {
			return err
		}
		sec, err := records.NewSection(id, p, s.now())
		if err != nil {
			return err
		}
		if err := award.CheckTimescale(st.AwardLevel, sec.Type, award.ChosenTimeframes(st, db.Sections), sec.Timescale); err != nil {
			return err
		}
		if err := st.LinkSection(sec.Type, sec.ID); err != nil {
			return err
		}
		if err := db.Sections.Add(sec); err != nil {
			st.UnlinkSection(sec.Type)
			return err
		}
		created = sec
		return nil
	})
	return created, res, err
}

// AttachEvidence uploads files as evidence for the student's section of
// type typ. If the operation fails every file it stored is removed.
func (s *Service) AttachEvidence(ctx context.Context, studentID int, typ records.SectionType, uploads []records.Upload) ([]*records.Resource, award.Result, error) {
	var added []*records.Resource
	res, err := s.run(ctx, "attach_evidence", func(ctx context.Context, db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		sectionID, ok := st.SectionID(typ)
		if !ok {
			return ErrNotFound{Entity: "section", ID: fmt.Sprintf("%s of student %d", typ, studentID)}
		}
		added, err = db.Resources.AddStudentResources(ctx, studentID, sectionID, uploads, s.now())
		return err
	})
	if err != nil {
		for _, r := range added {
			if _, derr := s.db.Resources.Files().Delete(ctx, r.FilePath); derr != nil {
				s.log.Error("evidence cleanup failed", "path", r.FilePath, "error", derr)
			}
		}
		return nil, res, err
	}
	return added, res, nil
}

// MarkSectionReport flags a piece of evidence as its section's report.
func (s *Service) MarkSectionReport(ctx context.Context, resourceID int) (award.Result, error) {
	return s.run(ctx, "mark_section_report", func(_ context.Context, db *records.Database) error {
		return award.MarkSectionReport(db.Resources, resourceID)
	})
}

// UnmarkSectionReport clears the report flag.
func (s *Service) UnmarkSectionReport(ctx context.Context, resourceID int) (award.Result, error) {
	return s.run(ctx, "unmark_section_report", func(_ context.Context, db *records.Database) error {
		return award.UnmarkSectionReport(db.Resources, resourceID)
	})
}

// DeleteResource removes a resource and its stored file. The file is gone
// even if the table change is later rolled back.
func (s *Service) DeleteResource(ctx context.Context, resourceID int) (award.Result, error) {
	return s.run(ctx, "delete_resource", func(ctx context.Context, db *records.Database) error {
		return db.Resources.Delete(ctx, resourceID)
	})
}

// Evidence lists the resources attached to the student's section of typ.
func (s *Service) Evidence(ctx context.Context, studentID int, typ records.SectionType) ([]*records.Resource, error) {
	var out []*records.Resource
	err := s.view(ctx, "evidence", func(db *records.Database) error {
		st, err := studentOf(db, studentID)
		if err != nil {
			return err
		}
		if id, ok := st.SectionID(typ); ok {
			out = db.Resources.ForParent(id)
		}
		return nil
	})
	return out, err
}

// OverviewRow is one line of the staff overview.
type OverviewRow struct {
	StudentID  int
	Username   string
	Fullname   string
	AwardLevel records.AwardLevel
	Phase      records.Phase
	Progress   award.Progress
	Sections   map[records.SectionType]award.Status
}

// Overview summarises every student, ordered by id.
func (s *Service) Overview(ctx context.Context) ([]OverviewRow, error) {
	var rows []OverviewRow
	err := s.view(ctx, "overview", func(db *records.Database) error {
		now := s.now()
		students := db.Students.Rows()
		sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
		for _, st := range students {
			username, _ := db.UsernameFor(st.ID)
			row := OverviewRow{
				StudentID:  st.ID,
				Username:   username,
				Fullname:   st.Fullname(),
				AwardLevel: st.AwardLevel,
				Phase:      st.Phase(),
				Progress:   award.ProgressSummary(st, db.Sections, db.Resources, now),
				Sections:   make(map[records.SectionType]award.Status, len(records.SectionTypes)),
			}
			sections := db.SectionsOf(st)
			for _, typ := range records.SectionTypes {
				row.Sections[typ] = award.SectionStatus(sections[typ], db.Resources, now)
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}
