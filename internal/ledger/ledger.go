package ledger

import (
	"crypto/subtle"
	"strings"
	"sync"
	"time"
)

// Authorizer decides whether a caller-supplied admin secret may mark attendance.
type Authorizer interface {
	Authorize(secret string) error
}

// Password is an Authorizer backed by a single shared secret.
type Password string

// Authorize compares in constant time.
func (p Password) Authorize(secret string) error {
	if p == "" || subtle.ConstantTimeCompare([]byte(p), []byte(secret)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLocation sets the timezone used for check-in times and dates.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

// WithLateCutoff replaces the default rule: every check-in at or after
// hour:minute:00 counts as late.
func WithLateCutoff(hour, minute int) Option {
	return func(l *Ledger) {
		l.late = CutoffRule(hour, minute)
	}
}

// WithLateRule sets the predicate that marks a check-in time as late.
func WithLateRule(rule LateRule) Option {
	return func(l *Ledger) {
		if rule != nil {
			l.late = rule
		}
	}
}

// LateRule reports whether a check-in at t is late.
type LateRule func(t time.Time) bool

// HourMinuteRule is late when the hour is at least hour and the minute
// is past minute. With (9, 0) 09:00:59 and 10:00:00 are on time while
// 09:01 and 10:15 are late.
func HourMinuteRule(hour, minute int) LateRule {
	return func(t time.Time) bool {
		return t.Hour() >= hour && t.Minute() > minute
	}
}

// CutoffRule is late for any time of day at or after hour:minute:00.
func CutoffRule(hour, minute int) LateRule {
	cutoff := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute
	return func(t time.Time) bool {
		tod := time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second
		return tod >= cutoff
	}
}

// Ledger owns the student directory, fingerprint bindings and the
// append-only attendance log. All methods are safe for concurrent use.
type Ledger struct {
	mu           sync.Mutex
	auth         Authorizer
	now          func() time.Time
	loc          *time.Location
	late         LateRule
	students     map[string]Student
	fingerprints map[string]string
	records      []Record
}

// New creates an empty ledger that authorizes marks with auth.
func New(auth Authorizer, opts ...Option) *Ledger {
	l := &Ledger{
		auth:         auth,
		now:          time.Now,
		loc:          time.Local,
		late:         HourMinuteRule(9, 0),
		students:     make(map[string]Student),
		fingerprints: make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) clock() time.Time {
	return l.now().In(l.loc)
}

// Today returns the current calendar date in the ledger's timezone.
func (l *Ledger) Today() string {
	return l.clock().Format(DateLayout)
}

// StatusAt classifies a check-in time with the ledger's late rule.
func (l *Ledger) StatusAt(t time.Time) Status {
	if l.late(t) {
		return Late
	}
	return OnTime
}

// MarkAttendance records today's check-in for studentID.
func (l *Ledger) MarkAttendance(studentID, secret string) (Mark, error) {
	if err := l.authorize(secret); err != nil {
		return Mark{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markLocked(studentID)
}

// MarkByFingerprint resolves a fingerprint binding and marks the bound student.
func (l *Ledger) MarkByFingerprint(fingerprintID, secret string) (Mark, error) {
	if err := l.authorize(secret); err != nil {
		return Mark{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	studentID, ok := l.fingerprints[fingerprintID]
	if !ok {
		return Mark{}, ErrFingerprintNotFound
	}
	return l.markLocked(studentID)
}

func (l *Ledger) authorize(secret string) error {
	if l.auth == nil {
		return ErrUnauthorized
	}
	if err := l.auth.Authorize(secret); err != nil {
		return ErrUnauthorized
	}
	return nil
}

func (l *Ledger) markLocked(studentID string) (Mark, error) {
	st, ok := l.students[studentID]
	if !ok {
		return Mark{}, ErrStudentNotFound
	}
	now := l.clock()
	date := now.Format(DateLayout)
	for _, r := range l.records {
		if r.StudentID == studentID && r.Date == date {
			return Mark{}, ErrAlreadyMarked
		}
	}

	rec := Record{
		StudentID: studentID,
		Name:      st.Name,
		Class:     st.Class,
		CheckIn:   now.Format(TimestampLayout),
		Status:    l.StatusAt(now),
		Date:      date,
	}
	l.records = append(l.records, rec)

	total := 0
	for _, r := range l.records {
		if r.StudentID == studentID {
			total++
		}
	}
	return Mark{Record: rec, TotalDays: total}, nil
}

// AddOrUpdateStudent upserts a directory entry. A non-empty fingerprint id
// is bound to the student, replacing any previous binding of that id.
func (l *Ledger) AddOrUpdateStudent(studentID string, st Student) error {
	if strings.TrimSpace(studentID) == "" {
		return ErrInvalidInput
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.students[studentID] = st
	if st.FingerprintID != "" {
		l.fingerprints[st.FingerprintID] = studentID
	}
	return nil
}

// ListRecords returns the projection of every record matching f, oldest first.
func (l *Ledger) ListRecords(f Filter) []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]Row, 0, len(l.records))
	for _, r := range l.records {
		if f.match(r) {
			rows = append(rows, Row{r.StudentID, r.CheckIn, string(r.Status), r.Name + " (" + r.Class + ")"})
		}
	}
	return rows
}

// Summary computes the presence breakdown for day. Absent is total minus
// present and goes negative when more records exist than students.
func (l *Ledger) Summary(day string) Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Summary{Date: day, Total: len(l.students)}
	for _, r := range l.records {
		if r.Date != day {
			continue
		}
		s.Present++
		switch r.Status {
		case OnTime:
			s.OnTime++
		case Late:
			s.Late++
		}
	}
	s.Absent = s.Total - s.Present
	return s
}

// CSVHeader is the first line of every export.
const CSVHeader = "Student ID,Name,Class,Check-in,Status"

// ExportCSV renders the records matching f. Fields are not quoted.
func (l *Ledger) ExportCSV(f Filter) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var b strings.Builder
	b.WriteString(CSVHeader)
	b.WriteByte('\n')
	for _, r := range l.records {
		if !f.match(r) {
			continue
		}
		b.WriteString(strings.Join([]string{r.StudentID, r.Name, r.Class, r.CheckIn, string(r.Status)}, ","))
		b.WriteByte('\n')
	}
	return b.String()
}

// ResetRecords clears the attendance log. Students and fingerprints stay.
func (l *Ledger) ResetRecords() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Backup returns a deep copy of the ledger state stamped with the capture time.
func (l *Ledger) Backup() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := Snapshot{
		Students:     copyStudents(l.students),
		Fingerprints: copyBindings(l.fingerprints),
		Records:      make([]Record, len(l.records)),
		BackupDate:   l.clock().Format(time.RFC3339),
	}
	copy(snap.Records, l.records)
	return snap
}

// Restore replaces all state with the snapshot's contents. Nil collections
// restore as empty.
func (l *Ledger) Restore(snap Snapshot) {
	students := copyStudents(snap.Students)
	fingerprints := copyBindings(snap.Fingerprints)
	records := make([]Record, len(snap.Records))
	copy(records, snap.Records)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.students = students
	l.fingerprints = fingerprints
	l.records = records
}

// ListStudents returns a copy of the directory.
func (l *Ledger) ListStudents() map[string]Student {
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyStudents(l.students)
}

// Counts reports directory and log sizes.
func (l *Ledger) Counts() (students, records int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.students), len(l.records)
}

func copyStudents(in map[string]Student) map[string]Student {
	out := make(map[string]Student, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyBindings(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
