package ledger

import "errors"

// Status is the punctuality of a check-in.
type Status string

const (
	OnTime Status = "On Time"
	Late   Status = "Late"
)

// Layouts used for record timestamps and dedup dates.
const (
	TimestampLayout = "2006-01-02 15:04:05"
	DateLayout      = "2006-01-02"
)

var (
	ErrUnauthorized        = errors.New("invalid admin password")
	ErrStudentNotFound     = errors.New("student not found")
	ErrFingerprintNotFound = errors.New("fingerprint not registered")
	ErrAlreadyMarked       = errors.New("attendance already marked today")
	ErrInvalidInput        = errors.New("invalid input")
)

// Student is a directory entry.
type Student struct {
	Name          string `json:"name"`
	Class         string `json:"class"`
	RollNo        string `json:"roll_no"`
	FingerprintID string `json:"fingerprint_id,omitempty"`
}

// Record is a single check-in. Name and Class are copied from the
// directory when the record is created.
type Record struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	Class     string `json:"class"`
	CheckIn   string `json:"check_in"`
	Status    Status `json:"status"`
	Date      string `json:"date"`
}

// Row is the positional projection of a Record used by table views:
// student id, check-in, status, "name (class)".
type Row [4]string

// Mark is the result of a successful check-in.
type Mark struct {
	Record    Record
	TotalDays int
}

// Filter narrows record listings. Empty fields match everything.
type Filter struct {
	Date  string
	Class string
}

func (f Filter) match(r Record) bool {
	if f.Date != "" && r.Date != f.Date {
		return false
	}
	if f.Class != "" && r.Class != f.Class {
		return false
	}
	return true
}

// Summary is the presence breakdown for one day.
type Summary struct {
	Date    string `json:"date"`
	Total   int    `json:"total"`
	Present int    `json:"present"`
	OnTime  int    `json:"ontime"`
	Late    int    `json:"late"`
	Absent  int    `json:"absent"`
}

// Snapshot is a full copy of ledger state.
type Snapshot struct {
	Students     map[string]Student `json:"students"`
	Fingerprints map[string]string  `json:"fingerprints"`
	Records      []Record           `json:"attendance"`
	BackupDate   string             `json:"backup_date,omitempty"`
}
