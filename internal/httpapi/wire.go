package httpapi

import (
	"encoding/json"
	"fmt"

	"classroll/internal/ledger"
)

// flexString accepts JSON strings and numbers, so ids like 101 and "101"
// decode the same way. null decodes to "".
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

type markRequest struct {
	StudentID flexString `json:"student_id" binding:"required"`
	Password  string     `json:"password"`
}

type fingerprintMarkRequest struct {
	FingerprintID flexString `json:"fingerprint_id" binding:"required"`
	Password      string     `json:"password"`
}

type markResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	ClassName  string `json:"class_name"`
	CheckIn    string `json:"check_in"`
	StatusType string `json:"status_type"`
	TotalDays  int    `json:"total_days"`
}

func newMarkResponse(m ledger.Mark) markResponse {
	return markResponse{
		Status:     "success",
		Message:    "Attendance marked",
		StudentID:  m.Record.StudentID,
		Name:       m.Record.Name,
		ClassName:  m.Record.Class,
		CheckIn:    m.Record.CheckIn,
		StatusType: string(m.Record.Status),
		TotalDays:  m.TotalDays,
	}
}

type studentRequest struct {
	StudentID     flexString `json:"student_id" binding:"required"`
	Name          flexString `json:"name"`
	Class         flexString `json:"class"`
	RollNo        flexString `json:"roll_no"`
	FingerprintID flexString `json:"fingerprint_id"`
}

// directoryEntry is the public shape of a student in GET /students.
type directoryEntry struct {
	Name   string `json:"name"`
	Class  string `json:"class"`
	RollNo string `json:"roll_no"`
}

func newDirectory(students map[string]ledger.Student) map[string]directoryEntry {
	out := make(map[string]directoryEntry, len(students))
	for id, st := range students {
		out[id] = directoryEntry{Name: st.Name, Class: st.Class, RollNo: st.RollNo}
	}
	return out
}

type tokenRequest struct {
	Password string `json:"password" binding:"required"`
}

type studentWire struct {
	Name          flexString `json:"name"`
	Class         flexString `json:"class"`
	RollNo        flexString `json:"roll_no"`
	FingerprintID flexString `json:"fingerprint_id"`
}

type recordWire struct {
	StudentID flexString `json:"student_id"`
	Name      flexString `json:"name"`
	Class     flexString `json:"class"`
	CheckIn   flexString `json:"check_in"`
	Status    flexString `json:"status"`
	Date      flexString `json:"date"`
}

// restoreRequest mirrors the backup payload. Every field is optional.
type restoreRequest struct {
	Students     map[string]studentWire `json:"students"`
	Fingerprints map[string]flexString  `json:"fingerprints"`
	Attendance   []recordWire           `json:"attendance"`
}

func (r restoreRequest) snapshot() ledger.Snapshot {
	snap := ledger.Snapshot{
		Students:     make(map[string]ledger.Student, len(r.Students)),
		Fingerprints: make(map[string]string, len(r.Fingerprints)),
		Records:      make([]ledger.Record, 0, len(r.Attendance)),
	}
	for id, st := range r.Students {
		snap.Students[id] = ledger.Student{
			Name:          string(st.Name),
			Class:         string(st.Class),
			RollNo:        string(st.RollNo),
			FingerprintID: string(st.FingerprintID),
		}
	}
	for fp, id := range r.Fingerprints {
		snap.Fingerprints[fp] = string(id)
	}
	for _, rec := range r.Attendance {
		snap.Records = append(snap.Records, ledger.Record{
			StudentID: string(rec.StudentID),
			Name:      string(rec.Name),
			Class:     string(rec.Class),
			CheckIn:   string(rec.CheckIn),
			Status:    ledger.Status(rec.Status),
			Date:      string(rec.Date),
		})
	}
	return snap
}
