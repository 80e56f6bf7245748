package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"classroll/internal/archive"
	"classroll/internal/audit"
	"classroll/internal/auth"
	"classroll/internal/ledger"
	"classroll/internal/queue"
)

func ok(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": message})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

// failErr maps domain errors onto status codes and the messages clients
// already know. Unrecognised errors are logged and reported as 500.
func (s *Server) failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, "Invalid admin password")
	case errors.Is(err, ledger.ErrStudentNotFound):
		fail(c, http.StatusNotFound, "Student not found")
	case errors.Is(err, ledger.ErrFingerprintNotFound):
		fail(c, http.StatusNotFound, "Fingerprint not registered")
	case errors.Is(err, ledger.ErrAlreadyMarked):
		fail(c, http.StatusConflict, "Attendance already marked today")
	case errors.Is(err, ledger.ErrInvalidInput):
		fail(c, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, archive.ErrNotFound):
		fail(c, http.StatusNotFound, "Snapshot not found")
	default:
		s.log.Printf("request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		fail(c, http.StatusInternalServerError, "Internal error")
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ledger.ErrStudentNotFound), errors.Is(err, ledger.ErrFingerprintNotFound):
		return "not_found"
	case errors.Is(err, ledger.ErrAlreadyMarked):
		return "already_marked"
	default:
		return "other"
	}
}

func (s *Server) healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	code := http.StatusOK
	if s.deps.Redis != nil {
		healthy := s.deps.Redis.Healthy(c.Request.Context())
		body["redis"] = healthy
		if !healthy {
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, body)
}

func (s *Server) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "password required")
		return
	}
	if err := ledger.Password(s.deps.AdminPassword).Authorize(req.Password); err != nil {
		s.failErr(c, err)
		return
	}
	tok, err := auth.Issue("admin", auth.RoleAdmin, s.deps.JWTIssuer, s.deps.JWTSigningKey, s.deps.AdminTokenTTL)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"access_token": tok.Value,
		"expires_at":   tok.ExpiresAt.Unix(),
	})
}

func (s *Server) mark(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "student_id required")
		return
	}
	m, err := s.deps.Ledger.MarkAttendance(string(req.StudentID), req.Password)
	s.finishMark(c, m, err)
}

func (s *Server) markFingerprint(c *gin.Context) {
	var req fingerprintMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "fingerprint_id required")
		return
	}
	m, err := s.deps.Ledger.MarkByFingerprint(string(req.FingerprintID), req.Password)
	s.finishMark(c, m, err)
}

func (s *Server) finishMark(c *gin.Context, m ledger.Mark, err error) {
	if err != nil {
		s.deps.Metrics.Rejected(rejectionReason(err))
		s.failErr(c, err)
		return
	}
	s.deps.Metrics.Marked(string(m.Record.Status))
	s.observeSizes()
	s.publish(queue.TypeMarked, queue.Event{
		ID:         uuid.NewString(),
		StudentID:  m.Record.StudentID,
		Name:       m.Record.Name,
		Class:      m.Record.Class,
		CheckIn:    m.Record.CheckIn,
		Status:     string(m.Record.Status),
		Date:       m.Record.Date,
		TotalDays:  m.TotalDays,
		OccurredAt: time.Now().UTC(),
	})
	c.JSON(http.StatusOK, newMarkResponse(m))
}

func (s *Server) addStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "student_id required")
		return
	}
	err := s.deps.Ledger.AddOrUpdateStudent(string(req.StudentID), ledger.Student{
		Name:          string(req.Name),
		Class:         string(req.Class),
		RollNo:        string(req.RollNo),
		FingerprintID: string(req.FingerprintID),
	})
	if err != nil {
		s.failErr(c, err)
		return
	}
	s.observeSizes()
	ok(c, "Student added successfully")
}

func filterFrom(c *gin.Context) ledger.Filter {
	return ledger.Filter{Date: c.Query("date"), Class: c.Query("class")}
}

func (s *Server) records(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Ledger.ListRecords(filterFrom(c)))
}

func (s *Server) summary(c *gin.Context) {
	l := s.deps.Ledger
	c.JSON(http.StatusOK, l.Summary(l.Today()))
}

func (s *Server) exportRecords(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csv": s.deps.Ledger.ExportCSV(filterFrom(c))})
}

func (s *Server) students(c *gin.Context) {
	c.JSON(http.StatusOK, newDirectory(s.deps.Ledger.ListStudents()))
}

func (s *Server) reset(c *gin.Context) {
	s.deps.Ledger.ResetRecords()
	s.observeSizes()
	s.publish(queue.TypeReset, queue.Event{ID: uuid.NewString(), OccurredAt: time.Now().UTC()})
	ok(c, "All records cleared")
}

func (s *Server) backup(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": s.deps.Ledger.Backup()})
}

func (s *Server) restore(c *gin.Context) {
	var req restoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid backup payload: "+err.Error())
		return
	}
	s.applyRestore(req.snapshot())
	ok(c, "Data restored successfully")
}

func (s *Server) applyRestore(snap ledger.Snapshot) {
	s.deps.Ledger.Restore(snap)
	s.observeSizes()
	s.publish(queue.TypeRestored, queue.Event{ID: uuid.NewString(), OccurredAt: time.Now().UTC()})
}

func (s *Server) saveArchive(c *gin.Context) {
	if s.deps.Archive == nil {
		fail(c, http.StatusServiceUnavailable, "snapshot archive not configured")
		return
	}
	entry, err := s.deps.Archive.Save(c.Request.Context(), s.deps.Ledger.Backup())
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": entry})
}

func (s *Server) listArchive(c *gin.Context) {
	if s.deps.Archive == nil {
		fail(c, http.StatusServiceUnavailable, "snapshot archive not configured")
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	entries, err := s.deps.Archive.List(c.Request.Context(), limit)
	if err != nil {
		s.failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}

func (s *Server) restoreArchive(c *gin.Context) {
	if s.deps.Archive == nil {
		fail(c, http.StatusServiceUnavailable, "snapshot archive not configured")
		return
	}
	snap, err := s.deps.Archive.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.failErr(c, err)
		return
	}
	s.applyRestore(snap)
	ok(c, "Data restored successfully")
}

func (s *Server) auditTrail(c *gin.Context) {
	if s.deps.Audit == nil {
		fail(c, http.StatusServiceUnavailable, "audit trail not configured")
		return
	}
	q := audit.Query{
		StudentID: c.Query("student_id"),
		Day:       c.Query("date"),
		Class:     c.Query("class"),
	}
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	q.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := s.deps.Audit.List(c.Request.Context(), q)
	if err != nil {
		s.failErr(c, err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": entries})
}
