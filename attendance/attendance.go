// Package attendance tracks daily attendance records.
package attendance

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mektebapp/go-mekteb-client/client"
)

// Status enumerates the attendance states a student can be marked
// with for a given day.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusExcused Status = "EXCUSED"
)

// Valid reports whether s is one of the known attendance states.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Record is one student's attendance for one day. The attendance
// endpoints use snake_case field names, unlike the rest of the API.
type Record struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	Status    Status `json:"status"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`

	StudentFirstName string `json:"student_first_name,omitempty"`
	StudentLastName  string `json:"student_last_name,omitempty"`
	GradeLevel       string `json:"grade_level,omitempty"`
	ParentName       string `json:"parent_name,omitempty"`
}

// Entry is one row of a create or bulk-create request. Date uses the
// YYYY-MM-DD format.
type Entry struct {
	StudentID int64  `json:"student_id"`
	Date      string `json:"date"`
	Status    Status `json:"status"`
}

// StudentStats summarises one student's attendance over a period.
type StudentStats struct {
	TotalDays      int     `json:"totalDays"`
	PresentDays    int     `json:"presentDays"`
	AbsentDays     int     `json:"absentDays"`
	LateDays       int     `json:"lateDays"`
	ExcusedDays    int     `json:"excusedDays"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// SummaryTotals aggregates a whole day across the school.
type SummaryTotals struct {
	TotalStudents int     `json:"totalStudents"`
	PresentCount  int     `json:"presentCount"`
	AbsentCount   int     `json:"absentCount"`
	LateCount     int     `json:"lateCount"`
	ExcusedCount  int     `json:"excusedCount"`
	PresentRate   float64 `json:"presentRate"`
}

// GradeSummary aggregates a day for one grade level.
type GradeSummary struct {
	GradeLevel    *string `json:"grade_level"`
	TotalStudents int     `json:"totalStudents"`
	PresentCount  int     `json:"presentCount"`
	AbsentCount   int     `json:"absentCount"`
	LateCount     int     `json:"lateCount"`
	ExcusedCount  int     `json:"excusedCount"`
}

// Summary is the per-day roll-up returned by the summary endpoint.
type Summary struct {
	Totals  SummaryTotals  `json:"totals"`
	ByGrade []GradeSummary `json:"byGrade"`
}

// Service exposes the /attendance endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// List returns attendance records, optionally limited to one date.
func (s *Service) List(ctx context.Context, date string) ([]Record, error) {
	var query url.Values
	if date != "" {
		query = url.Values{"date": []string{date}}
	}
	return s.records(ctx, "/attendance", query)
}

// ByDate returns all records for a given date.
func (s *Service) ByDate(ctx context.Context, date string) ([]Record, error) {
	return s.records(ctx, "/attendance/date/"+url.PathEscape(date), nil)
}

// SummaryByDate returns the school-wide roll-up for a date.
func (s *Service) SummaryByDate(ctx context.Context, date string) (*Summary, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, "/attendance/date/"+url.PathEscape(date)+"/summary", nil, &env); err != nil {
		return nil, err
	}

	summary := &Summary{}
	if err := env.Decode(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

// ByStudent returns one student's records within an optional date
// range.
func (s *Service) ByStudent(ctx context.Context, studentID int64, startDate, endDate string) ([]Record, error) {
	return s.records(ctx, fmt.Sprintf("/attendance/student/%d", studentID), rangeQuery(startDate, endDate))
}

// StudentStats returns one student's aggregate attendance figures.
func (s *Service) StudentStats(ctx context.Context, studentID int64, startDate, endDate string) (*StudentStats, error) {
	var env client.Envelope
	path := fmt.Sprintf("/attendance/student/%d/stats", studentID)
	if err := s.api.Get(ctx, path, rangeQuery(startDate, endDate), &env); err != nil {
		return nil, err
	}

	stats := &StudentStats{}
	if err := env.Decode(stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// Create records a single attendance entry.
func (s *Service) Create(ctx context.Context, entry Entry) (*Record, error) {
	if !entry.Status.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", entry.Status)
	}

	var env client.Envelope
	if err := s.api.Post(ctx, "/attendance", entry, &env); err != nil {
		return nil, err
	}

	record := &Record{}
	if err := env.Decode(record); err != nil {
		return nil, err
	}
	return record, nil
}

// CreateBulk records attendance for a whole class in one call.
func (s *Service) CreateBulk(ctx context.Context, entries []Entry) ([]Record, error) {
	for _, entry := range entries {
		if !entry.Status.Valid() {
			return nil, fmt.Errorf("invalid attendance status %q", entry.Status)
		}
	}

	var env client.Envelope
	body := map[string][]Entry{"attendanceList": entries}
	if err := s.api.Post(ctx, "/attendance/bulk", body, &env); err != nil {
		return nil, err
	}

	var records []Record
	if err := env.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// Update changes the status of an existing record.
func (s *Service) Update(ctx context.Context, id int64, status Status) (*Record, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("invalid attendance status %q", status)
	}

	var env client.Envelope
	body := map[string]Status{"status": status}
	if err := s.api.Put(ctx, fmt.Sprintf("/attendance/%d", id), body, &env); err != nil {
		return nil, err
	}

	record := &Record{}
	if err := env.Decode(record); err != nil {
		return nil, err
	}
	return record, nil
}

// Delete removes an attendance record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/attendance/%d", id), nil)
}

func (s *Service) records(ctx context.Context, path string, query url.Values) ([]Record, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, path, query, &env); err != nil {
		return nil, err
	}

	var records []Record
	if err := env.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func rangeQuery(startDate, endDate string) url.Values {
	query := url.Values{}
	if startDate != "" {
		query.Set("startDate", startDate)
	}
	if endDate != "" {
		query.Set("endDate", endDate)
	}
	return query
}
