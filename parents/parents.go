// Package parents links parent accounts to students via the
// server-generated parent key.
package parents

import (
	"context"
	"fmt"

	"github.com/mektebapp/go-mekteb-client/client"
	"github.com/mektebapp/go-mekteb-client/students"
)

// ConnectedStudent is a roster entry enriched with attendance info
// for the parent dashboard.
type ConnectedStudent struct {
	students.Student
	LastAttendanceDate string   `json:"lastAttendanceDate,omitempty"`
	AttendanceRate     *float64 `json:"attendanceRate,omitempty"`
}

// ConnectResult is the response to redeeming a parent key.
type ConnectResult struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Student *students.Student `json:"student,omitempty"`
}

// Service exposes the /parent endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// ConnectedStudents lists the students linked to the calling parent.
func (s *Service) ConnectedStudents(ctx context.Context) ([]ConnectedStudent, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, "/parent/students", nil, &env); err != nil {
		return nil, err
	}

	var list []ConnectedStudent
	if err := env.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// Connect links the calling parent to the student identified by the
// parent key.
func (s *Service) Connect(ctx context.Context, parentKey string) (*ConnectResult, error) {
	result := &ConnectResult{}
	body := map[string]string{"parentKey": parentKey}
	if err := s.api.Post(ctx, "/parent/connect", body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Disconnect unlinks the calling parent from a student.
func (s *Service) Disconnect(ctx context.Context, studentID int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/parent/students/%d", studentID), nil)
}
