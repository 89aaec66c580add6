// Package students manages the student roster.
package students

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mektebapp/go-mekteb-client/client"
)

// Student is a roster entry. ParentKey is the server-generated code a
// parent redeems to link their account to the student.
type Student struct {
	ID             int64   `json:"id"`
	ParentID       *int64  `json:"parentId"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	DateOfBirth    string  `json:"dateOfBirth"`
	GradeLevel     string  `json:"gradeLevel"`
	ParentKey      *string `json:"parentKey"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
	ParentName     string  `json:"parentName,omitempty"`
	ParentUsername string  `json:"parentUsername,omitempty"`
}

// CreateInput is the payload for adding a student.
type CreateInput struct {
	ParentID    *int64 `json:"parentId,omitempty"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"`
	GradeLevel  string `json:"gradeLevel"`
}

// UpdateInput carries only the fields to change.
type UpdateInput struct {
	ParentID    *int64  `json:"parentId,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	GradeLevel  *string `json:"gradeLevel,omitempty"`
}

// ListParams controls paging and searching of the roster.
type ListParams struct {
	Page   int
	Limit  int
	Search string
}

// Service exposes the /students endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// List returns a roster page along with the server's paging block.
func (s *Service) List(ctx context.Context, params ListParams) ([]Student, *client.Pagination, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("limit", strconv.Itoa(params.Limit))
	query.Set("search", params.Search)

	var env client.Envelope
	if err := s.api.Get(ctx, "/students", query, &env); err != nil {
		return nil, nil, err
	}

	var list []Student
	if err := env.Decode(&list); err != nil {
		return nil, nil, err
	}
	return list, env.Pagination, nil
}

// Get returns a single student by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Student, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, fmt.Sprintf("/students/%d", id), nil, &env); err != nil {
		return nil, err
	}

	student := &Student{}
	if err := env.Decode(student); err != nil {
		return nil, err
	}
	return student, nil
}

// Create adds a student to the roster.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Student, error) {
	var env client.Envelope
	if err := s.api.Post(ctx, "/students", input, &env); err != nil {
		return nil, err
	}

	student := &Student{}
	if err := env.Decode(student); err != nil {
		return nil, err
	}
	return student, nil
}

// Update changes the given fields of a student.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*Student, error) {
	var env client.Envelope
	if err := s.api.Put(ctx, fmt.Sprintf("/students/%d", id), input, &env); err != nil {
		return nil, err
	}

	student := &Student{}
	if err := env.Decode(student); err != nil {
		return nil, err
	}
	return student, nil
}

// Delete removes a student.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/students/%d", id), nil)
}

// Search looks students up by free text.
func (s *Service) Search(ctx context.Context, term string) ([]Student, error) {
	query := url.Values{}
	query.Set("q", term)

	var env client.Envelope
	if err := s.api.Get(ctx, "/students/search", query, &env); err != nil {
		return nil, err
	}

	var list []Student
	if err := env.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// ByGrade returns the students in a grade level.
func (s *Service) ByGrade(ctx context.Context, grade string) ([]Student, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, "/students/grade/"+url.PathEscape(grade), nil, &env); err != nil {
		return nil, err
	}

	var list []Student
	if err := env.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// ByParent returns the students linked to a parent account.
func (s *Service) ByParent(ctx context.Context, parentID int64) ([]Student, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, fmt.Sprintf("/students/parent/%d", parentID), nil, &env); err != nil {
		return nil, err
	}

	var list []Student
	if err := env.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// Stats returns roster statistics. The shape is backend-defined, so
// it is passed through untyped.
func (s *Service) Stats(ctx context.Context) (map[string]any, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, "/students/stats", nil, &env); err != nil {
		return nil, err
	}

	stats := map[string]any{}
	if err := env.Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}
