// Package comments handles daily teacher comments on students and
// parent replies to them.
package comments

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mektebapp/go-mekteb-client/client"
)

// Comment is a note about a student for a given day. Parent replies
// reference the comment they answer through ParentCommentID.
type Comment struct {
	ID              int64  `json:"id"`
	StudentID       int64  `json:"studentId"`
	AuthorID        int64  `json:"authorId"`
	AuthorName      string `json:"authorName,omitempty"`
	AuthorRole      string `json:"authorRole"`
	Content         string `json:"content"`
	Date            string `json:"date"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt,omitempty"`
	ParentCommentID *int64 `json:"parentCommentId,omitempty"`

	StudentName  string `json:"studentName,omitempty"`
	StudentGrade string `json:"studentGrade,omitempty"`
	RepliesCount *int   `json:"repliesCount,omitempty"`
}

// CreateInput is the payload for a new comment or reply. Date uses
// the YYYY-MM-DD format.
type CreateInput struct {
	StudentID       int64  `json:"studentId"`
	Content         string `json:"content"`
	Date            string `json:"date"`
	ParentCommentID *int64 `json:"parentCommentId,omitempty"`
}

// ListParams filters the comment feed.
type ListParams struct {
	StudentID  int64
	Date       string
	AuthorRole string
	Page       int
	Limit      int
}

// Service exposes the /comments endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// List returns comments matching the given filters.
func (s *Service) List(ctx context.Context, params ListParams) ([]Comment, error) {
	query := url.Values{}
	if params.StudentID > 0 {
		query.Set("studentId", strconv.FormatInt(params.StudentID, 10))
	}
	if params.Date != "" {
		query.Set("date", params.Date)
	}
	if params.AuthorRole != "" {
		query.Set("authorRole", params.AuthorRole)
	}
	if params.Page > 0 {
		query.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	return s.list(ctx, "/comments", query)
}

// ByStudent returns a student's comments, optionally for one date.
func (s *Service) ByStudent(ctx context.Context, studentID int64, date string) ([]Comment, error) {
	query := url.Values{}
	if date != "" {
		query.Set("date", date)
	}
	return s.list(ctx, fmt.Sprintf("/comments/student/%d", studentID), query)
}

// Create posts a new comment, or a reply when ParentCommentID is set.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Comment, error) {
	var env client.Envelope
	if err := s.api.Post(ctx, "/comments", input, &env); err != nil {
		return nil, err
	}

	comment := &Comment{}
	if err := env.Decode(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Update rewrites a comment's content. Only the author may do this;
// the server enforces it.
func (s *Service) Update(ctx context.Context, id int64, content string) (*Comment, error) {
	var env client.Envelope
	body := map[string]string{"content": content}
	if err := s.api.Put(ctx, fmt.Sprintf("/comments/%d", id), body, &env); err != nil {
		return nil, err
	}

	comment := &Comment{}
	if err := env.Decode(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/comments/%d", id), nil)
}

// Daily returns every student's comments for a date, for the staff
// overview.
func (s *Service) Daily(ctx context.Context, date string) ([]Comment, error) {
	return s.list(ctx, "/comments/daily/"+url.PathEscape(date), nil)
}

func (s *Service) list(ctx context.Context, path string, query url.Values) ([]Comment, error) {
	var env client.Envelope
	if err := s.api.Get(ctx, path, query, &env); err != nil {
		return nil, err
	}

	var list []Comment
	if err := env.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}
