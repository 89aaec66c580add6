// Package news manages announcements and their attached images.
package news

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/mektebapp/go-mekteb-client/client"
	"github.com/mektebapp/go-mekteb-client/internal/errors"
)

// Image is a file attached to a news item.
type Image struct {
	ID           int64  `json:"id"`
	NewsID       int64  `json:"newsId"`
	ImagePath    string `json:"imagePath"`
	OriginalName string `json:"originalName"`
	FileSize     int64  `json:"fileSize"`
	MimeType     string `json:"mimeType"`
	UploadedAt   string `json:"uploadedAt,omitempty"`
	URL          string `json:"url"`
}

// Item is one announcement.
type Item struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Text           string  `json:"text"`
	Subtitle       string  `json:"subtitle,omitempty"`
	CreatedBy      int64   `json:"createdBy"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	AuthorUsername string  `json:"authorUsername,omitempty"`
	AuthorName     string  `json:"authorName,omitempty"`
	Images         []Image `json:"images,omitempty"`
}

// Input is the payload for creating or editing an announcement.
type Input struct {
	Title    string `json:"title"`
	Text     string `json:"text"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Service exposes the /news endpoints.
type Service struct {
	api *client.Client
}

func NewService(api *client.Client) *Service {
	return &Service{api: api}
}

// List returns one page of announcements, newest first.
func (s *Service) List(ctx context.Context, page, limit int) ([]Item, *client.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var env client.Envelope
	if err := s.api.Get(ctx, "/news", query, &env); err != nil {
		return nil, nil, err
	}

	var items []Item
	if err := env.Decode(&items); err != nil {
		return nil, nil, err
	}
	return items, env.Pagination, nil
}

// Create posts a new announcement.
func (s *Service) Create(ctx context.Context, input Input) (*Item, error) {
	var env client.Envelope
	if err := s.api.Post(ctx, "/news", input, &env); err != nil {
		return nil, err
	}

	item := &Item{}
	if err := env.Decode(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update edits an existing announcement.
func (s *Service) Update(ctx context.Context, id int64, input Input) (*Item, error) {
	var env client.Envelope
	if err := s.api.Put(ctx, fmt.Sprintf("/news/%d", id), input, &env); err != nil {
		return nil, err
	}

	item := &Item{}
	if err := env.Decode(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an announcement and its images.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/news/%d", id), nil)
}

// UploadImage attaches an image file to an announcement.
func (s *Service) UploadImage(ctx context.Context, newsID int64, filename string, file io.Reader) (*Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return nil, errors.Wrapf(err, "news.UploadImage")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, errors.Wrapf(err, "news.UploadImage: reading file")
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrapf(err, "news.UploadImage")
	}

	var env client.Envelope
	path := fmt.Sprintf("/news/%d/images", newsID)
	if err := s.api.PostRaw(ctx, path, writer.FormDataContentType(), body.Bytes(), &env); err != nil {
		return nil, err
	}

	image := &Image{}
	if err := env.Decode(image); err != nil {
		return nil, err
	}
	return image, nil
}

// DeleteImage removes an image from its announcement.
func (s *Service) DeleteImage(ctx context.Context, imageID int64) error {
	return s.api.Delete(ctx, fmt.Sprintf("/news/images/%d", imageID), nil)
}
