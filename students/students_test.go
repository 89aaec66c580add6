package students_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mektebapp/go-mekteb-client/client"
	"github.com/mektebapp/go-mekteb-client/internal/errors"
	"github.com/mektebapp/go-mekteb-client/sessions"
	"github.com/mektebapp/go-mekteb-client/students"
	"github.com/mektebapp/go-mekteb-client/token"
	"github.com/mektebapp/go-mekteb-client/tokenstore/repofake"
)

type noopRefresher struct{}

func (noopRefresher) Refresh(context.Context, string) (token.Pair, error) {
	return token.Pair{}, errors.ErrUnsupported
}

func newService(t *testing.T, handler http.HandlerFunc) *students.Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := repofake.NewFakeTokenStore()
	manager := sessions.NewManager(store, zerolog.Nop())
	manager.Hydrate()

	api := client.New(client.Config{BaseURL: server.URL}, store, manager, noopRefresher{}, zerolog.Nop())
	return students.NewService(api)
}

func TestList(t *testing.T) {
	service := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/students", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		require.Equal(t, "hodzic", r.URL.Query().Get("search"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": 1, "firstName": "Lejla", "lastName": "Hodzic", "gradeLevel": "3"},
			},
			"pagination": map[string]any{
				"currentPage": 2, "totalPages": 4, "totalItems": 17,
				"itemsPerPage": 5, "hasNextPage": true, "hasPrevPage": true,
			},
		})
	})

	list, page, err := service.List(context.Background(), students.ListParams{Page: 2, Limit: 5, Search: "hodzic"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Lejla", list[0].FirstName)
	require.NotNil(t, page)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 17, page.TotalItems)
	require.True(t, page.HasNextPage)
}

func TestListDefaults(t *testing.T) {
	service := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("page"))
		require.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	})

	_, _, err := service.List(context.Background(), students.ListParams{})
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	service := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var input students.CreateInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
		require.Equal(t, "Lejla", input.FirstName)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id": 9, "firstName": "Lejla", "lastName": "Hodzic",
				"dateOfBirth": "2017-04-12", "gradeLevel": "3",
				"parentKey": "PK-7F3A",
			},
		})
	})

	student, err := service.Create(context.Background(), students.CreateInput{
		FirstName:   "Lejla",
		LastName:    "Hodzic",
		DateOfBirth: "2017-04-12",
		GradeLevel:  "3",
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), student.ID)
	require.NotNil(t, student.ParentKey)
	require.Equal(t, "PK-7F3A", *student.ParentKey)
}

func TestGetNotFound(t *testing.T) {
	service := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Student not found"})
	})

	_, err := service.Get(context.Background(), 404)
	require.Error(t, err)
	require.ErrorIs(t, err, errors.ErrNotFound)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Student not found", apiErr.Message)
}

func TestByGradeEscapesPath(t *testing.T) {
	service := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/students/grade/3a", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	})

	_, err := service.ByGrade(context.Background(), "3a")
	require.NoError(t, err)
}
