// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/backup"
)

func newRouter(f *fixture) http.Handler {
	router := chi.NewRouter()
	router.Route("/backup", backup.NewHandler(f.service).RegisterRoutes)
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Download streams a dump and refuses unsafe or unknown names.
*/
func TestHandler_Download(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "backup_a.sql", 0)
	router := newRouter(f)

	t.Run("Success", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/backup/download/backup_a.sql", "")

		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "application/sql", recorder.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="backup_a.sql"`, recorder.Header().Get("Content-Disposition"))
		assert.Equal(t, "-- backup_a.sql", recorder.Body.String())
	})

	t.Run("Dot_Dot", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/backup/download/..backup_a.sql", "")
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("Missing", func(t *testing.T) {
		recorder := serve(router, http.MethodGet, "/backup/download/backup_z.sql", "")
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

/*
TestHandler_Schedule round-trips the schedule form.
*/
func TestHandler_Schedule(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder := serve(router, http.MethodGet, "/backup/schedule", "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"success": true, "data": null}`, recorder.Body.String())

	recorder = serve(router, http.MethodPut, "/backup/schedule", `{"frequency": "weekly", "run_time": "3:30", "day_of_week": 1}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    backup.Schedule `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, backup.ScheduleSavedMessage, body.Message)
	assert.Equal(t, "03:30", body.Data.RunTime)
	assert.True(t, body.Data.IsEnabled)
	require.NotNil(t, f.schedules.schedule)
	assert.Equal(t, 1, *f.schedules.schedule.DayOfWeek)

	recorder = serve(router, http.MethodPut, "/backup/schedule", `{"frequency": "monthly", "run_time": "3:30"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
}

/*
TestHandler_Create returns the new file in the success envelope.
*/
func TestHandler_Create(t *testing.T) {
	f := newFixture(t)

	recorder := serve(newRouter(f), http.MethodPost, "/backup/create", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Backup created successfully", body["message"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "backup_2024-03-06_07-15-00.sql", data["filename"])
	assert.NotContains(t, data, "pruned")
}

/*
TestHandler_Create_Prunes verifies a manual backup applies retention.
*/
func TestHandler_Create_Prunes(t *testing.T) {
	f := newFixture(t)
	for index := range 5 {
		f.seed(t, fmt.Sprintf("backup_%d.sql", index), time.Duration(index+1)*time.Hour)
	}

	recorder := serve(newRouter(f), http.MethodPost, "/backup/create", "")

	require.Equal(t, http.StatusOK, recorder.Code)
	names := f.names(t)
	assert.Len(t, names, 5)
	assert.Contains(t, names, "backup_2024-03-06_07-15-00.sql")
	assert.NotContains(t, names, "backup_4.sql")
}
