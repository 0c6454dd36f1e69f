package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"showdex/config"
	"showdex/services/catalog"
	"showdex/services/scheduler"
)

type stubRefresher struct{}

func (stubRefresher) Refresh(context.Context) (catalog.RefreshResult, error) {
	return catalog.RefreshResult{}, nil
}

func newTasksHandler(t *testing.T) (*ScheduledTasksHandler, *config.Manager) {
	t.Helper()
	manager := config.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if _, err := manager.Load(); err != nil {
		t.Fatalf("load settings: %v", err)
	}
	sched := scheduler.NewService(manager, stubRefresher{})
	return NewScheduledTasksHandler(manager, sched), manager
}

func TestScheduledTasksHandler_CreateTask(t *testing.T) {
	handler, manager := newTasksHandler(t)

	body, _ := json.Marshal(map[string]interface{}{
		"type":      "catalog_refresh",
		"frequency": "6hours",
		"enabled":   true,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/scheduled-tasks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	var payload struct {
		Success bool                 `json:"success"`
		Task    config.ScheduledTask `json:"task"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Success || payload.Task.ID == "" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	// Name defaults to the type when omitted.
	if payload.Task.Name != "catalog_refresh" {
		t.Fatalf("expected defaulted name, got %q", payload.Task.Name)
	}

	settings, err := manager.Load()
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	found := false
	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID == payload.Task.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("created task not persisted: %+v", settings.ScheduledTasks.Tasks)
	}
}

func TestScheduledTasksHandler_CreateTaskRejectsUnknownType(t *testing.T) {
	handler, _ := newTasksHandler(t)

	body, _ := json.Marshal(map[string]interface{}{"type": "snapshot_export"})
	req := httptest.NewRequest(http.MethodPost, "/api/scheduled-tasks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.CreateTask(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestScheduledTasksHandler_UpdateTask(t *testing.T) {
	handler, manager := newTasksHandler(t)

	settings, err := manager.Load()
	if err != nil || len(settings.ScheduledTasks.Tasks) == 0 {
		t.Fatalf("expected a seeded default task (%v)", err)
	}
	taskID := settings.ScheduledTasks.Tasks[0].ID

	body, _ := json.Marshal(map[string]interface{}{
		"frequency": "30min",
		"enabled":   true,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/scheduled-tasks/"+taskID, bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"taskID": taskID})
	rec := httptest.NewRecorder()

	handler.UpdateTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	settings, err = manager.Load()
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	task := settings.ScheduledTasks.Tasks[0]
	if task.Frequency != config.ScheduledTaskFrequency30Min || !task.Enabled {
		t.Fatalf("update not persisted: %+v", task)
	}
}

func TestScheduledTasksHandler_UpdateUnknownTask(t *testing.T) {
	handler, _ := newTasksHandler(t)

	body, _ := json.Marshal(map[string]interface{}{"name": "renamed"})
	req := httptest.NewRequest(http.MethodPut, "/api/scheduled-tasks/no-such-task", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"taskID": "no-such-task"})
	rec := httptest.NewRecorder()

	handler.UpdateTask(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestScheduledTasksHandler_DeleteTask(t *testing.T) {
	handler, manager := newTasksHandler(t)

	settings, _ := manager.Load()
	taskID := settings.ScheduledTasks.Tasks[0].ID

	req := httptest.NewRequest(http.MethodDelete, "/api/scheduled-tasks/"+taskID, nil)
	req = mux.SetURLVars(req, map[string]string{"taskID": taskID})
	rec := httptest.NewRecorder()

	handler.DeleteTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	settings, _ = manager.Load()
	for _, task := range settings.ScheduledTasks.Tasks {
		if task.ID == taskID {
			t.Fatalf("task still present after delete: %+v", task)
		}
	}
}

func TestScheduledTasksHandler_RunTaskNow(t *testing.T) {
	handler, manager := newTasksHandler(t)

	settings, _ := manager.Load()
	taskID := settings.ScheduledTasks.Tasks[0].ID

	req := httptest.NewRequest(http.MethodPost, "/api/scheduled-tasks/"+taskID+"/run", nil)
	req = mux.SetURLVars(req, map[string]string{"taskID": taskID})
	rec := httptest.NewRecorder()

	handler.RunTaskNow(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected %d, got %d: %s", http.StatusAccepted, rec.Code, rec.Body.String())
	}

	// The accepted task runs asynchronously and persists its status into the
	// TempDir-backed settings file; wait for that write to land so the
	// directory is quiescent before the framework's TempDir cleanup removes it.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		current, err := manager.Load()
		if err == nil {
			for _, task := range current.ScheduledTasks.Tasks {
				if task.ID == taskID && task.LastStatus != config.ScheduledTaskStatusPending {
					return
				}
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestScheduledTasksHandler_ToggleTask(t *testing.T) {
	handler, manager := newTasksHandler(t)

	settings, _ := manager.Load()
	taskID := settings.ScheduledTasks.Tasks[0].ID

	body, _ := json.Marshal(map[string]bool{"enabled": true})
	req := httptest.NewRequest(http.MethodPost, "/api/scheduled-tasks/"+taskID+"/toggle", bytes.NewReader(body))
	req = mux.SetURLVars(req, map[string]string{"taskID": taskID})
	rec := httptest.NewRecorder()

	handler.ToggleTask(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	settings, _ = manager.Load()
	if !settings.ScheduledTasks.Tasks[0].Enabled {
		t.Fatalf("toggle not persisted: %+v", settings.ScheduledTasks.Tasks[0])
	}
}
