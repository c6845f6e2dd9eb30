package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocs/pkg/protocol"
	"ocs/pkg/workflow"
)

func TestGoalTasks_DecodesArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/workflow/goals/g-1/tasks", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"t1","title":"Decompose","type":"GENERATION","status":"PENDING","assigned_to":null},
			{"id":"t2","title":"Review","type":"REVIEW","status":"Active","assigned_to":"lyra"}
		]`))
	}))
	defer srv.Close()

	tasks, err := workflow.New(srv.URL).GoalTasks(context.Background(), "g-1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "Decompose", tasks[0].Title)
	assert.Nil(t, tasks[0].AssignedTo)
	assert.Equal(t, "lyra", tasks[1].Assignee())
}

func TestGoalTasks_NullBodyIsEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	tasks, err := workflow.New(srv.URL).GoalTasks(context.Background(), "g")
	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestGoalTasks_EscapesGoalID(t *testing.T) {
	c := workflow.New("http://localhost:8000/")
	assert.Equal(t, "http://localhost:8000/api/v1/workflow/goals/a%2Fb/tasks", c.TasksURL("a/b"))
}

func TestGoalTasks_Non2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"Goal not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := workflow.New(srv.URL).GoalTasks(context.Background(), "missing")
	require.Error(t, err)

	var statusErr *workflow.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.True(t, statusErr.NotFound())
	assert.Contains(t, statusErr.Body, "Goal not found")
}

func TestGoalTasks_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	_, err := workflow.New(srv.URL).GoalTasks(context.Background(), "g")
	assert.Error(t, err)
}

func TestGoalTasks_EmptyGoal(t *testing.T) {
	_, err := workflow.New("http://unused").GoalTasks(context.Background(), "")
	assert.Error(t, err)
}

func TestGoalTasks_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := workflow.New(srv.URL, workflow.WithTimeout(50*time.Millisecond)).GoalTasks(context.Background(), "g")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCreateGoal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/workflow/goals", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req protocol.CreateGoalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Ship it", req.Title)
		assert.Equal(t, "all of it", req.Description)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"g-9","status":"created"}`))
	}))
	defer srv.Close()

	resp, err := workflow.New(srv.URL).CreateGoal(context.Background(),
		protocol.CreateGoalRequest{Title: "Ship it", Description: "all of it"})
	require.NoError(t, err)
	assert.Equal(t, "g-9", resp.ID)
	assert.Equal(t, "created", resp.Status)
}

func TestAdvanceGoal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/workflow/goals/g-9/advance", r.URL.Path)
		var req protocol.AdvanceGoalRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.TargetState != "N2_TASK_DECOMPOSITION" {
			http.Error(w, `{"detail":"Invalid transition"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"goal_id":"g-9","new_state":"N2_TASK_DECOMPOSITION","accepted":true}`))
	}))
	defer srv.Close()

	c := workflow.New(srv.URL)
	resp, err := c.AdvanceGoal(context.Background(), "g-9", "N2_TASK_DECOMPOSITION")
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.Equal(t, "N2_TASK_DECOMPOSITION", resp.NewState)

	_, err = c.AdvanceGoal(context.Background(), "g-9", "COMPLETED")
	var statusErr *workflow.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}
