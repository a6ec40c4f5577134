package dto

import (
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromTasks(t *testing.T) {
	tasks := []*task.Task{
		task.Rehydrate(2, "B", "", "", true),
		task.Rehydrate(1, "A", "desc", "2024-05-01", false),
	}

	out := FromTasks(tasks)

	require.Len(t, out, 2)
	assert.Equal(t, TaskDTO{ID: 2, Title: "B", Completed: true}, out[0])
	assert.Equal(t, TaskDTO{ID: 1, Title: "A", Description: "desc", Deadline: "2024-05-01"}, out[1])
}

func TestFromTasks_EmptyEncodesAsArray(t *testing.T) {
	body, err := json.Marshal(FromTasks(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
}

func TestTaskDTO_JSONFieldNames(t *testing.T) {
	body, err := json.Marshal(TaskDTO{ID: 1700000000000, Title: "Pay rent", Deadline: "2024-06-01"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1700000000000,"title":"Pay rent","description":"","deadline":"2024-06-01","completed":false}`, string(body))
}
