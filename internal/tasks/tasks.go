package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Feature indexing tasks
	TypeIndexImage = "image:index"
	TypeReindexAll = "image:reindex_all"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	ImageID string `json:"image_id,omitempty"`
}

// NewIndexImageTask creates a task to extract and persist one image's features
func NewIndexImageTask(imageID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		ImageID: imageID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeIndexImage, payload), nil
}

// NewReindexAllTask creates a task that re-extracts features for every image
func NewReindexAllTask() (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeReindexAll, payload), nil
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
