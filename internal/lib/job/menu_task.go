package job

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskMenuChanged is the job type name stored in Redis.
	// Asynq uses task type strings to route to handlers.
	TaskMenuChanged = "menu:changed"
)

// Menu change actions carried in MenuChangedPayload.Action.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// MenuChangedPayload is the JSON payload of TaskMenuChanged.
type MenuChangedPayload struct {
	Action string `json:"action"`
	MenuID int64  `json:"menu_id"`
	Name   string `json:"name"`
	Price  int    `json:"price"`
}

// NewMenuChangedTask constructs an Asynq task announcing a menu write.
//
// Task options:
//   - MaxRetry(3): retry up to 3 times on failure
//   - Queue("low"): notifications never compete with anything urgent
//   - Timeout(30s): kill the task if the handler runs longer than 30 seconds
func NewMenuChangedTask(p MenuChangedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskMenuChanged,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("low"),
		asynq.Timeout(30*time.Second),
	), nil
}
