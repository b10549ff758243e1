package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskProjectionRefresh rebuilds the dashboard projection.
	TaskProjectionRefresh = "projection:refresh"
)

// ProjectionRefreshPayload scopes a refresh run. An empty Organization means
// every organization.
type ProjectionRefreshPayload struct {
	Organization string `json:"organization"`
}

// NewProjectionRefreshTask creates an Asynq task for the projection refresh.
func NewProjectionRefreshTask(organization string) (*asynq.Task, error) {
	if organization == "" {
		organization = "all"
	}
	body, err := json.Marshal(ProjectionRefreshPayload{Organization: organization})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProjectionRefresh, body, asynq.Queue(QueueDefault)), nil
}
