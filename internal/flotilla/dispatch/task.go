package dispatch

import "time"

// Task is one deployment-processing invocation. The task id doubles as the
// operation id: a deployment's primary task uses the deployment id itself, so
// a preemption signal can target it, while retry tasks use a derived id of
// the form "<deployment-id>-retry-<attempt>" so they can never be cancelled
// by a preemption aimed at the original id.
type Task struct {
	Id           string    `json:"id"`
	DeploymentId string    `json:"deployment_id"`
	CreatedAt    time.Time `json:"created_at"`
}
