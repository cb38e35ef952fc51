package api

import "time"

type DeploymentStatus string

const (
	DeploymentPending   DeploymentStatus = "pending"
	DeploymentQueued    DeploymentStatus = "queued"
	DeploymentRunning   DeploymentStatus = "running"
	DeploymentPreempted DeploymentStatus = "preempted"
	DeploymentFailed    DeploymentStatus = "failed"
	DeploymentCompleted DeploymentStatus = "completed"
)

type User struct {
	Id        string    `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

type Organisation struct {
	Id         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

type OrganisationMember struct {
	Id             string    `json:"id"`
	OrganisationId string    `json:"organisation_id"`
	UserId         string    `json:"user_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

// Cluster is a fixed-capacity resource pool. Capacity is immutable once the
// cluster is created.
type Cluster struct {
	Id             string    `json:"id"`
	OrganisationId string    `json:"organisation_id"`
	Name           string    `json:"name"`
	Cpu            int64     `json:"cpu"`
	Ram            int64     `json:"ram"`
	Gpu            int64     `json:"gpu"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at,omitempty"`
}

func (c *Cluster) Capacity() ResourceList {
	return ResourceList{Cpu: c.Cpu, Ram: c.Ram, Gpu: c.Gpu}
}

// Deployment is a unit of requested compute work. Requested resources and
// priority never change after creation; status transitions are owned by the
// scheduling engine, except for the manual retry reset.
type Deployment struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DockerImage string `json:"docker_image"`
	ClusterId   string `json:"cluster_id"`
	UserId      string `json:"user_id"`

	Priority Priority `json:"priority"`

	RequestedCpu int64 `json:"requested_cpu"`
	RequestedRam int64 `json:"requested_ram"`
	RequestedGpu int64 `json:"requested_gpu"`

	Status DeploymentStatus `json:"status"`

	Attempts      int    `json:"attempts"`
	MaxAttempts   int    `json:"max_attempts"`
	FailureReason string `json:"failure_reason,omitempty"`

	WasPreempted   bool `json:"was_preempted"`
	PreemptedCount int  `json:"preempted_count"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (d *Deployment) Requested() ResourceList {
	return ResourceList{Cpu: d.RequestedCpu, Ram: d.RequestedRam, Gpu: d.RequestedGpu}
}

// ClusterUsageReport is the resource accountant's output for one cluster.
type ClusterUsageReport struct {
	ClusterId string       `json:"cluster_id"`
	Total     ResourceList `json:"total_resources"`
	Used      ResourceList `json:"used_resources"`
}

// ResourceSnapshot is an immutable, point-in-time utilization record for one
// cluster, produced only by the snapshot recorder.
type ResourceSnapshot struct {
	Id        string `json:"id"`
	ClusterId string `json:"cluster_id"`

	TotalCpu int64 `json:"total_cpu"`
	TotalRam int64 `json:"total_ram"`
	TotalGpu int64 `json:"total_gpu"`

	UsedCpu int64 `json:"used_cpu"`
	UsedRam int64 `json:"used_ram"`
	UsedGpu int64 `json:"used_gpu"`

	AvailableCpu int64 `json:"available_cpu"`
	AvailableRam int64 `json:"available_ram"`
	AvailableGpu int64 `json:"available_gpu"`

	CpuUtilization float64 `json:"cpu_utilization"`
	RamUtilization float64 `json:"ram_utilization"`
	GpuUtilization float64 `json:"gpu_utilization"`

	CreatedAt time.Time `json:"created_at"`
}
