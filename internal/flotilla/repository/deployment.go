package repository

import (
	"encoding/json"
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

const deploymentObjectPrefix = "Deployment:"
const deploymentAllKey = "Deployment:All"
const deploymentClusterSetPrefix = "Deployment:ByCluster:"

type DeploymentRepository interface {
	CreateDeployment(deployment *api.Deployment) error
	GetDeployment(id string) (*api.Deployment, error)
	GetAllDeployments() ([]*api.Deployment, error)
	GetClusterDeployments(clusterId string) ([]*api.Deployment, error)
	UpdateDeployment(deployment *api.Deployment) error
	UpdateDeployments(deployments []*api.Deployment) error
}

type RedisDeploymentRepository struct {
	db redis.Cmdable
}

func NewRedisDeploymentRepository(db redis.Cmdable) *RedisDeploymentRepository {
	return &RedisDeploymentRepository{db: db}
}

func (r *RedisDeploymentRepository) CreateDeployment(deployment *api.Deployment) error {
	data, err := json.Marshal(deployment)
	if err != nil {
		return errors.WithStack(err)
	}

	pipe := r.db.TxPipeline()
	pipe.Set(deploymentObjectPrefix+deployment.Id, data, 0)
	pipe.SAdd(deploymentAllKey, deployment.Id)
	pipe.SAdd(deploymentClusterSetPrefix+deployment.ClusterId, deployment.Id)
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to save deployment %s", deployment.Id)
}

func (r *RedisDeploymentRepository) GetDeployment(id string) (*api.Deployment, error) {
	data, err := r.db.Get(deploymentObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, &flotillaerrors.ErrNotFound{Type: "deployment", Value: id}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	deployment := &api.Deployment{}
	if err := json.Unmarshal(data, deployment); err != nil {
		return nil, errors.WithStack(err)
	}
	return deployment, nil
}

func (r *RedisDeploymentRepository) GetAllDeployments() ([]*api.Deployment, error) {
	return r.getByIndex(deploymentAllKey)
}

func (r *RedisDeploymentRepository) GetClusterDeployments(clusterId string) ([]*api.Deployment, error) {
	return r.getByIndex(deploymentClusterSetPrefix + clusterId)
}

// UpdateDeployment re-persists a deployment after a status change, touching
// its updated_at timestamp.
func (r *RedisDeploymentRepository) UpdateDeployment(deployment *api.Deployment) error {
	return r.UpdateDeployments([]*api.Deployment{deployment})
}

// UpdateDeployments commits all updates in a single transaction, used by the
// preemption executor to flip a whole victim set at once.
func (r *RedisDeploymentRepository) UpdateDeployments(deployments []*api.Deployment) error {
	now := time.Now()
	pipe := r.db.TxPipeline()
	for _, deployment := range deployments {
		deployment.UpdatedAt = now
		data, err := json.Marshal(deployment)
		if err != nil {
			return errors.WithStack(err)
		}
		pipe.Set(deploymentObjectPrefix+deployment.Id, data, 0)
	}
	_, err := pipe.Exec()
	return errors.Wrap(err, "failed to update deployments")
}

func (r *RedisDeploymentRepository) getByIndex(key string) ([]*api.Deployment, error) {
	ids, err := r.db.SMembers(key).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pipe := r.db.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(deploymentObjectPrefix+id))
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.WithStack(err)
	}

	deployments := make([]*api.Deployment, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			// index entry without an object, e.g. mid-create; skip
			continue
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		deployment := &api.Deployment{}
		if err := json.Unmarshal(data, deployment); err != nil {
			return nil, errors.WithStack(err)
		}
		deployments = append(deployments, deployment)
	}
	return deployments, nil
}
