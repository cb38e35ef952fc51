package repository

import (
	"encoding/json"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

const clusterObjectPrefix = "Cluster:"
const clusterAllKey = "Cluster:All"

type ClusterRepository interface {
	CreateCluster(cluster *api.Cluster) error
	GetCluster(id string) (*api.Cluster, error)
	GetAllClusters() ([]*api.Cluster, error)
}

type RedisClusterRepository struct {
	db redis.Cmdable
}

func NewRedisClusterRepository(db redis.Cmdable) *RedisClusterRepository {
	return &RedisClusterRepository{db: db}
}

func (r *RedisClusterRepository) CreateCluster(cluster *api.Cluster) error {
	data, err := json.Marshal(cluster)
	if err != nil {
		return errors.WithStack(err)
	}

	pipe := r.db.TxPipeline()
	pipe.Set(clusterObjectPrefix+cluster.Id, data, 0)
	pipe.SAdd(clusterAllKey, cluster.Id)
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to save cluster %s", cluster.Id)
}

func (r *RedisClusterRepository) GetCluster(id string) (*api.Cluster, error) {
	data, err := r.db.Get(clusterObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, &flotillaerrors.ErrNotFound{Type: "cluster", Value: id}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	cluster := &api.Cluster{}
	if err := json.Unmarshal(data, cluster); err != nil {
		return nil, errors.WithStack(err)
	}
	return cluster, nil
}

func (r *RedisClusterRepository) GetAllClusters() ([]*api.Cluster, error) {
	ids, err := r.db.SMembers(clusterAllKey).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pipe := r.db.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(clusterObjectPrefix+id))
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.WithStack(err)
	}

	clusters := make([]*api.Cluster, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cluster := &api.Cluster{}
		if err := json.Unmarshal(data, cluster); err != nil {
			return nil, errors.WithStack(err)
		}
		clusters = append(clusters, cluster)
	}
	return clusters, nil
}
