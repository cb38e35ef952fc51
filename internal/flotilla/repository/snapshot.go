package repository

import (
	"encoding/json"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/pkg/api"
)

const snapshotObjectPrefix = "Snapshot:"
const snapshotClusterZSetPrefix = "Snapshot:ByCluster:"

// SnapshotRepository stores immutable utilization snapshots. Snapshots are
// append-only; nothing in the scheduling path reads them back.
type SnapshotRepository interface {
	AddSnapshots(snapshots []*api.ResourceSnapshot) error
	GetClusterSnapshots(clusterId string) ([]*api.ResourceSnapshot, error)
}

type RedisSnapshotRepository struct {
	db redis.Cmdable
}

func NewRedisSnapshotRepository(db redis.Cmdable) *RedisSnapshotRepository {
	return &RedisSnapshotRepository{db: db}
}

// AddSnapshots persists one batch of snapshots, typically one per cluster per
// recorder tick, in a single transaction.
func (r *RedisSnapshotRepository) AddSnapshots(snapshots []*api.ResourceSnapshot) error {
	pipe := r.db.TxPipeline()
	for _, snapshot := range snapshots {
		data, err := json.Marshal(snapshot)
		if err != nil {
			return errors.WithStack(err)
		}
		pipe.Set(snapshotObjectPrefix+snapshot.Id, data, 0)
		pipe.ZAdd(snapshotClusterZSetPrefix+snapshot.ClusterId, redis.Z{
			Member: snapshot.Id,
			Score:  float64(snapshot.CreatedAt.UnixNano()),
		})
	}
	_, err := pipe.Exec()
	return errors.Wrap(err, "failed to save resource snapshots")
}

// GetClusterSnapshots returns a cluster's snapshots oldest first.
func (r *RedisSnapshotRepository) GetClusterSnapshots(clusterId string) ([]*api.ResourceSnapshot, error) {
	ids, err := r.db.ZRange(snapshotClusterZSetPrefix+clusterId, 0, -1).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pipe := r.db.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(snapshotObjectPrefix+id))
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.WithStack(err)
	}

	snapshots := make([]*api.ResourceSnapshot, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		snapshot := &api.ResourceSnapshot{}
		if err := json.Unmarshal(data, snapshot); err != nil {
			return nil, errors.WithStack(err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}
