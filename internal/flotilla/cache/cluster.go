package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/flotillaproject/flotilla/internal/flotilla/repository"
	"github.com/flotillaproject/flotilla/pkg/api"
)

const allClustersKey = "all"

// ClusterCache decorates a ClusterRepository with an in-memory cache.
// Cluster capacity is immutable once created, so per-id entries never go
// stale; the only thing that changes is the set of clusters, which
// CreateCluster invalidates.
type ClusterCache struct {
	delegate repository.ClusterRepository
	cache    *gocache.Cache
}

func NewClusterCache(delegate repository.ClusterRepository, ttl time.Duration) *ClusterCache {
	return &ClusterCache{
		delegate: delegate,
		cache:    gocache.New(ttl, 2*ttl),
	}
}

func (c *ClusterCache) CreateCluster(cluster *api.Cluster) error {
	if err := c.delegate.CreateCluster(cluster); err != nil {
		return err
	}
	c.cache.SetDefault(cluster.Id, cluster)
	c.cache.Delete(allClustersKey)
	return nil
}

func (c *ClusterCache) GetCluster(id string) (*api.Cluster, error) {
	if cached, ok := c.cache.Get(id); ok {
		return cached.(*api.Cluster), nil
	}
	cluster, err := c.delegate.GetCluster(id)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(cluster.Id, cluster)
	return cluster, nil
}

func (c *ClusterCache) GetAllClusters() ([]*api.Cluster, error) {
	if cached, ok := c.cache.Get(allClustersKey); ok {
		return cached.([]*api.Cluster), nil
	}
	clusters, err := c.delegate.GetAllClusters()
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(allClustersKey, clusters)
	for _, cluster := range clusters {
		c.cache.SetDefault(cluster.Id, cluster)
	}
	return clusters, nil
}
