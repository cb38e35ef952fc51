package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/flotillaproject/flotilla/pkg/api"
)

// getResources returns the accountant's current per-cluster usage, ordered by
// cluster id so repeated calls are comparable.
func (s *RestServer) getResources(c *gin.Context) {
	reports, err := s.accountant.GetClusterUsage()
	if err != nil {
		respondError(c, err)
		return
	}

	result := make([]*api.ClusterUsageReport, 0, len(reports))
	for _, report := range reports {
		result = append(result, report)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ClusterId < result[j].ClusterId })
	c.JSON(http.StatusOK, result)
}
