// Package client is a thin HTTP client for the Flotilla REST API, used by
// flotillactl and by external tooling.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/pkg/api"
)

type ApiConnectionDetails struct {
	Url string
}

type ApiClient struct {
	baseUrl string
	client  *http.Client
}

func New(connection *ApiConnectionDetails) *ApiClient {
	return &ApiClient{
		baseUrl: strings.TrimRight(connection.Url, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type CreateClusterRequest struct {
	Name           string `json:"name"`
	OrganisationId string `json:"organisation_id,omitempty"`
	Cpu            int64  `json:"cpu"`
	Ram            int64  `json:"ram"`
	Gpu            int64  `json:"gpu"`
}

type CreateDeploymentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	DockerImage string `json:"docker_image"`
	ClusterId   string `json:"cluster_id"`
	UserId      string `json:"user_id,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Cpu         int64  `json:"cpu"`
	Ram         int64  `json:"ram"`
	Gpu         int64  `json:"gpu"`
	MaxAttempts int    `json:"max_attempts,omitempty"`
}

type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateOrganisationRequest struct {
	Name string `json:"name"`
}

type JoinOrganisationRequest struct {
	InviteCode string `json:"invite_code"`
	UserId     string `json:"user_id"`
	Role       string `json:"role,omitempty"`
}

func (c *ApiClient) CreateCluster(request *CreateClusterRequest) (*api.Cluster, error) {
	var cluster api.Cluster
	if err := c.post("/api/v1/clusters", request, &cluster); err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (c *ApiClient) GetCluster(id string) (*api.Cluster, error) {
	var cluster api.Cluster
	if err := c.get("/api/v1/clusters/"+id, &cluster); err != nil {
		return nil, err
	}
	return &cluster, nil
}

func (c *ApiClient) ListClusters() ([]*api.Cluster, error) {
	var clusters []*api.Cluster
	if err := c.get("/api/v1/clusters", &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

func (c *ApiClient) CreateDeployment(request *CreateDeploymentRequest) (*api.Deployment, error) {
	var deployment api.Deployment
	if err := c.post("/api/v1/deployments", request, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (c *ApiClient) GetDeployment(id string) (*api.Deployment, error) {
	var deployment api.Deployment
	if err := c.get("/api/v1/deployments/"+id, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (c *ApiClient) ListDeployments() ([]*api.Deployment, error) {
	var deployments []*api.Deployment
	if err := c.get("/api/v1/deployments", &deployments); err != nil {
		return nil, err
	}
	return deployments, nil
}

func (c *ApiClient) RetryDeployment(id string) (*api.Deployment, error) {
	var deployment api.Deployment
	if err := c.post("/api/v1/deployments/"+id+"/retry", nil, &deployment); err != nil {
		return nil, err
	}
	return &deployment, nil
}

func (c *ApiClient) GetResources() ([]*api.ClusterUsageReport, error) {
	var reports []*api.ClusterUsageReport
	if err := c.get("/api/v1/resources", &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (c *ApiClient) CreateUser(request *CreateUserRequest) (*api.User, error) {
	var user api.User
	if err := c.post("/api/v1/users", request, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *ApiClient) CreateOrganisation(request *CreateOrganisationRequest) (*api.Organisation, error) {
	var organisation api.Organisation
	if err := c.post("/api/v1/organisations", request, &organisation); err != nil {
		return nil, err
	}
	return &organisation, nil
}

func (c *ApiClient) JoinOrganisation(request *JoinOrganisationRequest) (*api.OrganisationMember, error) {
	var member api.OrganisationMember
	if err := c.post("/api/v1/organisations/join", request, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *ApiClient) get(path string, into interface{}) error {
	response, err := c.client.Get(c.baseUrl + path)
	if err != nil {
		return errors.WithStack(err)
	}
	return decodeResponse(response, into)
}

func (c *ApiClient) post(path string, body interface{}, into interface{}) error {
	payload := []byte("{}")
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	response, err := c.client.Post(c.baseUrl+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return errors.WithStack(err)
	}
	return decodeResponse(response, into)
}

func decodeResponse(response *http.Response, into interface{}) error {
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return errors.WithStack(err)
	}
	if response.StatusCode >= 400 {
		var apiError struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(data, &apiError); err == nil && apiError.Error != "" {
			return errors.Errorf("server returned %d: %s", response.StatusCode, apiError.Error)
		}
		return errors.Errorf("server returned %d: %s", response.StatusCode, string(data))
	}
	if into == nil {
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return errors.Wrapf(err, "cannot decode response %q", string(data))
	}
	return nil
}

// FormatResources renders a resource triple the way flotillactl prints it.
func FormatResources(cpu, ram, gpu int64) string {
	return fmt.Sprintf("cpu=%d ram=%d gpu=%d", cpu, ram, gpu)
}
