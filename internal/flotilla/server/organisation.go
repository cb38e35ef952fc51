package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

type createOrganisationRequest struct {
	Name string `json:"name" binding:"required"`
}

type joinOrganisationRequest struct {
	InviteCode string `json:"invite_code" binding:"required"`
	UserId     string `json:"user_id" binding:"required"`
	Role       string `json:"role"`
}

func (s *RestServer) createOrganisation(c *gin.Context) {
	var request createOrganisationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "body", Value: "", Message: err.Error()})
		return
	}

	organisation := &api.Organisation{
		Id:         uuid.NewString(),
		Name:       request.Name,
		InviteCode: uuid.NewString(),
		CreatedAt:  time.Now(),
	}
	if err := s.organisationRepository.CreateOrganisation(organisation); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, organisation)
}

func (s *RestServer) listOrganisations(c *gin.Context) {
	organisations, err := s.organisationRepository.GetAllOrganisations()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, organisations)
}

func (s *RestServer) getOrganisation(c *gin.Context) {
	organisation, err := s.organisationRepository.GetOrganisation(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, organisation)
}

func (s *RestServer) listOrganisationMembers(c *gin.Context) {
	if _, err := s.organisationRepository.GetOrganisation(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	members, err := s.organisationRepository.GetMembers(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// joinOrganisation adds a user to the organisation matching the invite code.
func (s *RestServer) joinOrganisation(c *gin.Context) {
	var request joinOrganisationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		respondError(c, &flotillaerrors.ErrInvalidArgument{Name: "body", Value: "", Message: err.Error()})
		return
	}

	if _, err := s.userRepository.GetUser(request.UserId); err != nil {
		respondError(c, err)
		return
	}
	organisation, err := s.organisationRepository.GetOrganisationByInviteCode(request.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}

	role := request.Role
	if role == "" {
		role = "dev"
	}
	member := &api.OrganisationMember{
		Id:             uuid.NewString(),
		OrganisationId: organisation.Id,
		UserId:         request.UserId,
		Role:           role,
		CreatedAt:      time.Now(),
	}
	if err := s.organisationRepository.AddMember(member); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}
