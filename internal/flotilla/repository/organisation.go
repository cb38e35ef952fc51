package repository

import (
	"encoding/json"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

const organisationObjectPrefix = "Organisation:"
const organisationAllKey = "Organisation:All"
const organisationByInvitePrefix = "Organisation:ByInvite:"
const memberObjectPrefix = "OrganisationMember:"
const memberOrgSetPrefix = "OrganisationMember:ByOrg:"

type OrganisationRepository interface {
	CreateOrganisation(organisation *api.Organisation) error
	GetOrganisation(id string) (*api.Organisation, error)
	GetAllOrganisations() ([]*api.Organisation, error)
	GetOrganisationByInviteCode(code string) (*api.Organisation, error)
	AddMember(member *api.OrganisationMember) error
	GetMembers(organisationId string) ([]*api.OrganisationMember, error)
}

type RedisOrganisationRepository struct {
	db redis.Cmdable
}

func NewRedisOrganisationRepository(db redis.Cmdable) *RedisOrganisationRepository {
	return &RedisOrganisationRepository{db: db}
}

func (r *RedisOrganisationRepository) CreateOrganisation(organisation *api.Organisation) error {
	data, err := json.Marshal(organisation)
	if err != nil {
		return errors.WithStack(err)
	}
	pipe := r.db.TxPipeline()
	pipe.Set(organisationObjectPrefix+organisation.Id, data, 0)
	pipe.SAdd(organisationAllKey, organisation.Id)
	pipe.Set(organisationByInvitePrefix+organisation.InviteCode, organisation.Id, 0)
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to save organisation %s", organisation.Id)
}

func (r *RedisOrganisationRepository) GetOrganisation(id string) (*api.Organisation, error) {
	data, err := r.db.Get(organisationObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, &flotillaerrors.ErrNotFound{Type: "organisation", Value: id}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	organisation := &api.Organisation{}
	if err := json.Unmarshal(data, organisation); err != nil {
		return nil, errors.WithStack(err)
	}
	return organisation, nil
}

func (r *RedisOrganisationRepository) GetAllOrganisations() ([]*api.Organisation, error) {
	ids, err := r.db.SMembers(organisationAllKey).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	organisations := make([]*api.Organisation, 0, len(ids))
	for _, id := range ids {
		organisation, err := r.GetOrganisation(id)
		if err != nil {
			if flotillaerrors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		organisations = append(organisations, organisation)
	}
	return organisations, nil
}

func (r *RedisOrganisationRepository) GetOrganisationByInviteCode(code string) (*api.Organisation, error) {
	id, err := r.db.Get(organisationByInvitePrefix + code).Result()
	if err == redis.Nil {
		return nil, &flotillaerrors.ErrNotFound{Type: "organisation", Value: code, Message: "unknown invite code"}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return r.GetOrganisation(id)
}

func (r *RedisOrganisationRepository) AddMember(member *api.OrganisationMember) error {
	data, err := json.Marshal(member)
	if err != nil {
		return errors.WithStack(err)
	}
	pipe := r.db.TxPipeline()
	pipe.Set(memberObjectPrefix+member.Id, data, 0)
	pipe.SAdd(memberOrgSetPrefix+member.OrganisationId, member.Id)
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to save organisation member %s", member.Id)
}

func (r *RedisOrganisationRepository) GetMembers(organisationId string) ([]*api.OrganisationMember, error) {
	ids, err := r.db.SMembers(memberOrgSetPrefix + organisationId).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pipe := r.db.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(memberObjectPrefix+id))
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.WithStack(err)
	}

	members := make([]*api.OrganisationMember, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		member := &api.OrganisationMember{}
		if err := json.Unmarshal(data, member); err != nil {
			return nil, errors.WithStack(err)
		}
		members = append(members, member)
	}
	return members, nil
}
