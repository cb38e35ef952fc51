package repository

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis"
	"github.com/go-redis/redis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

func TestUserRepository_DuplicateUsername(t *testing.T) {
	withRedis(func(db *redis.Client) {
		r := NewRedisUserRepository(db)
		first := &api.User{Id: uuid.NewString(), Username: "bob", CreatedAt: time.Now()}
		require.NoError(t, r.CreateUser(first))

		second := &api.User{Id: uuid.NewString(), Username: "bob", CreatedAt: time.Now()}
		err := r.CreateUser(second)
		require.Error(t, err)
		var alreadyExists *flotillaerrors.ErrAlreadyExists
		assert.ErrorAs(t, err, &alreadyExists)

		loaded, err := r.GetUser(first.Id)
		require.NoError(t, err)
		assert.Equal(t, "bob", loaded.Username)
	})
}

func TestOrganisationRepository_InviteCodeLookup(t *testing.T) {
	withRedis(func(db *redis.Client) {
		r := NewRedisOrganisationRepository(db)
		organisation := &api.Organisation{
			Id:         uuid.NewString(),
			Name:       "acme",
			InviteCode: uuid.NewString(),
			CreatedAt:  time.Now(),
		}
		require.NoError(t, r.CreateOrganisation(organisation))

		found, err := r.GetOrganisationByInviteCode(organisation.InviteCode)
		require.NoError(t, err)
		assert.Equal(t, organisation.Id, found.Id)

		_, err = r.GetOrganisationByInviteCode("bogus")
		assert.True(t, flotillaerrors.IsNotFound(err))
	})
}

func TestOrganisationRepository_Members(t *testing.T) {
	withRedis(func(db *redis.Client) {
		r := NewRedisOrganisationRepository(db)
		member := &api.OrganisationMember{
			Id:             uuid.NewString(),
			OrganisationId: "org-1",
			UserId:         "user-1",
			Role:           "dev",
			CreatedAt:      time.Now(),
		}
		require.NoError(t, r.AddMember(member))

		members, err := r.GetMembers("org-1")
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "user-1", members[0].UserId)
		assert.Equal(t, "dev", members[0].Role)

		members, err = r.GetMembers("org-2")
		require.NoError(t, err)
		assert.Empty(t, members)
	})
}

func withRedis(action func(db *redis.Client)) {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	defer mr.Close()
	db := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer db.Close()
	action(db)
}
