package repository

import (
	"encoding/json"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"

	"github.com/flotillaproject/flotilla/internal/common/flotillaerrors"
	"github.com/flotillaproject/flotilla/pkg/api"
)

const userObjectPrefix = "User:"
const userAllKey = "User:All"
const userByNamePrefix = "User:ByName:"

type UserRepository interface {
	CreateUser(user *api.User) error
	GetUser(id string) (*api.User, error)
	GetAllUsers() ([]*api.User, error)
}

type RedisUserRepository struct {
	db redis.Cmdable
}

func NewRedisUserRepository(db redis.Cmdable) *RedisUserRepository {
	return &RedisUserRepository{db: db}
}

func (r *RedisUserRepository) CreateUser(user *api.User) error {
	// claim the username first so duplicate registrations lose the race
	claimed, err := r.db.SetNX(userByNamePrefix+user.Username, user.Id, 0).Result()
	if err != nil {
		return errors.WithStack(err)
	}
	if !claimed {
		return &flotillaerrors.ErrAlreadyExists{Type: "user", Value: user.Username}
	}

	data, err := json.Marshal(user)
	if err != nil {
		return errors.WithStack(err)
	}
	pipe := r.db.TxPipeline()
	pipe.Set(userObjectPrefix+user.Id, data, 0)
	pipe.SAdd(userAllKey, user.Id)
	_, err = pipe.Exec()
	return errors.Wrapf(err, "failed to save user %s", user.Id)
}

func (r *RedisUserRepository) GetUser(id string) (*api.User, error) {
	data, err := r.db.Get(userObjectPrefix + id).Bytes()
	if err == redis.Nil {
		return nil, &flotillaerrors.ErrNotFound{Type: "user", Value: id}
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	user := &api.User{}
	if err := json.Unmarshal(data, user); err != nil {
		return nil, errors.WithStack(err)
	}
	return user, nil
}

func (r *RedisUserRepository) GetAllUsers() ([]*api.User, error) {
	ids, err := r.db.SMembers(userAllKey).Result()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	pipe := r.db.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.Get(userObjectPrefix+id))
	}
	if _, err := pipe.Exec(); err != nil && err != redis.Nil {
		return nil, errors.WithStack(err)
	}

	users := make([]*api.User, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		user := &api.User{}
		if err := json.Unmarshal(data, user); err != nil {
			return nil, errors.WithStack(err)
		}
		users = append(users, user)
	}
	return users, nil
}
