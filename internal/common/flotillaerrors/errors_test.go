package flotillaerrors

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCodeFromError(t *testing.T) {
	tests := map[string]struct {
		err  error
		code int
	}{
		"not found":      {&ErrNotFound{Type: "cluster", Value: "c1"}, http.StatusNotFound},
		"already exists": {&ErrAlreadyExists{Type: "user", Value: "bob"}, http.StatusConflict},
		"invalid arg":    {&ErrInvalidArgument{Name: "priority", Value: "urgent"}, http.StatusBadRequest},
		"invalid status": {&ErrInvalidStatus{Type: "deployment", Value: "d1", Status: "running"}, http.StatusConflict},
		"unknown":        {errors.New("boom"), http.StatusInternalServerError},
		"wrapped":        {errors.WithMessage(&ErrNotFound{Value: "x"}, "loading"), http.StatusNotFound},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.code, CodeFromError(tc.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t,
		`resource "c1" of type "cluster" does not exist`,
		(&ErrNotFound{Type: "cluster", Value: "c1"}).Error())
	assert.Equal(t,
		`resource "x" does not exist; while loading`,
		(&ErrNotFound{Value: "x", Message: "while loading"}).Error())
	assert.Equal(t,
		`value urgent is invalid for field "priority"`,
		(&ErrInvalidArgument{Name: "priority", Value: "urgent"}).Error())
}
