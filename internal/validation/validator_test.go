package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filmBody struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"max=200"`
	ReleaseDate string `json:"releaseDate" validate:"required,releasedate"`
	Duration    int    `json:"duration" validate:"gt=0"`
}

type userBody struct {
	Login    string `json:"login" validate:"required,nospace"`
	Birthday string `json:"birthday" validate:"omitempty,pastdate"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(filmBody{Name: "Heat", ReleaseDate: "1995-12-15", Duration: 170}))
	assert.NoError(t, Struct(userBody{Login: "neo"}))
}

func TestStruct_ReleaseDateFloorIsExclusive(t *testing.T) {
	err := Struct(filmBody{Name: "Old", ReleaseDate: "1950-12-28", Duration: 1})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "releaseDate", verr.Fields[0].Field)
	assert.Equal(t, "releasedate", verr.Fields[0].Tag)

	assert.NoError(t, Struct(filmBody{Name: "Old", ReleaseDate: "1950-12-29", Duration: 1}))
}

func TestStruct_CollectsEveryField(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'x'
	}
	err := Struct(filmBody{Name: "  ", Description: string(long), ReleaseDate: "not-a-date", Duration: 0})
	var verr *Error
	require.True(t, errors.As(err, &verr))

	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{
		"name":        "notblank",
		"description": "max",
		"releaseDate": "releasedate",
		"duration":    "gt",
	}, fields)
	assert.Contains(t, err.Error(), "name must not be blank")
}

func TestStruct_UserRules(t *testing.T) {
	err := Struct(userBody{Login: "two words", Birthday: "2999-01-01"})
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
}
