package persistence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"pin-scheduler/domain/apperror"
)

func TestInsertError(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}}}
	err := insertError("p1", dup)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Equal(t, "pin p1 already exists", err.Error())
	assert.ErrorAs(t, err, &mongo.WriteException{})

	other := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 121, Message: "Document failed validation"}}}
	err = insertError("p1", other)
	assert.False(t, apperror.IsKind(err, apperror.KindConflict))
	assert.Equal(t, other, err)

	down := errors.New("server selection timeout")
	assert.Equal(t, down, insertError("p1", down))
	assert.NoError(t, insertError("p1", nil))
}
