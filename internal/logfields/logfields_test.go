package logfields_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aerstatic/aer/internal/logfields"
)

func TestErrorAttrHandlesNil(t *testing.T) {
	attr := logfields.Error(nil)
	assert.Equal(t, "", attr.Value.String())
}

func TestErrorAttrCarriesMessage(t *testing.T) {
	attr := logfields.Error(errors.New("boom"))
	assert.Equal(t, "boom", attr.Value.String())
}
