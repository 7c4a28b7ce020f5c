package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestService_Page(t *testing.T) {
	s := New(nil, nil, Config{})

	l, o := s.page(0, -5)
	assert.Equal(t, 20, l)
	assert.Equal(t, 0, o)

	l, o = s.page(1000, 40)
	assert.Equal(t, 100, l)
	assert.Equal(t, 40, o)
}
