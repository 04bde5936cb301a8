package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithSearchPath(t *testing.T) {
	assert.Equal(t,
		"postgres://u:p@db:5432/tally?search_path=s1&sslmode=disable",
		withSearchPath("postgres://u:p@db:5432/tally?sslmode=disable", "s1"))
	assert.Equal(t,
		"host=db dbname=tally search_path=s1",
		withSearchPath("host=db dbname=tally", "s1"))
}
