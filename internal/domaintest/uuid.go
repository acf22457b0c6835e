package domaintest

import (
	"testing"

	"github.com/Amund211/fetchcache/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func NewUUID(t *testing.T) string {
	id, err := uuid.NewRandom()
	require.NoError(t, err)
	return id.String()
}

// NewRequest returns a GET request for a unique url
func NewRequest(t *testing.T) domain.Request {
	return domain.NewGetRequest("https://example.com/items/" + NewUUID(t))
}
