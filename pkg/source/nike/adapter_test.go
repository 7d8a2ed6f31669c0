package nike

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/types"
)

func TestAdapterIsConformantStub(t *testing.T) {
	var adapter source.Adapter = NewAdapter()
	ctx := context.Background()

	assert.Equal(t, types.SourceNike, adapter.Source())
	assert.NoError(t, adapter.Authenticate(ctx))
	assert.True(t, adapter.HealthCheck(ctx))

	activities, err := adapter.GetActivities(ctx, source.Query{})
	assert.NoError(t, err)
	assert.Empty(t, activities)

	_, err = adapter.GetActivityDetail(ctx, "x")
	assert.Error(t, err)

	_, err = adapter.DownloadGPX(ctx, "x")
	assert.Error(t, err)
}
