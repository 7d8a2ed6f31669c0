// Package nike is a placeholder adapter for the Nike Run Club API.
// It conforms to the source contract but returns no data.
//
// TODO: implement against the NRC activities API once credential
// provisioning for it is sorted out.
package nike

import (
	"context"
	"fmt"

	"github.com/stridelog/server/pkg/source"
	"github.com/stridelog/server/pkg/types"
)

type Adapter struct{}

func NewAdapter() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Source() types.Source { return types.SourceNike }

func (a *Adapter) Authenticate(ctx context.Context) error {
	return nil
}

func (a *Adapter) GetActivities(ctx context.Context, query source.Query) ([]*types.RawActivity, error) {
	return []*types.RawActivity{}, nil
}

func (a *Adapter) GetActivityDetail(ctx context.Context, sourceID string) (*types.RawActivity, error) {
	return nil, fmt.Errorf("nike adapter: GetActivityDetail not implemented")
}

func (a *Adapter) DownloadGPX(ctx context.Context, sourceID string) (string, error) {
	return "", fmt.Errorf("nike adapter: DownloadGPX not implemented")
}

func (a *Adapter) HealthCheck(ctx context.Context) bool {
	return true
}
