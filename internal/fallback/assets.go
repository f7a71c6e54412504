// Package fallback holds what the console serves when the backend cannot be
// reached: bundled sample responses and snapshots kept in the local store.
package fallback

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/reportconsole/internal/models"
)

//go:embed assets/*.json
var bundled embed.FS

const (
	AssetReports   = "sample-reports.json"
	AssetSetup     = "sample-setupdata.json"
	AssetDatabases = "sample-databases.json"
	AssetUsers     = "sample-userlist.json"
)

// Assets reads the bundled sample responses through a small in-process cache.
type Assets struct {
	cache *ristretto.Cache[string, []byte]
}

func NewAssets() (*Assets, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 100,
		MaxCost:     4 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create asset cache: %w", err)
	}
	return &Assets{cache: cache}, nil
}

// Raw returns the bytes of a bundled asset.
func (a *Assets) Raw(name string) ([]byte, error) {
	if data, ok := a.cache.Get(name); ok {
		return data, nil
	}
	data, err := bundled.ReadFile(path.Join("assets", name))
	if err != nil {
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}
	a.cache.Set(name, data, int64(len(data)))
	a.cache.Wait()
	return data, nil
}

// Decode unmarshals a bundled asset into v.
func (a *Assets) Decode(name string, v interface{}) error {
	data, err := a.Raw(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode asset %s: %w", name, err)
	}
	return nil
}

func (a *Assets) Reports() (models.ReportList, error) {
	var list models.ReportList
	err := a.Decode(AssetReports, &list)
	return list, err
}

func (a *Assets) Setup() (models.Setup, error) {
	var setup models.Setup
	err := a.Decode(AssetSetup, &setup)
	return setup, err
}

func (a *Assets) Databases() ([]models.DatabaseConnection, error) {
	var list []models.DatabaseConnection
	err := a.Decode(AssetDatabases, &list)
	return list, err
}

func (a *Assets) Users() (models.UserList, error) {
	var list models.UserList
	err := a.Decode(AssetUsers, &list)
	return list, err
}

func (a *Assets) Close() {
	a.cache.Close()
}
