package statusapi

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedconfig "github.com/stake-plus/multisig-comms/src/config"
	"github.com/stake-plus/multisig-comms/src/data/callstore"
	"github.com/stake-plus/multisig-comms/src/multisig"
)

func TestModuleServesHealth(t *testing.T) {
	store := callstore.NewMemory()
	require.NoError(t, store.SetCursor(context.Background(), multisig.Position{Block: 7}))

	mod := NewModule(&sharedconfig.StatusAPIConfig{Listen: "127.0.0.1:0", Enabled: true}, "", big.NewInt(1), store)
	require.NoError(t, mod.Start(context.Background()))
	defer mod.Stop(context.Background())

	resp, err := http.Get("http://" + mod.Addr() + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(7), body["block"])
}

func TestStopWithoutStart(t *testing.T) {
	mod := NewModule(&sharedconfig.StatusAPIConfig{Listen: "127.0.0.1:0"}, "", big.NewInt(1), callstore.NewMemory())
	mod.Stop(context.Background())
	assert.Empty(t, mod.Addr())
}
