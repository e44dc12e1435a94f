package simapp

import (
	"testing"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"

	"github.com/provlabs/cellar/config"
	"github.com/provlabs/cellar/runtime"
)

// DefaultBlockTime separates the blocks opened by the test helpers.
const DefaultBlockTime = 6 * time.Second

// NewTestApp returns an uninitialized app over an in-memory database. A Nop
// logger is set in the app.
func NewTestApp(t *testing.T) *SimApp {
	t.Helper()
	app, err := NewSimApp(log.NewNopLogger(), dbm.NewMemDB(), config.Default())
	require.NoError(t, err, "NewSimApp")
	return app
}

// Setup initializes a new app with the fixture genesis funding addrs and opens
// the first block after genesis.
func Setup(t *testing.T, addrs ...string) *SimApp {
	t.Helper()
	app := NewTestApp(t)
	gs, err := app.FixtureGenesis(addrs...)
	require.NoError(t, err, "FixtureGenesis")
	initAndBegin(t, app, gs)
	return app
}

// SetupWithGenesis initializes a new app from gs and opens the first block
// after genesis.
func SetupWithGenesis(t *testing.T, gs GenesisState) *SimApp {
	t.Helper()
	app := NewTestApp(t)
	initAndBegin(t, app, gs)
	return app
}

func initAndBegin(t *testing.T, app *SimApp, gs GenesisState) {
	t.Helper()
	require.NoError(t, app.InitChain(gs, runtime.DefaultTestTime), "InitChain")
	require.NoError(t, app.BeginBlock(runtime.DefaultTestTime.Add(DefaultBlockTime)), "BeginBlock")
}
