package blockchain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientFactory_InitializesMaps(t *testing.T) {
	f := NewClientFactory()
	require.NotNil(t, f)
	require.NotNil(t, f.evmClients)
	require.Equal(t, 0, len(f.evmClients))
}

func TestClientFactory_GetEVMClient_InvalidURL(t *testing.T) {
	f := NewClientFactory()
	_, err := f.GetEVMClient("://bad-url")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "failed to create EVM client"))
}

func TestEVMClient_ChainIDAccessor(t *testing.T) {
	id := big.NewInt(8453)
	c := &EVMClient{chainID: id}
	require.Equal(t, id, c.ChainID())
}

func TestNewEVMClient_InvalidURL(t *testing.T) {
	_, err := NewEVMClient("://bad-url")
	require.Error(t, err)
}

func TestClientFactory_RegisterEVMClient(t *testing.T) {
	f := NewClientFactory()
	const rpcURL = "mock://rpc"
	injected := NewEVMClientWithBackend(big.NewInt(8453), &fakeBackend{})

	f.RegisterEVMClient(rpcURL, injected)
	got, err := f.GetEVMClient(rpcURL)
	require.NoError(t, err)
	require.Same(t, injected, got)
}

func TestClientFactory_GetEVMClient_DoubleCheckBranchViaHook(t *testing.T) {
	f := NewClientFactory()
	const rpcURL = "mock://race"
	injected := NewEVMClientWithBackend(big.NewInt(8453), &fakeBackend{})

	origHook := beforeGetEVMClientWriteLockHook
	t.Cleanup(func() { beforeGetEVMClientWriteLockHook = origHook })

	beforeGetEVMClientWriteLockHook = func(url string) {
		if url == rpcURL {
			f.RegisterEVMClient(url, injected)
		}
	}

	got, err := f.GetEVMClient(rpcURL)
	require.NoError(t, err)
	require.Same(t, injected, got)
}

func stubDial(t *testing.T, chainID int64, chainErr error) *fakeBackend {
	t.Helper()
	origDial := dialEVMClient
	origChainID := getClientChainID
	t.Cleanup(func() {
		dialEVMClient = origDial
		getClientChainID = origChainID
	})

	backend := &fakeBackend{}
	dialEVMClient = func(string) (evmBackend, error) {
		return backend, nil
	}
	getClientChainID = func(evmBackend, context.Context) (*big.Int, error) {
		if chainErr != nil {
			return nil, chainErr
		}
		return big.NewInt(chainID), nil
	}
	return backend
}

func TestClientFactory_GetEVMClient_NewClientSuccessPath(t *testing.T) {
	f := NewClientFactory()
	stubDial(t, 8453, nil)

	got, err := f.GetEVMClient("mock://new-client-success")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, int64(8453), got.ChainID().Int64())
}

func TestNewEVMClient_ChainIDFailureClosesBackend(t *testing.T) {
	backend := stubDial(t, 0, errors.New("rpc down"))

	_, err := NewEVMClient("mock://down")
	require.Error(t, err)
	require.True(t, backend.closed)
}

func TestClientFactory_GetEVMClientForChain(t *testing.T) {
	f := NewClientFactory()
	stubDial(t, 84532, nil)

	got, err := f.GetEVMClientForChain("mock://sepolia", 84532)
	require.NoError(t, err)
	require.Equal(t, int64(84532), got.ChainID().Int64())

	_, err = f.GetEVMClientForChain("mock://sepolia", 8453)
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected 8453")
}

func TestClientFactory_CloseClosesClients(t *testing.T) {
	f := NewClientFactory()
	backend := &fakeBackend{}
	f.RegisterEVMClient("mock://a", NewEVMClientWithBackend(nil, backend))

	f.Close()
	require.True(t, backend.closed)
	require.Empty(t, f.evmClients)
}
