package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/RiV-chain/asconf/config"
	"github.com/RiV-chain/asconf/network"
	"github.com/RiV-chain/asconf/routing"
	"github.com/RiV-chain/asconf/types"
)

func freePort(t *testing.T) uint16 {
	t.Helper()
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer conn.Close()
	return uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func testConfig(t *testing.T, peerPort uint16) *config.Config {
	cfg := config.Default()
	cfg.LocalAddress = "127.0.0.1"
	cfg.RemoteAddresses = []string{"127.0.0.1"}
	cfg.LocalPort = freePort(t)
	cfg.RemotePort = peerPort
	cfg.NameServers = []string{"127.0.0.1:1"}
	cfg.AddAddress = "127.0.0.5"
	cfg.Operations = "1"
	cfg.Routes = []string{"10.0.0.0 0.0.0.0 255.0.0.0 H 0 eth0"}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestAppSendsConfiguredOperations(t *testing.T) {
	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()
	cfg := testConfig(t, uint16(peer.LocalAddr().(*net.UDPAddr).Port))

	var rt routing.MemoryTable
	var assoc *network.Association
	app := newApp(cfg, routing.NewMemoryInterfaceTable("eth0"), &rt, fx.Populate(&assoc))
	require.NoError(t, app.Err())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	defer func() { _ = app.Stop(ctx) }()

	require.Len(t, rt.Routes(), 1)
	assert.Equal(t, routing.Direct, rt.Routes()[0].Type)

	buf := make([]byte, 1500)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, from, err := peer.ReadFrom(buf)
	require.NoError(t, err)
	require.Greater(t, n, 12)
	assert.Equal(t, byte(0xc1), buf[12])
	assert.Equal(t, int(cfg.LocalPort), from.(*net.UDPAddr).Port)
	assert.True(t, assoc.Debug.GetAsconf().Outstanding)
}

func TestAppAuthenticatesRequests(t *testing.T) {
	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer peer.Close()
	cfg := testConfig(t, uint16(peer.LocalAddr().(*net.UDPAddr).Port))
	cfg.Auth.Enable = true
	cfg.Auth.KeyVector = "00000102"
	cfg.Auth.PeerKeyVector = "00000304"
	cfg.Auth.PeerChunks = []int{0xc1, 0x80}
	cfg.NATNextPath = true
	require.NoError(t, cfg.Validate())

	var rt routing.MemoryTable
	var assoc *network.Association
	app := newApp(cfg, routing.NewMemoryInterfaceTable("eth0"), &rt, fx.Populate(&assoc))
	require.NoError(t, app.Err())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	defer func() { _ = app.Stop(ctx) }()

	auth := assoc.Debug.GetAuth()
	assert.True(t, auth.Enabled)
	assert.True(t, auth.PeerEnabled)
	assert.NotEmpty(t, auth.SharedKey)

	buf := make([]byte, 1500)
	require.NoError(t, peer.SetReadDeadline(time.Now().Add(5*time.Second)))
	n, _, err := peer.ReadFrom(buf)
	require.NoError(t, err)
	// AUTH is 28 bytes and comes before the ASCONF
	require.Greater(t, n, 12+28)
	assert.Equal(t, byte(0x0f), buf[12])
	assert.Equal(t, byte(0xc1), buf[12+28])
}

func TestAppRejectsUnknownInterface(t *testing.T) {
	cfg := testConfig(t, freePort(t))
	var rt routing.MemoryTable
	app := newApp(cfg, routing.NewMemoryInterfaceTable("lo"), &rt)
	assert.ErrorIs(t, app.Err(), types.ErrConfig)
	assert.Empty(t, rt.Routes())
}
