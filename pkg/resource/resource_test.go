package resource_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/resource"
)

func TestApMustHaveStaConnected_S2(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource.json")
	writeApStaResourceFile(t, path)

	reg := resource.NewRegistry()
	pool, err := resource.LoadPool(path, reg, "")
	require.NoError(t, err)

	ap, _, ok := pool.Device("AP1")
	require.True(t, ok)

	c := resource.ApMustHaveStaConnected{
		WifiPortType:  "wifi",
		StaDeviceType: "sta",
		StaConnectionConstraints: []resource.ConnectionConstraint{
			resource.DeviceMustHaveTrafficGeneratorConnected{
				RemoteConstraints: []resource.Constraint{
					resource.TrafficGeneratorSpeedMustBeGreaterThan{Threshold: 1000},
				},
			},
		},
		StaCount: 3,
	}

	matches := c.Collect(pool, ap)
	require.Len(t, matches, 3)
	for _, m := range matches {
		require.Len(t, m.Nested, 1)
	}
}

func TestReservationConflict_S5(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource.json")
	writeApStaResourceFile(t, path)

	require.NoError(t, resource.Reserve(path, "alice"))

	before, _ := os.ReadFile(path)

	reg := resource.NewRegistry()
	_, err := resource.LoadPool(path, reg, "bob")
	require.Error(t, err)

	after, _ := os.ReadFile(path)
	require.JSONEq(t, string(before), string(after), "file on disk must be unchanged on a reservation conflict")
}

func TestReservationIsIdempotentForSameOwner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource.json")
	writeApStaResourceFile(t, path)

	require.NoError(t, resource.Reserve(path, "alice"))
	require.NoError(t, resource.Reserve(path, "alice"))

	reg := resource.NewRegistry()
	_, err := resource.LoadPool(path, reg, "alice")
	require.NoError(t, err)
}

func TestCollectDeviceZeroCountReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "resource.json")
	writeApStaResourceFile(t, path)

	reg := resource.NewRegistry()
	pool, err := resource.LoadPool(path, reg, "")
	require.NoError(t, err)

	got := pool.CollectDevice("sta", 0, nil)
	require.Empty(t, got)
}

// writeApStaResourceFile reproduces the demo topology from
// original_source/product/resource/constraint.py's __main__ block and
// spec §8 scenario S2: an AP with a WIFI port linked to three STAs, each
// STA's ETH1 linked to a TrafficGen port at speed 1000.
func writeApStaResourceFile(t *testing.T, path string) {
	t.Helper()

	devices := map[string]any{
		"AP1": map[string]any{
			"name": "AP1", "type": "ap", "pre_connect": false,
			"ports": map[string]any{
				"WIFI": map[string]any{
					"name": "WIFI", "type": "wifi",
					"remote_ports": []map[string]any{
						{"device": "STA0", "port": "ETH1"},
						{"device": "STA1", "port": "ETH1"},
						{"device": "STA2", "port": "ETH1"},
					},
				},
			},
		},
	}
	for i := 0; i < 3; i++ {
		staName := "STA" + strconv.Itoa(i)
		tgName := "TG" + strconv.Itoa(i)
		devices[staName] = map[string]any{
			"name": staName, "type": "sta", "pre_connect": false,
			"ports": map[string]any{
				"ETH1": map[string]any{
					"name": "ETH1", "type": "eth",
					"remote_ports": []map[string]any{
						{"device": "AP1", "port": "WIFI"},
						{"device": tgName, "port": "PORT1"},
					},
				},
			},
		}
		devices[tgName] = map[string]any{
			"name": tgName, "type": "traffic_generator", "pre_connect": false,
			"speed": 1000,
			"ports": map[string]any{
				"PORT1": map[string]any{
					"name": "PORT1", "type": "eth",
					"remote_ports": []map[string]any{
						{"device": staName, "port": "ETH1"},
					},
				},
			},
		}
	}

	doc := map[string]any{
		"info":     map[string]any{},
		"reserved": nil,
		"devices":  devices,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}
