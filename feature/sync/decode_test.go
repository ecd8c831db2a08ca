package sync

import (
	"context"
	"testing"

	"asset-sync/core/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloads_Intune(t *testing.T) {
	list := []byte(`[{"serialNumber":"A"},{"serialNumber":"B"}]`)
	page := []byte(`{"@odata.context":"x","value":[{"serialNumber":"A"}]}`)

	got, err := DecodePayloads(device.SourceIntune, list, Kinds{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, device.SourceIntune, got[0].Source)
	assert.Equal(t, "A", got[0].Data["serialNumber"])

	got, err = DecodePayloads(device.SourceIntune, page, Kinds{})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = DecodePayloads(device.SourceIntune, []byte(`"nope"`), Kinds{})
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestDecodePayloads_JamfKinds(t *testing.T) {
	raw := []byte(`{"computers":[{"general":{"serial_number":"C1"}}],"mobile_devices":[{"general":{"serial_number":"M1"}},{"general":{"serial_number":"M2"}}]}`)

	all, err := DecodePayloads(device.SourceJamf, raw, Kinds{Computers: true, MobileDevices: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, device.KindComputer, all[0].Kind)
	assert.Equal(t, device.KindMobile, all[1].Kind)

	computers, err := DecodePayloads(device.SourceJamf, raw, Kinds{Computers: true})
	require.NoError(t, err)
	assert.Len(t, computers, 1)

	mobiles, err := DecodePayloads(device.SourceJamf, raw, Kinds{MobileDevices: true})
	require.NoError(t, err)
	assert.Len(t, mobiles, 2)
}

func TestDecodePayloads_Rejects(t *testing.T) {
	_, err := DecodePayloads(device.SourceHuntress, []byte(`{}`), Kinds{})
	assert.ErrorIs(t, err, device.ErrNotAssetSource)

	_, err = DecodePayloads(device.Source("sccm"), []byte(`[]`), Kinds{})
	assert.ErrorIs(t, err, device.ErrUnknownSource)

	_, err = DecodePayloads(device.SourceJamf, []byte(`[`), Kinds{Computers: true})
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestDecodeAgents(t *testing.T) {
	raw := []byte(`{"agents":[{"id":1,"serial_number":"C1"}],"incidents":[{"id":9,"agent_id":1}],"remediations":[]}`)
	snap, err := DecodeAgents(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())

	incidents, err := snap.Incidents(context.Background(), "1", 3)
	require.NoError(t, err)
	assert.Len(t, incidents, 1)

	_, err = DecodeAgents([]byte(`[]`))
	assert.ErrorIs(t, err, ErrBadSnapshot)
}
