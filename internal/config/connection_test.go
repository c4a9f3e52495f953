package config

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/groundstation/internal/telemetry"
)

func fields(t *testing.T, s string) telemetry.Fields {
	t.Helper()
	return telemetry.ParseFields(json.RawMessage(s))
}

func TestConnection_MergePartial(t *testing.T) {
	got := DefaultConnection().Merge(fields(t, `{"remoteIp":"10.1.1.2","hostPort":19000,"autoRecord":true}`))

	want := DefaultConnection()
	want.RemoteIP = "10.1.1.2"
	want.HostPort = 19000
	want.AutoRecord = true
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
	}
}

func TestConnection_MergeCoercesAndIgnoresUnusable(t *testing.T) {
	got := DefaultConnection().Merge(fields(t, `{"logLevel":2,"sendOnlyPort":"18600","hostIp":null,"lidarSendPort":"n/a"}`))
	assert.Equal(t, "2", got.LogLevel)
	assert.Equal(t, 18600, got.SendOnlyPort)
	assert.Equal(t, "192.168.1.1", got.HostIP)
	assert.Equal(t, 18507, got.LidarSendPort)
}

func TestConnection_MergeKeepsUnknownKeys(t *testing.T) {
	first := DefaultConnection().Merge(fields(t, `{"heartbeatMs":500}`))
	second := first.Merge(fields(t, `{"telemetryRate":"10Hz","heartbeatMs":250}`))

	assert.Equal(t, []string{"heartbeatMs"}, first.ExtraKeys())
	assert.Equal(t, []string{"heartbeatMs", "telemetryRate"}, second.ExtraKeys())
	assert.JSONEq(t, `250`, string(second.Extra["heartbeatMs"]))
	assert.JSONEq(t, `500`, string(first.Extra["heartbeatMs"]), "merge must not mutate its input")
}

func TestConnection_MergeEmpty(t *testing.T) {
	got := DefaultConnection().Merge(nil)
	assert.Nil(t, got.Extra)
	assert.Equal(t, DefaultConnection(), got)
}

func TestConnection_MarshalJSON(t *testing.T) {
	c := DefaultConnection().Merge(fields(t, `{"heartbeatMs":500,"protocol":"tcp"}`))
	data, err := json.Marshal(c)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "tcp", out["protocol"])
	assert.Equal(t, float64(500), out["heartbeatMs"])
	assert.Equal(t, float64(18504), out["hostPort"])
	assert.NotContains(t, out, "Extra")
}

func TestConnection_Validate(t *testing.T) {
	assert.NoError(t, DefaultConnection().Validate())

	c := DefaultConnection()
	c.PlanningRecvPort = -1
	assert.ErrorContains(t, c.Validate(), "planningRecvPort")

	c = DefaultConnection()
	c.Protocol = ""
	assert.Error(t, c.Validate())
}
