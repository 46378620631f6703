package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"neighborcast", "job.transition", "neighborcast.job.transition"},
		{"", " job/metric ", "job_metric"},
		{"app", "foo..bar", "app.foo.bar"},
		{"app", "a:b|c", "app.a_b_c"},
		{"app", "", ""},
		{"app", "...", "app"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, metricName(tt.prefix, tt.name), "%q/%q", tt.prefix, tt.name)
	}
}

func TestFormat_MergesAndSortsTags(t *testing.T) {
	t.Parallel()

	c := &Client{prefix: "nc", global: cleanTags(map[string]string{"env": "prod", " service ": " api "})}
	got := c.format("cache.event", "1", "c", map[string]string{"tier": " local ", "": "x", "env": "stage"})

	assert.Equal(t, "nc.cache.event:1|c|#env:stage,service:api,tier:local", got)
}

func TestFormat_NoTags(t *testing.T) {
	t.Parallel()

	c := &Client{}
	assert.Equal(t, "jobs:3|c", c.format("jobs", "3", "c", nil))
}

func TestNewClient_DisabledDropsMetrics(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	require.NoError(t, err)
	assert.False(t, c.Enabled())

	c.Count("x", 1, nil)
	c.Timing("y", time.Second, nil)
	assert.NoError(t, c.Close())
}

func TestNilClientIsSafe(t *testing.T) {
	t.Parallel()

	var c *Client
	assert.False(t, c.Enabled())
	c.Count("x", 1, nil)
	assert.NoError(t, c.Close())
}

func TestClient_SendsDatagrams(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "nc."})
	require.NoError(t, err)
	defer c.Close()
	require.True(t, c.Enabled())

	c.Count("job.transition", 2, map[string]string{"result": "success"})
	c.Timing("job.duration", 1500*time.Microsecond, nil)

	buf := make([]byte, 512)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(2*time.Second)))

	n, _, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "nc.job.transition:2|c|#result:success", string(buf[:n]))

	n, _, err = pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "nc.job.duration:1.5|ms", string(buf[:n]))

	require.NoError(t, c.Close())
	assert.False(t, c.Enabled())
}
