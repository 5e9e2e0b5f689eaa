package node

import (
	"testing"

	"github.com/c9s/goprocinfo/linux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offercube/offer"
)

func testStats() *Stats {
	return &Stats{
		MemStats:  &linux.MemInfo{MemTotal: 8 * 1024 * 1024, MemAvailable: 4 * 1024 * 1024},
		DiskStats: &linux.Disk{All: 100 << 30, Free: 40 << 30, Used: 60 << 30},
		CpuStats:  &linux.CPUStat{User: 30, System: 10, Idle: 60},
		LoadStats: &linux.LoadAvg{},
		CpuInfo:   &linux.CPUInfo{Processors: make([]linux.Processor, 4)},
	}
}

func TestStats(t *testing.T) {
	s := testStats()
	assert.Equal(t, uint64(4*1024*1024), s.MemUsedKb())
	assert.Equal(t, uint64(60<<30), s.DiskUsed())
	assert.Equal(t, 4, s.NumCPU())
	assert.InDelta(t, 0.4, s.CpuUsage(), 1e-9)

	s.CpuStats = &linux.CPUStat{}
	assert.Equal(t, 0.0, s.CpuUsage())
}

func TestOffer(t *testing.T) {
	n := New("agent-1", "host-a", "web")
	n.Attributes = map[string]string{"rack": "r1"}
	n.Stats = testStats()

	o := n.Offer()
	assert.Equal(t, "agent-1", o.AgentID)
	assert.Equal(t, "host-a", o.Hostname)
	assert.Equal(t, "r1", o.Attributes["rack"])

	assert.Equal(t, 4.0, o.Scalar(offer.CPUs, "web"))
	assert.Equal(t, 4096.0, o.Scalar(offer.Mem, "web"))
	assert.Equal(t, 40960.0, o.Scalar(offer.Disk, "web"))
	assert.Equal(t, []offer.Range{DefaultPorts}, o.PortRanges("web"))
	assert.Empty(t, o.Find(offer.CPUs, offer.AnyRole))

	n.Attributes["rack"] = "r2"
	assert.Equal(t, "r1", o.Attributes["rack"])
}

func TestOfferWithoutStats(t *testing.T) {
	o := New("agent-1", "host-a", "").Offer()
	require.Len(t, o.Resources, 1)
	assert.Equal(t, offer.Ports, o.Resources[0].Name)
	assert.Equal(t, offer.AnyRole, o.Resources[0].Role)
}
