package offer

import (
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRange(t *testing.T) {
	r, err := ParseRange("31000-31009")
	require.NoError(t, err)
	assert.Equal(t, Range{Begin: 31000, End: 31009}, r)
	assert.Equal(t, uint64(10), r.Len())
	assert.True(t, r.Contains(31000))
	assert.True(t, r.Contains(31009))
	assert.False(t, r.Contains(31010))
	assert.Equal(t, "31000-31009", r.String())

	single, err := ParseRange("8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", single.String())

	assert.Equal(t, uint64(0), Range{Begin: 5, End: 4}.Len())

	_, err = ParseRange("abc")
	assert.Error(t, err)
}

func TestResourceString(t *testing.T) {
	tests := []struct {
		res  Resource
		want string
	}{
		{Scalar(CPUs, 2), "cpus(*):2.00"},
		{Scalar(Mem, 4096), "mem(*):4GiB"},
		{Resource{Name: Disk, Role: "db", Scalar: 512}, "disk(db):512MiB"},
		{RangesOf(Ports, Range{Begin: 80, End: 80}, Range{Begin: 31000, End: 31002}), "ports(*):[80,31000-31002]"},
		{Resource{Name: CPUs, Scalar: 1}, "cpus(*):1.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.res.String())
	}
}

func TestParseMB(t *testing.T) {
	mb, err := ParseMB("512MiB")
	require.NoError(t, err)
	assert.Equal(t, 512.0, mb)

	mb, err = ParseMB("2g")
	require.NoError(t, err)
	assert.Equal(t, 2048.0, mb)

	_, err = ParseMB("lots")
	assert.Error(t, err)
}

func TestOfferLookup(t *testing.T) {
	o := New("agent-1", "host-a",
		Scalar(CPUs, 2),
		Resource{Name: CPUs, Role: "web", Scalar: 1.5},
		Scalar(CPUs, 1),
		RangesOf(Ports, Range{Begin: 31005, End: 31010}),
		RangesOf(Ports, Range{Begin: 31000, End: 31001}),
	)

	assert.Equal(t, 3.0, o.Scalar(CPUs, AnyRole))
	assert.Equal(t, 1.5, o.Scalar(CPUs, "web"))
	assert.Equal(t, 0.0, o.Scalar(Mem, AnyRole))
	assert.Len(t, o.Find(CPUs, AnyRole), 2)
	assert.Equal(t, []Range{{31000, 31001}, {31005, 31010}}, o.PortRanges(AnyRole))
	assert.Empty(t, o.PortRanges("web"))
}

func TestSortByID(t *testing.T) {
	a, b, c := New("a", "a"), New("b", "b"), New("c", "c")
	offers := []*Offer{a, b, c}
	SortByID(offers)
	for i := 1; i < len(offers); i++ {
		assert.Less(t, offers[i-1].ID.String(), offers[i].ID.String())
	}
}

func TestParse(t *testing.T) {
	offers, err := Parse([]byte(`
offers:
  - id: 6a8e1a8e-1111-4222-8333-444455556666
    agent_id: agent-1
    hostname: host-a
    attributes:
      rack: r1
    resources:
      - name: cpus
        scalar: 4
      - name: mem
        size: 4GiB
      - name: disk
        role: db
        size: 10GiB
      - name: ports
        ranges: ["31000-32000", "8080"]
  - agent_id: agent-2
    hostname: host-b
`))
	require.NoError(t, err)
	require.Len(t, offers, 2)

	o := offers[0]
	assert.Equal(t, uuid.MustParse("6a8e1a8e-1111-4222-8333-444455556666"), o.ID)
	assert.Equal(t, "r1", o.Attributes["rack"])
	assert.Equal(t, 4.0, o.Scalar(CPUs, AnyRole))
	assert.Equal(t, 4096.0, o.Scalar(Mem, AnyRole))
	assert.Equal(t, 10240.0, o.Scalar(Disk, "db"))
	assert.Equal(t, []Range{{8080, 8080}, {31000, 32000}}, o.PortRanges(AnyRole))

	assert.NotEqual(t, uuid.Nil, offers[1].ID)
	assert.Empty(t, offers[1].Resources)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown field": "offers:\n  - hostname: a\n    cpus: 4\n",
		"bad id":        "offers:\n  - id: nope\n",
		"bad size":      "offers:\n  - resources:\n      - name: mem\n        size: huge\n",
		"bad range":     "offers:\n  - resources:\n      - name: ports\n        ranges: [\"x-y\"]\n",
	}
	for name, doc := range tests {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestRecommendations(t *testing.T) {
	id := uuid.New()
	taskID := uuid.New()
	reserve := NewReserve(id, taskID, Scalar(CPUs, 1))
	assert.NotEmpty(t, reserve.Resource.ID)
	assert.Equal(t, OperationReserve, reserve.Operation())
	assert.Equal(t, id, reserve.OfferID())
	assert.Equal(t, "RESERVE cpus(*):1.00", reserve.String())

	again := NewReserve(id, taskID, Scalar(CPUs, 1))
	assert.Equal(t, reserve.Resource.ID, again.Resource.ID)
	assert.NotEqual(t, reserve.Resource.ID, NewReserve(id, uuid.New(), Scalar(CPUs, 1)).Resource.ID)
	assert.NotEqual(t, reserve.Resource.ID, NewReserve(id, taskID, Scalar(CPUs, 2)).Resource.ID)

	launch := &LaunchRecommendation{
		Offer:     id,
		TaskID:    uuid.New(),
		TaskName:  "web",
		Image:     "nginx",
		Resources: []Resource{Scalar(CPUs, 1), Scalar(Mem, 256), Scalar(CPUs, 0.5)},
		Ports: nat.PortMap{
			"443/tcp": {{HostPort: "31001"}},
			"80/tcp":  {{HostPort: "31000"}},
		},
	}
	assert.Equal(t, OperationLaunch, launch.Operation())
	assert.Equal(t, 1.5, launch.Resource(CPUs))
	assert.Equal(t, "LAUNCH web (nginx) [cpus(*):1.00 mem(*):256MiB cpus(*):0.50] ports 31000->80/tcp,31001->443/tcp", launch.String())

	assert.Equal(t, []string{reserve.String(), launch.String()}, Strings([]Recommendation{reserve, launch}))
	assert.Equal(t, []string{}, Strings(nil))
}
