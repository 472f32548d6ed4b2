package resource

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type sdkVolume struct {
	VolumeId string
	Size     *int32
	State    string
	Tags     []struct{ Key, Value string }
}

func TestDocumentsEncodeSDKValues(t *testing.T) {
	size := int32(8)
	docs, err := Documents([]sdkVolume{
		{VolumeId: "vol-1", Size: &size, State: "available", Tags: []struct{ Key, Value string }{{"Name", "data"}}},
		{VolumeId: "vol-2", State: "creating"},
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "vol-1", docs[0].Get("VolumeId").String())
	assert.Equal(t, int64(8), docs[0].Get("Size").Int())
	assert.Equal(t, "data", docs[0].Get(`Tags.#(Key=="Name").Value`).String())
	assert.Equal(t, gjson.Null, docs[1].Get("Size").Type)
}

func TestNewDocumentError(t *testing.T) {
	_, err := NewDocument(make(chan int))
	assert.ErrorContains(t, err, "failed to encode resource")
}

func TestResourcePretty(t *testing.T) {
	r := Resource{Key: "vol-1", Doc: Document(`{"VolumeId":"vol-1","State":"in-use"}`)}
	pretty := r.Pretty()
	assert.Contains(t, pretty, "\n  \"VolumeId\": \"vol-1\"")
	assert.JSONEq(t, string(r.Doc), pretty)
	assert.Equal(t, "in-use", r.Get("State").String())
}

func TestConfigStateAndWorking(t *testing.T) {
	cfg := Config{StateKey: "State.Name", WorkingStates: []string{"pending", "stopping"}}
	r := Resource{Doc: Document(`{"State":{"Name":"pending"}}`)}

	assert.Equal(t, "pending", cfg.state(r))
	assert.True(t, cfg.working("pending"))
	assert.False(t, cfg.working("running"))
	assert.False(t, cfg.working(""))

	assert.Empty(t, Config{}.state(r))
}

func TestConfigTitle(t *testing.T) {
	r := Resource{Key: "i-1", Doc: Document(`{"InstanceId":"i-1","Name":"web"}`)}
	assert.Equal(t, "i-1", Config{}.Title(r))

	cfg := Config{TitleFunc: func(r Resource) string { return r.Get("Name").String() }}
	assert.Equal(t, "web", cfg.Title(r))
}

func TestQueryValueIgnoresCase(t *testing.T) {
	q := url.Values{"volumeid": {"vol-1"}}
	assert.Equal(t, "vol-1", queryValue(q, "VolumeId"))
	assert.Empty(t, queryValue(q, "InstanceId"))
	assert.Empty(t, queryValue(url.Values{"VolumeId": {}}, "VolumeId"))
}

func TestActivityCounter(t *testing.T) {
	a := NewActivity()
	assert.False(t, a.Loading())
	assert.True(t, a.LastRefresh().IsZero())

	a.Inc()
	a.Inc()
	assert.True(t, a.Loading())
	assert.Equal(t, 2, a.Count())

	a.Dec()
	assert.True(t, a.Loading())
	assert.True(t, a.LastRefresh().IsZero())

	before := time.Now()
	a.Dec()
	assert.False(t, a.Loading())
	assert.False(t, a.LastRefresh().Before(before.Add(-time.Second)))

	a.Dec()
	assert.Equal(t, 0, a.Count(), "never negative")
}
