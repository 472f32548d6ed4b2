package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
)

type stubSource struct {
	calls int
	err   error
	route string
}

func (s *stubSource) AWSConfig(ctx context.Context, region string) (aws.Config, error) {
	s.calls++
	s.route, _ = router.FromContext(ctx)
	return aws.Config{Region: region}, s.err
}

func doc(t *testing.T, v any) resource.Resource {
	t.Helper()
	d, err := resource.NewDocument(v)
	require.NoError(t, err)
	return resource.Resource{Doc: d}
}

func TestNameTagTitle(t *testing.T) {
	r := doc(t, map[string]any{
		"VpcId": "vpc-1",
		"Tags":  []map[string]string{{"Key": "env", "Value": "prod"}, {"Key": "Name", "Value": "main"}},
	})
	r.Key = "vpc-1"
	assert.Equal(t, "main (vpc-1)", NameTagTitle(r))
	assert.Equal(t, "main", NameTag(r))

	untagged := doc(t, map[string]any{"VpcId": "vpc-2"})
	untagged.Key = "vpc-2"
	assert.Equal(t, "vpc-2", NameTagTitle(untagged))
}

func TestLastARNElement(t *testing.T) {
	assert.Equal(t, "alerts", LastARNElement("arn:aws:sns:eu-west-1:111:alerts"))
	assert.Equal(t, "", LastARNElement(""))
	assert.Equal(t, "plain", LastARNElement("plain"))
}

func TestQueueName(t *testing.T) {
	assert.Equal(t, "jobs.fifo", QueueName("https://sqs.eu-west-1.amazonaws.com/111/jobs.fifo"))
}

func TestTitleHelpers(t *testing.T) {
	td := resource.Resource{Key: "arn:aws:ecs:eu-west-1:111:task-definition/web:7"}
	assert.Equal(t, "web:7", afterSlash(td))

	sg := doc(t, map[string]any{"GroupName": "default"})
	sg.Key = "sg-1"
	assert.Equal(t, "default", fieldTitle("GroupName")(sg))
	assert.Equal(t, "sg-1", fieldTitle("Missing")(sg))
}

func TestEntriesAreComplete(t *testing.T) {
	c := New(&stubSource{})
	entries := c.Entries()
	assert.Len(t, entries, 22)

	names := map[string]bool{}
	paths := map[string]bool{}
	for _, e := range entries {
		t.Run(e.Name, func(t *testing.T) {
			assert.NotEmpty(t, e.Config.ResourceName)
			assert.NotEmpty(t, e.Config.UniqueKey)
			assert.NotNil(t, e.Config.Fetcher)
			assert.NotNil(t, e.Config.TitleFunc)
			assert.True(t, e.Route.RequiresLogin)
			assert.NotEmpty(t, e.Route.Title)
			assert.NotEmpty(t, e.Columns)
			if e.Config.StateKey != "" {
				assert.NotEmpty(t, e.Config.WorkingStates)
			}
		})
		assert.False(t, names[e.Name], "duplicate name %s", e.Name)
		assert.False(t, paths[e.Route.Path], "duplicate path %s", e.Route.Path)
		names[e.Name] = true
		paths[e.Route.Path] = true
	}
	assert.Len(t, c.Routes(), len(entries))
}

func TestLookup(t *testing.T) {
	c := New(&stubSource{})

	e, err := c.Lookup("volumes")
	require.NoError(t, err)
	assert.Equal(t, "VolumeId", e.Config.UniqueKey)
	assert.Equal(t, []string{"creating", "deleting"}, e.Config.WorkingStates)

	e, err = c.Lookup("/messages/sqs")
	require.NoError(t, err)
	assert.Equal(t, "queues", e.Name)

	e, err = c.Lookup("VOLUMES")
	require.NoError(t, err)
	assert.Equal(t, "volumes", e.Name)

	_, err = c.Lookup("lambdas")
	assert.ErrorContains(t, err, `unknown resource type "lambdas"`)
}

func TestNamesSorted(t *testing.T) {
	names := New(&stubSource{}).Names()
	assert.IsIncreasing(t, names)
}

func TestFetcherSkipsEmptyFilter(t *testing.T) {
	src := &stubSource{}
	c := New(src)
	for _, e := range c.Entries() {
		docs, err := e.Config.Fetcher.Fetch(context.Background(), "eu-west-1", []string{})
		assert.NoError(t, err, e.Name)
		assert.Nil(t, docs, e.Name)
	}
	assert.Zero(t, src.calls)
}

func TestFetcherPropagatesCredentialErrors(t *testing.T) {
	src := &stubSource{err: errors.New("no credentials found")}
	e, err := New(src).Lookup("instances")
	require.NoError(t, err)

	_, err = e.Config.Fetcher.Fetch(context.Background(), "eu-west-1", nil)
	assert.ErrorContains(t, err, "no credentials found")
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, "/ec2/instances", src.route)
}

func TestColumnValue(t *testing.T) {
	r := doc(t, map[string]any{"State": map[string]string{"Name": "running"}})
	assert.Equal(t, "running", Column{Path: "State.Name"}.Value(r))
	assert.Equal(t, "x", Column{Func: func(resource.Resource) string { return "x" }}.Value(r))
}

func TestStateKeysReadSDKShapes(t *testing.T) {
	c := New(&stubSource{})
	e, err := c.Lookup("instances")
	require.NoError(t, err)

	// SDK structs encode with their Go field names.
	r := doc(t, struct {
		InstanceId string
		State      struct{ Name string }
	}{InstanceId: "i-1", State: struct{ Name string }{Name: "pending"}})
	assert.Equal(t, "pending", r.Get(e.Config.StateKey).String())
	assert.Contains(t, e.Config.WorkingStates, "pending")
}
