package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chukul/daintree/internal/catalog"
	"github.com/chukul/daintree/internal/resource"
	"github.com/chukul/daintree/internal/router"
)

func volumesEntry() catalog.Entry {
	items := []map[string]any{
		{"VolumeId": "vol-1", "State": "creating"},
		{"VolumeId": "vol-0123456789abcdef0", "State": "available"},
	}
	return catalog.Entry{
		Name:  "volumes",
		Route: router.Route{Path: "/ec2/volumes", Title: "Volumes"},
		Config: resource.Config{
			ResourceName:  "volume",
			UniqueKey:     "VolumeId",
			StateKey:      "State",
			WorkingStates: []string{"creating"},
			Fetcher: resource.FetcherFunc(func(context.Context, string, []string) ([]resource.Document, error) {
				var docs []resource.Document
				for _, item := range items {
					d, err := resource.NewDocument(item)
					if err != nil {
						return nil, err
					}
					docs = append(docs, d)
				}
				return docs, nil
			}),
		},
		Columns: []catalog.Column{
			{Header: "VOLUME ID", Path: "VolumeId"},
			{Header: "STATE", Path: "State"},
		},
	}
}

func TestRenderTableAligns(t *testing.T) {
	entry := volumesEntry()
	engine := resource.New(entry.Config)
	t.Cleanup(engine.Shutdown)
	engine.SetRegions([]string{"eu-west-1"})
	engine.Wait()
	require.Equal(t, []string{"vol-1"}, engine.Pending("eu-west-1"))

	out := renderTable(entry, engine, engine.Resources())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "VOLUME ID")
	assert.Contains(t, lines[0], "REGION")
	assert.Contains(t, out, "vol-0123456789abcdef0")
	assert.Contains(t, out, "creating")

	col := strings.Index(lines[0], "STATE")
	for _, l := range lines[1:] {
		assert.Equal(t, lipgloss.Width(lines[0]), lipgloss.Width(l))
		assert.Equal(t, col, strings.Index(l, strings.Fields(l)[1]), "state column lines up")
	}
}

func TestResumeEntry(t *testing.T) {
	entries := []catalog.Entry{
		{Name: "instances", Route: router.Route{Path: "/ec2/instances"}},
		volumesEntry(),
	}

	i, q, ok := resumeEntry(entries, "/ec2/volumes?VolumeId=vol-1")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, "vol-1", q.Get("VolumeId"))

	_, _, ok = resumeEntry(entries, router.HomePath)
	assert.False(t, ok)
}
