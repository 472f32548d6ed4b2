package catalog

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	ecstypes "github.com/aws/aws-sdk-go-v2/service/ecs/types"

	"github.com/chukul/daintree/internal/resource"
)

// describeClustersBatch is the DescribeClusters limit.
const describeClustersBatch = 100

func ecsFetcher(src ConfigSource, call func(ctx context.Context, c *ecs.Client, ids []string) ([]resource.Document, error)) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		if _, empty := filtered(ids); empty {
			return nil, nil
		}
		cfg, err := src.AWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return call(ctx, ecs.NewFromConfig(cfg), ids)
	})
}

func ecsEntries(src ConfigSource) []Entry {
	return []Entry{
		{
			Name:    "clusters",
			Service: "ecs",
			Route:   listRoute("/ecs/clusters", "Clusters", "Clusters"),
			Config: resource.Config{
				ResourceName:  "cluster",
				UniqueKey:     "ClusterArn",
				StateKey:      "Status",
				WorkingStates: []string{"PROVISIONING", "DEPROVISIONING"},
				Fetcher:       ecsFetcher(src, describeClusters),
				TitleFunc:     fieldTitle("ClusterName"),
			},
			Columns: []Column{
				{Header: "NAME", Path: "ClusterName"},
				{Header: "STATUS", Path: "Status"},
				{Header: "SERVICES", Path: "ActiveServicesCount"},
				{Header: "RUNNING", Path: "RunningTasksCount"},
				{Header: "PENDING", Path: "PendingTasksCount"},
			},
		},
		{
			Name:    "taskdefinitions",
			Service: "ecs",
			Route:   listRoute("/ecs/tasksDefinitions", "Tasks definitions", "Tasks definitions"),
			Config: resource.Config{
				ResourceName:  "task definition",
				UniqueKey:     "TaskDefinitionArn",
				StateKey:      "Status",
				WorkingStates: []string{"DELETE_IN_PROGRESS"},
				Fetcher:       ecsFetcher(src, describeTaskDefinitions),
				TitleFunc:     afterSlash,
			},
			Columns: []Column{
				{Header: "FAMILY", Path: "Family"},
				{Header: "REVISION", Path: "Revision"},
				{Header: "STATUS", Path: "Status"},
				{Header: "CPU", Path: "Cpu"},
				{Header: "MEMORY", Path: "Memory"},
			},
		},
	}
}

func describeClusters(ctx context.Context, c *ecs.Client, ids []string) ([]resource.Document, error) {
	arns := ids
	if arns == nil {
		p := ecs.NewListClustersPaginator(c, &ecs.ListClustersInput{})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			arns = append(arns, out.ClusterArns...)
		}
	}

	var clusters []ecstypes.Cluster
	for start := 0; start < len(arns); start += describeClustersBatch {
		end := min(start+describeClustersBatch, len(arns))
		// Unknown clusters come back as Failures, not as an error.
		out, err := c.DescribeClusters(ctx, &ecs.DescribeClustersInput{
			Clusters: arns[start:end],
			Include:  []ecstypes.ClusterField{ecstypes.ClusterFieldTags},
		})
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, out.Clusters...)
	}
	return resource.Documents(clusters)
}

func describeTaskDefinitions(ctx context.Context, c *ecs.Client, ids []string) ([]resource.Document, error) {
	arns := ids
	if arns == nil {
		p := ecs.NewListTaskDefinitionsPaginator(c, &ecs.ListTaskDefinitionsInput{})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			arns = append(arns, out.TaskDefinitionArns...)
		}
	}

	var defs []ecstypes.TaskDefinition
	for _, arn := range arns {
		out, err := c.DescribeTaskDefinition(ctx, &ecs.DescribeTaskDefinitionInput{TaskDefinition: aws.String(arn)})
		var clientErr *ecstypes.ClientException
		if ids != nil && errors.As(err, &clientErr) {
			// A deregistered and deleted revision is reported as a client error.
			continue
		}
		if err != nil {
			return nil, err
		}
		if out.TaskDefinition != nil {
			defs = append(defs, *out.TaskDefinition)
		}
	}
	return resource.Documents(defs)
}
