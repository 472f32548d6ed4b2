package catalog

import (
	"context"
	"errors"

	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbtypes "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/chukul/daintree/internal/resource"
)

func elbFetcher(src ConfigSource, call func(ctx context.Context, c *elbv2.Client, ids []string) ([]resource.Document, error)) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		if _, empty := filtered(ids); empty {
			return nil, nil
		}
		cfg, err := src.AWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return call(ctx, elbv2.NewFromConfig(cfg), ids)
	})
}

func elbEntries(src ConfigSource) []Entry {
	return []Entry{
		{
			Name:    "loadbalancers",
			Service: "elbv2",
			Route:   listRoute("/ec2/loadBalancers", "Load Balancers", "Load Balancers"),
			Config: resource.Config{
				ResourceName:  "load balancer",
				UniqueKey:     "LoadBalancerArn",
				StateKey:      "State.Code",
				WorkingStates: []string{"provisioning"},
				Fetcher:       elbFetcher(src, describeLoadBalancers),
				TitleFunc:     fieldTitle("LoadBalancerName"),
			},
			Columns: []Column{
				{Header: "NAME", Path: "LoadBalancerName"},
				{Header: "TYPE", Path: "Type"},
				{Header: "SCHEME", Path: "Scheme"},
				{Header: "STATE", Path: "State.Code"},
				{Header: "DNS NAME", Path: "DNSName"},
			},
		},
		{
			Name:    "targetgroups",
			Service: "elbv2",
			Route:   listRoute("/ec2/targetGroups", "Target groups", "Target groups"),
			Config: resource.Config{
				ResourceName: "target group",
				UniqueKey:    "TargetGroupArn",
				Fetcher:      elbFetcher(src, describeTargetGroups),
				TitleFunc:    fieldTitle("TargetGroupName"),
			},
			Columns: []Column{
				{Header: "NAME", Path: "TargetGroupName"},
				{Header: "PROTOCOL", Path: "Protocol"},
				{Header: "PORT", Path: "Port"},
				{Header: "TARGET TYPE", Path: "TargetType"},
				{Header: "VPC", Path: "VpcId"},
			},
		},
	}
}

// describeLoadBalancers asks for filtered ARNs one at a time: a single
// missing ARN fails the whole batch call.
func describeLoadBalancers(ctx context.Context, c *elbv2.Client, ids []string) ([]resource.Document, error) {
	if ids == nil {
		p := elbv2.NewDescribeLoadBalancersPaginator(c, &elbv2.DescribeLoadBalancersInput{})
		return paginate(p.HasMorePages, func() ([]resource.Document, error) {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			return resource.Documents(out.LoadBalancers)
		})
	}

	var found []elbtypes.LoadBalancer
	for _, arn := range ids {
		out, err := c.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{LoadBalancerArns: []string{arn}})
		var notFound *elbtypes.LoadBalancerNotFoundException
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, out.LoadBalancers...)
	}
	return resource.Documents(found)
}

func describeTargetGroups(ctx context.Context, c *elbv2.Client, ids []string) ([]resource.Document, error) {
	if ids == nil {
		p := elbv2.NewDescribeTargetGroupsPaginator(c, &elbv2.DescribeTargetGroupsInput{})
		return paginate(p.HasMorePages, func() ([]resource.Document, error) {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			return resource.Documents(out.TargetGroups)
		})
	}

	var found []elbtypes.TargetGroup
	for _, arn := range ids {
		out, err := c.DescribeTargetGroups(ctx, &elbv2.DescribeTargetGroupsInput{TargetGroupArns: []string{arn}})
		var notFound *elbtypes.TargetGroupNotFoundException
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, out.TargetGroups...)
	}
	return resource.Documents(found)
}
