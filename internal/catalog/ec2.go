package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/chukul/daintree/internal/resource"
)

type ec2Call func(ctx context.Context, client *ec2.Client, ids []string) ([]resource.Document, error)

// ec2Fetcher binds call to a per-region EC2 client.
func ec2Fetcher(src ConfigSource, call ec2Call) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		if _, empty := filtered(ids); empty {
			return nil, nil
		}
		cfg, err := src.AWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return call(ctx, ec2.NewFromConfig(cfg), ids)
	})
}

// idFilter restricts a Describe call to ids. Filters are used instead of
// the *Ids input fields because those fail on an id that no longer exists.
func idFilter(name string, ids []string) []ec2types.Filter {
	if ids == nil {
		return nil
	}
	return []ec2types.Filter{{Name: aws.String(name), Values: ids}}
}

func ec2Entries(src ConfigSource) []Entry {
	return []Entry{
		{
			Name:    "instances",
			Service: "ec2",
			Route:   listRoute("/ec2/instances", "EC2 Instances", "EC2 Instances"),
			Config: resource.Config{
				ResourceName:  "EC2 instance",
				UniqueKey:     "InstanceId",
				StateKey:      "State.Name",
				WorkingStates: []string{"pending", "shutting-down", "stopping"},
				Fetcher:       ec2Fetcher(src, describeInstances),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "INSTANCE ID", Path: "InstanceId"},
				nameColumn(),
				{Header: "TYPE", Path: "InstanceType"},
				{Header: "STATE", Path: "State.Name"},
				{Header: "PRIVATE IP", Path: "PrivateIpAddress"},
				{Header: "PUBLIC IP", Path: "PublicIpAddress"},
			},
		},
		{
			Name:    "volumes",
			Service: "ec2",
			Route:   listRoute("/ec2/volumes", "Volumes", "Volumes"),
			Config: resource.Config{
				ResourceName:  "volume",
				UniqueKey:     "VolumeId",
				StateKey:      "State",
				WorkingStates: []string{"creating", "deleting"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeVolumes),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "VOLUME ID", Path: "VolumeId"},
				nameColumn(),
				{Header: "SIZE", Path: "Size"},
				{Header: "TYPE", Path: "VolumeType"},
				{Header: "STATE", Path: "State"},
				{Header: "AZ", Path: "AvailabilityZone"},
			},
		},
		{
			Name:    "snapshots",
			Service: "ec2",
			Route:   listRoute("/ec2/snapshots", "Snapshots", "Snapshots"),
			Config: resource.Config{
				ResourceName:  "snapshot",
				UniqueKey:     "SnapshotId",
				StateKey:      "State",
				WorkingStates: []string{"pending"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeSnapshots),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "SNAPSHOT ID", Path: "SnapshotId"},
				nameColumn(),
				{Header: "VOLUME", Path: "VolumeId"},
				{Header: "STATE", Path: "State"},
				{Header: "PROGRESS", Path: "Progress"},
			},
		},
		{
			Name:    "keypairs",
			Service: "ec2",
			Route:   listRoute("/ec2/keyPairs", "Key pairs", "Key pairs"),
			Config: resource.Config{
				ResourceName: "key pair",
				UniqueKey:    "KeyPairId",
				CanCreate:    true,
				Fetcher:      ec2Fetcher(src, describeKeyPairs),
				TitleFunc:    fieldTitle("KeyName"),
			},
			Columns: []Column{
				{Header: "KEY PAIR ID", Path: "KeyPairId"},
				{Header: "NAME", Path: "KeyName"},
				{Header: "TYPE", Path: "KeyType"},
				{Header: "FINGERPRINT", Path: "KeyFingerprint"},
			},
		},
	}
}

func describeInstances(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeInstancesPaginator(c, &ec2.DescribeInstancesInput{Filters: idFilter("instance-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var instances []ec2types.Instance
		for _, r := range out.Reservations {
			instances = append(instances, r.Instances...)
		}
		return resource.Documents(instances)
	})
}

func describeVolumes(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeVolumesPaginator(c, &ec2.DescribeVolumesInput{Filters: idFilter("volume-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.Volumes)
	})
}

func describeSnapshots(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeSnapshotsPaginator(c, &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters:  idFilter("snapshot-id", ids),
	})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.Snapshots)
	})
}

func describeKeyPairs(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	out, err := c.DescribeKeyPairs(ctx, &ec2.DescribeKeyPairsInput{Filters: idFilter("key-pair-id", ids)})
	if err != nil {
		return nil, err
	}
	return resource.Documents(out.KeyPairs)
}
