package catalog

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/chukul/daintree/internal/resource"
)

func networkEntries(src ConfigSource) []Entry {
	return []Entry{
		{
			Name:    "vpcs",
			Service: "ec2",
			Route:   listRoute("/network/vpcs", "VPCs", "VPCs"),
			Config: resource.Config{
				ResourceName:  "VPC",
				UniqueKey:     "VpcId",
				StateKey:      "State",
				WorkingStates: []string{"pending"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeVpcs),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "VPC ID", Path: "VpcId"},
				nameColumn(),
				{Header: "CIDR", Path: "CidrBlock"},
				{Header: "STATE", Path: "State"},
				{Header: "DEFAULT", Path: "IsDefault"},
			},
		},
		{
			Name:    "subnets",
			Service: "ec2",
			Route:   listRoute("/network/subnets", "Subnets", "Subnets"),
			Config: resource.Config{
				ResourceName:  "subnet",
				UniqueKey:     "SubnetId",
				StateKey:      "State",
				WorkingStates: []string{"pending"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeSubnets),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "SUBNET ID", Path: "SubnetId"},
				nameColumn(),
				{Header: "VPC", Path: "VpcId"},
				{Header: "CIDR", Path: "CidrBlock"},
				{Header: "AZ", Path: "AvailabilityZone"},
				{Header: "STATE", Path: "State"},
			},
		},
		{
			Name:    "igws",
			Service: "ec2",
			Route:   listRoute("/network/igws", "Internet Gateways", "Internet Gateways"),
			Config: resource.Config{
				ResourceName:  "internet gateway",
				UniqueKey:     "InternetGatewayId",
				StateKey:      "Attachments.0.State",
				WorkingStates: []string{"attaching", "detaching"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeInternetGateways),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "IGW ID", Path: "InternetGatewayId"},
				nameColumn(),
				{Header: "VPC", Path: "Attachments.0.VpcId"},
				{Header: "STATE", Path: "Attachments.0.State"},
			},
		},
		{
			Name:    "nats",
			Service: "ec2",
			Route:   listRoute("/network/nats", "Nat Gateways", "Nat Gateways"),
			Config: resource.Config{
				ResourceName:  "NAT gateway",
				UniqueKey:     "NatGatewayId",
				StateKey:      "State",
				WorkingStates: []string{"pending", "deleting"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeNatGateways),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "NAT ID", Path: "NatGatewayId"},
				nameColumn(),
				{Header: "VPC", Path: "VpcId"},
				{Header: "SUBNET", Path: "SubnetId"},
				{Header: "STATE", Path: "State"},
			},
		},
		{
			Name:    "routetables",
			Service: "ec2",
			Route:   listRoute("/network/routeTables", "Route tables", "Route tables"),
			Config: resource.Config{
				ResourceName: "route table",
				UniqueKey:    "RouteTableId",
				CanCreate:    true,
				Fetcher:      ec2Fetcher(src, describeRouteTables),
				TitleFunc:    NameTagTitle,
			},
			Columns: []Column{
				{Header: "ROUTE TABLE ID", Path: "RouteTableId"},
				nameColumn(),
				{Header: "VPC", Path: "VpcId"},
				{Header: "ROUTES", Path: "Routes.#"},
			},
		},
		{
			Name:    "eips",
			Service: "ec2",
			Route:   listRoute("/network/eips", "Elastic IPs", "Elastic IPs"),
			Config: resource.Config{
				ResourceName: "elastic IP",
				UniqueKey:    "AllocationId",
				CanCreate:    true,
				Fetcher:      ec2Fetcher(src, describeAddresses),
				TitleFunc:    NameTagTitle,
			},
			Columns: []Column{
				{Header: "ALLOCATION ID", Path: "AllocationId"},
				nameColumn(),
				{Header: "PUBLIC IP", Path: "PublicIp"},
				{Header: "INSTANCE", Path: "InstanceId"},
			},
		},
		{
			Name:    "securitygroups",
			Service: "ec2",
			Route:   listRoute("/network/securityGroups", "Security groups", "Security groups"),
			Config: resource.Config{
				ResourceName: "security group",
				UniqueKey:    "GroupId",
				CanCreate:    true,
				Fetcher:      ec2Fetcher(src, describeSecurityGroups),
				TitleFunc:    fieldTitle("GroupName"),
			},
			Columns: []Column{
				{Header: "GROUP ID", Path: "GroupId"},
				{Header: "NAME", Path: "GroupName"},
				{Header: "VPC", Path: "VpcId"},
				{Header: "DESCRIPTION", Path: "Description"},
			},
		},
		{
			Name:    "peering",
			Service: "ec2",
			Route:   listRoute("/network/peeringConnections", "Peering connections", "Peering connections"),
			Config: resource.Config{
				ResourceName:  "peering connection",
				UniqueKey:     "VpcPeeringConnectionId",
				StateKey:      "Status.Code",
				WorkingStates: []string{"initiating-request", "pending-acceptance", "provisioning", "deleting"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describePeeringConnections),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "PEERING ID", Path: "VpcPeeringConnectionId"},
				nameColumn(),
				{Header: "REQUESTER", Path: "RequesterVpcInfo.VpcId"},
				{Header: "ACCEPTER", Path: "AccepterVpcInfo.VpcId"},
				{Header: "STATUS", Path: "Status.Code"},
			},
		},
		{
			Name:    "endpoints",
			Service: "ec2",
			Route:   listRoute("/network/endpoints", "Endpoints", "Endpoints"),
			Config: resource.Config{
				ResourceName:  "endpoint",
				UniqueKey:     "VpcEndpointId",
				StateKey:      "State",
				WorkingStates: []string{"pending", "pendingAcceptance", "deleting"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeVpcEndpoints),
				TitleFunc:     NameTagTitle,
			},
			Columns: []Column{
				{Header: "ENDPOINT ID", Path: "VpcEndpointId"},
				{Header: "SERVICE", Path: "ServiceName"},
				{Header: "TYPE", Path: "VpcEndpointType"},
				{Header: "STATE", Path: "State"},
			},
		},
		{
			Name:    "interfaces",
			Service: "ec2",
			Route:   listRoute("/network/interfaces", "Network interfaces", "Network interfaces"),
			Config: resource.Config{
				ResourceName:  "network interface",
				UniqueKey:     "NetworkInterfaceId",
				StateKey:      "Status",
				WorkingStates: []string{"attaching", "detaching"},
				CanCreate:     true,
				Fetcher:       ec2Fetcher(src, describeNetworkInterfaces),
				TitleFunc:     fieldTitle("Description"),
			},
			Columns: []Column{
				{Header: "ENI ID", Path: "NetworkInterfaceId"},
				{Header: "SUBNET", Path: "SubnetId"},
				{Header: "PRIVATE IP", Path: "PrivateIpAddress"},
				{Header: "STATUS", Path: "Status"},
			},
		},
		{
			Name:    "dhcp",
			Service: "ec2",
			Route:   listRoute("/network/dhcp", "DHCP options sets", "DHCP options sets"),
			Config: resource.Config{
				ResourceName: "DHCP options set",
				UniqueKey:    "DhcpOptionsId",
				CanCreate:    true,
				Fetcher:      ec2Fetcher(src, describeDhcpOptions),
				TitleFunc:    NameTagTitle,
			},
			Columns: []Column{
				{Header: "DHCP OPTIONS ID", Path: "DhcpOptionsId"},
				nameColumn(),
				{Header: "OWNER", Path: "OwnerId"},
			},
		},
	}
}

func describeVpcs(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeVpcsPaginator(c, &ec2.DescribeVpcsInput{Filters: idFilter("vpc-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.Vpcs)
	})
}

func describeSubnets(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeSubnetsPaginator(c, &ec2.DescribeSubnetsInput{Filters: idFilter("subnet-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.Subnets)
	})
}

func describeInternetGateways(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeInternetGatewaysPaginator(c, &ec2.DescribeInternetGatewaysInput{Filters: idFilter("internet-gateway-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.InternetGateways)
	})
}

func describeNatGateways(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeNatGatewaysPaginator(c, &ec2.DescribeNatGatewaysInput{Filter: idFilter("nat-gateway-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.NatGateways)
	})
}

func describeRouteTables(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeRouteTablesPaginator(c, &ec2.DescribeRouteTablesInput{Filters: idFilter("route-table-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.RouteTables)
	})
}

func describeAddresses(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	out, err := c.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{Filters: idFilter("allocation-id", ids)})
	if err != nil {
		return nil, err
	}
	return resource.Documents(out.Addresses)
}

func describeSecurityGroups(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeSecurityGroupsPaginator(c, &ec2.DescribeSecurityGroupsInput{Filters: idFilter("group-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.SecurityGroups)
	})
}

func describePeeringConnections(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeVpcPeeringConnectionsPaginator(c, &ec2.DescribeVpcPeeringConnectionsInput{Filters: idFilter("vpc-peering-connection-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.VpcPeeringConnections)
	})
}

func describeVpcEndpoints(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeVpcEndpointsPaginator(c, &ec2.DescribeVpcEndpointsInput{Filters: idFilter("vpc-endpoint-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.VpcEndpoints)
	})
}

func describeNetworkInterfaces(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeNetworkInterfacesPaginator(c, &ec2.DescribeNetworkInterfacesInput{Filters: idFilter("network-interface-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.NetworkInterfaces)
	})
}

func describeDhcpOptions(ctx context.Context, c *ec2.Client, ids []string) ([]resource.Document, error) {
	p := ec2.NewDescribeDhcpOptionsPaginator(c, &ec2.DescribeDhcpOptionsInput{Filters: idFilter("dhcp-options-id", ids)})
	return paginate(p.HasMorePages, func() ([]resource.Document, error) {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		return resource.Documents(out.DhcpOptions)
	})
}
