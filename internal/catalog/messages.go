package catalog

import (
	"context"
	"errors"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/chukul/daintree/internal/resource"
)

// Topic is an SNS topic with its attributes.
type Topic struct {
	TopicArn   string
	Attributes map[string]string
}

// Queue is an SQS queue with its attributes.
type Queue struct {
	QueueURL   string            `json:"QueueUrl"`
	Attributes map[string]string `json:"Attributes"`
}

func snsFetcher(src ConfigSource, call func(ctx context.Context, c *sns.Client, ids []string) ([]resource.Document, error)) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		if _, empty := filtered(ids); empty {
			return nil, nil
		}
		cfg, err := src.AWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return call(ctx, sns.NewFromConfig(cfg), ids)
	})
}

func sqsFetcher(src ConfigSource) resource.Fetcher {
	return resource.FetcherFunc(func(ctx context.Context, region string, ids []string) ([]resource.Document, error) {
		if _, empty := filtered(ids); empty {
			return nil, nil
		}
		cfg, err := src.AWSConfig(ctx, region)
		if err != nil {
			return nil, err
		}
		return describeQueues(ctx, sqs.NewFromConfig(cfg), ids)
	})
}

func messageEntries(src ConfigSource) []Entry {
	return []Entry{
		{
			Name:    "topics",
			Service: "sns",
			Route:   listRoute("/messages/sns_topics", "SNS topics", "SNS topics"),
			Config: resource.Config{
				ResourceName: "topic",
				UniqueKey:    "TopicArn",
				CanCreate:    true,
				Fetcher:      snsFetcher(src, describeTopics),
				TitleFunc:    arnTitle,
			},
			Columns: []Column{
				{Header: "NAME", Func: arnTitle},
				{Header: "SUBSCRIPTIONS", Path: "Attributes.SubscriptionsConfirmed"},
				{Header: "PENDING", Path: "Attributes.SubscriptionsPending"},
			},
		},
		{
			Name:    "subscriptions",
			Service: "sns",
			Route:   listRoute("/messages/sns_subscriptions", "SNS subscriptions", "SNS subscriptions"),
			Config: resource.Config{
				ResourceName: "subscription",
				UniqueKey:    "SubscriptionArn",
				Fetcher:      snsFetcher(src, listSubscriptions),
				TitleFunc:    arnTitle,
			},
			Columns: []Column{
				{Header: "ID", Func: arnTitle},
				{Header: "TOPIC", Func: func(r resource.Resource) string { return LastARNElement(r.Get("TopicArn").String()) }},
				{Header: "PROTOCOL", Path: "Protocol"},
				{Header: "ENDPOINT", Path: "Endpoint"},
			},
		},
		{
			Name:    "queues",
			Service: "sqs",
			Route:   listRoute("/messages/sqs", "SQS", "SQS"),
			Config: resource.Config{
				ResourceName: "queue",
				UniqueKey:    "QueueUrl",
				CanCreate:    true,
				Fetcher:      sqsFetcher(src),
				TitleFunc:    queueTitle,
			},
			Columns: []Column{
				{Header: "NAME", Func: queueTitle},
				{Header: "MESSAGES", Path: "Attributes.ApproximateNumberOfMessages"},
				{Header: "IN FLIGHT", Path: "Attributes.ApproximateNumberOfMessagesNotVisible"},
				{Header: "FIFO", Path: "Attributes.FifoQueue"},
			},
		},
	}
}

func describeTopics(ctx context.Context, c *sns.Client, ids []string) ([]resource.Document, error) {
	arns := ids
	if arns == nil {
		p := sns.NewListTopicsPaginator(c, &sns.ListTopicsInput{})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			for _, t := range out.Topics {
				arns = append(arns, aws.ToString(t.TopicArn))
			}
		}
	}

	topics := make([]Topic, 0, len(arns))
	for _, arn := range arns {
		out, err := c.GetTopicAttributes(ctx, &sns.GetTopicAttributesInput{TopicArn: aws.String(arn)})
		var notFound *snstypes.NotFoundException
		if errors.As(err, &notFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		topics = append(topics, Topic{TopicArn: arn, Attributes: out.Attributes})
	}
	return resource.Documents(topics)
}

// listSubscriptions has no describe-by-id call, so filtered fetches list
// everything and keep the requested ARNs. Unconfirmed subscriptions share
// the placeholder ARN "PendingConfirmation" and are skipped.
func listSubscriptions(ctx context.Context, c *sns.Client, ids []string) ([]resource.Document, error) {
	var subs []snstypes.Subscription
	p := sns.NewListSubscriptionsPaginator(c, &sns.ListSubscriptionsInput{})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, s := range out.Subscriptions {
			arn := aws.ToString(s.SubscriptionArn)
			if arn == "PendingConfirmation" || arn == "Deleted" {
				continue
			}
			if ids != nil && !slices.Contains(ids, arn) {
				continue
			}
			subs = append(subs, s)
		}
	}
	return resource.Documents(subs)
}

func describeQueues(ctx context.Context, c *sqs.Client, ids []string) ([]resource.Document, error) {
	urls := ids
	if urls == nil {
		p := sqs.NewListQueuesPaginator(c, &sqs.ListQueuesInput{})
		for p.HasMorePages() {
			out, err := p.NextPage(ctx)
			if err != nil {
				return nil, err
			}
			urls = append(urls, out.QueueUrls...)
		}
	}

	queues := make([]Queue, 0, len(urls))
	for _, u := range urls {
		out, err := c.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
			QueueUrl:       aws.String(u),
			AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameAll},
		})
		var gone *sqstypes.QueueDoesNotExist
		if errors.As(err, &gone) {
			continue
		}
		if err != nil {
			return nil, err
		}
		queues = append(queues, Queue{QueueURL: u, Attributes: out.Attributes})
	}
	return resource.Documents(queues)
}
