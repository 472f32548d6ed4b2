package internal

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/chukul/daintree/internal/log"
)

// DefaultSTSRegion is used for STS calls when nothing else is configured.
const DefaultSTSRegion = "us-east-1"

// RoleSessionName tags every AssumeRole call made by daintree.
const RoleSessionName = "daintree"

type options struct {
	region  string
	profile string
	creds   *Credentials
}

// Option customizes LoadAWSConfig.
type Option func(*options)

// WithRegion sets the region of the returned config.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithProfile loads a shared config profile instead of static credentials.
func WithProfile(profile string) Option {
	return func(o *options) { o.profile = profile }
}

// WithCredentials pins the config to c.
func WithCredentials(c *Credentials) Option {
	return func(o *options) { o.creds = c }
}

// LoadAWSConfig builds an SDK config. With WithCredentials the shared config
// chain is still read (for retry and endpoint settings) but credentials come
// only from c.
func LoadAWSConfig(ctx context.Context, opts ...Option) (aws.Config, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	if o.profile != "" {
		loadOpts = append(loadOpts, config.WithSharedConfigProfile(o.profile))
	}
	if o.creds != nil {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.creds.AccessKeyID,
			o.creds.SecretAccessKey,
			o.creds.SessionToken,
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	log.Debugf("aws config loaded region=%s static=%t", cfg.Region, o.creds != nil)
	return cfg, nil
}

// STSClient is the subset of the STS API daintree uses.
type STSClient interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// CognitoClient is the subset of the Cognito Identity API daintree uses.
type CognitoClient interface {
	GetId(ctx context.Context, params *cognitoidentity.GetIdInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetIdOutput, error)
	GetCredentialsForIdentity(ctx context.Context, params *cognitoidentity.GetCredentialsForIdentityInput, optFns ...func(*cognitoidentity.Options)) (*cognitoidentity.GetCredentialsForIdentityOutput, error)
}

// AWS talks to STS and Cognito on behalf of the credential store. The
// client constructors are fields so tests can substitute fakes.
type AWS struct {
	NewSTS     func(cfg aws.Config) STSClient
	NewCognito func(cfg aws.Config) CognitoClient
	Region     string
}

// NewAWS returns an AWS backed by the real SDK clients.
func NewAWS() *AWS {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = DefaultSTSRegion
	}
	return &AWS{
		NewSTS:     func(cfg aws.Config) STSClient { return sts.NewFromConfig(cfg) },
		NewCognito: func(cfg aws.Config) CognitoClient { return cognitoidentity.NewFromConfig(cfg) },
		Region:     region,
	}
}

func (a *AWS) stsFor(ctx context.Context, c *Credentials) (STSClient, error) {
	cfg, err := LoadAWSConfig(ctx, WithRegion(a.Region), WithCredentials(c))
	if err != nil {
		return nil, err
	}
	return a.NewSTS(cfg), nil
}

// GetCallerIdentity verifies c and returns who it belongs to.
func (a *AWS) GetCallerIdentity(ctx context.Context, c Credentials) (Identity, error) {
	client, err := a.stsFor(ctx, &c)
	if err != nil {
		return Identity{}, err
	}
	out, err := client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		Arn:     aws.ToString(out.Arn),
		Account: aws.ToString(out.Account),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// AssumeRole exchanges base for temporary credentials of roleArn.
func (a *AWS) AssumeRole(ctx context.Context, base Credentials, roleArn string) (Credentials, error) {
	client, err := a.stsFor(ctx, &base)
	if err != nil {
		return Credentials{}, err
	}
	out, err := client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleArn),
		RoleSessionName: aws.String(RoleSessionName),
	})
	if err != nil {
		return Credentials{}, err
	}
	if out.Credentials == nil {
		return Credentials{}, fmt.Errorf("assume role %s returned no credentials", roleArn)
	}
	return Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiration:      out.Credentials.Expiration,
	}, nil
}

// CognitoCredentials federates an identity-provider token through a
// Cognito identity pool. The pool id carries its region as prefix
// ("eu-west-1:uuid").
func (a *AWS) CognitoCredentials(ctx context.Context, poolID string, logins map[string]string) (Credentials, error) {
	region := PoolRegion(poolID)
	cfg, err := LoadAWSConfig(ctx, WithRegion(region), WithCredentials(&Credentials{AccessKeyID: "anonymous", SecretAccessKey: "anonymous"}))
	if err != nil {
		return Credentials{}, err
	}
	// GetId and GetCredentialsForIdentity are unsigned calls.
	cfg.Credentials = aws.AnonymousCredentials{}
	client := a.NewCognito(cfg)

	id, err := client.GetId(ctx, &cognitoidentity.GetIdInput{
		IdentityPoolId: aws.String(poolID),
		Logins:         logins,
	})
	if err != nil {
		return Credentials{}, err
	}
	out, err := client.GetCredentialsForIdentity(ctx, &cognitoidentity.GetCredentialsForIdentityInput{
		IdentityId: id.IdentityId,
		Logins:     logins,
	})
	if err != nil {
		return Credentials{}, err
	}
	if out.Credentials == nil {
		return Credentials{}, fmt.Errorf("identity pool %s returned no credentials", poolID)
	}
	return Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Expiration:      out.Credentials.Expiration,
	}, nil
}

// PoolRegion extracts the region from a Cognito identity pool id.
func PoolRegion(poolID string) string {
	for i := 0; i < len(poolID); i++ {
		if poolID[i] == ':' {
			return poolID[:i]
		}
	}
	return poolID
}
