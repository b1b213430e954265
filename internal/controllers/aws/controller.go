// Package aws provides the Controller struct that wraps the AWS services used by the mapper with context and logging support.
package aws

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/mediapackage"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/smithy-go/logging"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/pkg/errors"
)

// Controller holds one client per AWS service used by the mapper.
type Controller struct {
	ctx    context.Context
	logger *slog.Logger

	config       *aws.Config
	dynamoRegion string
	dynamoClient *dynamodb.Client
	mediaPackage *mediapackage.Client
	ec2Client    *ec2.Client
	cloudWatch   *cloudwatch.Client
	s3Client     *s3.Client
	ssmClient    *ssm.Client
}

// Option defines a function type used to configure an instance of the Controller struct.
type Option func(*Controller)

// NewController initializes a Controller with customizable options and default configurations if unspecified.
// It returns an instance of the Controller struct and an error if any required initialization steps fail.
func NewController(opts ...Option) (*Controller, error) {
	_inst := &Controller{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	_inst.logger = _inst.logger.With("controller", "aws")
	if _inst.ctx == nil {
		_inst.ctx = context.Background()
	}
	if _inst.config == nil {
		_inst.logger.Debug("loading default AWS configuration...")
		cfg, err := config.LoadDefaultConfig(_inst.ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to load AWS configuration")
		}
		cfg.Logger = newAWSLogger(_inst.logger)
		_inst.config = &cfg
	}

	_inst.dynamoClient = dynamodb.NewFromConfig(*_inst.config, func(o *dynamodb.Options) {
		if _inst.dynamoRegion != "" {
			o.Region = _inst.dynamoRegion
		}
	})
	_inst.mediaPackage = mediapackage.NewFromConfig(*_inst.config)
	_inst.ec2Client = ec2.NewFromConfig(*_inst.config)
	_inst.cloudWatch = cloudwatch.NewFromConfig(*_inst.config)
	_inst.s3Client = s3.NewFromConfig(*_inst.config)
	_inst.ssmClient = ssm.NewFromConfig(*_inst.config)
	return _inst, nil
}

// DynamoDB returns the client of the tables region.
func (a *Controller) DynamoDB() *dynamodb.Client {
	return a.dynamoClient
}

// EC2 returns the EC2 client, used to enumerate regions.
func (a *Controller) EC2() *ec2.Client {
	return a.ec2Client
}

// CloudWatch returns the CloudWatch client. Callers override the region per request.
func (a *Controller) CloudWatch() *cloudwatch.Client {
	return a.cloudWatch
}

// OriginEndpointArn resolves the ARN of a MediaPackage origin endpoint from its id.
func (a *Controller) OriginEndpointArn(ctx context.Context, id string) (string, error) {
	a.logger.With("id", id).Debug("describing MediaPackage origin endpoint...")
	out, err := a.mediaPackage.DescribeOriginEndpoint(ctx, &mediapackage.DescribeOriginEndpointInput{
		Id: aws.String(id),
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to describe origin endpoint")
	}
	if out.Arn == nil {
		return "", errors.Errorf("origin endpoint %s has no ARN", id)
	}
	return *out.Arn, nil
}

// GetSecret retrieves a secret value from SSM Parameter Store using the provided key.
// If encrypted is true, the secret is returned decrypted.
func (a *Controller) GetSecret(key string, encrypted bool) (*string, error) {
	a.logger.With("key", key).Debug("fetching SSM secret...")
	ssmResponse, err := a.ssmClient.GetParameter(a.ctx, &ssm.GetParameterInput{
		Name:           aws.String(key),
		WithDecryption: aws.Bool(encrypted),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load SSM parameters")
	}
	return ssmResponse.Parameter.Value, nil
}

// PutS3Object uploads a JSON object to the specified S3 bucket with a key formatted as a timestamp and the provided ID.
// An empty bucket name is a no-op.
func (a *Controller) PutS3Object(ctx context.Context, id string, bucket string, body []byte) error {
	if bucket != "" {
		key := fmt.Sprintf("%s.%s", time.Now().UTC().Format(time.RFC3339Nano), id)
		_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      &bucket,
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return errors.Wrap(err, "failed to put object to S3")
		}
	}
	return nil
}

type awsLogger struct {
	logger *slog.Logger
}

func newAWSLogger(logger *slog.Logger) *awsLogger {
	return &awsLogger{logger}
}

func (a *awsLogger) Logf(classification logging.Classification, format string, args ...any) {
	a.logger.Debug(fmt.Sprintf("[%v] %s", classification, fmt.Sprintf(format, args...)))
}
