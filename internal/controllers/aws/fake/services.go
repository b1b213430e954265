package fake

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
)

// EC2 answers DescribeRegions with a fixed output.
type EC2 struct {
	Output *ec2.DescribeRegionsOutput
	Err    error
	Calls  int
}

// DescribeRegions implements the region catalog client.
func (e *EC2) DescribeRegions(_ context.Context, _ *ec2.DescribeRegionsInput, _ ...func(*ec2.Options)) (*ec2.DescribeRegionsOutput, error) {
	e.Calls++
	if e.Err != nil {
		return nil, e.Err
	}
	if e.Output == nil {
		return &ec2.DescribeRegionsOutput{}, nil
	}
	return e.Output, nil
}

// CloudWatch serves canned DescribeAlarms pages in order and records the region of every call.
type CloudWatch struct {
	mu sync.Mutex

	Pages   []*cloudwatch.DescribeAlarmsOutput
	Err     error
	Inputs  []*cloudwatch.DescribeAlarmsInput
	Regions []string
}

// DescribeAlarms implements cloudwatch.DescribeAlarmsAPIClient.
func (c *CloudWatch) DescribeAlarms(_ context.Context, params *cloudwatch.DescribeAlarmsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.DescribeAlarmsOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var o cloudwatch.Options
	for _, fn := range optFns {
		fn(&o)
	}
	c.Inputs = append(c.Inputs, params)
	c.Regions = append(c.Regions, o.Region)
	if c.Err != nil {
		return nil, c.Err
	}
	if len(c.Pages) == 0 {
		return &cloudwatch.DescribeAlarmsOutput{}, nil
	}
	page := c.Pages[0]
	c.Pages = c.Pages[1:]
	return page, nil
}
