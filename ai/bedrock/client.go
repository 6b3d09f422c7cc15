package bedrock

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// runtimeAPI is the subset of the Bedrock runtime client used here.
type runtimeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

var _ runtimeAPI = (*bedrockruntime.Client)(nil)

// newRuntimeClient loads the default AWS configuration for region.
func newRuntimeClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

// invoke sends a JSON body to modelID and returns the raw response body.
func invoke(ctx context.Context, client runtimeAPI, modelID string, body []byte) ([]byte, error) {
	output, err := client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, err
	}
	return output.Body, nil
}
