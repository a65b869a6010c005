package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/netprune/netprune/scanner"
	"github.com/netprune/netprune/types"
)

// Lambda evidence. Functions attached to a VPC hold references in
// their VpcConfig; functions outside VPCs carry none.

func pageFunctions(ctx context.Context, api lambda.ListFunctionsAPIClient, visit func(lambdatypes.FunctionConfiguration)) error {
	paginator := lambda.NewListFunctionsPaginator(api, &lambda.ListFunctionsInput{})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list functions: %w", err)
		}
		for _, fn := range page.Functions {
			if fn.VpcConfig == nil {
				continue
			}
			visit(fn)
		}
	}
	return nil
}

func lambdaCollector(api lambda.ListFunctionsAPIClient, name string, extract func(lambdatypes.FunctionConfiguration, types.EvidenceSet)) scanner.Collector {
	return scanner.CollectorFunc{
		CollectorName: name,
		Fn: func(ctx context.Context) (types.EvidenceSet, error) {
			evidence := types.NewEvidenceSet()
			err := pageFunctions(ctx, api, func(fn lambdatypes.FunctionConfiguration) {
				extract(fn, evidence)
			})
			return evidence, err
		},
	}
}

func lambdaSecurityGroups(api lambda.ListFunctionsAPIClient) scanner.Collector {
	return lambdaCollector(api, "lambda-security-groups",
		func(fn lambdatypes.FunctionConfiguration, evidence types.EvidenceSet) {
			for _, sgID := range fn.VpcConfig.SecurityGroupIds {
				evidence.Add(sgID)
			}
		})
}

func lambdaSubnets(api lambda.ListFunctionsAPIClient, scope Scope) scanner.Collector {
	return lambdaCollector(api, "lambda-subnets",
		func(fn lambdatypes.FunctionConfiguration, evidence types.EvidenceSet) {
			if scope.VpcID != "" && aws.ToString(fn.VpcConfig.VpcId) != scope.VpcID {
				return
			}
			for _, subnetID := range fn.VpcConfig.SubnetIds {
				evidence.Add(subnetID)
			}
		})
}

func lambdaVpcs(api lambda.ListFunctionsAPIClient) scanner.Collector {
	return lambdaCollector(api, "lambda-vpcs",
		func(fn lambdatypes.FunctionConfiguration, evidence types.EvidenceSet) {
			evidence.Add(aws.ToString(fn.VpcConfig.VpcId))
		})
}
