package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/theochan/humangen/store"
)

func newDynamoDBClient(ctx context.Context, devMode bool, dynamodbEndpoint string) (*dynamodb.Client, error) {
	var cfg aws.Config
	var err error

	if devMode {
		// Load config with dummy credentials and region for local/dev
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy", "dummy", ""),
			),
		)
		if err != nil {
			return nil, err
		}

		// Override endpoint for DynamoDB locally
		return dynamodb.New(dynamodb.Options{
			Credentials:      cfg.Credentials,
			Region:           cfg.Region,
			EndpointResolver: dynamodb.EndpointResolverFromURL(dynamodbEndpoint),
		}), nil
	}

	// Production/Fargate: default config (uses Task Role and AWS endpoints)
	cfg, err = config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(cfg), nil
}

func getTables(client *dynamodb.Client, ctx context.Context) ([]string, error) {
	output, err := client.ListTables(ctx, &dynamodb.ListTablesInput{})
	if err != nil {
		return nil, err
	}

	return output.TableNames, nil
}

// getItem retrieves an item of type T from DynamoDB by PK and SK
func getItem[T any](dynamoStore *DynamoHumanGenStore, ctx context.Context, pk string, sk string, consistentRead bool) (T, error) {
	var zero T

	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	resp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(dynamoStore.tableName),
		Key:            key,
		ConsistentRead: aws.Bool(consistentRead),
	})
	if err != nil {
		return zero, fmt.Errorf("GetItem failed: %w", err)
	}
	if resp.Item == nil {
		return zero, store.ErrItemNotFound
	}

	var item T
	if err := attributevalue.UnmarshalMap(resp.Item, &item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item, nil
}

// Generic function to ensure any struct with PK and SK exists
func ensureItem[T any](dynamoStore *DynamoHumanGenStore, ctx context.Context, item T) (T, bool, error) {
	// Marshal struct to DynamoDB map
	avMap, err := attributevalue.MarshalMap(item)
	if err != nil {
		var zero T
		return zero, false, fmt.Errorf("marshal error: %w", err)
	}

	// Check that PK and SK exist in the struct
	if _, ok := avMap["PK"]; !ok {
		var zero T
		return zero, false, errors.New("struct missing PK field")
	}
	if _, ok := avMap["SK"]; !ok {
		var zero T
		return zero, false, errors.New("struct missing SK field")
	}

	// Conditional PutItem: insert only if PK+SK does not exist
	_, err = dynamoStore.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(dynamoStore.tableName),
		Item:                avMap,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})

	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			// Already exists: fetch it
			key := map[string]types.AttributeValue{
				"PK": avMap["PK"],
				"SK": avMap["SK"],
			}
			getResp, err := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
				TableName: aws.String(dynamoStore.tableName),
				Key:       key,
			})
			if err != nil {
				var zero T
				return zero, false, fmt.Errorf("failed to get existing item: %w", err)
			}
			if getResp.Item == nil {
				var zero T
				return zero, false, errors.New("item supposedly exists but GetItem returned nothing")
			}

			var existing T
			if err := attributevalue.UnmarshalMap(getResp.Item, &existing); err != nil {
				var zero T
				return zero, false, fmt.Errorf("failed to unmarshal existing item: %w", err)
			}
			return existing, false, nil
		}
		var zero T
		return zero, false, fmt.Errorf("failed to put item: %w", err)
	}

	return item, true, nil // Newly inserted
}

// queryAllByPK returns all items of type T with the given PK, ordered by SK, with a limit.
func queryAllByPK[T any](dynamoStore *DynamoHumanGenStore, ctx context.Context, pk string, scanIndexForward bool, limit int32) ([]T, error) {
	var results []T

	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ScanIndexForward: aws.Bool(scanIndexForward),
	}

	if limit > 0 {
		input.Limit = aws.Int32(limit)
	}

	// Use pagination to retrieve all items
	// dynamodb uses limit per page, so we also need to handle limit globally
	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		if limit > 0 && len(results) >= int(limit) {
			break
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query failed: %w", err)
		}

		var pageItems []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}

		results = append(results, pageItems...)
	}

	if limit > 0 && len(results) > int(limit) {
		results = results[:limit]
	}

	return results, nil
}

// queryItemsByGSI returns all items of type T in a GSI partition.
// The GSI must project all attributes.
func queryItemsByGSI[T any](dynamoStore *DynamoHumanGenStore, ctx context.Context, indexName string, pkField string, pkValue string) ([]T, error) {
	var results []T

	input := &dynamodb.QueryInput{
		TableName:              aws.String(dynamoStore.tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": pkField,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pkValue},
		},
	}

	paginator := dynamodb.NewQueryPaginator(dynamoStore.client, input)

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query GSI failed: %w", err)
		}

		var pageItems []T
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &pageItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal page items: %w", err)
		}

		results = append(results, pageItems...)
	}

	return results, nil
}

// applyLikeToggle performs the conditional half of a like toggle. The
// condition is keyed on the membership the caller just observed: if another
// toggle for the same identity lands in between, the condition fails and the
// caller re-reads. Returns the post-commit item.
func applyLikeToggle(dynamoStore *DynamoHumanGenStore, ctx context.Context, pk string, sk string, identityId string, hasLiked bool) (dynamoArtwork, error) {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	exprAttrValues := map[string]types.AttributeValue{
		":idSet": &types.AttributeValueMemberSS{Value: []string{identityId}},
		":idStr": &types.AttributeValueMemberS{Value: identityId},
	}

	var updateExpr, conditionExpr string
	if hasLiked {
		updateExpr = "ADD Likes :delta DELETE LikedBy :idSet"
		conditionExpr = "contains(LikedBy, :idStr)"
		exprAttrValues[":delta"] = &types.AttributeValueMemberN{Value: "-1"}
	} else {
		updateExpr = "ADD Likes :delta, LikedBy :idSet"
		conditionExpr = "attribute_exists(PK) AND (attribute_not_exists(LikedBy) OR NOT contains(LikedBy, :idStr))"
		exprAttrValues[":delta"] = &types.AttributeValueMemberN{Value: "1"}
	}

	out, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(dynamoStore.tableName),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String(conditionExpr),
		ExpressionAttributeValues: exprAttrValues,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			return dynamoArtwork{}, store.ErrConditionFailed
		}
		return dynamoArtwork{}, fmt.Errorf("toggle like failed: %w", err)
	}

	var updated dynamoArtwork
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return dynamoArtwork{}, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}

	return updated, nil
}

// recordSubmissionDay stamps LastSubmission and bumps SubmissionCount in one
// conditional update. The condition rejects a second submission on the same
// day, which is the whole point: the gate check and the record update cannot
// be separated by a concurrent submit.
func recordSubmissionDay(dynamoStore *DynamoHumanGenStore, ctx context.Context, pk string, sk string, day string) (dynamoIdentity, error) {
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}

	out, err := dynamoStore.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(dynamoStore.tableName),
		Key:              key,
		UpdateExpression: aws.String("SET LastSubmission = :day ADD SubmissionCount :one"),
		ConditionExpression: aws.String(
			"attribute_exists(PK) AND (attribute_not_exists(LastSubmission) OR LastSubmission <> :day)",
		),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":day": &types.AttributeValueMemberS{Value: day},
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var cce *types.ConditionalCheckFailedException
		if errors.As(err, &cce) {
			// Could be because the item doesn't exist or the quota is spent.
			// Try a GetItem to tell the two apart.
			getResp, getErr := dynamoStore.client.GetItem(ctx, &dynamodb.GetItemInput{
				TableName: aws.String(dynamoStore.tableName),
				Key:       key,
			})
			if getErr != nil {
				return dynamoIdentity{}, fmt.Errorf("record submission failed, and GetItem check also failed: %w", getErr)
			}
			if getResp.Item == nil {
				return dynamoIdentity{}, store.ErrItemNotFound
			}
			return dynamoIdentity{}, store.ErrConditionFailed
		}
		return dynamoIdentity{}, fmt.Errorf("record submission failed: %w", err)
	}

	var updated dynamoIdentity
	if err := attributevalue.UnmarshalMap(out.Attributes, &updated); err != nil {
		return dynamoIdentity{}, fmt.Errorf("failed to unmarshal updated item: %w", err)
	}

	return updated, nil
}
