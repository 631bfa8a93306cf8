package dynamo

import (
	"github.com/theochan/humangen/models"
)

type dynamoIdentity struct {
	PK              string `dynamodbav:"PK"`
	SK              string `dynamodbav:"SK"`
	Id              string `dynamodbav:"Id"`
	Created         int64  `dynamodbav:"Created"`
	SubmissionCount int    `dynamodbav:"SubmissionCount"`
	LastSubmission  string `dynamodbav:"LastSubmission,omitempty"`
}

// Map domain Identity -> Dynamo
func identityToDynamo(i models.Identity) dynamoIdentity {
	return dynamoIdentity{
		PK:              "IDENTITY#" + i.Id,
		SK:              "PROFILE",
		Id:              i.Id,
		Created:         i.Created,
		SubmissionCount: i.SubmissionCount,
		LastSubmission:  i.LastSubmission,
	}
}

// Map Dynamo -> domain Identity
func identityFromDynamo(di dynamoIdentity) models.Identity {
	return models.Identity{
		Id:              di.Id,
		Created:         di.Created,
		SubmissionCount: di.SubmissionCount,
		LastSubmission:  di.LastSubmission,
	}
}

type dynamoArtwork struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	Id         string   `dynamodbav:"Id"`
	AuthorId   string   `dynamodbav:"AuthorId"`
	PromptId   string   `dynamodbav:"PromptId"`
	PromptText string   `dynamodbav:"PromptText"`
	ImageData  []byte   `dynamodbav:"ImageData"`
	Created    int64    `dynamodbav:"Created"`
	Likes      int      `dynamodbav:"Likes"`
	LikedBy    []string `dynamodbav:"LikedBy,stringset,omitempty"`
}

// Map domain Artwork -> Dynamo
// GSI_Gallery indexes PromptText (hash) + Id (range) for gallery queries.
func artworkToDynamo(a models.Artwork) dynamoArtwork {
	return dynamoArtwork{
		PK:         "ARTWORK#" + a.Id,
		SK:         "ART",
		Id:         a.Id,
		AuthorId:   a.AuthorId,
		PromptId:   a.PromptId,
		PromptText: a.PromptText,
		ImageData:  a.ImageData,
		Created:    a.Created,
		Likes:      a.Likes,
		LikedBy:    a.LikedBy,
	}
}

// Map Dynamo -> domain Artwork
func artworkFromDynamo(da dynamoArtwork) models.Artwork {
	return models.Artwork{
		Id:         da.Id,
		AuthorId:   da.AuthorId,
		PromptId:   da.PromptId,
		PromptText: da.PromptText,
		ImageData:  da.ImageData,
		Created:    da.Created,
		Likes:      da.Likes,
		LikedBy:    da.LikedBy,
	}
}

type dynamoPrompt struct {
	PK        string   `dynamodbav:"PK"`
	SK        string   `dynamodbav:"SK"`
	Text      string   `dynamodbav:"Text"`
	Colors    []string `dynamodbav:"Colors"`
	StartDate int64    `dynamodbav:"StartDate"`
	EndDate   int64    `dynamodbav:"EndDate"`
	Created   int64    `dynamodbav:"Created"`
}

// Map domain Prompt -> Dynamo
// All daily prompts share one partition; the UUIDv7 id is the range key,
// so SK order is chronological.
func promptToDynamo(p models.Prompt) dynamoPrompt {
	return dynamoPrompt{
		PK:        "PROMPT#DAILY",
		SK:        p.Id,
		Text:      p.Text,
		Colors:    p.Colors,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		Created:   p.Created,
	}
}

// Map Dynamo -> domain Prompt
func promptFromDynamo(dp dynamoPrompt) models.Prompt {
	return models.Prompt{
		Id:        dp.SK,
		Text:      dp.Text,
		Colors:    dp.Colors,
		StartDate: dp.StartDate,
		EndDate:   dp.EndDate,
		Created:   dp.Created,
	}
}
