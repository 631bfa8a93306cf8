package models

// StrokePoint is one raw pointer sample. Pressure is in [0,1].
type StrokePoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Pressure float64 `json:"pressure"`
}

// Stroke is one pen-down-to-pen-up gesture. Immutable once committed
// to a canvas surface.
type Stroke struct {
	Points []StrokePoint `json:"points"`
	Size   float64       `json:"size"`
	Color  string        `json:"color"`
}

type Identity struct {
	Id              string
	Created         int64
	SubmissionCount int
	// LastSubmission is a calendar date ("2006-01-02") in the reference
	// time zone, empty if the identity has never submitted.
	LastSubmission string
}

type Prompt struct {
	Id        string   `json:"id"`
	Text      string   `json:"text"`
	Colors    []string `json:"colors"`
	StartDate int64    `json:"startDate"`
	EndDate   int64    `json:"endDate"` // exclusive
	Created   int64    `json:"createdAt"`
}

type Artwork struct {
	Id         string   `json:"id"`
	AuthorId   string   `json:"authorId"`
	PromptId   string   `json:"promptId"`
	PromptText string   `json:"promptText"`
	ImageData  []byte   `json:"imageData"`
	Created    int64    `json:"createdAt"`
	Likes      int      `json:"likes"`
	LikedBy    []string `json:"likedBy,omitempty"`
	// HasLiked is filled per caller when listing a gallery, never stored.
	HasLiked bool `json:"hasLiked"`
}

// LikeResult carries the authoritative post-commit state of a toggle.
type LikeResult struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}
