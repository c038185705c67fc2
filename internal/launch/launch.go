package launch

import (
	"time"

	"github.com/google/uuid"

	"launchPadAPI/internal/rank"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusClosed  Status = "closed"
)

type ProductType string

const (
	ProductVitamin    ProductType = "vitamin"
	ProductPainkiller ProductType = "painkiller"
	ProductCandy      ProductType = "candy"
)

type Launch struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	Username              string     `json:"username" db:"username"`
	Title                 string     `json:"title" db:"title"`
	Description           string     `json:"description" db:"description"`
	DemoURL               string     `json:"demo_url" db:"demo_url"`
	WeekNumber            string     `json:"week_number" db:"week_number"`
	VoteCount             int        `json:"vote_count" db:"vote_count"`
	WeightedScore         int        `json:"weighted_score" db:"weighted_score"`
	IsPoten               bool       `json:"is_poten" db:"is_poten"`
	Rank                  *int       `json:"rank,omitempty" db:"rank"`
	Status                Status     `json:"status" db:"status"`
	VitaminVotes          int        `json:"vitamin_votes" db:"vitamin_votes"`
	PainkillerVotes       int        `json:"painkiller_votes" db:"painkiller_votes"`
	CandyVotes            int        `json:"candy_votes" db:"candy_votes"`
	VerifiedFeedbackCount int        `json:"verified_feedback_count" db:"verified_feedback_count"`
	LinkedIdeaID          *uuid.UUID `json:"linked_idea_id,omitempty" db:"linked_idea_id"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// Vote is one (launch, voter) pair, unique by compound index. Votes are never
// edited; removing one deletes the row.
type Vote struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	LaunchID        uuid.UUID         `json:"launch_id" db:"launch_id"`
	VoterUsername   string            `json:"voter_username" db:"voter_username"`
	Weight          int               `json:"weight" db:"weight"`
	Multiplier      rank.FeedbackKind `json:"multiplier" db:"multiplier"`
	IsVerified      bool              `json:"is_verified" db:"is_verified"`
	FeedbackText    *string           `json:"feedback_text,omitempty" db:"feedback_text"`
	ProductTypeVote *ProductType      `json:"product_type_vote,omitempty" db:"product_type_vote"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

// PotenEvent is the append-only record of a launch crossing the poten threshold.
// The is_poten flag on the launch is a latch; this row carries the crossing time.
type PotenEvent struct {
	ID            uuid.UUID `json:"id" db:"id"`
	LaunchID      uuid.UUID `json:"launch_id" db:"launch_id"`
	WeightedScore int       `json:"weighted_score" db:"weighted_score"`
	CrossedAt     time.Time `json:"crossed_at" db:"crossed_at"`
}

type Winner struct {
	Rank     int       `json:"rank"`
	LaunchID uuid.UUID `json:"launch_id"`
	Username string    `json:"username"`
	Score    int       `json:"score"`
}

// WeeklyResult is created exactly once per week number by finalization.
type WeeklyResult struct {
	ID            uuid.UUID `json:"id" db:"id"`
	WeekNumber    string    `json:"week_number" db:"week_number"`
	Winners       []Winner  `json:"winners" db:"winners"`
	TotalLaunches int       `json:"total_launches" db:"total_launches"`
	TotalVotes    int       `json:"total_votes" db:"total_votes"`
	FinalizedAt   time.Time `json:"finalized_at" db:"finalized_at"`
}

type IdeaStatus string

const (
	IdeaValidated IdeaStatus = "validated"
	IdeaLaunched  IdeaStatus = "launched"
)

// Idea is the validated-idea entity a launch may link back to.
type Idea struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Title     string     `json:"title" db:"title"`
	Status    IdeaStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

type SubmitRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	DemoURL      string  `json:"demoUrl"`
	WeekNumber   string  `json:"weekNumber,omitempty"`
	LinkedIdeaID *string `json:"linkedIdeaId,omitempty"`
}

type CastVoteRequest struct {
	FeedbackText    string     `json:"feedbackText,omitempty"`
	ProductTypeVote string     `json:"productTypeVote,omitempty"`
	VisitedAt       *time.Time `json:"visitedAt,omitempty"`
	ReturnedAt      *time.Time `json:"returnedAt,omitempty"`
}

type CastVoteResult struct {
	Success         bool              `json:"success"`
	Weight          int               `json:"weight"`
	Multiplier      rank.FeedbackKind `json:"multiplier"`
	PromotionPoints int               `json:"promotion_points"`
}

type FinalizeResult struct {
	Success bool     `json:"success"`
	Reason  string   `json:"reason,omitempty"`
	Winners []Winner `json:"winners,omitempty"`
}
