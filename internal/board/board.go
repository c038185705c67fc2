package board

import (
	"time"

	"github.com/google/uuid"
)

// Post is a discussion-board entry with its own binary vote counters and a
// one-way poten latch driven by net (up - down) votes.
type Post struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	AuthorUsername string     `json:"author_username" db:"author_username"`
	Title          string     `json:"title" db:"title"`
	Body           string     `json:"body" db:"body"`
	Upvotes        int        `json:"upvotes" db:"upvotes"`
	Downvotes      int        `json:"downvotes" db:"downvotes"`
	IsPoten        bool       `json:"is_poten" db:"is_poten"`
	PotenAt        *time.Time `json:"poten_at,omitempty" db:"poten_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// PostVote is one (post, voter) pair, unique by compound index. A same-direction
// revote deletes it, an opposite-direction revote flips it.
type PostVote struct {
	ID            uuid.UUID `json:"id" db:"id"`
	PostID        uuid.UUID `json:"post_id" db:"post_id"`
	VoterUsername string    `json:"voter_username" db:"voter_username"`
	VoteType      VoteType  `json:"vote_type" db:"vote_type"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

type CreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type VoteResult struct {
	Success   bool     `json:"success"`
	Action    string   `json:"action"` // added, removed, flipped
	Upvotes   int      `json:"upvotes"`
	Downvotes int      `json:"downvotes"`
	VoteType  VoteType `json:"vote_type,omitempty"`
}
