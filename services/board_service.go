package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/board"
	"launchPadAPI/internal/logger"
)

type BoardService struct {
	db             DB
	potenThreshold int
	log            *logger.Logger
}

func NewBoardService(db DB, potenThreshold int, log *logger.Logger) *BoardService {
	return &BoardService{db: db, potenThreshold: potenThreshold, log: log}
}

func (s *BoardService) CreatePost(ctx context.Context, authorUsername string, req *board.CreatePostRequest) (*board.Post, error) {
	if req.Title == "" {
		return nil, apperr.Validation("title is required")
	}

	post := &board.Post{
		ID:             uuid.New(),
		AuthorUsername: authorUsername,
		Title:          req.Title,
		Body:           req.Body,
		CreatedAt:      time.Now(),
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO posts (id, author_username, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		post.ID, post.AuthorUsername, post.Title, post.Body, post.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return post, nil
}

// VotePost toggles the voter's up/down vote on a post: a same-direction revote
// removes it, an opposite-direction revote flips it, otherwise a new vote is
// added. A net score of upvotes - downvotes at or above the threshold latches
// the post poten; the latch never reverts.
func (s *BoardService) VotePost(ctx context.Context, postID uuid.UUID, voterUsername string, voteType board.VoteType) (*board.VoteResult, error) {
	if voteType != board.VoteUp && voteType != board.VoteDown {
		return nil, apperr.Validation("vote type must be up or down")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var isPoten bool
	err = tx.QueryRow(ctx, `SELECT is_poten FROM posts WHERE id = $1`, postID).Scan(&isPoten)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("post not found")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	var existingID uuid.UUID
	var existingType board.VoteType
	err = tx.QueryRow(ctx,
		`SELECT id, vote_type FROM post_votes WHERE post_id = $1 AND voter_username = $2`,
		postID, voterUsername,
	).Scan(&existingID, &existingType)

	hasVote := err == nil
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing vote: %w", err)
	}

	var action string
	upDelta, downDelta := 0, 0

	switch {
	case !hasVote:
		action = "added"
		_, err = tx.Exec(ctx, `
			INSERT INTO post_votes (id, post_id, voter_username, vote_type, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New(), postID, voterUsername, string(voteType), time.Now(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert post vote: %w", err)
		}
		if voteType == board.VoteUp {
			upDelta = 1
		} else {
			downDelta = 1
		}

	case existingType == voteType:
		action = "removed"
		_, err = tx.Exec(ctx, `DELETE FROM post_votes WHERE id = $1`, existingID)
		if err != nil {
			return nil, fmt.Errorf("failed to delete post vote: %w", err)
		}
		if voteType == board.VoteUp {
			upDelta = -1
		} else {
			downDelta = -1
		}

	default:
		action = "flipped"
		_, err = tx.Exec(ctx, `UPDATE post_votes SET vote_type = $2 WHERE id = $1`, existingID, string(voteType))
		if err != nil {
			return nil, fmt.Errorf("failed to flip post vote: %w", err)
		}
		if voteType == board.VoteUp {
			upDelta, downDelta = 1, -1
		} else {
			upDelta, downDelta = -1, 1
		}
	}

	var upvotes, downvotes int
	err = tx.QueryRow(ctx, `
		UPDATE posts
		SET upvotes = upvotes + $2, downvotes = downvotes + $3
		WHERE id = $1
		RETURNING upvotes, downvotes`,
		postID, upDelta, downDelta,
	).Scan(&upvotes, &downvotes)
	if err != nil {
		return nil, fmt.Errorf("failed to update post counters: %w", err)
	}

	if !isPoten && upvotes-downvotes >= s.potenThreshold {
		_, err = tx.Exec(ctx,
			`UPDATE posts SET is_poten = TRUE, poten_at = NOW() WHERE id = $1 AND NOT is_poten`,
			postID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to latch post poten: %w", err)
		}
		s.log.WithField("post_id", postID.String()).Info("post crossed poten threshold")
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &board.VoteResult{
		Success:   true,
		Action:    action,
		Upvotes:   upvotes,
		Downvotes: downvotes,
		VoteType:  voteType,
	}, nil
}

// GetBoard lists posts, newest first.
func (s *BoardService) GetBoard(ctx context.Context, limit int) ([]*board.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, author_username, title, body, upvotes, downvotes, is_poten, poten_at, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*board.Post
	for rows.Next() {
		p := &board.Post{}
		err := rows.Scan(&p.ID, &p.AuthorUsername, &p.Title, &p.Body, &p.Upvotes, &p.Downvotes, &p.IsPoten, &p.PotenAt, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}
