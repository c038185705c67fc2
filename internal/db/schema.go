package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CreateSchema applies the schema. Safe to call on every boot - uses IF NOT EXISTS.
//
// The unique indexes are load-bearing, not advisory: (launch_id, voter_username)
// and (post_id, voter_username) enforce one vote per voter, week_number on
// weekly_results enforces finalize-once, and launch_id / slug on stations enforce
// provisioning idempotency and slug allocation.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS builder_ranks (
    username TEXT PRIMARY KEY,
    tier INT NOT NULL DEFAULT 0 CHECK (tier BETWEEN 0 AND 7),
    shipping_points INT NOT NULL DEFAULT 0,
    community_karma INT NOT NULL DEFAULT 0,
    trust_score INT NOT NULL DEFAULT 0,
    tier_score INT NOT NULL DEFAULT 0,
    promotion_points INT NOT NULL DEFAULT 0,
    weekly_wins INT NOT NULL DEFAULT 0,
    monthly_wins INT NOT NULL DEFAULT 0,
    poten_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS ideas (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL,
    title TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'validated' CHECK (status IN ('validated', 'launched')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS launches (
    id UUID PRIMARY KEY,
    username TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    demo_url TEXT NOT NULL DEFAULT '',
    week_number TEXT NOT NULL,
    vote_count INT NOT NULL DEFAULT 0,
    weighted_score INT NOT NULL DEFAULT 0,
    is_poten BOOLEAN NOT NULL DEFAULT FALSE,
    rank INT,
    status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('pending', 'active', 'closed')),
    vitamin_votes INT NOT NULL DEFAULT 0,
    painkiller_votes INT NOT NULL DEFAULT 0,
    candy_votes INT NOT NULL DEFAULT 0,
    verified_feedback_count INT NOT NULL DEFAULT 0,
    linked_idea_id UUID REFERENCES ideas(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_launches_week_number ON launches(week_number);
CREATE INDEX IF NOT EXISTS idx_launches_username_week ON launches(username, week_number);
CREATE INDEX IF NOT EXISTS idx_launches_linked_idea ON launches(linked_idea_id);

CREATE TABLE IF NOT EXISTS launch_votes (
    id UUID PRIMARY KEY,
    launch_id UUID NOT NULL REFERENCES launches(id),
    voter_username TEXT NOT NULL,
    weight INT NOT NULL,
    multiplier TEXT NOT NULL,
    is_verified BOOLEAN NOT NULL DEFAULT FALSE,
    feedback_text TEXT,
    product_type_vote TEXT CHECK (product_type_vote IN ('vitamin', 'painkiller', 'candy')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (launch_id, voter_username)
);

CREATE TABLE IF NOT EXISTS launch_poten_events (
    id UUID PRIMARY KEY,
    launch_id UUID NOT NULL REFERENCES launches(id),
    weighted_score INT NOT NULL,
    crossed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS weekly_results (
    id UUID PRIMARY KEY,
    week_number TEXT NOT NULL UNIQUE,
    winners JSONB NOT NULL,
    total_launches INT NOT NULL,
    total_votes INT NOT NULL,
    finalized_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS stations (
    id UUID PRIMARY KEY,
    launch_id UUID NOT NULL UNIQUE REFERENCES launches(id),
    owner_username TEXT NOT NULL,
    name TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    member_count INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS station_roles (
    id UUID PRIMARY KEY,
    station_id UUID NOT NULL REFERENCES stations(id),
    name TEXT NOT NULL,
    permissions TEXT[] NOT NULL DEFAULT '{}',
    priority INT NOT NULL,
    is_system BOOLEAN NOT NULL DEFAULT FALSE,
    is_default BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_station_roles_station ON station_roles(station_id);

CREATE TABLE IF NOT EXISTS station_crew (
    id UUID PRIMARY KEY,
    station_id UUID NOT NULL REFERENCES stations(id),
    username TEXT NOT NULL,
    role_id UUID NOT NULL REFERENCES station_roles(id),
    joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (station_id, username)
);

CREATE TABLE IF NOT EXISTS station_memberships (
    username TEXT PRIMARY KEY,
    station_count INT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS posts (
    id UUID PRIMARY KEY,
    author_username TEXT NOT NULL,
    title TEXT NOT NULL,
    body TEXT NOT NULL DEFAULT '',
    upvotes INT NOT NULL DEFAULT 0,
    downvotes INT NOT NULL DEFAULT 0,
    is_poten BOOLEAN NOT NULL DEFAULT FALSE,
    poten_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS post_votes (
    id UUID PRIMARY KEY,
    post_id UUID NOT NULL REFERENCES posts(id),
    voter_username TEXT NOT NULL,
    vote_type TEXT NOT NULL CHECK (vote_type IN ('up', 'down')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (post_id, voter_username)
);

CREATE TABLE IF NOT EXISTS analyses (
    username TEXT PRIMARY KEY,
    overall_rating DOUBLE PRECISION NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS leaderboard_stats (
    type TEXT PRIMARY KEY,
    data JSONB NOT NULL,
    generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
