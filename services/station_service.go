package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"launchPadAPI/internal/apperr"
	"launchPadAPI/internal/logger"
	"launchPadAPI/internal/metrics"
	"launchPadAPI/internal/station"
)

const maxSlugLength = 50

type StationService struct {
	db    DB
	roles []station.RoleSeed
	log   *logger.Logger
}

func NewStationService(db DB, roles []station.RoleSeed, log *logger.Logger) *StationService {
	return &StationService{db: db, roles: roles, log: log}
}

// CreateStationForLaunch provisions the community space at submission time.
// Idempotent: an existing station for the launch is a no-op.
func (s *StationService) CreateStationForLaunch(ctx context.Context, launchID uuid.UUID) error {
	return s.provision(ctx, launchID, "submission", false)
}

// CreateStationFromPoten provisions at threshold crossing and additionally
// back-fills every existing voter on the launch as crew.
func (s *StationService) CreateStationFromPoten(ctx context.Context, launchID uuid.UUID) error {
	return s.provision(ctx, launchID, "poten", true)
}

func (s *StationService) provision(ctx context.Context, launchID uuid.UUID, origin string, backfillVoters bool) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stations WHERE launch_id = $1)`, launchID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing station: %w", err)
	}
	if exists {
		return nil
	}

	var owner, title string
	err = tx.QueryRow(ctx, `SELECT username, title FROM launches WHERE id = $1`, launchID).Scan(&owner, &title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("launch not found")
		}
		return fmt.Errorf("failed to get launch: %w", err)
	}

	slug, err := s.allocateSlug(ctx, tx, Slugify(title))
	if err != nil {
		return err
	}

	stationID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO stations (id, launch_id, owner_username, name, slug, member_count, created_at)
		VALUES ($1, $2, $3, $4, $5, 1, $6)`,
		stationID, launchID, owner, title, slug, time.Now(),
	)
	if err != nil {
		// A concurrent provisioning call may have won the unique launch_id index
		// between our existence check and the insert. That is the idempotent case.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("failed to insert station: %w", err)
	}

	var captainRoleID, crewRoleID uuid.UUID
	for _, seed := range s.roles {
		roleID := uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO station_roles (id, station_id, name, permissions, priority, is_system, is_default)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6)`,
			roleID, stationID, seed.Name, seed.Permissions, seed.Priority, seed.IsDefault,
		)
		if err != nil {
			return fmt.Errorf("failed to seed role %s: %w", seed.Name, err)
		}
		if seed.Name == "Captain" {
			captainRoleID = roleID
		}
		if seed.IsDefault {
			crewRoleID = roleID
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO station_crew (id, station_id, username, role_id, joined_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), stationID, owner, captainRoleID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to seat owner as captain: %w", err)
	}

	if err = s.bumpMembership(ctx, tx, owner); err != nil {
		return err
	}

	if backfillVoters {
		rows, err := tx.Query(ctx, `
			SELECT DISTINCT voter_username FROM launch_votes
			WHERE launch_id = $1 AND voter_username != $2`,
			launchID, owner,
		)
		if err != nil {
			return fmt.Errorf("failed to list voters: %w", err)
		}

		var voters []string
		for rows.Next() {
			var voter string
			if err := rows.Scan(&voter); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan voter: %w", err)
			}
			voters = append(voters, voter)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return fmt.Errorf("error iterating voters: %w", err)
		}

		for _, voter := range voters {
			_, err = tx.Exec(ctx, `
				INSERT INTO station_crew (id, station_id, username, role_id, joined_at)
				VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), stationID, voter, crewRoleID, time.Now(),
			)
			if err != nil {
				return fmt.Errorf("failed to add voter %s to crew: %w", voter, err)
			}
			if err = s.bumpMembership(ctx, tx, voter); err != nil {
				return err
			}
		}

		if len(voters) > 0 {
			_, err = tx.Exec(ctx,
				`UPDATE stations SET member_count = member_count + $2 WHERE id = $1`,
				stationID, len(voters),
			)
			if err != nil {
				return fmt.Errorf("failed to update member count: %w", err)
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.StationsProvisioned.WithLabelValues(origin).Inc()
	s.log.WithLaunch(launchID.String()).WithField("slug", slug).Info("station provisioned")
	return nil
}

// allocateSlug retries with -1, -2, ... suffixes until the slug is free.
func (s *StationService) allocateSlug(ctx context.Context, tx pgx.Tx, base string) (string, error) {
	candidate := base
	for i := 1; ; i++ {
		var taken bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM stations WHERE slug = $1)`, candidate).Scan(&taken)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *StationService) bumpMembership(ctx context.Context, tx pgx.Tx, username string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO station_memberships (username, station_count)
		VALUES ($1, 1)
		ON CONFLICT (username) DO UPDATE SET station_count = station_memberships.station_count + 1`,
		username,
	)
	if err != nil {
		return fmt.Errorf("failed to update membership counter for %s: %w", username, err)
	}
	return nil
}

// GetStationByLaunch returns the station with its roles and crew.
func (s *StationService) GetStationByLaunch(ctx context.Context, launchID uuid.UUID) (*station.StationDetail, error) {
	var st station.Station
	err := s.db.QueryRow(ctx, `
		SELECT id, launch_id, owner_username, name, slug, member_count, created_at
		FROM stations WHERE launch_id = $1`,
		launchID,
	).Scan(&st.ID, &st.LaunchID, &st.OwnerUsername, &st.Name, &st.Slug, &st.MemberCount, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("station not found")
		}
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	detail := &station.StationDetail{Station: st}

	rows, err := s.db.Query(ctx, `
		SELECT id, station_id, name, permissions, priority, is_system, is_default
		FROM station_roles WHERE station_id = $1 ORDER BY priority DESC`,
		st.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var r station.Role
		if err := rows.Scan(&r.ID, &r.StationID, &r.Name, &r.Permissions, &r.Priority, &r.IsSystem, &r.IsDefault); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		detail.Roles = append(detail.Roles, r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating roles: %w", err)
	}

	crewRows, err := s.db.Query(ctx, `
		SELECT id, station_id, username, role_id, joined_at
		FROM station_crew WHERE station_id = $1 ORDER BY joined_at`,
		st.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list crew: %w", err)
	}
	defer crewRows.Close()
	for crewRows.Next() {
		var m station.CrewMember
		if err := crewRows.Scan(&m.ID, &m.StationID, &m.Username, &m.RoleID, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crew member: %w", err)
		}
		detail.Crew = append(detail.Crew, m)
	}
	if err = crewRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crew: %w", err)
	}

	return detail, nil
}

// Slugify lower-cases, collapses non-alphanumeric runs to single hyphens, trims
// them, and truncates to 50 characters.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.Trim(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "station"
	}
	return slug
}
