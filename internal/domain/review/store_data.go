package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const reviewColumns = `
	id, manager_id, COALESCE(manager_name, ''), branch_id, reviewer_id,
	year, quarter, review_date, status,
	scores_json,
	operational_score, people_score, business_score, leadership_score, overall_score,
	auto_sanitation_avg, auto_sanitation_count, auto_dish_checks_avg, auto_dish_checks_count,
	development_goals_json, next_review_targets_json,
	COALESCE(strengths_summary, ''), COALESCE(improvement_summary, ''),
	manager_acknowledged, manager_acknowledged_at, COALESCE(manager_comments, ''),
	approved_by_id, approved_at,
	COALESCE(ai_summary, ''), ai_summary_generated_at,
	created_at, updated_at, submitted_at, completed_at`

func (s *Store) CreateReview(ctx context.Context, r *Review) error {
	scoresJSON, goalsJSON, err := marshalReviewJSON(r)
	if err != nil {
		return err
	}
	err = s.DB.QueryRow(ctx, `
		INSERT INTO manager_reviews (
			manager_id, manager_name, branch_id, reviewer_id,
			year, quarter, review_date, status,
			scores_json,
			operational_score, people_score, business_score, leadership_score, overall_score,
			auto_sanitation_avg, auto_sanitation_count, auto_dish_checks_avg, auto_dish_checks_count,
			development_goals_json, next_review_targets_json,
			strengths_summary, improvement_summary
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id, created_at, updated_at
	`,
		nullable(r.ManagerID), nullable(r.ManagerName), r.BranchID, r.ReviewerID,
		r.Year, r.Quarter, r.ReviewDate, r.Status,
		scoresJSON,
		r.CategoryScores[CategoryOperational], r.CategoryScores[CategoryPeople],
		r.CategoryScores[CategoryBusiness], r.CategoryScores[CategoryLeadership], r.OverallScore,
		r.AutoMetrics.SanitationAvg, r.AutoMetrics.SanitationCount,
		r.AutoMetrics.DishChecksAvg, r.AutoMetrics.DishChecksCount,
		goalsJSON, r.NextReviewTargets,
		nullable(r.StrengthsSummary), nullable(r.ImprovementSummary),
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if isUniqueViolation(err) {
		return conflictf("a review already exists for %s at branch %s for %s %d",
			r.SubjectLabel(), r.BranchID, r.Quarter, r.Year)
	}
	return err
}

func (s *Store) GetReview(ctx context.Context, id string) (*Review, error) {
	row := s.DB.QueryRow(ctx, "SELECT"+reviewColumns+" FROM manager_reviews WHERE id = $1", id)
	r, err := scanReview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) ListReviews(ctx context.Context, filter Filter) ([]Review, error) {
	query := "SELECT" + reviewColumns + " FROM manager_reviews WHERE 1=1"
	var args []any
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		query += fmt.Sprintf(" AND branch_id = $%d", len(args))
	}
	if filter.ManagerID != "" {
		args = append(args, filter.ManagerID)
		query += fmt.Sprintf(" AND manager_id = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if filter.Quarter != "" {
		args = append(args, filter.Quarter)
		query += fmt.Sprintf(" AND quarter = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	return s.queryReviews(ctx, query, args...)
}

func (s *Store) UpdateReviewScores(ctx context.Context, r *Review) error {
	scoresJSON, goalsJSON, err := marshalReviewJSON(r)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		UPDATE manager_reviews
		SET scores_json = $1,
			operational_score = $2, people_score = $3, business_score = $4,
			leadership_score = $5, overall_score = $6,
			development_goals_json = $7, next_review_targets_json = $8,
			strengths_summary = $9, improvement_summary = $10,
			updated_at = now()
		WHERE id = $11
	`,
		scoresJSON,
		r.CategoryScores[CategoryOperational], r.CategoryScores[CategoryPeople],
		r.CategoryScores[CategoryBusiness], r.CategoryScores[CategoryLeadership], r.OverallScore,
		goalsJSON, r.NextReviewTargets,
		nullable(r.StrengthsSummary), nullable(r.ImprovementSummary),
		r.ID,
	)
	return err
}

func (s *Store) UpdateReviewStatus(ctx context.Context, r *Review) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE manager_reviews
		SET status = $1, submitted_at = $2, completed_at = $3,
			approved_by_id = $4, approved_at = $5, updated_at = now()
		WHERE id = $6
	`, r.Status, r.SubmittedAt, r.CompletedAt, nullable(r.ApprovedByID), r.ApprovedAt, r.ID)
	return err
}

func (s *Store) UpdateAcknowledgement(ctx context.Context, r *Review) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE manager_reviews
		SET manager_acknowledged = $1, manager_acknowledged_at = $2,
			manager_comments = $3, updated_at = now()
		WHERE id = $4
	`, r.ManagerAcknowledged, r.ManagerAcknowledgedAt, nullable(r.ManagerComments), r.ID)
	return err
}

func (s *Store) SaveNarrative(ctx context.Context, id, summary string, generatedAt time.Time) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE manager_reviews
		SET ai_summary = $1, ai_summary_generated_at = $2, updated_at = now()
		WHERE id = $3
	`, summary, generatedAt, id)
	return err
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM manager_reviews WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) History(ctx context.Context, managerID string) ([]Review, error) {
	return s.queryReviews(ctx, "SELECT"+reviewColumns+`
		FROM manager_reviews
		WHERE manager_id = $1 AND overall_score IS NOT NULL
		ORDER BY year, quarter
	`, managerID)
}

func (s *Store) ListPending(ctx context.Context) ([]Review, error) {
	return s.queryReviews(ctx, "SELECT"+reviewColumns+`
		FROM manager_reviews
		WHERE status IN ($1, $2)
		ORDER BY created_at
	`, StatusDraft, StatusSubmitted)
}

func (s *Store) MissingReviewManagers(ctx context.Context, year int, quarter string) ([]ManagerRef, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT u.id, u.full_name, u.branch_id, COALESCE(b.name, '')
		FROM users u
		LEFT JOIN branches b ON b.id = u.branch_id
		WHERE u.role = 'branch_manager'
		AND NOT EXISTS (
			SELECT 1 FROM manager_reviews r
			WHERE r.manager_id = u.id AND r.year = $1 AND r.quarter = $2
		)
		ORDER BY b.name, u.full_name
	`, year, quarter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []ManagerRef
	for rows.Next() {
		var ref ManagerRef
		var branchID *string
		if err := rows.Scan(&ref.UserID, &ref.FullName, &branchID, &ref.BranchName); err != nil {
			return nil, err
		}
		if branchID != nil {
			ref.BranchID = *branchID
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) BranchName(ctx context.Context, branchID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT name FROM branches WHERE id = $1", branchID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

func (s *Store) UserFullName(ctx context.Context, userID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, "SELECT full_name FROM users WHERE id = $1", userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return name, err
}

// SanitationAverage implements MetricSource against completed sanitation
// audits for the branch and quarter. AVG over zero rows comes back NULL,
// which scans into a nil average rather than zero.
func (s *Store) SanitationAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error) {
	start, end, err := QuarterRange(year, quarter)
	if err != nil {
		return nil, 0, err
	}
	var avg *float64
	var count int
	err = s.DB.QueryRow(ctx, `
		SELECT AVG(total_score), COUNT(1)
		FROM sanitation_audits
		WHERE branch_id = $1 AND audit_date >= $2 AND audit_date <= $3 AND status = 'completed'
	`, branchID, start, end).Scan(&avg, &count)
	if err != nil {
		return nil, 0, err
	}
	return roundAvg(avg), count, nil
}

// DishCheckAverage implements MetricSource against dish check ratings.
func (s *Store) DishCheckAverage(ctx context.Context, branchID string, year int, quarter string) (*float64, int, error) {
	start, end, err := QuarterRange(year, quarter)
	if err != nil {
		return nil, 0, err
	}
	var avg *float64
	var count int
	err = s.DB.QueryRow(ctx, `
		SELECT AVG(rating), COUNT(1)
		FROM dish_checks
		WHERE branch_id = $1 AND check_date >= $2 AND check_date <= $3
	`, branchID, start, end).Scan(&avg, &count)
	if err != nil {
		return nil, 0, err
	}
	return roundAvg(avg), count, nil
}

func (s *Store) queryReviews(ctx context.Context, query string, args ...any) ([]Review, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, *r)
	}
	return reviews, rows.Err()
}

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	var managerID, approvedByID *string
	var scoresJSON, goalsJSON, targetsJSON []byte
	var opScore, peopleScore, bizScore, leadScore *float64

	err := row.Scan(
		&r.ID, &managerID, &r.ManagerName, &r.BranchID, &r.ReviewerID,
		&r.Year, &r.Quarter, &r.ReviewDate, &r.Status,
		&scoresJSON,
		&opScore, &peopleScore, &bizScore, &leadScore, &r.OverallScore,
		&r.AutoMetrics.SanitationAvg, &r.AutoMetrics.SanitationCount,
		&r.AutoMetrics.DishChecksAvg, &r.AutoMetrics.DishChecksCount,
		&goalsJSON, &targetsJSON,
		&r.StrengthsSummary, &r.ImprovementSummary,
		&r.ManagerAcknowledged, &r.ManagerAcknowledgedAt, &r.ManagerComments,
		&approvedByID, &r.ApprovedAt,
		&r.AISummary, &r.AISummaryGeneratedAt,
		&r.CreatedAt, &r.UpdatedAt, &r.SubmittedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if managerID != nil {
		r.ManagerID = *managerID
	}
	if approvedByID != nil {
		r.ApprovedByID = *approvedByID
	}
	r.CategoryScores = map[string]*float64{
		CategoryOperational: opScore,
		CategoryPeople:      peopleScore,
		CategoryBusiness:    bizScore,
		CategoryLeadership:  leadScore,
	}
	if len(scoresJSON) > 0 {
		if err := json.Unmarshal(scoresJSON, &r.Scores); err != nil {
			return nil, fmt.Errorf("review %s scores: %w", r.ID, err)
		}
	}
	if r.Scores == nil {
		r.Scores = map[string]ScoreEntry{}
	}
	if len(goalsJSON) > 0 {
		if err := json.Unmarshal(goalsJSON, &r.DevelopmentGoals); err != nil {
			return nil, fmt.Errorf("review %s development goals: %w", r.ID, err)
		}
	}
	if len(targetsJSON) > 0 {
		r.NextReviewTargets = json.RawMessage(targetsJSON)
	}
	return &r, nil
}

func marshalReviewJSON(r *Review) ([]byte, []byte, error) {
	scoresJSON, err := json.Marshal(r.Scores)
	if err != nil {
		return nil, nil, err
	}
	var goalsJSON []byte
	if r.DevelopmentGoals != nil {
		goalsJSON, err = json.Marshal(r.DevelopmentGoals)
		if err != nil {
			return nil, nil, err
		}
	}
	return scoresJSON, goalsJSON, nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func roundAvg(avg *float64) *float64 {
	if avg == nil {
		return nil
	}
	rounded := round2(*avg)
	return &rounded
}
