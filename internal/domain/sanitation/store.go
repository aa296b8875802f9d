package sanitation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const auditColumns = `id, branch_id, auditor_id, auditor_name, COALESCE(accompanist_name, ''),
	audit_date, start_time, end_time, status, categories_json, total_score, total_deductions,
	COALESCE(general_notes, ''), COALESCE(equipment_issues, ''), created_at, updated_at`

func (s *Store) Create(ctx context.Context, audit *Audit) error {
	categoriesJSON, err := json.Marshal(audit.Categories)
	if err != nil {
		return err
	}
	return s.DB.QueryRow(ctx, `
		INSERT INTO sanitation_audits
			(branch_id, auditor_id, auditor_name, accompanist_name, audit_date, start_time,
			 status, categories_json, total_score, total_deductions, general_notes, equipment_issues)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, $10, NULLIF($11, ''), NULLIF($12, ''))
		RETURNING id, created_at, updated_at
	`, audit.BranchID, audit.AuditorID, audit.AuditorName, audit.AccompanistName,
		audit.AuditDate, audit.StartTime, audit.Status, categoriesJSON,
		audit.TotalScore, audit.TotalDeductions, audit.GeneralNotes, audit.EquipmentIssues,
	).Scan(&audit.ID, &audit.CreatedAt, &audit.UpdatedAt)
}

func (s *Store) Get(ctx context.Context, id string) (*Audit, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+auditColumns+` FROM sanitation_audits WHERE id = $1`, id)
	audit, err := scanAudit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return audit, nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM sanitation_audits WHERE 1=1`
	var args []any
	if filter.BranchID != "" {
		args = append(args, filter.BranchID)
		query += fmt.Sprintf(" AND branch_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND audit_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND audit_date <= $%d", len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY audit_date DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Audit
	for rows.Next() {
		audit, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *audit)
	}
	return out, rows.Err()
}

// Update persists the mutable audit fields, including status moves.
func (s *Store) Update(ctx context.Context, audit *Audit) error {
	categoriesJSON, err := json.Marshal(audit.Categories)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
		UPDATE sanitation_audits
		SET audit_date = $1, end_time = $2, accompanist_name = NULLIF($3, ''),
			status = $4, categories_json = $5, total_score = $6, total_deductions = $7,
			general_notes = NULLIF($8, ''), equipment_issues = NULLIF($9, ''), updated_at = now()
		WHERE id = $10
	`, audit.AuditDate, audit.EndTime, audit.AccompanistName, audit.Status, categoriesJSON,
		audit.TotalScore, audit.TotalDeductions, audit.GeneralNotes, audit.EquipmentIssues, audit.ID)
	return err
}

func scanAudit(row pgx.Row) (*Audit, error) {
	var audit Audit
	var categoriesJSON []byte
	err := row.Scan(&audit.ID, &audit.BranchID, &audit.AuditorID, &audit.AuditorName,
		&audit.AccompanistName, &audit.AuditDate, &audit.StartTime, &audit.EndTime,
		&audit.Status, &categoriesJSON, &audit.TotalScore, &audit.TotalDeductions,
		&audit.GeneralNotes, &audit.EquipmentIssues, &audit.CreatedAt, &audit.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(categoriesJSON) > 0 {
		if err := json.Unmarshal(categoriesJSON, &audit.Categories); err != nil {
			return nil, fmt.Errorf("audit %s categories: %w", audit.ID, err)
		}
	}
	return &audit, nil
}
