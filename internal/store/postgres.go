package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role)
		VALUES ($1, $2, LOWER($3), $4, $5)
		RETURNING id, display_name, email, password_hash, role, created_at, updated_at
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, deactivated_at, created_at, updated_at
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role,
		&user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, role, deactivated_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role,
		&user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, use_case_id, industry_id, segment_id,
			deployment_environment, selected_llms, selected_packs, context,
			created_by, created_at, updated_at
		FROM projects
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, projectID string) (Project, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, use_case_id, industry_id, segment_id,
			deployment_environment, selected_llms, selected_packs, context,
			created_by, created_at, updated_at
		FROM projects
		WHERE id = $1
	`, projectID)
	return scanProject(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (Project, error) {
	var (
		project  Project
		llmsRaw  []byte
		packsRaw []byte
		ctxRaw   []byte
	)
	err := row.Scan(
		&project.ID, &project.Name, &project.Description,
		&project.UseCaseID, &project.IndustryID, &project.SegmentID,
		&project.DeploymentEnvironment, &llmsRaw, &packsRaw, &ctxRaw,
		&project.CreatedBy, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return Project{}, err
	}
	if err := json.Unmarshal(llmsRaw, &project.SelectedLLMs); err != nil {
		return Project{}, fmt.Errorf("decode selected_llms: %w", err)
	}
	if err := json.Unmarshal(packsRaw, &project.SelectedPacks); err != nil {
		return Project{}, fmt.Errorf("decode selected_packs: %w", err)
	}
	if len(ctxRaw) > 0 {
		if err := json.Unmarshal(ctxRaw, &project.Context); err != nil {
			return Project{}, fmt.Errorf("decode context: %w", err)
		}
	}
	return project, nil
}

// InsertProjectAndChecklist writes the project row, its checklist
// fingerprint row and all generated items in one transaction, so a
// half-created project is never observable.
func (s *PostgresStore) InsertProjectAndChecklist(ctx context.Context, project Project, checklist Checklist, items []ChecklistItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create project tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	llmsRaw, packsRaw, ctxRaw, err := encodeProjectJSON(project)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, use_case_id, industry_id, segment_id,
			deployment_environment, selected_llms, selected_packs, context, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, project.ID, project.Name, project.Description,
		project.UseCaseID, project.IndustryID, project.SegmentID,
		project.DeploymentEnvironment, llmsRaw, packsRaw, ctxRaw, project.CreatedBy)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	if err := writeChecklistTx(ctx, tx, project.ID, checklist, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create project tx: %w", err)
	}
	return nil
}

// UpdateProject persists edited fields and, when regenerate is true,
// swaps the checklist fingerprint and items in the same transaction.
func (s *PostgresStore) UpdateProject(ctx context.Context, project Project, regenerate bool, checklist Checklist, items []ChecklistItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update project tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	llmsRaw, packsRaw, _, err := encodeProjectJSON(project)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE projects
		SET name=$2, description=$3, deployment_environment=$4,
			selected_llms=$5, selected_packs=$6, updated_at=NOW()
		WHERE id=$1
	`, project.ID, project.Name, project.Description, project.DeploymentEnvironment, llmsRaw, packsRaw)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if regenerate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_items WHERE project_id=$1`, project.ID); err != nil {
			return fmt.Errorf("clear checklist items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM checklists WHERE project_id=$1`, project.ID); err != nil {
			return fmt.Errorf("clear checklist: %w", err)
		}
		if err := writeChecklistTx(ctx, tx, project.ID, checklist, items); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update project tx: %w", err)
	}
	return nil
}

func encodeProjectJSON(project Project) (llms, packs, context []byte, err error) {
	llms, err = json.Marshal(project.SelectedLLMs)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode selected_llms: %w", err)
	}
	packs, err = json.Marshal(project.SelectedPacks)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("encode selected_packs: %w", err)
	}
	if project.Context == nil {
		context = []byte("{}")
	} else if context, err = json.Marshal(project.Context); err != nil {
		return nil, nil, nil, fmt.Errorf("encode context: %w", err)
	}
	return llms, packs, context, nil
}

func writeChecklistTx(ctx context.Context, tx *sql.Tx, projectID string, checklist Checklist, items []ChecklistItem) error {
	countsRaw, err := json.Marshal(checklist.Counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO checklists (project_id, generator_version, taxonomy_hash, packs_hash, checklist_hash, counts, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, projectID, checklist.GeneratorVersion, checklist.TaxonomyHash, checklist.PacksHash, checklist.ChecklistHash, countsRaw, checklist.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert checklist: %w", err)
	}

	for _, item := range items {
		refsRaw, err := json.Marshal(item.Refs)
		if err != nil {
			return fmt.Errorf("encode refs: %w", err)
		}
		evidenceRaw, err := json.Marshal(emptyIfNilEvidence(item.Evidence))
		if err != nil {
			return fmt.Errorf("encode evidence: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO checklist_items (id, project_id, merge_key, domain, pack_id, pack_version,
				title, description, severity, refs, status, owner, notes, evidence, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, item.ID, item.ProjectID, item.MergeKey, item.Domain, item.PackID, item.PackVersion,
			item.Title, item.Description, item.Severity, refsRaw,
			item.Status, item.Owner, item.Notes, evidenceRaw, item.SortOrder)
		if err != nil {
			return fmt.Errorf("insert checklist item %s: %w", item.MergeKey, err)
		}
	}
	return nil
}

func emptyIfNilEvidence(evidence []EvidenceFile) []EvidenceFile {
	if evidence == nil {
		return []EvidenceFile{}
	}
	return evidence
}

func (s *PostgresStore) GetChecklist(ctx context.Context, projectID string) (Checklist, error) {
	var (
		checklist Checklist
		countsRaw []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT project_id, generator_version, taxonomy_hash, packs_hash, checklist_hash, counts, generated_at
		FROM checklists
		WHERE project_id = $1
	`, projectID).Scan(
		&checklist.ProjectID, &checklist.GeneratorVersion,
		&checklist.TaxonomyHash, &checklist.PacksHash, &checklist.ChecklistHash,
		&countsRaw, &checklist.GeneratedAt,
	)
	if err != nil {
		return Checklist{}, err
	}
	if err := json.Unmarshal(countsRaw, &checklist.Counts); err != nil {
		return Checklist{}, fmt.Errorf("decode counts: %w", err)
	}
	return checklist, nil
}

func (s *PostgresStore) ListChecklistItems(ctx context.Context, projectID string) ([]ChecklistItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, merge_key, domain, pack_id, pack_version,
			title, description, severity, refs, status, owner, notes, evidence, sort_order
		FROM checklist_items
		WHERE project_id = $1
		ORDER BY sort_order, id
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list checklist items: %w", err)
	}
	defer rows.Close()

	items := make([]ChecklistItem, 0)
	for rows.Next() {
		item, err := scanChecklistItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate checklist items: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetChecklistItem(ctx context.Context, projectID, itemID string) (ChecklistItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, merge_key, domain, pack_id, pack_version,
			title, description, severity, refs, status, owner, notes, evidence, sort_order
		FROM checklist_items
		WHERE project_id = $1 AND id = $2
	`, projectID, itemID)
	return scanChecklistItem(row)
}

func scanChecklistItem(row rowScanner) (ChecklistItem, error) {
	var (
		item        ChecklistItem
		refsRaw     []byte
		evidenceRaw []byte
	)
	err := row.Scan(
		&item.ID, &item.ProjectID, &item.MergeKey, &item.Domain,
		&item.PackID, &item.PackVersion, &item.Title, &item.Description,
		&item.Severity, &refsRaw, &item.Status, &item.Owner, &item.Notes,
		&evidenceRaw, &item.SortOrder,
	)
	if err != nil {
		return ChecklistItem{}, err
	}
	if err := json.Unmarshal(refsRaw, &item.Refs); err != nil {
		return ChecklistItem{}, fmt.Errorf("decode refs: %w", err)
	}
	if err := json.Unmarshal(evidenceRaw, &item.Evidence); err != nil {
		return ChecklistItem{}, fmt.Errorf("decode evidence: %w", err)
	}
	return item, nil
}

// UpdateChecklistItemState writes the mutable tracking fields and
// refreshes counts plus the project's updated_at in one transaction.
func (s *PostgresStore) UpdateChecklistItemState(ctx context.Context, projectID, itemID, status, owner, notes string, counts map[string]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin item update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE checklist_items
		SET status=$3, owner=$4, notes=$5
		WHERE project_id=$1 AND id=$2
	`, projectID, itemID, status, owner, notes)
	if err != nil {
		return fmt.Errorf("update checklist item: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if err := refreshChecklistTx(ctx, tx, projectID, counts); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit item update tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendEvidence(ctx context.Context, projectID, itemID string, file EvidenceFile) error {
	fileRaw, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode evidence file: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evidence tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE checklist_items
		SET evidence = evidence || $3::jsonb
		WHERE project_id=$1 AND id=$2
	`, projectID, itemID, fileRaw)
	if err != nil {
		return fmt.Errorf("append evidence: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}

	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at=NOW() WHERE id=$1`, projectID); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit evidence tx: %w", err)
	}
	return nil
}

func refreshChecklistTx(ctx context.Context, tx *sql.Tx, projectID string, counts map[string]int) error {
	countsRaw, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode counts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE checklists SET counts=$2 WHERE project_id=$1`, projectID, countsRaw); err != nil {
		return fmt.Errorf("update counts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE projects SET updated_at=NOW() WHERE id=$1`, projectID); err != nil {
		return fmt.Errorf("touch project: %w", err)
	}
	return nil
}

// DeleteProject removes the project and its checklist. Audit entries
// are left in place; the audit_log triggers forbid deleting them. The
// return value reports whether a row was actually deleted so a
// concurrent delete surfaces as not-found instead of a silent success.
func (s *PostgresStore) DeleteProject(ctx context.Context, projectID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM checklist_items WHERE project_id=$1`, projectID); err != nil {
		return false, fmt.Errorf("delete checklist items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM checklists WHERE project_id=$1`, projectID); err != nil {
		return false, fmt.Errorf("delete checklist: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, projectID)
	if err != nil {
		return false, fmt.Errorf("delete project: %w", err)
	}
	affected, _ := result.RowsAffected()

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete tx: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) InsertAuditEntry(ctx context.Context, entry AuditEntry) error {
	payloadRaw, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (project_id, action, actor, payload)
		VALUES ($1, $2, $3, $4)
	`, entry.ProjectID, entry.Action, entry.Actor, payloadRaw)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditEntries(ctx context.Context, projectID, action, actor string, limit int) ([]AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, action, actor, payload, created_at
		FROM audit_log
		WHERE project_id = $1 AND ($2 = '' OR action = $2) AND ($3 = '' OR actor = $3)
		ORDER BY id DESC
		LIMIT $4
	`, projectID, action, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]AuditEntry, 0)
	for rows.Next() {
		var (
			entry      AuditEntry
			payloadRaw []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ProjectID, &entry.Action, &entry.Actor, &payloadRaw, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal(payloadRaw, &entry.Payload); err != nil {
			return nil, fmt.Errorf("decode audit payload: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}
