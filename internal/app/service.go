package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"truststack/api/internal/auth"
	"truststack/api/internal/authpw"
	"truststack/api/internal/config"
	"truststack/api/internal/export"
	"truststack/api/internal/mapping"
	"truststack/api/internal/packs"
	"truststack/api/internal/search"
	"truststack/api/internal/snapshot"
	"truststack/api/internal/store"
	"truststack/api/internal/taxonomy"
	"truststack/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	Role         string
	JTI          string
	ExpiresAt    time.Time
}

type SignUpInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type SignInInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateProjectInput struct {
	Name                  string          `json:"name"`
	Description           string          `json:"description"`
	UseCaseID             string          `json:"use_case_id"`
	IndustryID            string          `json:"industry_id"`
	SegmentID             string          `json:"segment_id"`
	DeploymentEnvironment string          `json:"deployment_environment"`
	SelectedLLMs          []string        `json:"selected_llms"`
	SelectedPacks         []store.PackRef `json:"selected_packs"`
	ScopeAnswers          map[string]any  `json:"scope_answers"`
}

// UpdateProjectInput is a partial patch: nil fields are left untouched.
type UpdateProjectInput struct {
	Name                  *string          `json:"name"`
	Description           *string          `json:"description"`
	DeploymentEnvironment *string          `json:"deployment_environment"`
	SelectedLLMs          *[]string        `json:"selected_llms"`
	SelectedPacks         *[]store.PackRef `json:"selected_packs"`
}

type UpdateChecklistItemInput struct {
	Status *string `json:"status"`
	Owner  *string `json:"owner"`
	Notes  *string `json:"notes"`
}

type AuditFilterInput struct {
	Action string
	Actor  string
	Limit  int
}

type dataStore interface {
	CreateUser(context.Context, store.User) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, string) (store.Project, error)
	InsertProjectAndChecklist(context.Context, store.Project, store.Checklist, []store.ChecklistItem) error
	UpdateProject(context.Context, store.Project, bool, store.Checklist, []store.ChecklistItem) error
	GetChecklist(context.Context, string) (store.Checklist, error)
	ListChecklistItems(context.Context, string) ([]store.ChecklistItem, error)
	GetChecklistItem(context.Context, string, string) (store.ChecklistItem, error)
	UpdateChecklistItemState(ctx context.Context, projectID, itemID, status, owner, notes string, counts map[string]int) error
	AppendEvidence(context.Context, string, string, store.EvidenceFile) error
	DeleteProject(context.Context, string) (bool, error)
	InsertAuditEntry(context.Context, store.AuditEntry) error
	ListAuditEntries(context.Context, string, string, string, int) ([]store.AuditEntry, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type taxonomyCatalog interface {
	GetUseCase(id string) (taxonomy.UseCase, bool)
	ListIndustries() []taxonomy.Industry
}

type packLoader interface {
	Load(domain, id, version string) (packs.Pack, error)
}

type evidenceStore interface {
	Save(ctx context.Context, projectID, itemID, filename string, data []byte) (store.EvidenceFile, error)
}

type snapshotService interface {
	RecordChecklist(projectID string, payload any, author, message string) (snapshot.Commit, error)
	History(projectID string, limit int) ([]snapshot.Commit, error)
	ChecklistAt(projectID, hash string) (json.RawMessage, error)
}

type checklistExporter interface {
	Export(ctx context.Context, doc export.ChecklistDocument, format export.Format) (*export.Result, error)
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexProject(p search.ProjectRecord)
	IndexItems(items []search.ItemRecord)
	DeleteProject(id string, itemDocIDs []string)
	DeleteItems(docIDs []string)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	accounts  *authpw.Service
	sessions  sessionStore
	catalog   taxonomyCatalog
	packs     packLoader
	generator *mapping.Generator
	evidence  evidenceStore
	snapshots snapshotService
	search    searchService
	exporter  checklistExporter
}

func New(
	cfg config.Config,
	dataStore *store.PostgresStore,
	accounts *authpw.Service,
	sessions sessionStore,
	catalog taxonomyCatalog,
	loader packLoader,
	generator *mapping.Generator,
	evidence evidenceStore,
	snapshots snapshotService,
	searcher searchService,
	exporter checklistExporter,
) *Service {
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		accounts:  accounts,
		sessions:  sessions,
		catalog:   catalog,
		packs:     loader,
		generator: generator,
		evidence:  evidence,
		snapshots: snapshots,
		search:    searcher,
		exporter:  exporter,
	}
}

func (s *Service) SignUp(ctx context.Context, input SignUpInput) (Session, error) {
	user, err := s.accounts.SignUp(ctx, authpw.SignUpRequest{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, input SignInInput) (Session, error) {
	user, err := s.accounts.SignIn(ctx, authpw.SignInRequest{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		Role:  user.Role,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		Role:         user.Role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:     token,
		UserID:    user.ID,
		UserName:  user.DisplayName,
		Email:     user.Email,
		Role:      user.Role,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

func (s *Service) CreateProject(ctx context.Context, input CreateProjectInput, actor string) (map[string]any, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("Project name is required", nil)
	}

	useCase, ok := s.catalog.GetUseCase(input.UseCaseID)
	if !ok {
		return nil, validationError(fmt.Sprintf("Unknown use case: %s", input.UseCaseID), nil)
	}
	if useCase.IndustryID != input.IndustryID || useCase.SegmentID != input.SegmentID {
		return nil, validationError("industry_id/segment_id do not match the selected use_case_id", map[string]any{
			"expected_industry_id": useCase.IndustryID,
			"expected_segment_id":  useCase.SegmentID,
		})
	}

	environment, err := normalizeDeploymentEnvironment(input.DeploymentEnvironment)
	if err != nil {
		return nil, err
	}
	if environment == "" {
		return nil, validationError("deployment_environment is required", map[string]any{
			"allowed": AllowedDeploymentEnvironments,
		})
	}

	llms := normalizeSelectedLLMs(input.SelectedLLMs)

	loaded, err := s.loadPacks(input.SelectedPacks)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	projectID := deriveProjectID(name, now)

	// The business context is built exactly once; later pack or
	// environment patches regenerate against this same object.
	projectContext := mapping.BuildContext(name, input.IndustryID, input.SegmentID, useCase, input.ScopeAnswers)
	projectContext["deployment_environment"] = environment
	projectContext["selected_llms"] = llms

	items := s.generator.Generate(projectContext, loaded)
	for i := range items {
		items[i].ProjectID = projectID
	}

	project := store.Project{
		ID:                    projectID,
		Name:                  name,
		Description:           strings.TrimSpace(input.Description),
		UseCaseID:             input.UseCaseID,
		IndustryID:            input.IndustryID,
		SegmentID:             input.SegmentID,
		DeploymentEnvironment: environment,
		SelectedLLMs:          llms,
		SelectedPacks:         input.SelectedPacks,
		Context:               projectContext,
		CreatedBy:             actor,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	checklist := store.Checklist{
		ProjectID:        projectID,
		GeneratorVersion: s.generator.Version,
		TaxonomyHash:     taxonomyHash(s.catalog.ListIndustries()),
		PacksHash:        packsHash(loaded),
		ChecklistHash:    checklistHash(items),
		Counts:           mapping.Summarize(items),
		GeneratedAt:      now,
	}

	if err := s.store.InsertProjectAndChecklist(ctx, project, checklist, items); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, projectID, "project.created", actor, map[string]any{
		"project": map[string]any{"id": projectID, "name": name},
	}); err != nil {
		return nil, err
	}

	s.recordSnapshot(project, checklist, items, actor, "Generate checklist")
	s.indexProject(project)
	s.indexItems(projectID, items)

	return s.projectView(project, checklist), nil
}

func (s *Service) ListProjects(ctx context.Context) ([]map[string]any, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(projects))
	for _, project := range projects {
		counts := map[string]int{}
		checklist, err := s.store.GetChecklist(ctx, project.ID)
		if err == nil {
			counts = checklist.Counts
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		views = append(views, map[string]any{
			"id":                     project.ID,
			"name":                   project.Name,
			"description":            project.Description,
			"use_case_id":            project.UseCaseID,
			"deployment_environment": project.DeploymentEnvironment,
			"counts":                 counts,
			"created_by":             project.CreatedBy,
			"updated_at":             project.UpdatedAt,
		})
	}
	return views, nil
}

func (s *Service) GetProject(ctx context.Context, projectID string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	checklist, err := s.store.GetChecklist(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.projectView(project, checklist), nil
}

func (s *Service) GetChecklist(ctx context.Context, projectID string) (map[string]any, error) {
	checklist, err := s.store.GetChecklist(ctx, projectID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListChecklistItems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return checklistView(checklist, items), nil
}

func (s *Service) UpdateProject(ctx context.Context, projectID string, input UpdateProjectInput, actor string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	before := projectPatchSnapshot(project)

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, validationError("Project name cannot be blank", nil)
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = strings.TrimSpace(*input.Description)
	}
	if input.DeploymentEnvironment != nil {
		// Unlike creation, an empty environment is allowed on update.
		environment, err := normalizeDeploymentEnvironment(*input.DeploymentEnvironment)
		if err != nil {
			return nil, err
		}
		project.DeploymentEnvironment = environment
	}
	if input.SelectedLLMs != nil {
		project.SelectedLLMs = normalizeSelectedLLMs(*input.SelectedLLMs)
	}

	now := time.Now().UTC()
	regenerated := false
	var checklist store.Checklist
	var merged []store.ChecklistItem
	var droppedDocIDs []string

	if input.SelectedPacks != nil {
		loaded, err := s.loadPacks(*input.SelectedPacks)
		if err != nil {
			return nil, err
		}
		prior, err := s.store.ListChecklistItems(ctx, projectID)
		if err != nil {
			return nil, err
		}

		project.SelectedPacks = *input.SelectedPacks

		fresh := s.generator.Generate(project.Context, loaded)
		merged = mergeChecklistItems(fresh, prior)
		for i := range merged {
			merged[i].ProjectID = projectID
		}
		droppedDocIDs = droppedItemDocIDs(projectID, prior, merged)

		checklist = store.Checklist{
			ProjectID:        projectID,
			GeneratorVersion: s.generator.Version,
			TaxonomyHash:     taxonomyHash(s.catalog.ListIndustries()),
			PacksHash:        packsHash(loaded),
			ChecklistHash:    checklistHash(merged),
			Counts:           mapping.Summarize(merged),
			GeneratedAt:      now,
		}
		regenerated = true
	}

	project.UpdatedAt = now
	if err := s.store.UpdateProject(ctx, project, regenerated, checklist, merged); err != nil {
		return nil, err
	}

	after := projectPatchSnapshot(project)
	if err := s.audit(ctx, projectID, "project.updated", actor, map[string]any{
		"before":                before,
		"after":                 after,
		"checklist_regenerated": regenerated,
	}); err != nil {
		return nil, err
	}

	if regenerated {
		s.recordSnapshot(project, checklist, merged, actor, "Regenerate checklist")
		s.indexItems(projectID, merged)
		if s.search != nil {
			s.search.DeleteItems(droppedDocIDs)
		}
	} else {
		checklist, err = s.store.GetChecklist(ctx, projectID)
		if err != nil {
			return nil, err
		}
	}
	s.indexProject(project)

	return s.projectView(project, checklist), nil
}

func (s *Service) UpdateChecklistItem(ctx context.Context, projectID, itemID string, input UpdateChecklistItemInput, actor string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	item, err := s.store.GetChecklistItem(ctx, projectID, itemID)
	if err != nil {
		return nil, err
	}

	before := itemPatchSnapshot(item)

	if input.Status != nil {
		item.Status = strings.TrimSpace(*input.Status)
	}
	if input.Owner != nil {
		item.Owner = strings.TrimSpace(*input.Owner)
	}
	if input.Notes != nil {
		item.Notes = *input.Notes
	}

	after := itemPatchSnapshot(item)

	// Counts describe the whole checklist, so recompute across every
	// item with the patch applied.
	items, err := s.store.ListChecklistItems(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID {
			items[i] = item
		}
	}
	counts := mapping.Summarize(items)

	if err := s.store.UpdateChecklistItemState(ctx, projectID, itemID, item.Status, item.Owner, item.Notes, counts); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, projectID, "checklist.item.updated", actor, map[string]any{
		"item_id": itemID,
		"before":  before,
		"after":   after,
	}); err != nil {
		return nil, err
	}

	s.indexItems(projectID, []store.ChecklistItem{item})

	return itemView(item), nil
}

func (s *Service) AddEvidence(ctx context.Context, projectID, itemID, filename, contentType string, data []byte, actor string) (map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetChecklistItem(ctx, projectID, itemID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, validationError("Evidence file is empty", nil)
	}

	meta, err := s.evidence.Save(ctx, projectID, itemID, filename, data)
	if err != nil {
		return nil, err
	}
	meta.ContentType = contentType
	meta.UploadedBy = actor
	meta.UploadedAt = time.Now().UTC()

	if err := s.store.AppendEvidence(ctx, projectID, itemID, meta); err != nil {
		return nil, err
	}
	if err := s.audit(ctx, projectID, "evidence.uploaded", actor, map[string]any{
		"item_id": itemID,
		"file":    evidenceView(meta),
	}); err != nil {
		return nil, err
	}

	return evidenceView(meta), nil
}

// DeleteProject removes the project and its checklist. The audit trail
// is retained, and a final project.deleted record is appended so the
// trail explains why the project is gone.
func (s *Service) DeleteProject(ctx context.Context, projectID, actor string) (map[string]any, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListChecklistItems(ctx, projectID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		// Lost a race with a concurrent delete between the read above
		// and the delete itself.
		return nil, sql.ErrNoRows
	}

	deletedAt := time.Now().UTC()
	summary := map[string]any{
		"project_id": projectID,
		"name":       project.Name,
		"deleted_by": actor,
		"deleted_at": deletedAt,
	}
	if err := s.audit(ctx, projectID, "project.deleted", actor, summary); err != nil {
		return nil, err
	}

	if s.search != nil {
		docIDs := make([]string, 0, len(items))
		for _, item := range items {
			docIDs = append(docIDs, itemDocID(projectID, item.ID))
		}
		s.search.DeleteProject(projectID, docIDs)
	}

	return summary, nil
}

// AuditLog lists audit records newest-first. It works for deleted
// projects too: the trail outlives the project.
func (s *Service) AuditLog(ctx context.Context, projectID string, filter AuditFilterInput) ([]map[string]any, error) {
	entries, err := s.store.ListAuditEntries(ctx, projectID, filter.Action, filter.Actor, filter.Limit)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		views = append(views, map[string]any{
			"id":         entry.ID,
			"project_id": entry.ProjectID,
			"action":     entry.Action,
			"actor":      entry.Actor,
			"payload":    entry.Payload,
			"created_at": entry.CreatedAt,
		})
	}
	return views, nil
}

func (s *Service) SnapshotHistory(ctx context.Context, projectID string, limit int) ([]map[string]any, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	commits, err := s.snapshots.History(projectID, limit)
	if err != nil {
		return nil, err
	}

	views := make([]map[string]any, 0, len(commits))
	for _, commit := range commits {
		views = append(views, map[string]any{
			"hash":       commit.Hash,
			"message":    commit.Message,
			"author":     commit.Author,
			"created_at": commit.CreatedAt,
		})
	}
	return views, nil
}

func (s *Service) SnapshotChecklist(ctx context.Context, projectID, hash string) (json.RawMessage, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.snapshots.ChecklistAt(projectID, hash)
}

// ExportChecklist renders the project's current checklist as a downloadable
// document. The project record supplies the header fields and the stored
// items supply the table rows, so the export always reflects committed state.
func (s *Service) ExportChecklist(ctx context.Context, projectID string, format export.Format) (export.Result, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return export.Result{}, err
	}
	checklist, err := s.store.GetChecklist(ctx, projectID)
	if err != nil {
		return export.Result{}, err
	}
	items, err := s.store.ListChecklistItems(ctx, projectID)
	if err != nil {
		return export.Result{}, err
	}

	doc := export.ChecklistDocument{
		ProjectID:             project.ID,
		ProjectName:           project.Name,
		Description:           project.Description,
		DeploymentEnvironment: project.DeploymentEnvironment,
		GeneratorVersion:      checklist.GeneratorVersion,
		ChecklistHash:         checklist.ChecklistHash,
		GeneratedAt:           checklist.GeneratedAt,
		Counts:                checklist.Counts,
		Items:                 make([]export.ChecklistItem, 0, len(items)),
	}
	for _, it := range items {
		doc.Items = append(doc.Items, export.ChecklistItem{
			Title:    it.Title,
			Domain:   it.Domain,
			PackID:   it.PackID,
			Severity: it.Severity,
			Status:   it.Status,
			Owner:    it.Owner,
			Notes:    it.Notes,
		})
	}

	result, err := s.exporter.Export(ctx, doc, format)
	if err != nil {
		return export.Result{}, err
	}
	return *result, nil
}

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) loadPacks(refs []store.PackRef) ([]packs.Pack, error) {
	// All-or-nothing: one unresolvable pack fails the whole operation.
	loaded := make([]packs.Pack, 0, len(refs))
	for _, ref := range refs {
		pack, err := s.packs.Load(ref.Domain, ref.PackID, ref.Version)
		if err != nil {
			if errors.Is(err, packs.ErrUnknownPack) {
				return nil, validationError(
					fmt.Sprintf("Unknown pack: %s/%s@%s", ref.Domain, ref.PackID, ref.Version), nil)
			}
			return nil, err
		}
		loaded = append(loaded, pack)
	}
	return loaded, nil
}

func (s *Service) audit(ctx context.Context, projectID, action, actor string, payload map[string]any) error {
	return s.store.InsertAuditEntry(ctx, store.AuditEntry{
		ProjectID: projectID,
		Action:    action,
		Actor:     actor,
		Payload:   payload,
	})
}

// recordSnapshot commits the checklist into the project's history
// repo. Failures are logged, not propagated: the database write has
// already succeeded and history is an additive convenience.
func (s *Service) recordSnapshot(project store.Project, checklist store.Checklist, items []store.ChecklistItem, actor, message string) {
	if s.snapshots == nil {
		return
	}
	itemViews := make([]map[string]any, 0, len(items))
	for _, item := range items {
		itemViews = append(itemViews, itemView(item))
	}
	payload := map[string]any{
		"project_id":     project.ID,
		"checklist_hash": checklist.ChecklistHash,
		"generated_at":   checklist.GeneratedAt,
		"counts":         checklist.Counts,
		"items":          itemViews,
	}
	if _, err := s.snapshots.RecordChecklist(project.ID, payload, actor, message); err != nil {
		log.Printf("app: snapshot checklist for %s: %v", project.ID, err)
	}
}

func (s *Service) indexProject(project store.Project) {
	if s.search == nil {
		return
	}
	s.search.IndexProject(search.ProjectRecord{
		ID:                    project.ID,
		Name:                  project.Name,
		Description:           project.Description,
		UseCaseID:             project.UseCaseID,
		IndustryID:            project.IndustryID,
		DeploymentEnvironment: project.DeploymentEnvironment,
	})
}

func (s *Service) indexItems(projectID string, items []store.ChecklistItem) {
	if s.search == nil || len(items) == 0 {
		return
	}
	records := make([]search.ItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, search.ItemRecord{
			DocID:       itemDocID(projectID, item.ID),
			ID:          item.ID,
			ProjectID:   projectID,
			Title:       item.Title,
			Description: item.Description,
			Domain:      item.Domain,
			PackID:      item.PackID,
			Severity:    item.Severity,
			Status:      item.Status,
			Owner:       item.Owner,
		})
	}
	s.search.IndexItems(records)
}

func itemDocID(projectID, itemID string) string {
	return projectID + ":" + itemID
}

func droppedItemDocIDs(projectID string, prior, merged []store.ChecklistItem) []string {
	kept := make(map[string]struct{}, len(merged))
	for _, item := range merged {
		kept[item.ID] = struct{}{}
	}
	var dropped []string
	for _, item := range prior {
		if _, ok := kept[item.ID]; !ok {
			dropped = append(dropped, itemDocID(projectID, item.ID))
		}
	}
	return dropped
}

func projectPatchSnapshot(project store.Project) map[string]any {
	return map[string]any{
		"name":                   project.Name,
		"description":            project.Description,
		"deployment_environment": project.DeploymentEnvironment,
		"selected_llms":          append([]string{}, project.SelectedLLMs...),
		"selected_packs":         append([]store.PackRef{}, project.SelectedPacks...),
	}
}

func itemPatchSnapshot(item store.ChecklistItem) map[string]any {
	return map[string]any{
		"status": item.Status,
		"owner":  item.Owner,
		"notes":  item.Notes,
	}
}

func (s *Service) projectView(project store.Project, checklist store.Checklist) map[string]any {
	return map[string]any{
		"id":          project.ID,
		"name":        project.Name,
		"description": project.Description,
		"inputs": map[string]any{
			"industry_id":            project.IndustryID,
			"segment_id":             project.SegmentID,
			"use_case_id":            project.UseCaseID,
			"deployment_environment": project.DeploymentEnvironment,
			"selected_llms":          project.SelectedLLMs,
			"selected_packs":         project.SelectedPacks,
		},
		"context": project.Context,
		"generated": map[string]any{
			"generator_version": checklist.GeneratorVersion,
			"taxonomy_hash":     checklist.TaxonomyHash,
			"packs_hash":        checklist.PacksHash,
			"checklist_hash":    checklist.ChecklistHash,
			"generated_at":      checklist.GeneratedAt,
		},
		"counts":     checklist.Counts,
		"created_by": project.CreatedBy,
		"created_at": project.CreatedAt,
		"updated_at": project.UpdatedAt,
	}
}

func checklistView(checklist store.Checklist, items []store.ChecklistItem) map[string]any {
	itemViews := make([]map[string]any, 0, len(items))
	for _, item := range items {
		itemViews = append(itemViews, itemView(item))
	}
	return map[string]any{
		"project_id":        checklist.ProjectID,
		"generator_version": checklist.GeneratorVersion,
		"taxonomy_hash":     checklist.TaxonomyHash,
		"packs_hash":        checklist.PacksHash,
		"checklist_hash":    checklist.ChecklistHash,
		"counts":            checklist.Counts,
		"generated_at":      checklist.GeneratedAt,
		"items":             itemViews,
	}
}

func itemView(item store.ChecklistItem) map[string]any {
	evidence := make([]map[string]any, 0, len(item.Evidence))
	for _, file := range item.Evidence {
		evidence = append(evidence, evidenceView(file))
	}
	return map[string]any{
		"id":           item.ID,
		"merge_key":    item.MergeKey,
		"domain":       item.Domain,
		"pack_id":      item.PackID,
		"pack_version": item.PackVersion,
		"title":        item.Title,
		"description":  item.Description,
		"severity":     item.Severity,
		"refs":         item.Refs,
		"status":       item.Status,
		"owner":        item.Owner,
		"notes":        item.Notes,
		"evidence":     evidence,
		"sort_order":   item.SortOrder,
	}
}

func evidenceView(file store.EvidenceFile) map[string]any {
	return map[string]any{
		"id":           file.ID,
		"file_name":    file.FileName,
		"content_type": file.ContentType,
		"size_bytes":   file.SizeBytes,
		"sha256":       file.SHA256,
		"storage_key":  file.StorageKey,
		"uploaded_by":  file.UploadedBy,
		"uploaded_at":  file.UploadedAt,
	}
}
