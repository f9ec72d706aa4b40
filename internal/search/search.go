package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject ResultType = "project"
	ResultItem    ResultType = "item"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	ProjectID string     `json:"projectId"`
	Severity  string     `json:"severity,omitempty"`
	Status    string     `json:"status,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text            string
	FilterType      ResultType // empty = all types
	FilterProjectID string
	FilterStatus    string
	Limit           int
	Offset          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexProject(p ProjectRecord) error
	IndexItem(it ItemRecord) error
	DeleteProject(id string) error
	DeleteItems(docIDs []string) error
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Description           string `json:"description"`
	UseCaseID             string `json:"useCaseId"`
	IndustryID            string `json:"industryId"`
	DeploymentEnvironment string `json:"deploymentEnvironment"`
}

// ItemRecord is the data we index for a checklist item.
// DocID is the index primary key: item IDs are deterministic per merge key,
// so the same control appearing in two projects needs a project-scoped key.
type ItemRecord struct {
	DocID       string `json:"docId"`
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Domain      string `json:"domain"`
	PackID      string `json:"packId"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`
	Owner       string `json:"owner"`
}
