package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
)

// MockRelease mirrors the fields of the GitHub release list payload the
// importer consumes.
type MockRelease struct {
	URL         string    `json:"url"`
	HTMLURL     string    `json:"html_url"`
	Name        string    `json:"name"`
	TagName     string    `json:"tag_name"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Prerelease  bool      `json:"prerelease"`
}

// MockTag mirrors the tag list payload.
type MockTag struct {
	Name       string `json:"name"`
	TarballURL string `json:"tarball_url"`
}

// MockGithubServer serves the two GitHub list endpoints the importer
// uses, from data test cases feed in. Point the github client's base URL
// at BaseURL().
type MockGithubServer struct {
	Server *httptest.Server

	mu       sync.Mutex
	pageSize int
	releases map[string][]MockRelease
	tags     map[string][]MockTag
}

func SetUpMockGithubServer() *MockGithubServer {
	m := MockGithubServer{
		releases: map[string][]MockRelease{},
		tags:     map[string][]MockTag{},
	}

	router := mux.NewRouter()
	router.HandleFunc("/repos/{owner}/{repo}/releases", func(res http.ResponseWriter, req *http.Request) {
		vars := mux.Vars(req)
		m.mu.Lock()
		defer m.mu.Unlock()
		releases := m.releases[vars["owner"]+"/"+vars["repo"]]
		from, to := m.paginate(req, res, len(releases))
		res.Header().Set("Content-Type", "application/json")
		json.NewEncoder(res).Encode(releases[from:to])
	}).Methods("GET")

	router.HandleFunc("/repos/{owner}/{repo}/tags", func(res http.ResponseWriter, req *http.Request) {
		vars := mux.Vars(req)
		m.mu.Lock()
		defer m.mu.Unlock()
		tags := m.tags[vars["owner"]+"/"+vars["repo"]]
		from, to := m.paginate(req, res, len(tags))
		res.Header().Set("Content-Type", "application/json")
		json.NewEncoder(res).Encode(tags[from:to])
	}).Methods("GET")

	m.Server = httptest.NewServer(router)
	return &m
}

// SetPageSize makes the list endpoints answer at most n items per page
// and advertise the next one in a Link header, the way the live API
// paginates. Zero (the default) returns everything on one page.
func (m *MockGithubServer) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// paginate resolves the request's page window and, when more items
// remain, sets the Link header before the body is written.
func (m *MockGithubServer) paginate(req *http.Request, res http.ResponseWriter, total int) (from, to int) {
	if m.pageSize <= 0 {
		return 0, total
	}
	page := 1
	if p, err := strconv.Atoi(req.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	from = (page - 1) * m.pageSize
	if from > total {
		from = total
	}
	to = from + m.pageSize
	if to > total {
		to = total
	}
	if to < total {
		res.Header().Set("Link", fmt.Sprintf(`<http://%s%s?page=%d>; rel="next"`,
			req.Host, req.URL.Path, page+1))
	}
	return from, to
}

func (m *MockGithubServer) AddRelease(owner, repo string, release MockRelease) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := owner + "/" + repo
	m.releases[key] = append(m.releases[key], release)
}

func (m *MockGithubServer) AddTag(owner, repo string, tag MockTag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := owner + "/" + repo
	m.tags[key] = append(m.tags[key], tag)
}

func (m *MockGithubServer) BaseURL() string {
	return fmt.Sprintf("%s/", m.Server.URL)
}

func (m *MockGithubServer) Close() {
	m.Server.Close()
}
