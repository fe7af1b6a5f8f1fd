// Package restapi is the engine's REST facade over the case runner, built
// with github.com/emicklei/go-restful/v3 (grounded on the dependency graph
// of giantswarm-muster, the pack's other Kubernetes-facing service, which
// pulls the same library for its own HTTP surface). Implements exactly the
// four routes and status codes spec §6 documents.
package restapi

import (
	"context"
	"net/http"
	"sync"

	restful "github.com/emicklei/go-restful/v3"

	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/runner"
	"github.com/jihwankim/caseforge/pkg/testlist"
)

// Service wires the REST facade to a live Runner plus the factory registry
// resource files are loaded against.
type Service struct {
	r   *runner.Runner
	reg *resource.Registry

	mu          sync.Mutex
	settingPath string
	list        *testlist.List
}

// NewService returns a Service bound to r. reg is the comm-factory registry
// used when loading a resource file.
func NewService(r *runner.Runner, reg *resource.Registry) *Service {
	return &Service{r: r, reg: reg}
}

// WebService builds the go-restful WebService exposing the four routes.
func (s *Service) WebService() *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/case-runner").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.PUT("").To(s.putStatus))
	ws.Route(ws.PUT("/testlist").To(s.putTestlist))
	ws.Route(ws.GET("/testlist").To(s.getTestlist))
	ws.Route(ws.PUT("/resource").To(s.putResource))

	return ws
}

type statusRequest struct {
	Status      string `json:"status"`
	SettingPath string `json:"setting_path"`
}

// putStatus handles PUT /case-runner {status: init|start, setting_path?}.
func (s *Service) putStatus(req *restful.Request, resp *restful.Response) {
	var body statusRequest
	if err := req.ReadEntity(&body); err != nil {
		resp.WriteErrorString(http.StatusBadRequest, "invalid request body")
		return
	}

	switch body.Status {
	case "init":
		s.mu.Lock()
		s.settingPath = body.SettingPath
		s.mu.Unlock()
		resp.WriteHeader(http.StatusOK)
	case "start":
		if err := s.r.Start(context.Background()); err != nil {
			resp.WriteErrorString(http.StatusInternalServerError, err.Error())
			return
		}
		resp.WriteHeader(http.StatusAccepted)
	default:
		resp.WriteErrorString(http.StatusBadRequest, "unknown status")
	}
}

type testlistRequest struct {
	File string `json:"file"`
}

// putTestlist handles PUT /case-runner/testlist {file}.
func (s *Service) putTestlist(req *restful.Request, resp *restful.Response) {
	var body testlistRequest
	if err := req.ReadEntity(&body); err != nil {
		resp.WriteErrorString(http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := testlist.Load(body.File, testlist.LoadOptions{})
	if err != nil {
		resp.WriteErrorString(http.StatusInternalServerError, err.Error())
		return
	}
	s.mu.Lock()
	s.list = l
	s.mu.Unlock()
	s.r.LoadTestList(l)
	resp.WriteHeader(http.StatusOK)
}

// getTestlist handles GET /case-runner/testlist, returning the currently
// loaded test list (null if none has been loaded yet).
func (s *Service) getTestlist(req *restful.Request, resp *restful.Response) {
	s.mu.Lock()
	l := s.list
	s.mu.Unlock()
	if err := resp.WriteAsJson(l); err != nil {
		resp.WriteErrorString(http.StatusInternalServerError, err.Error())
	}
}

type resourceRequest struct {
	File string `json:"file"`
	User string `json:"user"`
}

// putResource handles PUT /case-runner/resource {file, user}.
func (s *Service) putResource(req *restful.Request, resp *restful.Response) {
	var body resourceRequest
	if err := req.ReadEntity(&body); err != nil {
		resp.WriteErrorString(http.StatusBadRequest, "invalid request body")
		return
	}

	pool, err := resource.LoadPool(body.File, s.reg, body.User)
	if err != nil {
		resp.WriteErrorString(http.StatusInternalServerError, err.Error())
		return
	}
	s.r.LoadPool(pool)
	resp.WriteHeader(http.StatusOK)
}
