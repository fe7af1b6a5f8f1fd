package restapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/require"

	"github.com/jihwankim/caseforge/pkg/casemodel"
	"github.com/jihwankim/caseforge/pkg/resource"
	"github.com/jihwankim/caseforge/pkg/restapi"
	"github.com/jihwankim/caseforge/pkg/result"
	"github.com/jihwankim/caseforge/pkg/runner"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := casemodel.NewRegistry()
	r := runner.New(result.New(), reg)
	svc := restapi.NewService(r, resource.NewRegistry())

	container := restful.NewContainer()
	container.Add(svc.WebService())
	return httptest.NewServer(container)
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(method, url, bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestPutStatusUnknownReturns400(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/case-runner", map[string]string{"status": "bogus"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPutStatusInitReturns200(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/case-runner", map[string]string{"status": "init"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPutResourceMissingFileReturns500(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	resp := doJSON(t, http.MethodPut, srv.URL+"/case-runner/resource", map[string]string{"file": "/nonexistent.json", "user": "alice"})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPutTestlistThenStatusStartReturns202(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "root.testlist")
	data, err := json.Marshal(map[string]any{
		"name": "root", "description": "", "setting_path": "",
		"cases": []string{}, "sublist": []string{},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	resp := doJSON(t, http.MethodPut, srv.URL+"/case-runner/testlist", map[string]string{"file": path})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(srv.URL + "/case-runner/testlist")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&got))
	require.Equal(t, "root", got["name"])

	resourcePath := filepath.Join(dir, "resource.json")
	resourceData, err := json.Marshal(map[string]any{"info": map[string]any{}, "devices": map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(resourcePath, resourceData, 0o644))
	resp = doJSON(t, http.MethodPut, srv.URL+"/case-runner/resource", map[string]string{"file": resourcePath, "user": "alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	startResp := doJSON(t, http.MethodPut, srv.URL+"/case-runner", map[string]string{"status": "start"})
	require.Equal(t, http.StatusAccepted, startResp.StatusCode)
}
