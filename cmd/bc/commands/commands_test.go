package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	testTenant  = "3f0b6a1e-8d4c-4f7b-9a2e-1c5d7e9f0a11"
	testCompany = "7c3b5e0a-1b2c-4d3e-8f40-5a6b7c8d9e01"
	testID      = "5d115c9c-44e3-ea11-bb43-000d3a2feca1"
)

// recordedRequest is what the fake service saw.
type recordedRequest struct {
	Method  string
	Path    string
	Query   string
	IfMatch string
	Body    map[string]interface{}
}

type fakeService struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeService(t *testing.T, handler http.HandlerFunc) *fakeService {
	t.Helper()

	service := &fakeService{}
	service.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorded := recordedRequest{
			Method:  r.Method,
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			IfMatch: r.Header.Get("If-Match"),
		}

		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &recorded.Body)
		}

		service.mu.Lock()
		service.requests = append(service.requests, recorded)
		service.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(service.Close)

	return service
}

func (s *fakeService) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]recordedRequest(nil), s.requests...)
}

func companyPath(endpoint string) string {
	return "/" + testTenant + "/production/api/v2.0/companies(" + testCompany + ")/" + endpoint
}

// executeCommand runs args against a fresh command tree with the given
// settings layered into viper.
func executeCommand(t *testing.T, settings map[string]interface{}, args ...string) (string, error) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	root := &cobra.Command{Use: "bc", SilenceUsage: true, SilenceErrors: true}
	AddGlobalFlags(root)
	root.AddCommand(
		NewListCommand(),
		NewGetCommand(),
		NewFindCommand(),
		NewCreateCommand(),
		NewUpdateCommand(),
		NewDeleteCommand(),
		NewActionCommand(),
		NewCategorizeCommand(),
		NewVersionCommand("1.2.3", "abc123", "today"),
	)

	for key, value := range settings {
		viper.Set(key, value)
	}

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)

	err := root.Execute()

	return out.String(), err
}

func connectedSettings(service *fakeService) map[string]interface{} {
	return map[string]interface{}{
		"tenant_id":  testTenant,
		"company_id": testCompany,
		"token":      "test-token",
		"base_url":   service.URL,
		"retries":    uint(1),
	}
}

func customersHandler(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.URL.RawQuery, "skiptoken") {
		_, _ = w.Write([]byte(`{"value":[]}`))

		return
	}

	_, _ = w.Write([]byte(`{
		"value": [
			{"@odata.etag": "W/\"1\"", "id": "c1", "number": "10000", "displayName": "Adatum", "balance": 12.5},
			{"@odata.etag": "W/\"2\"", "id": "c2", "number": "20000", "displayName": "Trey Research", "balance": 0}
		],
		"@odata.nextLink": "https://example.invalid/customers?$skiptoken=c2"
	}`))
}

func TestCommandStructure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  *cobra.Command
		use  string
		args int
	}{
		{NewListCommand(), "list ENDPOINT", 1},
		{NewGetCommand(), "get ENDPOINT ID", 2},
		{NewFindCommand(), "find ENDPOINT", 1},
		{NewCreateCommand(), "create ENDPOINT", 1},
		{NewUpdateCommand(), "update ENDPOINT ID", 2},
		{NewDeleteCommand(), "delete ENDPOINT ID", 2},
		{NewActionCommand(), "action ENDPOINT ID ACTION", 3},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.Name(), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			assert.NotNil(t, tt.cmd.RunE)
			require.NotNil(t, tt.cmd.Args)
			require.Error(t, tt.cmd.Args(tt.cmd, make([]string, tt.args+1)))
			require.NoError(t, tt.cmd.Args(tt.cmd, make([]string, tt.args)))
		})
	}

	list := NewListCommand()
	for _, flag := range []string{"filter", "select", "expand", "orderby", "top", "skip", "max", "page-size", "columns"} {
		assert.NotNil(t, list.Flags().Lookup(flag), flag)
	}

	create := NewCreateCommand()
	assert.NotNil(t, create.Flags().Lookup("data"))
	assert.NotNil(t, create.Flags().Lookup("file"))

	config := NewConfigCommand()
	assert.Len(t, config.Commands(), 2)
}

func TestListCommand(t *testing.T) {
	service := newFakeService(t, customersHandler)

	out, err := executeCommand(t, connectedSettings(service),
		"list", "customers", "--filter", "balance gt 0", "--select", "number,displayName", "-o", "json")
	require.NoError(t, err)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "Adatum", records[0]["displayName"])

	requests := service.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, companyPath("customers"), requests[0].Path)
	assert.Contains(t, requests[0].Query, "%24filter=balance+gt+0")
	assert.Contains(t, requests[0].Query, "%24select=number%2CdisplayName")
	assert.Contains(t, requests[1].Query, "%24skiptoken=c2")
}

func TestListCommand_Table(t *testing.T) {
	service := newFakeService(t, customersHandler)

	out, err := executeCommand(t, connectedSettings(service), "list", "customers", "--max", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "Adatum")
	assert.Contains(t, out, "12.5")
	assert.NotContains(t, out, "Trey Research")
	assert.NotContains(t, out, "W/")
	assert.Len(t, service.recorded(), 1)
}

func TestGetCommand(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + testID + `","number":"10000","displayName":"Adatum"}`))
	})

	out, err := executeCommand(t, connectedSettings(service), "get", "customers", testID, "-o", "yaml")
	require.NoError(t, err)

	var record map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(out), &record))
	assert.Equal(t, "Adatum", record["displayName"])

	requests := service.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, companyPath("customers("+testID+")"), requests[0].Path)
}

func TestFindCommand_NoMatch(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	})

	out, err := executeCommand(t, connectedSettings(service), "find", "customers", "--filter", "number eq 'X'")
	require.NoError(t, err)
	assert.Contains(t, out, "No matching record found.")

	out, err = executeCommand(t, connectedSettings(service), "find", "customers", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(out))
}

func TestCreateCommand(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"` + testID + `","displayName":"Adatum"}`))
	})

	out, err := executeCommand(t, connectedSettings(service),
		"create", "customers", "--data", `{"displayName":"Adatum"}`)
	require.NoError(t, err)
	assert.Contains(t, out, testID)

	requests := service.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPost, requests[0].Method)
	assert.Equal(t, "Adatum", requests[0].Body["displayName"])
}

func TestUpdateCommand_FromYAMLFile(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"` + testID + `","displayName":"Renamed"}`))
	})

	file := filepath.Join(t.TempDir(), "payload.yml")
	require.NoError(t, os.WriteFile(file, []byte("displayName: Renamed\nblocked: \" \"\n"), 0o600))

	_, err := executeCommand(t, connectedSettings(service), "update", "customers", testID, "--file", file)
	require.NoError(t, err)

	requests := service.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, http.MethodPatch, requests[0].Method)
	assert.Equal(t, "*", requests[0].IfMatch)
	assert.Equal(t, "Renamed", requests[0].Body["displayName"])
	assert.Equal(t, " ", requests[0].Body["blocked"])
}

func TestDeleteAndActionCommands(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	out, err := executeCommand(t, connectedSettings(service), "delete", "customers", testID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted customers("+testID+")")

	out, err = executeCommand(t, connectedSettings(service), "action", "salesInvoices", testID, "post")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoked post")

	requests := service.recorded()
	require.Len(t, requests, 2)
	assert.Equal(t, http.MethodDelete, requests[0].Method)
	assert.Equal(t, http.MethodPost, requests[1].Method)
	assert.Equal(t, companyPath("salesInvoices("+testID+")/Microsoft.NAV.post"), requests[1].Path)
}

func TestCommand_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32

	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"Internal_ServiceUnavailable","message":"busy"}}`))

			return
		}

		_, _ = w.Write([]byte(`{"id":"` + testID + `","displayName":"Adatum"}`))
	})

	settings := connectedSettings(service)
	settings["retries"] = uint(2)

	_, err := executeCommand(t, settings, "get", "customers", testID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCommand_ZeroRetriesMakesOneAttempt(t *testing.T) {
	var hits atomic.Int32

	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":"Internal_ServiceUnavailable","message":"busy"}}`))

			return
		}

		_, _ = w.Write([]byte(`{"id":"` + testID + `","displayName":"Adatum"}`))
	})

	settings := connectedSettings(service)
	settings["retries"] = uint(0)

	_, err := executeCommand(t, settings, "get", "customers", testID)
	require.Error(t, err)
	assert.True(t, bc.IsCategory(err, bc.CategoryServerError))
	assert.Equal(t, int32(1), hits.Load())
}

func TestCommand_ReturnsStructuredErrors(t *testing.T) {
	service := newFakeService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"Internal_RecordNotFound","message":"gone"}}`))
	})

	_, err := executeCommand(t, connectedSettings(service), "get", "customers", testID)
	require.Error(t, err)
	assert.True(t, bc.IsNotFound(err))
	assert.Len(t, service.recorded(), 1)
}

func TestCommand_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]interface{}
		args     []string
		want     error
	}{
		{
			name:     "missing tenant",
			settings: map[string]interface{}{"company_id": testCompany, "token": "t"},
			args:     []string{"list", "customers"},
			want:     constants.ErrNoTenantConfigured,
		},
		{
			name:     "missing company",
			settings: map[string]interface{}{"tenant_id": testTenant, "token": "t"},
			args:     []string{"list", "customers"},
			want:     constants.ErrNoCompanyConfigured,
		},
		{
			name:     "missing credentials",
			settings: map[string]interface{}{"tenant_id": testTenant, "company_id": testCompany},
			args:     []string{"list", "customers"},
			want:     constants.ErrNoCredentials,
		},
		{
			name:     "empty payload",
			settings: map[string]interface{}{},
			args:     []string{"create", "customers"},
			want:     constants.ErrInvalidPayload,
		},
		{
			name:     "non-object payload",
			settings: map[string]interface{}{},
			args:     []string{"create", "customers", "--data", "[1, 2]"},
			want:     constants.ErrInvalidPayload,
		},
		{
			name:     "unknown output format",
			settings: map[string]interface{}{},
			args:     []string{"categorize", "-o", "xml"},
			want:     constants.ErrInvalidOutputFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.settings, tt.args...)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCategorizeCommand(t *testing.T) {
	out, err := executeCommand(t, nil, "categorize", "Internal_RecordNotFound", "Internal_Anything", "-o", "json")
	require.NoError(t, err)

	var rows []Classification
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, bc.CategoryNotFound, rows[0].Category)
	assert.Equal(t, bc.RetryNone, rows[0].RetryStrategy)
	assert.Equal(t, bc.CategoryServerError, rows[1].Category)
	assert.Equal(t, bc.RetryExponentialBackoff, rows[1].RetryStrategy)

	out, err = executeCommand(t, nil, "categorize")
	require.NoError(t, err)

	for _, category := range bc.Categories() {
		assert.Contains(t, out, string(category))
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, nil, "version", "-o", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, constants.Version, info["library"])
}

func TestSetConfigValue(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "nested", "config.yml")

	require.NoError(t, setConfigValue(file, "tenant_id", testTenant))
	require.NoError(t, setConfigValue(file, "company_id", testCompany))
	require.NoError(t, setConfigValue(file, "tenant_id", "contoso.onmicrosoft.com"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, yaml.Unmarshal(data, &values))
	assert.Equal(t, map[string]string{
		"tenant_id":  "contoso.onmicrosoft.com",
		"company_id": testCompany,
	}, values)

	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())
}

func TestFormatCell(t *testing.T) {
	t.Parallel()

	assert.Empty(t, formatCell(nil))
	assert.Equal(t, "Adatum", formatCell("Adatum"))
	assert.Equal(t, "true", formatCell(true))
	assert.Equal(t, "1500.25", formatCell(1500.25))
	assert.Equal(t, "3", formatCell(float64(3)))
	assert.Equal(t, `{"city":"Oslo"}`, formatCell(map[string]interface{}{"city": "Oslo"}))
}

func TestDefaultColumns(t *testing.T) {
	t.Parallel()

	columns := defaultColumns([]Record{
		{"@odata.etag": "x", "number": "1", "displayName": "A"},
		{"number": "2", "email": "b@example.com"},
	})

	assert.Equal(t, []string{"displayName", "email", "number"}, columns)
}

func TestMask(t *testing.T) {
	t.Parallel()

	assert.Empty(t, mask(""))
	assert.Equal(t, Masked, mask("secret"))
}
