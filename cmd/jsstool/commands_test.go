package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listXML = `<computers><size>1</size><computer><id>1</id><name>mac-1</name></computer></computers>`

const computerXML = `<computer>
  <general><id>1</id><name>mac-1</name><remote_management><managed>true</managed></remote_management></general>
  <location><real_name>Sam Lee</real_name><email_address>sam@example.com</email_address></location>
  <hardware><os_version>10.11.6</os_version><os_build>15G31</os_build></hardware>
  <software><applications>
    <application><name>Slack.app</name><path>/Applications/Slack.app</path><version>3.2.0</version></application>
  </applications></software>
  <extension_attributes>
    <extension_attribute><id>1</id><name>SIP status</name><type>String</type><value>disabled</value></extension_attribute>
  </extension_attributes>
  <groups_accounts><computer_group_memberships><group>Finance</group></computer_group_memberships></groups_accounts>
</computer>`

type fakeJSS struct {
	mu       sync.Mutex
	computer string
	puts     int
}

func (f *fakeJSS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/JSSResource/computers" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, listXML)
	case r.URL.Path == "/JSSResource/computers/id/1" && r.Method == http.MethodGet:
		_, _ = io.WriteString(w, f.computer)
	case r.URL.Path == "/JSSResource/computers/id/1" && r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.computer = string(body)
		f.puts++
		w.WriteHeader(http.StatusCreated)
	default:
		http.NotFound(w, r)
	}
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--url", url, "--user", "api", "--password", "secret"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestParseAssignments(t *testing.T) {
	got, err := parseAssignments([]string{"name=mac-2", "note=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "mac-2", "note": "a=b", "empty": ""}, got)

	_, err = parseAssignments([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestGetAndSet(t *testing.T) {
	jss := &fakeJSS{computer: computerXML}
	srv := httptest.NewServer(jss)
	defer srv.Close()

	out, err := run(t, srv.URL, "get", "computers", "1")
	require.NoError(t, err)
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "mac-1", rec["machine_name"])

	out, err = run(t, srv.URL, "set", "computers", "1", "machine_name=mac-2", "managed=false")
	require.NoError(t, err)
	assert.Contains(t, out, `"machine_name": "mac-2"`)
	assert.Equal(t, 1, jss.puts)
	assert.Contains(t, jss.computer, "<managed>false</managed>")

	_, err = run(t, srv.URL, "set", "computers", "1", "bogus")
	assert.Error(t, err)

	_, err = run(t, srv.URL, "get", "computers", "2")
	assert.Error(t, err)
}

func TestComputerViews(t *testing.T) {
	srv := httptest.NewServer(&fakeJSS{computer: computerXML})
	defer srv.Close()

	out, err := run(t, srv.URL, "apps", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Slack":"3.2.0"}`, out)

	out, err = run(t, srv.URL, "groups", "1")
	require.NoError(t, err)
	assert.JSONEq(t, `["Finance"]`, out)

	out, err = run(t, srv.URL, "attributes", "computers", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `"SIP status"`)
}

func TestComplianceAndHistory(t *testing.T) {
	srv := httptest.NewServer(&fakeJSS{computer: computerXML})
	defer srv.Close()
	db := filepath.Join(t.TempDir(), "findings.db")

	out, err := run(t, srv.URL, "--db", db, "compliance", "--store")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "mac-1\tSam Lee\tsam@example.com\tos_upgrade\t10.11.6-15G31", lines[0])
	assert.Equal(t, "mac-1\tSam Lee\tsam@example.com\tSIP status\t10.11.6-15G31", lines[1])

	out, err = run(t, srv.URL, "--db", db, "history", "--limit", "10")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)
	assert.Contains(t, out, "os_upgrade")
}

func TestToken(t *testing.T) {
	t.Setenv("JSS_API_SECRET", "")
	_, err := run(t, "http://unused.example.com", "token")
	assert.Error(t, err)

	t.Setenv("JSS_API_SECRET", "s3cret")
	out, err := run(t, "http://unused.example.com", "token", "--subject", "ops", "--ttl", "1h")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "."), 3)
}
