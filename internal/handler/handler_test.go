package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"qrattend/internal/attendance"
	"qrattend/internal/auth"
	"qrattend/internal/meeting"
	"qrattend/internal/metrics"
	"qrattend/internal/participant"
	"qrattend/internal/qr"
	"qrattend/internal/roll"
	"qrattend/internal/store"
)

const adminPassword = "admin@123"

var adminKey = []string{auth.AdminKeyHeader, adminPassword}

// clock advances a minute per reading so check-ins get distinct timestamps.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Minute)
	return c.t
}

type fixture struct {
	router  *gin.Engine
	docs    store.Documents
	metrics *metrics.Metrics
	logs    *observer.ObservedLogs

	mu      sync.Mutex
	encoded []string
}

func newFixture(t *testing.T, docs store.Documents, mutate ...func(*Settings)) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if docs == nil {
		docs = store.NewMemory()
	}
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	clk := &clock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	reg := prometheus.NewRegistry()
	f := &fixture{docs: docs, metrics: metrics.New(reg), logs: logs}

	meetings := meeting.NewRegistry(docs, log, meeting.WithClock(clk.now))
	participants := participant.NewDirectory(docs, log)
	ledger := attendance.NewService(attendance.NewRepository(docs, log), meetings, participants, log, attendance.WithClock(clk.now))
	encoder := func(content string, _ qrcode.RecoveryLevel, _ int) ([]byte, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.encoded = append(f.encoded, content)
		return []byte("png"), nil
	}

	settings := Settings{
		Port:          3000,
		Location:      time.UTC,
		Secret:        auth.NewSecret(adminPassword, ""),
		SigningKey:    "test-signing-key",
		Issuer:        "qr-attendance",
		AdminTokenTTL: time.Hour,
	}
	for _, m := range mutate {
		m(&settings)
	}

	h := New(Deps{
		Docs:         docs,
		Meetings:     meetings,
		Participants: participants,
		Ledger:       ledger,
		Roll:         roll.NewQuery(ledger),
		QR:           qr.NewGenerator(400, encoder),
		Metrics:      f.metrics,
		Gatherer:     reg,
		Log:          log,
	}, settings, WithLANResolver(func() string { return "10.0.0.7" }), WithClock(clk.now))
	f.router = NewRouter(h)
	return f
}

func (f *fixture) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) startMeeting(t *testing.T) string {
	t.Helper()
	w := f.do(http.MethodPost, "/api/meeting/start", `{"title":"Town Hall","venue":"Hall A","time":"10:00"}`, adminKey...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w)["meetingId"].(string)
}

func (f *fixture) register(t *testing.T, name, mobile string) string {
	t.Helper()
	w := f.do(http.MethodPost, "/api/register", `{"fullName":"`+name+`","mobile":"`+mobile+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func decodeList(t *testing.T, w *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type brokenDocs struct{ store.Documents }

var errOffline = errors.New("store offline")

func (brokenDocs) Get(context.Context, string) ([]byte, error) { return nil, errOffline }
func (brokenDocs) List(context.Context, string) (map[string][]byte, error) {
	return nil, errOffline
}
func (brokenDocs) Set(context.Context, string, []byte) error { return errOffline }
func (brokenDocs) Ping(context.Context) error                { return errOffline }

func TestMeetingLifecycle(t *testing.T) {
	f := newFixture(t, nil)

	assert.JSONEq(t, `{"active":false}`, f.do(http.MethodGet, "/api/meeting/active", "").Body.String())

	w := f.do(http.MethodPost, "/api/meeting/start", `{"title":"Town Hall","venue":"Hall A","time":"10:00"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/meeting/start", `{"title":"Town Hall","venue":"Hall A","time":"10:00"}`, adminKey...)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	id := body["meetingId"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "Meeting started", body["message"])
	m := body["meeting"].(map[string]any)
	assert.Equal(t, id, m["id"])
	assert.Equal(t, "active", m["status"])
	assert.Equal(t, "2024-01-01", m["date"])

	w = f.do(http.MethodPost, "/api/meeting/start", `{"title":"Other","venue":"B","time":"11:00"}`, adminKey...)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"A meeting is already active. End it before starting a new one."}`, w.Body.String())

	body = decode(t, f.do(http.MethodGet, "/api/meeting/active", ""))
	assert.Equal(t, true, body["active"])
	assert.Equal(t, id, body["meeting"].(map[string]any)["id"])

	w = f.do(http.MethodPost, "/api/meeting/end", "", adminKey...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Meeting ended","meetingId":"`+id+`"}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/meeting/end", "", adminKey...)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No active meeting to end."}`, w.Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Meetings.WithLabelValues("started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Meetings.WithLabelValues("ended")))
}

func TestStartMeetingRejectsBadInput(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"blank title", `{"title":"  ","venue":"Hall","time":"10:00"}`, `{"message":"Title, venue, and time are required."}`},
		{"no body", "", `{"message":"Title, venue, and time are required."}`},
		{"malformed", `{"title":`, `{"message":"Invalid request body.","errors":[{"body":"must be valid JSON"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/meeting/start", tt.body, adminKey...)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestRegisterAndCheckRegistration(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/register", `{"fullName":"Asha Rao","mobile":" 9990001111 ","email":"asha@example.org","department":"Finance"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	id := body["id"].(string)
	assert.Equal(t, "Registration successful.", body["message"])

	w = f.do(http.MethodPost, "/api/register", `{"fullName":"Someone Else","mobile":"9990001111"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"Mobile number already registered."}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/register", `{"mobile":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Full name and mobile are required."}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/check-registration", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Mobile number is required."}`, w.Body.String())

	body = decode(t, f.do(http.MethodPost, "/api/check-registration", `{"mobile":"9990001111"}`))
	assert.Equal(t, true, body["registered"])
	p := body["participant"].(map[string]any)
	assert.Equal(t, id, p["id"])
	assert.Equal(t, "Asha Rao", p["fullName"])
	assert.Equal(t, "Finance", p["department"])
	assert.Equal(t, "", p["employeeId"])

	assert.JSONEq(t, `{"registered":false}`, f.do(http.MethodPost, "/api/check-registration", `{"mobile":"000"}`).Body.String())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Registrations.WithLabelValues("invalid")))
}

func TestMarkAttendance(t *testing.T) {
	f := newFixture(t, nil)
	pid := f.register(t, "Asha Rao", "9990001111")

	w := f.do(http.MethodPost, "/api/attendance", `{"mobile":"9990001111"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No active meeting. Please start a meeting first."}`, w.Body.String())

	mid := f.startMeeting(t)

	tests := []struct {
		name string
		body string
		code int
		want string
	}{
		{"no identity", `{}`, http.StatusBadRequest, `{"message":"Mobile number or participant ID is required."}`},
		{"unknown mobile", `{"mobile":"123"}`, http.StatusNotFound, `{"message":"You must register first."}`},
		{"unknown participant", `{"participantId":"nope"}`, http.StatusNotFound, `{"message":"Participant not found."}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/attendance", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}

	w = f.do(http.MethodPost, "/api/attendance", `{"mobile":"9990001111"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "marked", body["status"])
	assert.Equal(t, "Attendance marked successfully.", body["message"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Equal(t, "Asha Rao", body["participant"].(map[string]any)["name"])
	m := body["meeting"].(map[string]any)
	assert.Equal(t, mid, m["id"])
	assert.Equal(t, "Town Hall", m["title"])
	assert.Equal(t, "2024-01-01", m["date"])

	w = f.do(http.MethodPost, "/api/attendance?meetingId="+url.QueryEscape(mid), `{"participantId":"`+pid+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "already_marked", body["status"])
	assert.Equal(t, "Attendance already marked today.", body["message"])

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckIns.WithLabelValues("marked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckIns.WithLabelValues("already_marked")))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.CheckIns.WithLabelValues("not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.CheckIns.WithLabelValues("validation")))
}

func TestConcurrentCheckInsMarkOnce(t *testing.T) {
	f := newFixture(t, nil)
	f.register(t, "Asha Rao", "9990001111")
	f.startMeeting(t)

	const n = 16
	statuses := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := f.do(http.MethodPost, "/api/attendance", `{"mobile":"9990001111"}`)
			var body map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			statuses <- body["status"].(string)
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[string]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, map[string]int{"marked": 1, "already_marked": n - 1}, counts)
}

func TestRollAndExport(t *testing.T) {
	f := newFixture(t, nil)
	mid := f.startMeeting(t)
	f.register(t, "Asha", "111")
	f.register(t, "Ben", "222")
	for _, mobile := range []string{"111", "222"} {
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/attendance", `{"mobile":"`+mobile+`"}`).Code)
	}

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/attendance/live", "").Code)

	live := decodeList(t, f.do(http.MethodGet, "/api/attendance/live", "", adminKey...))
	require.Len(t, live, 2)
	assert.Equal(t, "Ben", live[0]["participantName"])
	assert.Equal(t, "Asha", live[1]["participantName"])
	assert.Equal(t, mid, live[0]["meetingId"])

	assert.Len(t, decodeList(t, f.do(http.MethodGet, "/api/attendance/date/2024-01-01", "", adminKey...)), 2)
	assert.Len(t, decodeList(t, f.do(http.MethodGet, "/api/attendance/date/2024-01-01?meetingId="+mid, "", adminKey...)), 2)
	assert.Equal(t, "[]", f.do(http.MethodGet, "/api/attendance/date/2024-01-01?meetingId=other", "", adminKey...).Body.String())
	assert.Equal(t, "[]", f.do(http.MethodGet, "/api/attendance/date/2024-01-02", "", adminKey...).Body.String())

	w := f.do(http.MethodGet, "/api/export/attendance/2024-01-01", "", adminKey...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-2024-01-01.xlsx"`, w.Header().Get("Content-Disposition"))
	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Ben", rows[1][0])
	assert.Equal(t, "Asha", rows[2][0])

	w = f.do(http.MethodGet, "/api/export/attendance/2024-01-01?format=pdf", "", adminKey...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="attendance-2024-01-01.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = f.do(http.MethodGet, "/api/export/attendance/2024-01-01?format=csv", "", adminKey...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Unsupported export format")

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues("tabular-spreadsheet")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Exports.WithLabelValues("paginated-document")))

	require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/meeting/end", "", adminKey...).Code)
	assert.Equal(t, "[]", f.do(http.MethodGet, "/api/attendance/live", "", adminKey...).Body.String())
	assert.Len(t, decodeList(t, f.do(http.MethodGet, "/api/attendance/date/2024-01-01", "", adminKey...)), 2)
}

func TestAdminLogin(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/admin/login", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"Invalid request body.","errors":[{"Password":"is required"}]}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/admin/login", `{"password":"guess"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"message":"Invalid password."}`, w.Body.String())

	w = f.do(http.MethodPost, "/api/admin/login", `{"password":"`+adminPassword+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)
	require.NotEmpty(t, token)

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/attendance/live", "", "Authorization", "Bearer "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/attendance/live", "", "Authorization", "Bearer "+token+"x").Code)
}

func TestQRCode(t *testing.T) {
	f := newFixture(t, nil, func(s *Settings) { s.SiteURL = "https://att.example/" })

	w := f.do(http.MethodGet, "/api/qr", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"No active meeting. Start a meeting to generate QR."}`, w.Body.String())

	mid := f.startMeeting(t)

	w = f.do(http.MethodGet, "/api/qr", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "inline", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "png", w.Body.String())

	w = f.do(http.MethodGet, "/api/qr?download=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="attendance-qr.png"`, w.Header().Get("Content-Disposition"))

	want := "https://att.example/attendance?meetingId=" + url.QueryEscape(mid)
	assert.Equal(t, []string{want, want}, f.encoded)
}

func TestQRCodeFallsBackToLANAddress(t *testing.T) {
	f := newFixture(t, nil)
	mid := f.startMeeting(t)

	require.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/qr", "").Code)
	assert.Equal(t, []string{"http://10.0.0.7:3000/attendance?meetingId=" + url.QueryEscape(mid)}, f.encoded)

	v := newFixture(t, nil, func(s *Settings) { s.VercelURL = "qr.vercel.app" })
	mid = v.startMeeting(t)
	require.Equal(t, http.StatusOK, v.do(http.MethodGet, "/api/qr", "").Code)
	assert.Equal(t, []string{"https://qr.vercel.app/attendance?meetingId=" + url.QueryEscape(mid)}, v.encoded)
}

func TestNetworkInfo(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/api/network-info", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"localIP": "10.0.0.7",
		"port": 3000,
		"networkUrl": "http://10.0.0.7:3000",
		"qrUrl": "http://10.0.0.7:3000/attendance"
	}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	assert.JSONEq(t, `{"status":"ok"}`, f.do(http.MethodGet, "/api/health", "").Body.String())

	w := f.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","store":true}`, w.Body.String())

	broken := newFixture(t, brokenDocs{store.NewMemory()})
	w = broken.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","store":false}`, w.Body.String())
}

func TestStoreProbe(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/test-store", "").Code)

	w := f.do(http.MethodGet, "/api/test-store", "", adminKey...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","message":"Store connection working"}`, w.Body.String())
	doc, err := f.docs.Get(context.Background(), probePath)
	require.NoError(t, err)
	assert.Nil(t, doc)

	broken := newFixture(t, brokenDocs{store.NewMemory()})
	w = broken.do(http.MethodGet, "/api/test-store", "", adminKey...)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Store connection failed."}`, w.Body.String())
}

func TestStoreFailuresHideCause(t *testing.T) {
	f := newFixture(t, brokenDocs{store.NewMemory()})

	w := f.do(http.MethodGet, "/api/attendance/live", "", adminKey...)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Could not fetch attendance."}`, w.Body.String())

	w = f.do(http.MethodGet, "/api/meeting/active", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), errOffline.Error())

	errs := f.logs.FilterMessage("Could not fetch attendance.").All()
	require.Len(t, errs, 1)
	assert.Equal(t, zapcore.ErrorLevel, errs[0].Level)
}

func TestRateLimitOnPublicRoutes(t *testing.T) {
	f := newFixture(t, nil, func(s *Settings) { s.RateLimitPerMin = 2 })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, "/api/check-registration", `{"mobile":"1"}`).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, f.do(http.MethodPost, "/api/check-registration", `{"mobile":"1"}`).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/meeting/active", "").Code, "read routes are not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodGet, "/api/health", "")

	w := f.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "qr_attendance_http_request_duration_seconds")
}

func TestPages(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"index.html":      "home page",
		"attendance.html": "check-in page",
		"admin.html":      "admin page",
		"app.js":          "console.log(1)",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	f := newFixture(t, nil, func(s *Settings) { s.PublicDir = dir })

	tests := []struct {
		path string
		code int
		want string
	}{
		{"/attendance", http.StatusOK, "check-in page"},
		{"/admin", http.StatusOK, "admin page"},
		{"/app.js", http.StatusOK, "console.log(1)"},
		{"/some/client/route", http.StatusOK, "home page"},
		{"/api/missing", http.StatusNotFound, `"message":"Not found."`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := f.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestNoPagesDirectory(t *testing.T) {
	f := newFixture(t, nil, func(s *Settings) { s.PublicDir = filepath.Join(t.TempDir(), "absent") })
	w := f.do(http.MethodGet, "/attendance", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"Not found."}`, w.Body.String())
}
