package register

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang-jwt/jwt/v5"
	zone "github.com/lrstanley/bubblezone"
	"github.com/stretchr/testify/require"

	"orgreg/internal/catalog"
	"orgreg/internal/config"
	"orgreg/internal/draft"
	"orgreg/internal/infrastructure/sqlite"
	"orgreg/internal/mode"
	"orgreg/internal/platform"
	"orgreg/internal/session"
	"orgreg/internal/ui/toaster"
)

func init() {
	zone.NewGlobal()
}

// --- Test Helpers ---

type staticCreds struct {
	token  string
	userID string
}

func (c staticCreds) Token() string  { return c.token }
func (c staticCreds) UserID() string { return c.userID }

// newTestModel builds a register model backed by a test server. The
// client is already resolved against the server and catalogs serve the
// embedded defaults.
func newTestModel(t *testing.T, handler http.Handler) (Model, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := platform.NewClient(staticCreds{token: "tok-123", userID: "user-9"}, 5*time.Second)
	client.SetBaseURL(server.URL)

	cfg := config.Defaults()
	services := mode.Services{
		Client:   client,
		Catalogs: catalog.NewService(nil, time.Hour),
		Config:   &cfg,
	}
	return New(services), server
}

// validValues returns a complete, valid set of form values.
func validValues() map[string]any {
	return map[string]any{
		"name":     "Acme Inc",
		"email":    "a@acme.com",
		"industry": "Technology",
		"type":     "Entertainment",
		"country":  "Nigeria",
		"state":    "Lagos",
		"address":  "1 Main St",
	}
}

// collectMsgs executes a command tree and returns every produced message.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			msgs = append(msgs, collectMsgs(c)...)
		}
		return msgs
	}
	return []tea.Msg{msg}
}

// settle runs a submission attempt to completion: it feeds the values
// in, executes the resulting commands and feeds back every message the
// mode produced, returning all terminal messages.
func settle(m Model, values map[string]any) (Model, []tea.Msg) {
	m, cmd := m.Update(submitRequestedMsg{values: values})

	var out []tea.Msg
	pending := collectMsgs(cmd)
	for len(pending) > 0 {
		msg := pending[0]
		pending = pending[1:]

		switch msg.(type) {
		case submitResultMsg, statesLoadedMsg, catalogsLoadedMsg:
			var next tea.Cmd
			m, next = m.Update(msg)
			pending = append(pending, collectMsgs(next)...)
		default:
			out = append(out, msg)
		}
	}
	return m, out
}

func toastsOf(msgs []tea.Msg) []mode.ShowToastMsg {
	var toasts []mode.ShowToastMsg
	for _, msg := range msgs {
		if t, ok := msg.(mode.ShowToastMsg); ok {
			toasts = append(toasts, t)
		}
	}
	return toasts
}

func registrationsOf(msgs []tea.Msg) []RegisteredMsg {
	var regs []RegisteredMsg
	for _, msg := range msgs {
		if r, ok := msg.(RegisteredMsg); ok {
			regs = append(regs, r)
		}
	}
	return regs
}

func jsonHandler(status int, body any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func createdHandler() http.Handler {
	return jsonHandler(http.StatusCreated, map[string]any{
		"data": map[string]any{
			"guid": "org-guid-1",
			"name": "Acme Inc",
		},
	})
}

// writeSessionFile writes a credentials file with a signed token and
// returns a loaded provider.
func newSessionProvider(t *testing.T, exp time.Time) *session.Provider {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-9",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "credentials.json")
	payload, err := json.Marshal(map[string]string{
		"access_token": signed,
		"user_id":      "user-9",
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, payload, 0600))

	provider, err := session.Load(path)
	require.NoError(t, err)
	return provider
}

// --- Validation Tests ---

func TestSubmit_InvalidValuesBlockRequest(t *testing.T) {
	var requests atomic.Int32
	m, _ := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusCreated)
	}))

	values := validValues()
	values["email"] = ""
	values["name"] = "A"

	m, msgs := settle(m, values)

	require.Zero(t, requests.Load(), "no request should be sent for invalid values")
	require.Empty(t, msgs)
	require.False(t, m.form.IsLoading())
	require.Equal(t, "is required", m.form.FieldError("email"))
	require.Equal(t, "must be at least 2 characters", m.form.FieldError("name"))
}

func TestSubmit_UnknownCountryBlocked(t *testing.T) {
	var requests atomic.Int32
	m, _ := newTestModel(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
	}))

	values := validValues()
	values["country"] = "Atlantis"

	m, _ = settle(m, values)

	require.Zero(t, requests.Load())
	require.Equal(t, "is not a recognized country", m.form.FieldError("country"))
}

// --- Submission Tests ---

func TestSubmit_Success(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, msgs := settle(m, validValues())

	regs := registrationsOf(msgs)
	require.Len(t, regs, 1, "success should switch to the dashboard")
	require.Equal(t, "org-guid-1", regs[0].Organization.GUID)

	toasts := toastsOf(msgs)
	require.Len(t, toasts, 1)
	require.Equal(t, toaster.StyleSuccess, toasts[0].Style)
	require.Equal(t, "Organization created", toasts[0].Title)

	require.False(t, m.form.IsLoading(), "loading must clear after settle")
}

func TestSubmit_NavigatesExactlyOnce(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	var total int
	m, msgs := settle(m, validValues())
	total += len(registrationsOf(msgs))

	// A duplicate settle for the same attempt must not navigate again
	m, cmd := m.Update(submitResultMsg{})
	total += len(registrationsOf(collectMsgs(cmd)))

	require.Equal(t, 1, total, "dashboard switch must fire exactly once")
	require.True(t, m.registered)
}

func TestSubmit_ValidationErrorsMapToFields(t *testing.T) {
	m, _ := newTestModel(t, jsonHandler(http.StatusUnprocessableEntity, map[string]any{
		"errors": []map[string]string{
			{"field": "email", "message": "has already been taken"},
		},
	}))

	// Seed a stale error from a previous attempt
	m.form, _ = m.form.SetFieldErrors(map[string]string{"name": "old error"})

	m, msgs := settle(m, validValues())

	require.Equal(t, "has already been taken", m.form.FieldError("email"))
	require.Empty(t, m.form.FieldError("name"), "stale errors must be cleared")
	require.Empty(t, toastsOf(msgs), "field errors should not produce a toast")
	require.Empty(t, registrationsOf(msgs))
	require.False(t, m.form.IsLoading())
}

func TestSubmit_ValidationErrorUnknownFieldDropped(t *testing.T) {
	m, _ := newTestModel(t, jsonHandler(http.StatusUnprocessableEntity, map[string]any{
		"errors": []map[string]string{
			{"field": "tax_id", "message": "is invalid"},
		},
	}))

	m, msgs := settle(m, validValues())

	for _, key := range []string{"name", "email", "industry", "type", "country", "state", "address"} {
		require.Empty(t, m.form.FieldError(key))
	}
	require.Empty(t, toastsOf(msgs))
}

func TestSubmit_ValidationErrorMissingKey(t *testing.T) {
	// A 422 without the errors key settles with no field errors
	m, _ := newTestModel(t, jsonHandler(http.StatusUnprocessableEntity, map[string]any{}))

	m, msgs := settle(m, validValues())

	require.Empty(t, m.form.FieldError("email"))
	require.Empty(t, toastsOf(msgs))
	require.False(t, m.form.IsLoading())
}

func TestSubmit_ServerErrorShowsToast(t *testing.T) {
	m, _ := newTestModel(t, jsonHandler(http.StatusInternalServerError, map[string]any{
		"message": "Server down",
	}))

	m, msgs := settle(m, validValues())

	toasts := toastsOf(msgs)
	require.Len(t, toasts, 1)
	require.Equal(t, "Server down", toasts[0].Title)
	require.Equal(t, toaster.StyleError, toasts[0].Style)

	require.Empty(t, m.form.FieldError("email"), "server errors are not field errors")
	require.Empty(t, registrationsOf(msgs))
	require.False(t, m.form.IsLoading())
}

func TestSubmit_ServerErrorWithoutMessageUsesFallback(t *testing.T) {
	m, _ := newTestModel(t, jsonHandler(http.StatusBadGateway, map[string]any{}))

	_, msgs := settle(m, validValues())

	toasts := toastsOf(msgs)
	require.Len(t, toasts, 1)
	require.Equal(t, platform.FallbackMessage, toasts[0].Title)
}

func TestSubmit_TransportErrorShowsFallbackToast(t *testing.T) {
	m, server := newTestModel(t, createdHandler())
	server.Close()

	_, msgs := settle(m, validValues())

	toasts := toastsOf(msgs)
	require.Len(t, toasts, 1)
	require.Equal(t, toaster.StyleError, toasts[0].Style)
	require.Equal(t, platform.FallbackMessage, toasts[0].Title)
}

func TestSubmit_LoadingStateDuringRequest(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, cmd := m.Update(submitRequestedMsg{values: validValues()})
	require.True(t, m.form.IsLoading(), "form must show progress while the request is in flight")
	require.NotNil(t, cmd)

	// Settle the attempt
	for _, msg := range collectMsgs(cmd) {
		if result, ok := msg.(submitResultMsg); ok {
			m, _ = m.Update(result)
		}
	}
	require.False(t, m.form.IsLoading())
}

func TestSubmit_IgnoredWhileInFlight(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, _ = m.Update(submitRequestedMsg{values: validValues()})
	require.True(t, m.submitting)

	// A second request while in flight is dropped
	m, cmd := m.Update(submitRequestedMsg{values: validValues()})
	require.Nil(t, cmd)
	require.True(t, m.submitting)
}

func TestSubmit_UnresolvedEndpointShowsInfoToast(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		requests.Add(1)
	}))
	t.Cleanup(server.Close)

	client := platform.NewClient(staticCreds{token: "tok"}, time.Second)
	cfg := config.Defaults()
	m := New(mode.Services{
		Client:   client,
		Catalogs: catalog.NewService(nil, time.Hour),
		Config:   &cfg,
	})

	m, cmd := m.Update(submitRequestedMsg{values: validValues()})

	toasts := toastsOf(collectMsgs(cmd))
	require.Len(t, toasts, 1)
	require.Equal(t, toaster.StyleInfo, toasts[0].Style)
	require.False(t, m.form.IsLoading())
	require.Zero(t, requests.Load())
}

func TestResolveFailed_WarnsOnceAndKeepsRetrying(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, cmd := m.Update(resolveFailedMsg{err: fmt.Errorf("dial tcp: connection refused")})
	require.NotNil(t, cmd)

	toasts := toastsOf(collectPromptMsgs(cmd))
	require.Len(t, toasts, 1)
	require.Equal(t, toaster.StyleWarn, toasts[0].Style)

	// Later failures schedule another retry without re-toasting
	_, cmd = m.Update(resolveFailedMsg{err: fmt.Errorf("dial tcp: connection refused")})
	require.NotNil(t, cmd)
	require.Empty(t, toastsOf(collectPromptMsgs(cmd)))
}

// collectPromptMsgs gathers the messages a command produces within a
// short window, leaving slow timers (retry ticks) behind.
func collectPromptMsgs(cmd tea.Cmd) []tea.Msg {
	results := make(chan tea.Msg, 8)
	var walk func(tea.Cmd)
	walk = func(c tea.Cmd) {
		if c == nil {
			return
		}
		go func() {
			msg := c()
			if batch, ok := msg.(tea.BatchMsg); ok {
				for _, sub := range batch {
					walk(sub)
				}
				return
			}
			results <- msg
		}()
	}
	walk(cmd)

	var msgs []tea.Msg
	deadline := time.After(200 * time.Millisecond)
	for {
		select {
		case msg := <-results:
			msgs = append(msgs, msg)
		case <-deadline:
			return msgs
		}
	}
}

func TestSubmit_ExpiredSessionShowsWarning(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())
	m.services.Session = newSessionProvider(t, time.Now().Add(-time.Hour))

	m, cmd := m.Update(submitRequestedMsg{values: validValues()})

	toasts := toastsOf(collectMsgs(cmd))
	require.Len(t, toasts, 1)
	require.Equal(t, toaster.StyleWarn, toasts[0].Style)
	require.False(t, m.form.IsLoading())
}

// --- Catalog Tests ---

func TestCountryChange_ReloadsStates(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, cmd := m.Update(countryChangedMsg{country: "Ghana"})
	require.NotNil(t, cmd)

	for _, msg := range collectMsgs(cmd) {
		m, _ = m.Update(msg)
	}

	require.NotEmpty(t, m.states)
	require.Equal(t, "Ahafo", m.states[0].Value)
}

func TestCatalogsLoaded_PopulatesOptions(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	m, cmd := m.Update(catalogsLoadedMsg{
		industries: catalog.FromStrings([]string{"Mining"}),
		orgTypes:   catalog.FromStrings([]string{"Cooperative"}),
		countries:  catalog.FromStrings([]string{"Togo"}),
	})
	require.Nil(t, cmd)

	require.Equal(t, []string{"Mining"}, catalog.Values(m.industries))
	require.Equal(t, []string{"Togo"}, catalog.Values(m.countries))
}

func TestStatesLoaded_StaleCountryDropped(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	// No country selected in the form yet, so any load applies
	m, _ = m.Update(statesLoadedMsg{country: "Ghana", states: catalog.FromStrings([]string{"Ahafo"})})
	require.Equal(t, "Ahafo", m.states[0].Value)
}

// --- Draft Tests ---

func newDraftServices(t *testing.T, handler http.Handler) mode.Services {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := platform.NewClient(staticCreds{token: "tok", userID: "user-9"}, time.Second)
	client.SetBaseURL(server.URL)

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Defaults()
	return mode.Services{
		Client:   client,
		Session:  newSessionProvider(t, time.Now().Add(time.Hour)),
		Catalogs: catalog.NewService(nil, time.Hour),
		Drafts:   db.Drafts(),
		Config:   &cfg,
	}
}

func TestCancel_SavesDraftAndQuits(t *testing.T) {
	services := newDraftServices(t, createdHandler())
	m := New(services)

	// Type into the name field, then cancel
	for _, r := range "Acme" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := m.Update(cancelRequestedMsg{})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())

	saved, err := services.Drafts.FindLatest("user-9")
	require.NoError(t, err)
	require.Equal(t, "Acme", saved.Values["name"])
}

func TestCancel_EmptyFormSavesNothing(t *testing.T) {
	services := newDraftServices(t, createdHandler())
	m := New(services)

	_, cmd := m.Update(cancelRequestedMsg{})
	require.IsType(t, tea.QuitMsg{}, cmd())

	_, err := services.Drafts.FindLatest("user-9")
	require.Error(t, err)
}

func TestNew_ResumesDraft(t *testing.T) {
	services := newDraftServices(t, createdHandler())

	d := draft.New("user-9", map[string]string{
		"name":    "Saved Co",
		"email":   "saved@co.com",
		"country": "Ghana",
	})
	require.NoError(t, services.Drafts.Save(d))

	m := New(services)
	require.NotNil(t, m.current)
	require.Equal(t, d.GUID, m.current.GUID)
	require.Equal(t, "Saved Co", m.form.Value("name"))
	require.Equal(t, "Ghana", m.form.Value("country"))
}

func TestSuccess_DeletesResumedDraft(t *testing.T) {
	services := newDraftServices(t, createdHandler())

	d := draft.New("user-9", map[string]string{"name": "Saved Co"})
	require.NoError(t, services.Drafts.Save(d))

	m := New(services)
	require.NotNil(t, m.current)

	_, msgs := settle(m, validValues())
	require.Len(t, registrationsOf(msgs), 1)

	_, err := services.Drafts.FindLatest("user-9")
	require.Error(t, err, "draft should be gone after registration")
}

// --- Key Handling Tests ---

func TestCtrlS_RequestsSubmission(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)

	msg := cmd()
	req, ok := msg.(submitRequestedMsg)
	require.True(t, ok, "ctrl+s should request submission")
	require.Contains(t, req.values, "name")
}

// --- View Tests ---

func TestView_RendersFormTitle(t *testing.T) {
	m, _ := newTestModel(t, createdHandler())
	m = m.SetSize(100, 40)

	view := m.View()
	require.Contains(t, view, "Register Organization")
}
