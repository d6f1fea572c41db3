package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/export"
	"salesdash/internal/services"
	"salesdash/internal/session"
	"salesdash/internal/sheets/memory"
)

func newTestServer(t *testing.T, records []core.SalesRecord, opts Options) *Server {
	t.Helper()
	dash, err := services.BuildDashboard(context.Background(), memory.New(records))
	if err != nil {
		t.Fatalf("BuildDashboard() error = %v", err)
	}
	srv := NewServer(":0", dash, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

// client replays the session cookie across requests like a browser and
// remembers what the select-all control currently shows.
type client struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
	shown  bool
}

func newClient(t *testing.T, srv *Server) *client {
	return &client{t: t, srv: srv}
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rr := httptest.NewRecorder()
	c.srv.Handler.ServeHTTP(rr, req)
	for _, ck := range rr.Result().Cookies() {
		if ck.Name == session.CookieName {
			c.cookie = ck
		}
	}
	if sa := fragment(rr.Body.String(), "select-all", "</div>"); sa != "" {
		c.shown = strings.Contains(sa, " checked")
	}
	return rr
}

func (c *client) checklist(types ...string) *httptest.ResponseRecorder {
	form := url.Values{"item_type": types}
	if c.shown {
		form.Set("select_all", "on")
	}
	return c.do(http.MethodPost, "/ui/checklist", form)
}

func (c *client) selectAll(checked bool) *httptest.ResponseRecorder {
	form := url.Values{}
	if checked {
		form.Set("select_all", "on")
	}
	c.shown = checked
	return c.do(http.MethodPost, "/ui/select-all", form)
}

// fragment returns the markup of the element with the given id.
func fragment(body, id, closing string) string {
	start := strings.Index(body, `id="`+id+`"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(body[start:], closing)
	if end < 0 {
		return body[start:]
	}
	return body[start : start+end]
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)

	rr := c.do(http.MethodGet, "/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Select All", `value="Fruit"`, `value="Vegetable"`, "/static/banner.svg", "No item types selected."} {
		if !strings.Contains(body, want) {
			t.Errorf("index body missing %q", want)
		}
	}
	if strings.Contains(body, "Apple") {
		t.Error("a new session should show no rows")
	}
	if c.cookie == nil {
		t.Fatal("index should set the session cookie")
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Error("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	for _, path := range []string{"/healthz", "/readyz", "/static/app.css", "/static/banner.svg"} {
		rr := c.do(http.MethodGet, path, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestChecklistFiltersRows(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)

	rr := c.checklist("Fruit")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Apple", "Banana", "Cherry"} {
		if !strings.Contains(body, want) {
			t.Errorf("filtered table missing %q", want)
		}
	}
	if strings.Contains(body, "Carrot") || strings.Contains(body, "Leek") {
		t.Error("vegetables should be filtered out")
	}
	if strings.Contains(body, "hx-swap-oob") {
		t.Error("a strict subset with select-all unchecked must not redraw other controls")
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, `"rows":3`) {
		t.Errorf("HX-Trigger = %s, want rows 3", trigger)
	}

	// Ticking every item type by hand turns select-all on.
	rr = c.checklist("Fruit", "Vegetable")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	sa := fragment(rr.Body.String(), "select-all", "</div>")
	if !strings.Contains(sa, `hx-swap-oob="true"`) || !strings.Contains(sa, "checked") {
		t.Errorf("expected checked select-all redraw, got %q", sa)
	}

	// Clearing everything leaves an empty table.
	rr = c.checklist()
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "No item types selected.") {
		t.Error("empty selection should render no rows")
	}
	sa = fragment(rr.Body.String(), "select-all", "</div>")
	if sa == "" || strings.Contains(sa, "checked") {
		t.Errorf("expected unchecked select-all redraw, got %q", sa)
	}
}

func TestChecklistRejectsUnknownItemType(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)

	rr := c.checklist("Fruit", "Nuts")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d, want 422", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Nuts") {
		t.Errorf("error should name the unknown value: %s", rr.Body.String())
	}

	// The failed event leaves the session untouched.
	rr = c.do(http.MethodGet, "/ui/table", nil)
	if strings.Contains(rr.Body.String(), "Apple") {
		t.Error("rejected event must not change visible rows")
	}
}

func TestSelectAllFlow(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)

	rr := c.selectAll(true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"Apple", "Carrot", "Leek"} {
		if !strings.Contains(body, want) {
			t.Errorf("select-all table missing %q", want)
		}
	}
	cl := fragment(body, "checklist", "</fieldset>")
	if !strings.Contains(cl, `hx-swap-oob="true"`) || strings.Count(cl, "checked") != 2 {
		t.Errorf("expected fully checked checklist redraw, got %q", cl)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"select_all":true`) {
		t.Errorf("HX-Trigger = %s", rr.Header().Get("HX-Trigger"))
	}

	// Deselecting one item type while select-all is checked unchecks it
	// and still re-filters the rows.
	rr = c.checklist("Vegetable")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body = rr.Body.String()
	if strings.Contains(body, "Apple") || !strings.Contains(body, "Carrot") {
		t.Error("rows should be re-filtered to vegetables")
	}
	sa := fragment(body, "select-all", "</div>")
	if !strings.Contains(sa, `hx-swap-oob="true"`) || strings.Contains(sa, "checked") {
		t.Errorf("expected unchecked select-all redraw, got %q", sa)
	}

	// Unchecking select-all is a no-update.
	rr = c.selectAll(true)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	rr = c.selectAll(false)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status=%d, want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Error("204 must carry no body")
	}
}

func TestChecklistAfterSessionEviction(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{SessionMax: 1})
	a := newClient(t, srv)
	b := newClient(t, srv)

	if rr := a.selectAll(true); rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	evicted := a.cookie.Value
	// b takes the only session slot, so a's server-side state is gone.
	b.do(http.MethodGet, "/", nil)
	if n := srv.sessions.Len(); n != 1 {
		t.Fatalf("sessions=%d, want 1", n)
	}

	rr := a.checklist("Vegetable")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if strings.Contains(body, "Apple") || !strings.Contains(body, "Carrot") {
		t.Error("rows should be filtered to vegetables")
	}
	sa := fragment(body, "select-all", "</div>")
	if !strings.Contains(sa, `hx-swap-oob="true"`) || strings.Contains(sa, " checked") {
		t.Errorf("displayed select-all must be unchecked, got %q", sa)
	}
	if a.cookie.Value == evicted {
		t.Error("a should have been handed a new session")
	}
}

func TestTableSortAndPagination(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{PageSize: 2})
	c := newClient(t, srv)
	c.selectAll(true)

	rr := c.do(http.MethodGet, "/ui/table?sort="+url.QueryEscape("Item:desc"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Leek") || !strings.Contains(body, "Carrot") || strings.Contains(body, "Apple") {
		t.Errorf("first page sorted by item desc should be Leek, Carrot: %s", body)
	}
	if strings.Index(body, "Leek") > strings.Index(body, "Carrot") {
		t.Error("Leek should come before Carrot")
	}
	if !strings.Contains(body, "Page 1 / 3") {
		t.Error("expected page label 1 / 3")
	}
	if !strings.Contains(body, `class="num sorted-desc"`) && !strings.Contains(body, `class=" sorted-desc"`) {
		t.Error("sorted column should be marked")
	}

	rr = c.do(http.MethodGet, "/ui/table?page=3&sort="+url.QueryEscape("Item:desc"), nil)
	body = rr.Body.String()
	if !strings.Contains(body, "Page 3 / 3") || !strings.Contains(body, "Apple") {
		t.Errorf("last page should hold Apple: %s", body)
	}

	// Out-of-range pages clamp to the last one.
	rr = c.do(http.MethodGet, "/ui/table?page=99", nil)
	if !strings.Contains(rr.Body.String(), "Page 3 / 3") {
		t.Error("page should clamp to the last one")
	}
}

func TestMissingMonthRendersBlank(t *testing.T) {
	jan := time.Date(2023, time.January, 3, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2023, time.February, 3, 0, 0, 0, 0, time.UTC)
	records := []core.SalesRecord{
		{Date: jan, ItemType: "Fruit", Item: "Apple", SortOrder: 1, Sales: decimal.NewFromInt(10)},
		{Date: feb, ItemType: "Fruit", Item: "Apple", SortOrder: 1, Sales: decimal.NewFromInt(5)},
		{Date: feb, ItemType: "Fruit", Item: "Pear", SortOrder: 2, Sales: decimal.NewFromInt(1234)},
	}
	srv := newTestServer(t, records, Options{})
	c := newClient(t, srv)

	rr := c.checklist("Fruit")
	body := rr.Body.String()
	for _, want := range []string{"Jan 23", "Feb 23", "10.00", "5.00", "1,234.00", `<td class="num"></td>`} {
		if !strings.Contains(body, want) {
			t.Errorf("table missing %q", want)
		}
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)
	c.checklist("Fruit")

	rr := c.do(http.MethodGet, "/export.xlsx?sort="+url.QueryEscape("Item:desc"), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := rr.Header().Get("Content-Type"); got != export.ContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "attachment") {
		t.Error("export should be an attachment")
	}

	f, err := excelize.OpenReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != core.ColItem || rows[1][0] != "Cherry" || rows[3][0] != "Apple" {
		t.Errorf("unexpected export order: %v", rows)
	}
}

func TestRateLimitOnFilterPosts(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{RateLimitPerMinute: 1})
	c := newClient(t, srv)

	if rr := c.checklist("Fruit"); rr.Code != http.StatusOK {
		t.Fatalf("first post status=%d", rr.Code)
	}
	rr := c.checklist("Fruit")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second post status=%d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Reads are not limited.
	if rr := c.do(http.MethodGet, "/ui/table", nil); rr.Code != http.StatusOK {
		t.Errorf("table status=%d", rr.Code)
	}
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	srv := newTestServer(t, memory.DemoRecords(), Options{})
	c := newClient(t, srv)

	if rr := c.do(http.MethodGet, "/.env", nil); rr.Code != http.StatusNotFound {
		t.Errorf("status=%d, want 404", rr.Code)
	}
	if rr := c.do(http.MethodPut, "/ui/checklist", nil); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status=%d, want 405", rr.Code)
	}
}

type recordingPublisher struct {
	kinds []string
}

func (p *recordingPublisher) PublishFilterEvent(_ context.Context, msg *amqp.FilterEventMessage) error {
	p.kinds = append(p.kinds, msg.Kind)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestFilterEventsArePublished(t *testing.T) {
	pub := &recordingPublisher{}
	srv := newTestServer(t, memory.DemoRecords(), Options{Events: services.NewEventService(pub)})
	c := newClient(t, srv)

	c.selectAll(true)
	c.selectAll(false)
	c.checklist("Fruit")

	want := []string{"select_all_changed", "select_all_changed", "checklist_changed"}
	if len(pub.kinds) != len(want) {
		t.Fatalf("published %v, want %v", pub.kinds, want)
	}
	for i := range want {
		if pub.kinds[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, pub.kinds[i], want[i])
		}
	}
}
