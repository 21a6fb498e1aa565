package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dealflow/dealflow/internal/auth"
	"github.com/dealflow/dealflow/internal/db"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/models"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// tinyPNG is a 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Use a unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared&_foreign_keys=on"
	d, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(d); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(d); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return d
}

// newTestMux registers every handler behind a middleware that logs the
// request in as the seeded admin.
func newTestMux(t *testing.T, d *gorm.DB) *http.ServeMux {
	t.Helper()
	users := services.NewUserService(d)
	admin, err := users.Authenticate(context.Background(), models.DefaultAdminUsername, models.DefaultAdminPassword)
	if err != nil {
		t.Fatalf("admin: %v", err)
	}
	asAdmin := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), admin.ID, admin.Username)))
		})
	}
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	clients := services.NewClientService(d)
	proposals := services.NewProposalService(d)
	templates := services.NewTemplateService(d)
	m := metrics.New()

	mux := http.NewServeMux()
	NewAuthHandler(users, auth.NewManager("test", time.Hour, nil), m).Register(mux, asAdmin)
	NewDashboardHandler(clients, proposals).Register(mux, asAdmin)
	NewClientHandler(clients, proposals).Register(mux, asAdmin)
	NewProposalHandler(proposals, clients, templates, store, m).Register(mux, asAdmin)
	NewTemplateHandler(templates, store).Register(mux, asAdmin)
	NewReportHandler(proposals, m).Register(mux, asAdmin)
	return mux
}

func postForm(mux http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func sendJSON(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Accept", "application/json")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func flashOf(rr *httptest.ResponseRecorder) string {
	for _, c := range rr.Result().Cookies() {
		if c.Name == "flash" {
			msg, _ := url.QueryUnescape(c.Value)
			return msg
		}
	}
	return ""
}

func seedClient(t *testing.T, d *gorm.DB, name string) *models.Client {
	t.Helper()
	c, err := models.NewClient(name, "", "")
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if err := services.NewClientService(d).Create(context.Background(), c); err != nil {
		t.Fatalf("create client: %v", err)
	}
	return c
}

func TestClientCreateForm(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	rr := postForm(mux, "/clients", url.Values{"name": {"  ACME  "}, "document": {"123"}, "contact": {"ana@acme.test"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Header().Get("Location"), "/clients/") {
		t.Fatalf("unexpected location %q", rr.Header().Get("Location"))
	}
	if flashOf(rr) != "Cliente cadastrado." {
		t.Fatalf("unexpected flash %q", flashOf(rr))
	}
	var c models.Client
	if err := d.First(&c).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Name != "ACME" || c.Contact != "ana@acme.test" {
		t.Fatalf("unexpected client %+v", c)
	}
}

func TestClientCreateRequiresName(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	rr := postForm(mux, "/clients", url.Values{"name": {"   "}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("expected the form to be re-rendered")
	}

	rr = sendJSON(mux, http.MethodPost, "/clients", `{"name":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
	var payload struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Error != "validation_failed" || payload.Details["name"] == "" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestClientViewListsProposals(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	acme := seedClient(t, d, "ACME")
	other := seedClient(t, d, "Globex")
	for _, c := range []*models.Client{acme, acme, other} {
		p, _ := models.NewProposal(c, "", time.Now())
		if err := services.NewProposalService(d).Create(context.Background(), p); err != nil {
			t.Fatalf("proposal: %v", err)
		}
	}

	rr := sendJSON(mux, http.MethodGet, fmt.Sprintf("/clients/%d", acme.ID), "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var got models.Client
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Proposals) != 2 {
		t.Fatalf("expected 2 proposals got %d", len(got.Proposals))
	}

	rr = sendJSON(mux, http.MethodGet, "/clients/9999", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestProposalNewWithoutClients(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	req := httptest.NewRequest(http.MethodGet, "/proposals/new", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/clients/new" {
		t.Fatalf("expected redirect to /clients/new got %d %q", rr.Code, rr.Header().Get("Location"))
	}
	if flashOf(rr) == "" {
		t.Fatalf("expected a flash message")
	}
}

func TestProposalCreateForm(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")

	form := url.Values{
		"client_id":   {fmt.Sprint(c.ID)},
		"title":       {"Site institucional"},
		"valid_until": {"2026-11-30"},
		"description": {"Layout", "", "Desenvolvimento", "Hospedagem"},
		"quantity":    {"2", "", "x", "1"},
		"unit_price":  {"100,00", "", "500", "1.234,50"},
		"tipo":        {"%"},
		"valor":       {"10"},
	}
	rr := postForm(mux, "/proposals", form)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d flash=%q", rr.Code, flashOf(rr))
	}

	var id uint
	if _, err := fmt.Sscanf(rr.Header().Get("Location"), "/proposals/%d", &id); err != nil {
		t.Fatalf("location %q: %v", rr.Header().Get("Location"), err)
	}
	p, err := services.NewProposalService(d).Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// the row with an invalid quantity is skipped
	if len(p.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(p.Items))
	}
	if p.Items[1].UnitPrice != 1234.50 {
		t.Fatalf("expected 1234.50 got %v", p.Items[1].UnitPrice)
	}
	if p.Discount.Kind != models.DiscountPercentage || p.Discount.Value != 10 {
		t.Fatalf("unexpected discount %+v", p.Discount)
	}
	if p.ValidUntil == nil {
		t.Fatalf("validity not stored")
	}
	if p.Status != models.StatusDraft {
		t.Fatalf("expected draft got %s", p.Status)
	}
}

func TestProposalCreateRejectsBadInput(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")

	tests := []struct {
		name string
		form url.Values
	}{
		{"missing client", url.Values{"title": {"x"}}},
		{"unknown client", url.Values{"client_id": {"999"}}},
		{"bad date", url.Values{"client_id": {fmt.Sprint(c.ID)}, "valid_until": {"31/12/2026"}}},
		{"bad discount kind", url.Values{"client_id": {fmt.Sprint(c.ID)}, "tipo": {"bogus"}, "valor": {"5"}}},
		{"bad discount value", url.Values{"client_id": {fmt.Sprint(c.ID)}, "tipo": {"R"}, "valor": {"abc"}}},
		{"non-finite discount value", url.Values{"client_id": {fmt.Sprint(c.ID)}, "tipo": {"%"}, "valor": {"NaN"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postForm(mux, "/proposals", tt.form)
			if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/proposals/new" {
				t.Fatalf("expected redirect back got %d %q", rr.Code, rr.Header().Get("Location"))
			}
			if flashOf(rr) == "" {
				t.Fatalf("expected a flash message")
			}
		})
	}
	var count int64
	d.Model(&models.Proposal{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no proposals got %d", count)
	}
}

func TestProposalItemsAndStatus(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")
	p, _ := models.NewProposal(c, "Obra", time.Now())
	p.AddItem("Cimento", 10, 30)
	if err := services.NewProposalService(d).Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	base := fmt.Sprintf("/proposals/%d", p.ID)

	rr := postForm(mux, base+"/items", url.Values{"description": {"Areia"}, "quantity": {"2"}, "unit_price": {"25,5"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("add item: %d", rr.Code)
	}
	rr = postForm(mux, base+"/items", url.Values{"description": {"Brita"}, "quantity": {"0"}})
	if rr.Code != http.StatusSeeOther || flashOf(rr) == "" {
		t.Fatalf("expected rejected item to flash")
	}

	got, _ := services.NewProposalService(d).Get(context.Background(), p.ID)
	if len(got.Items) != 2 || got.Subtotal() != 351 {
		t.Fatalf("unexpected items %+v subtotal %v", got.Items, got.Subtotal())
	}

	rr = postForm(mux, fmt.Sprintf("%s/items/%d/delete", base, got.Items[0].ID), nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("remove item: %d", rr.Code)
	}
	rr = postForm(mux, fmt.Sprintf("%s/items/%d/delete", base, 99999), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown item got %d", rr.Code)
	}

	rr = postForm(mux, base+"/status", url.Values{"status": {" Enviada "}})
	if rr.Code != http.StatusSeeOther || flashOf(rr) != "Status alterado para Enviada." {
		t.Fatalf("status: %d %q", rr.Code, flashOf(rr))
	}
	rr = postForm(mux, base+"/status", url.Values{"status": {"perdida"}})
	if flashOf(rr) == "" {
		t.Fatalf("expected an error flash")
	}
	got, _ = services.NewProposalService(d).Get(context.Background(), p.ID)
	if got.Status != models.StatusSent || len(got.Items) != 1 {
		t.Fatalf("unexpected state %s items=%d", got.Status, len(got.Items))
	}
}

func TestProposalRejectsNonFiniteAndNegativeAmounts(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")
	p, _ := models.NewProposal(c, "Obra", time.Now())
	p.AddItem("Cimento", 10, 30)
	if err := services.NewProposalService(d).Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	base := fmt.Sprintf("/proposals/%d", p.ID)

	for _, valor := range []string{"NaN", "inf", "-Infinity"} {
		rr := postForm(mux, base+"/discount", url.Values{"tipo": {"%"}, "valor": {valor}})
		if rr.Code != http.StatusSeeOther || flashOf(rr) == "" {
			t.Fatalf("discount %s: expected flash redirect got %d", valor, rr.Code)
		}
	}
	for _, price := range []string{"inf", "NaN", "-5"} {
		rr := postForm(mux, base+"/items", url.Values{"description": {"Areia"}, "quantity": {"1"}, "unit_price": {price}})
		if rr.Code != http.StatusSeeOther || flashOf(rr) == "" {
			t.Fatalf("unit_price %s: expected flash redirect got %d", price, rr.Code)
		}
	}
	rr := sendJSON(mux, http.MethodPost, base+"/items", `{"description":"Areia","quantity":1,"unit_price":-5}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "must_not_be_negative") {
		t.Fatalf("json negative price: %d %s", rr.Code, rr.Body.String())
	}

	got, _ := services.NewProposalService(d).Get(context.Background(), p.ID)
	if len(got.Items) != 1 || got.Discount.Kind != models.DiscountNone || got.Total() != 300 {
		t.Fatalf("unexpected state items=%d discount=%+v total=%v", len(got.Items), got.Discount, got.Total())
	}
	rr = sendJSON(mux, http.MethodGet, base, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("json view after rejected input: %d", rr.Code)
	}
}

func TestProposalDetailRenders(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")
	p, _ := models.NewProposal(c, "Consultoria", time.Now())
	p.AddItem("Horas", 2, 100)
	p.Discount = models.FixedDiscount(20)
	if err := services.NewProposalService(d).Create(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/proposals/%d", p.ID), nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	for _, want := range []string{"Consultoria", "ACME", "Horas", "180.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in detail page", want)
		}
	}
}

func TestTemplateCRUDAndLogo(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	rr := sendJSON(mux, http.MethodPost, "/templates", `{"name":"Obras","primary_color":"#aa3300","footer_text":"Rodapé"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var tpl models.Template
	if err := json.Unmarshal(rr.Body.Bytes(), &tpl); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if tpl.PrimaryColor != "#AA3300" {
		t.Fatalf("expected normalized color got %q", tpl.PrimaryColor)
	}

	rr = sendJSON(mux, http.MethodPost, "/templates", `{"name":"Obras"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name got %d", rr.Code)
	}
	rr = sendJSON(mux, http.MethodPost, "/templates", `{"name":"Cores","primary_color":"red"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad color got %d", rr.Code)
	}

	logoPath := fmt.Sprintf("/templates/%d/logo", tpl.ID)
	upload := func(filename string, data []byte) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, _ := mw.CreateFormFile("logo", filename)
		fw.Write(data)
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, logoPath, &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Accept", "application/json")
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	rr = upload("logo.gif", []byte("GIF89a"))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for gif got %d", rr.Code)
	}
	rr = upload("Logo.PNG", tinyPNG)
	if rr.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", rr.Code, rr.Body.String())
	}
	var withLogo models.Template
	json.Unmarshal(rr.Body.Bytes(), &withLogo)
	if !strings.HasPrefix(withLogo.LogoRef, fmt.Sprintf("logos/template_%d_", tpl.ID)) || !strings.HasSuffix(withLogo.LogoRef, ".png") {
		t.Fatalf("unexpected logo ref %q", withLogo.LogoRef)
	}

	req := httptest.NewRequest(http.MethodGet, logoPath, nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("logo: %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}

	// a proposal using the template renders with the stored logo
	c := seedClient(t, d, "ACME")
	p, _ := models.NewProposal(c, "", time.Now())
	p.TemplateID = &tpl.ID
	if err := services.NewProposalService(d).Create(context.Background(), p); err != nil {
		t.Fatalf("proposal: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/proposals/%d/pdf", p.ID), nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("pdf: %d", rr.Code)
	}

	rr = postForm(mux, fmt.Sprintf("/templates/%d/delete", tpl.ID), nil)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("delete: %d", rr.Code)
	}
	got, _ := services.NewProposalService(d).Get(context.Background(), p.ID)
	if got.TemplateID != nil {
		t.Fatalf("expected template to be detached from proposal")
	}
}

func TestRegisterAndChangePassword(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	rr := postForm(mux, "/register", url.Values{"username": {"maria"}, "password": {"segredo"}})
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("register: %d %q", rr.Code, rr.Header().Get("Location"))
	}
	rr = postForm(mux, "/register", url.Values{"username": {"maria"}, "password": {"outra"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for taken username got %d", rr.Code)
	}
	rr = postForm(mux, "/register", url.Values{"username": {"joao"}, "password": {"abc"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password got %d", rr.Code)
	}

	users := services.NewUserService(d)
	rr = postForm(mux, "/password", url.Values{"current": {"wrong"}, "new": {"novasenha"}, "confirm": {"novasenha"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong current password got %d", rr.Code)
	}
	rr = postForm(mux, "/password", url.Values{"current": {"admin"}, "new": {"novasenha"}, "confirm": {"outra"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for mismatch got %d", rr.Code)
	}
	rr = postForm(mux, "/password", url.Values{"current": {"admin"}, "new": {"novasenha"}, "confirm": {"novasenha"}})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("change password: %d", rr.Code)
	}
	if !users.ValidateCredentials(context.Background(), "admin", "novasenha") {
		t.Fatalf("new password not accepted")
	}
}

func TestDashboardJSON(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)
	c := seedClient(t, d, "ACME")
	svc := services.NewProposalService(d)
	for i := 0; i < 3; i++ {
		p, _ := models.NewProposal(c, "", time.Now().Add(time.Duration(i)*time.Second))
		if err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.ChangeStatus(context.Background(), 1, "aceita"); err != nil {
		t.Fatalf("status: %v", err)
	}

	rr := sendJSON(mux, http.MethodGet, "/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	var payload struct {
		Clients   int64         `json:"clients"`
		Proposals int64         `json:"proposals"`
		ByStatus  []statusCount `json:"by_status"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Clients != 1 || payload.Proposals != 3 {
		t.Fatalf("unexpected counts %+v", payload)
	}
	counts := map[models.Status]int64{}
	for _, sc := range payload.ByStatus {
		counts[sc.Status] = sc.Count
	}
	if counts[models.StatusDraft] != 2 || counts[models.StatusAccepted] != 1 {
		t.Fatalf("unexpected status counts %+v", counts)
	}
}

func TestReportDownload(t *testing.T) {
	d := setupTestDB(t)
	mux := newTestMux(t, d)

	req := httptest.NewRequest(http.MethodGet, "/reports/proposals.xlsx", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("unexpected content type %q", rr.Header().Get("Content-Type"))
	}
}
