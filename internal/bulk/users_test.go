package bulk

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// memUserStore is an in-memory UserStore for exercising the reconciler.
type memUserStore struct {
	users []*model.User
}

func (m *memUserStore) add(u model.User) *model.User {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	u.Email = strings.ToLower(u.Email)
	stored := u
	m.users = append(m.users, &stored)
	return &stored
}

func (m *memUserStore) DisableAllExcept(_ context.Context, protectedEmail string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Email == strings.ToLower(protectedEmail) || u.IsDisabled {
			continue
		}
		u.IsDisabled = true
		n++
	}
	return n, nil
}

func (m *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrUserNotFound
}

func (m *memUserStore) ImportUpdate(_ context.Context, id primitive.ObjectID, upd model.User) error {
	for _, u := range m.users {
		if u.ID == id {
			u.Name = upd.Name
			u.Email = strings.ToLower(upd.Email)
			u.CPF = upd.CPF
			u.Phone = upd.Phone
			u.Cargo = upd.Cargo
			u.Roles = upd.Roles
			u.IsDisabled = false
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memUserStore) Create(_ context.Context, u *model.User) error {
	created := m.add(*u)
	*u = *created
	return nil
}

func (m *memUserStore) FindAll(_ context.Context, includeDisabled bool) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		if !includeDisabled && u.IsDisabled {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserStore) byEmail(email string) *model.User {
	for _, u := range m.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func fakeHash(plain string) (string, error) { return "hashed:" + plain, nil }

var userHeader = []string{"name", "email", "phone", "cpf", "cargo", "roles"}

func TestUserImportReconciles(t *testing.T) {
	store := &memUserStore{}
	store.add(model.User{Name: "admin", Email: model.AdminEmail, Roles: []string{model.RoleAdmin}})
	store.add(model.User{Name: "João", Email: "joao@example.com", Password: "keep-me", Roles: []string{model.RoleUser}})
	store.add(model.User{Name: "Maria", Email: "maria@example.com", Roles: []string{model.RoleUser}})

	buf := makeWorkbook(t, userHeader,
		[]string{"João Silva", "JOAO@example.com", "99999-0000", "111.111.111-11", "Corretor", "USER,MODERATOR"},
		[]string{"Pedro", "pedro@example.com", "", "", "", ""},
	)
	imp := NewUserImporter(store, fakeHash)
	summary, err := imp.Import(context.Background(), buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if summary.Created != 1 || summary.Updated != 1 || summary.Ignored != 0 {
		t.Errorf("summary = created %d updated %d ignored %d", summary.Created, summary.Updated, summary.Ignored)
	}
	// The pre-pass disables João and Maria but never the admin.
	if summary.Deactivated != 2 {
		t.Errorf("deactivated = %d, want 2", summary.Deactivated)
	}
	if store.byEmail(model.AdminEmail).IsDisabled {
		t.Error("admin was deactivated")
	}

	// João is in the sheet: updated, re-activated, password untouched.
	joao := store.byEmail("joao@example.com")
	if joao.IsDisabled {
		t.Error("sheet user left disabled")
	}
	if joao.Name != "João Silva" || joao.Cargo != "Corretor" {
		t.Errorf("profile not updated: %+v", joao)
	}
	if !reflect.DeepEqual(joao.Roles, []string{"USER", "MODERATOR"}) {
		t.Errorf("roles = %v", joao.Roles)
	}
	if joao.Password != "keep-me" {
		t.Error("import overwrote an existing password")
	}

	// Maria is absent from the sheet and stays disabled.
	if !store.byEmail("maria@example.com").IsDisabled {
		t.Error("absent user was not deactivated")
	}

	// Pedro is new: created active with the hashed default password.
	pedro := store.byEmail("pedro@example.com")
	if pedro == nil {
		t.Fatal("new user not created")
	}
	if pedro.IsDisabled {
		t.Error("new user created disabled")
	}
	if pedro.Password != "hashed:123456" {
		t.Errorf("new user password = %q", pedro.Password)
	}
	if !reflect.DeepEqual(pedro.Roles, []string{model.RoleUser}) {
		t.Errorf("empty roles cell should fall back to USER, got %v", pedro.Roles)
	}

	if !strings.Contains(summary.Message, "usuários") {
		t.Errorf("message = %q", summary.Message)
	}
}

func TestUserImportIgnoresMissingEmail(t *testing.T) {
	store := &memUserStore{}
	buf := makeWorkbook(t, userHeader,
		[]string{"Sem Email", "", "", "", "", ""},
	)
	summary, err := NewUserImporter(store, fakeHash).Import(context.Background(), buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Ignored != 1 || summary.Created != 0 {
		t.Fatalf("summary = ignored %d created %d", summary.Ignored, summary.Created)
	}
	d := summary.Details[0]
	if d.Status != "Ignorado" || d.Reason != "E-mail ausente" {
		t.Errorf("detail = %+v", d)
	}
	if d.Data["name"] != "Sem Email" {
		t.Errorf("ignored row data = %v", d.Data)
	}
}

func TestUserImportLastRowWins(t *testing.T) {
	store := &memUserStore{}
	buf := makeWorkbook(t, userHeader,
		[]string{"First", "dup@example.com", "", "", "Cargo A", ""},
		[]string{"Second", "dup@example.com", "", "", "Cargo B", ""},
	)
	if _, err := NewUserImporter(store, fakeHash).Import(context.Background(), buf); err != nil {
		t.Fatalf("Import: %v", err)
	}
	matches := 0
	for _, u := range store.users {
		if u.Email == "dup@example.com" {
			matches++
			if u.Name != "Second" || u.Cargo != "Cargo B" {
				t.Errorf("record = %+v, want the later row's values", u)
			}
		}
	}
	if matches != 1 {
		t.Errorf("duplicate key produced %d records, want 1", matches)
	}
}

func TestUserImportBadWorkbookTouchesNothing(t *testing.T) {
	store := &memUserStore{}
	store.add(model.User{Email: "joao@example.com"})

	_, err := NewUserImporter(store, fakeHash).Import(context.Background(), strings.NewReader("garbage"))
	if !errors.Is(err, ErrBadWorkbook) {
		t.Fatalf("err = %v, want ErrBadWorkbook", err)
	}
	if store.users[0].IsDisabled {
		t.Error("records were modified despite the workbook failing to parse")
	}
}

// brokenLookupUserStore simulates a store whose email lookups fail for
// reasons other than absence.
type brokenLookupUserStore struct {
	*memUserStore
}

func (s *brokenLookupUserStore) FindByEmail(context.Context, string) (model.User, error) {
	return model.User{}, errors.New("connection reset")
}

func TestUserImportAbortsOnLookupFailure(t *testing.T) {
	inner := &memUserStore{}
	inner.add(model.User{Email: "joao@example.com"})
	store := &brokenLookupUserStore{memUserStore: inner}

	buf := makeWorkbook(t, userHeader,
		[]string{"João", "joao@example.com", "", "", "", ""},
	)
	_, err := NewUserImporter(store, fakeHash).Import(context.Background(), buf)
	if err == nil {
		t.Fatal("lookup failure did not abort the import")
	}
	matches := 0
	for _, u := range inner.users {
		if u.Email == "joao@example.com" {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("lookup failure produced %d records for the key, want 1", matches)
	}
}

func TestParseRoles(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", []string{"USER"}},
		{"ADMIN", []string{"ADMIN"}},
		{"admin, user", []string{"ADMIN", "USER"}},
		{"gerente", []string{"USER"}},
		{"MODERATOR,gerente", []string{"MODERATOR"}},
	}
	for _, c := range cases {
		if got := parseRoles(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseRoles(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExportUsersRoundTrip(t *testing.T) {
	store := &memUserStore{}
	store.add(model.User{Name: "João", Email: "joao@example.com", Phone: "99999-0000", CPF: "111.111.111-11", Cargo: "Corretor"})
	store.add(model.User{Name: "Maria", Email: "maria@example.com", IsDisabled: true})

	buf, err := ExportUsers(context.Background(), store)
	if err != nil {
		t.Fatalf("ExportUsers: %v", err)
	}
	rows, err := ReadRows(buf)
	if err != nil {
		t.Fatalf("exported workbook does not parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["email"] != "joao@example.com" || rows[0]["status"] != "Ativo" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[0]["cargo"] != "Corretor" || rows[0]["cpf"] != "111.111.111-11" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["status"] != "Inativo" {
		t.Errorf("disabled user status = %q, want Inativo", rows[1]["status"])
	}
	if _, ok := rows[0]["password"]; ok {
		t.Error("export leaked a password column")
	}
}
