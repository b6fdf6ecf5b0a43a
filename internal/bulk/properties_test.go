package bulk

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// memPropertyStore is an in-memory PropertyStore for the reconciler.
type memPropertyStore struct {
	props []*model.Property
}

func (m *memPropertyStore) add(p model.Property) *model.Property {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	stored := p
	m.props = append(m.props, &stored)
	return &stored
}

func (m *memPropertyStore) DisableAll(_ context.Context) (int64, error) {
	var n int64
	for _, p := range m.props {
		if p.IsDisabled {
			continue
		}
		p.IsDisabled = true
		n++
	}
	return n, nil
}

func (m *memPropertyStore) FindByNaturalKey(_ context.Context, tipo, rua, numero string) (model.Property, error) {
	for _, p := range m.props {
		if p.Tipo == tipo && p.Rua == rua && p.Numero == numero {
			return *p, nil
		}
	}
	return model.Property{}, repository.ErrPropertyNotFound
}

func (m *memPropertyStore) ImportUpdate(_ context.Context, id primitive.ObjectID, upd model.Property) error {
	for _, p := range m.props {
		if p.ID == id {
			keep := p.ID
			*p = upd
			p.ID = keep
			p.IsDisabled = false
			return nil
		}
	}
	return errors.New("not found")
}

func (m *memPropertyStore) Create(_ context.Context, p *model.Property) error {
	created := m.add(*p)
	*p = *created
	return nil
}

func (m *memPropertyStore) FindAll(_ context.Context, includeDisabled bool) ([]model.Property, error) {
	out := []model.Property{}
	for _, p := range m.props {
		if !includeDisabled && p.IsDisabled {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPropertyStore) byKey(tipo, rua, numero string) *model.Property {
	for _, p := range m.props {
		if p.Tipo == tipo && p.Rua == rua && p.Numero == numero {
			return p
		}
	}
	return nil
}

var propertyHeader = []string{"tipo", "rua", "numero", "complemento", "cep", "cidade", "uf", "obs", "copasa", "cemig"}

func TestPropertyImportReconciles(t *testing.T) {
	store := &memPropertyStore{}
	store.add(model.Property{Tipo: model.TipoCasa, Rua: "Rua A", Numero: "10", Cidade: "Belo Horizonte"})
	store.add(model.Property{Tipo: model.TipoLoja, Rua: "Rua B", Numero: "20"})

	buf := makeWorkbook(t, propertyHeader,
		[]string{model.TipoCasa, "Rua A", "10", "Fundos", "30000-000", "Belo Horizonte", "MG", "", "123", "456"},
		[]string{model.TipoApartamento, "Rua C", "30", "", "", "Contagem", "MG", "novo", "", ""},
	)
	summary, err := NewPropertyImporter(store).Import(context.Background(), buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if summary.Created != 1 || summary.Updated != 1 || summary.Deactivated != 2 {
		t.Errorf("summary = created %d updated %d deactivated %d", summary.Created, summary.Updated, summary.Deactivated)
	}

	// (tipo, rua, numero) matched: re-activated with the new details.
	casa := store.byKey(model.TipoCasa, "Rua A", "10")
	if casa.IsDisabled {
		t.Error("matched property left disabled")
	}
	if casa.Complemento != "Fundos" || casa.Copasa != "123" {
		t.Errorf("details not updated: %+v", casa)
	}

	// Not in the sheet: stays disabled, not deleted.
	loja := store.byKey(model.TipoLoja, "Rua B", "20")
	if loja == nil {
		t.Fatal("absent property was deleted")
	}
	if !loja.IsDisabled {
		t.Error("absent property still active")
	}

	novo := store.byKey(model.TipoApartamento, "Rua C", "30")
	if novo == nil || novo.IsDisabled {
		t.Errorf("new property = %+v", novo)
	}
}

func TestPropertyImportIgnoresIncompleteKey(t *testing.T) {
	store := &memPropertyStore{}
	buf := makeWorkbook(t, propertyHeader,
		[]string{model.TipoCasa, "", "10"},
		[]string{"", "Rua A", "10"},
		[]string{model.TipoCasa, "Rua A", ""},
	)
	summary, err := NewPropertyImporter(store).Import(context.Background(), buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if summary.Ignored != 3 || summary.Created != 0 {
		t.Fatalf("summary = ignored %d created %d", summary.Ignored, summary.Created)
	}
	for _, d := range summary.Details {
		if d.Status != "Ignorado" || d.Reason != "Tipo, rua ou número ausentes" {
			t.Errorf("detail = %+v", d)
		}
	}
}

func TestPropertyImportLastRowWins(t *testing.T) {
	store := &memPropertyStore{}
	buf := makeWorkbook(t, propertyHeader,
		[]string{model.TipoCasa, "Rua A", "10", "", "", "Cidade 1", "", "", "", ""},
		[]string{model.TipoCasa, "Rua A", "10", "", "", "Cidade 2", "", "", "", ""},
	)
	if _, err := NewPropertyImporter(store).Import(context.Background(), buf); err != nil {
		t.Fatalf("Import: %v", err)
	}
	matches := 0
	for _, p := range store.props {
		if p.Tipo == model.TipoCasa && p.Rua == "Rua A" && p.Numero == "10" {
			matches++
			if p.Cidade != "Cidade 2" {
				t.Errorf("cidade = %q, want the later row's value", p.Cidade)
			}
		}
	}
	if matches != 1 {
		t.Errorf("duplicate key produced %d records, want 1", matches)
	}
}

// brokenLookupPropertyStore simulates a store whose natural-key lookups
// fail for reasons other than absence.
type brokenLookupPropertyStore struct {
	*memPropertyStore
}

func (s *brokenLookupPropertyStore) FindByNaturalKey(context.Context, string, string, string) (model.Property, error) {
	return model.Property{}, errors.New("connection reset")
}

func TestPropertyImportAbortsOnLookupFailure(t *testing.T) {
	inner := &memPropertyStore{}
	inner.add(model.Property{Tipo: model.TipoCasa, Rua: "Rua A", Numero: "10"})
	store := &brokenLookupPropertyStore{memPropertyStore: inner}

	buf := makeWorkbook(t, propertyHeader,
		[]string{model.TipoCasa, "Rua A", "10"},
	)
	_, err := NewPropertyImporter(store).Import(context.Background(), buf)
	if err == nil {
		t.Fatal("lookup failure did not abort the import")
	}
	matches := 0
	for _, p := range inner.props {
		if p.Tipo == model.TipoCasa && p.Rua == "Rua A" && p.Numero == "10" {
			matches++
		}
	}
	if matches != 1 {
		t.Errorf("lookup failure produced %d records for the key, want 1", matches)
	}
}

func TestExportPropertiesRoundTrip(t *testing.T) {
	store := &memPropertyStore{}
	store.add(model.Property{Tipo: model.TipoCasa, Rua: "Rua A", Numero: "10", Cidade: "Belo Horizonte", UF: "MG"})
	store.add(model.Property{Tipo: model.TipoTerreno, Rua: "Rua B", Numero: "20", IsDisabled: true})

	buf, err := ExportProperties(context.Background(), store)
	if err != nil {
		t.Fatalf("ExportProperties: %v", err)
	}
	rows, err := ReadRows(buf)
	if err != nil {
		t.Fatalf("exported workbook does not parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["tipo"] != model.TipoCasa || rows[0]["uf"] != "MG" || rows[0]["status"] != "Ativo" {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["status"] != "Inativo" {
		t.Errorf("disabled property status = %q", rows[1]["status"])
	}
}
