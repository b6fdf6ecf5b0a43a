package bulk

import (
	"bytes"
	"context"
	"errors"
	"io"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// PropertyStore is the slice of the property repository the reconciler
// needs.
type PropertyStore interface {
	DisableAll(ctx context.Context) (int64, error)
	FindByNaturalKey(ctx context.Context, tipo, rua, numero string) (model.Property, error)
	ImportUpdate(ctx context.Context, id primitive.ObjectID, p model.Property) error
	Create(ctx context.Context, p *model.Property) error
	FindAll(ctx context.Context, includeDisabled bool) ([]model.Property, error)
}

// PropertyImporter reconciles the imobs collection against a
// spreadsheet. The natural key is (tipo, rua, numero), matched exactly
// as stored.
type PropertyImporter struct {
	store PropertyStore
}

func NewPropertyImporter(store PropertyStore) *PropertyImporter {
	return &PropertyImporter{store: store}
}

// Import reads the workbook and reconciles, mirroring the user flow:
// disable everything (there is no protected identity for properties),
// then walk the rows re-activating, updating or creating. Rows missing
// any key field are ignored with a reason. Duplicate keys resolve
// last-row-wins.
func (imp *PropertyImporter) Import(ctx context.Context, file io.Reader) (*Summary, error) {
	rows, err := ReadRows(file)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Details: []Detail{}}

	deactivated, err := imp.store.DisableAll(ctx)
	if err != nil {
		return nil, err
	}
	summary.Deactivated = deactivated

	for _, row := range rows {
		tipo, rua, numero := row["tipo"], row["rua"], row["numero"]
		if tipo == "" || rua == "" || numero == "" {
			summary.Ignored++
			summary.Details = append(summary.Details, Detail{
				Status: "Ignorado",
				Reason: "Tipo, rua ou número ausentes",
				Data:   row,
			})
			continue
		}

		payload := model.Property{
			Tipo:        tipo,
			Rua:         rua,
			Numero:      numero,
			Complemento: row["complemento"],
			CEP:         row["cep"],
			Cidade:      row["cidade"],
			UF:          row["uf"],
			Obs:         row["obs"],
			Copasa:      row["copasa"],
			Cemig:       row["cemig"],
		}

		existing, err := imp.store.FindByNaturalKey(ctx, tipo, rua, numero)
		if err == nil {
			if err := imp.store.ImportUpdate(ctx, existing.ID, payload); err != nil {
				return nil, err
			}
			summary.Updated++
			summary.Details = append(summary.Details, Detail{
				Tipo: tipo, Rua: rua, Numero: numero, Status: "Atualizado (ativado)",
			})
			continue
		}
		// Only a confirmed miss may create; there is no unique index on
		// the natural key to catch a duplicate after a storage failure.
		if !errors.Is(err, repository.ErrPropertyNotFound) {
			return nil, err
		}

		if err := imp.store.Create(ctx, &payload); err != nil {
			return nil, err
		}
		summary.Created++
		summary.Details = append(summary.Details, Detail{
			Tipo: tipo, Rua: rua, Numero: numero, Status: "Criado e ativado",
		})
	}

	summary.finish("imóveis")
	return summary, nil
}

// propertyExportHeader is the fixed column order of the property export.
var propertyExportHeader = []string{
	"tipo", "rua", "numero", "complemento", "cep", "cidade", "uf", "obs", "copasa", "cemig", "status",
}

// ExportProperties flattens every property, disabled ones included,
// into a single-sheet workbook.
func ExportProperties(ctx context.Context, store PropertyStore) (*bytes.Buffer, error) {
	props, err := store.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(props))
	for _, p := range props {
		rows = append(rows, []interface{}{
			p.Tipo, p.Rua, p.Numero, p.Complemento, p.CEP, p.Cidade, p.UF,
			p.Obs, p.Copasa, p.Cemig, statusLabel(p.IsDisabled),
		})
	}
	return writeSheet("Imóveis", propertyExportHeader, rows)
}
