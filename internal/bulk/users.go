package bulk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adellanno/imob-api/internal/model"
	"github.com/adellanno/imob-api/internal/repository"
)

// defaultImportPassword is assigned to users created by the import;
// they are expected to change it on first login.
const defaultImportPassword = "123456"

// UserStore is the slice of the user repository the reconciler needs.
type UserStore interface {
	DisableAllExcept(ctx context.Context, protectedEmail string) (int64, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ImportUpdate(ctx context.Context, id primitive.ObjectID, u model.User) error
	Create(ctx context.Context, u *model.User) error
	FindAll(ctx context.Context, includeDisabled bool) ([]model.User, error)
}

// UserImporter reconciles the users collection against a spreadsheet.
// Passwords for newly created users are produced by the hash function
// so the engine stays independent of the bcrypt configuration.
type UserImporter struct {
	store UserStore
	hash  func(plain string) (string, error)
}

func NewUserImporter(store UserStore, hash func(string) (string, error)) *UserImporter {
	return &UserImporter{store: store, hash: hash}
}

// Import reads the workbook and reconciles. The natural key is the
// case-insensitive email. Sequence: disable everything except the
// protected admin, then walk the rows in order re-activating, updating
// or creating. Duplicate emails within the sheet resolve last-row-wins
// because later rows overwrite the same record. A row without an email
// is ignored and never reaches reconciliation. An unreadable workbook
// fails the whole operation before any record is touched.
func (imp *UserImporter) Import(ctx context.Context, file io.Reader) (*Summary, error) {
	rows, err := ReadRows(file)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Details: []Detail{}}

	deactivated, err := imp.store.DisableAllExcept(ctx, model.AdminEmail)
	if err != nil {
		return nil, err
	}
	summary.Deactivated = deactivated

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row["email"]))
		if email == "" {
			summary.Ignored++
			summary.Details = append(summary.Details, Detail{
				Status: "Ignorado",
				Reason: "E-mail ausente",
				Data:   row,
			})
			continue
		}

		payload := model.User{
			Name:  row["name"],
			Email: email,
			CPF:   row["cpf"],
			Phone: row["phone"],
			Cargo: row["cargo"],
			Roles: parseRoles(row["roles"]),
		}

		existing, err := imp.store.FindByEmail(ctx, email)
		if err == nil {
			if err := imp.store.ImportUpdate(ctx, existing.ID, payload); err != nil {
				return nil, err
			}
			summary.Updated++
			summary.Details = append(summary.Details, Detail{Email: email, Status: "Atualizado (ativado)"})
			continue
		}
		// Only a confirmed miss may create; a storage failure would
		// otherwise duplicate the record.
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, err
		}

		hash, err := imp.hash(defaultImportPassword)
		if err != nil {
			return nil, err
		}
		payload.Password = hash
		if err := imp.store.Create(ctx, &payload); err != nil {
			return nil, err
		}
		summary.Created++
		summary.Details = append(summary.Details, Detail{Email: email, Status: "Criado com senha padrão"})
	}

	summary.finish("usuários")
	return summary, nil
}

// parseRoles splits a comma-separated role cell, keeping only known
// labels. An empty or fully invalid cell falls back to USER.
func parseRoles(cell string) []string {
	roles := []string{}
	for _, r := range strings.Split(cell, ",") {
		r = strings.ToUpper(strings.TrimSpace(r))
		if model.ValidRole(r) {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		return []string{model.RoleUser}
	}
	return roles
}

// userExportHeader is the fixed column order of the user export.
var userExportHeader = []string{"name", "email", "phone", "cpf", "cargo", "status"}

// ExportUsers flattens every user, disabled ones included, into a
// single-sheet workbook. Passwords never leave the collection.
func ExportUsers(ctx context.Context, store UserStore) (*bytes.Buffer, error) {
	users, err := store.FindAll(ctx, true)
	if err != nil {
		return nil, err
	}
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{
			u.Name, u.Email, u.Phone, u.CPF, u.Cargo, statusLabel(u.IsDisabled),
		})
	}
	return writeSheet("Usuários", userExportHeader, rows)
}
