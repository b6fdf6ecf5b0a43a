package bulk

import "fmt"

// Detail is one per-row entry in an import summary. Key fields identify
// the row; Reason is only set for ignored rows.
type Detail struct {
	Email  string            `json:"email,omitempty"`
	Tipo   string            `json:"tipo,omitempty"`
	Rua    string            `json:"rua,omitempty"`
	Numero string            `json:"numero,omitempty"`
	Status string            `json:"status"`
	Reason string            `json:"reason,omitempty"`
	Data   map[string]string `json:"data,omitempty"`
}

// Summary aggregates the outcome of one reconciliation run.
// Deactivated counts the pre-pass: records disabled because their
// natural key was absent from the spreadsheet stay that way.
type Summary struct {
	Message     string   `json:"message"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Deactivated int64    `json:"deactivated"`
	Ignored     int      `json:"ignored"`
	Details     []Detail `json:"details"`
}

func (s *Summary) finish(noun string) {
	s.Message = fmt.Sprintf(
		"Importação concluída. %d criados, %d atualizados (e ativados), e %d %s (que não estavam na planilha) desativados.",
		s.Created, s.Updated, s.Deactivated, noun)
}
