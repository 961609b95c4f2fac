package model

import "time"

// HistoryEntry is an archived allocation of a finished (or reference) project.
// Its percentages can be copied into a new study as a reference.
type HistoryEntry struct {
	ID          string             `json:"id"`
	Kind        Kind               `json:"kind"`
	ProjectName string             `json:"nome"`
	Date        string             `json:"data"` // YYYY-MM-DD
	Percentages map[string]float64 `json:"percentuais"`
	CreatedAt   time.Time          `json:"created_at"`
}
