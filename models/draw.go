package models

import "time"

// DrawRecord хранит результат одного запуска жеребьёвки вместе с расписанием.
// Записи не изменяются: новый запуск создаёт новую запись.
type DrawRecord struct {
	ID          string     `json:"id" db:"id"`
	Competition string     `json:"competition" db:"competition"`
	Seed        int64      `json:"seed" db:"seed"`
	Attempts    int        `json:"attempts" db:"attempts"`
	Degraded    bool       `json:"degraded" db:"degraded"`
	Results     []TeamDraw `json:"results" db:"results"`
	Rounds      []Round    `json:"rounds" db:"rounds"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	ExportURL *string `json:"export_url,omitempty" db:"export_url"`
}

// DrawSummary is the list view of a DrawRecord without the heavy payload.
type DrawSummary struct {
	ID          string    `json:"id" db:"id"`
	Competition string    `json:"competition" db:"competition"`
	Seed        int64     `json:"seed" db:"seed"`
	Attempts    int       `json:"attempts" db:"attempts"`
	Degraded    bool      `json:"degraded" db:"degraded"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TeamByID returns the TeamDraw of teamID.
func (r *DrawRecord) TeamByID(teamID int) (*TeamDraw, bool) {
	for i := range r.Results {
		if r.Results[i].Team.ID == teamID {
			return &r.Results[i], true
		}
	}
	return nil, false
}
