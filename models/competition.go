package models

// Competition is a roster catalog: a named set of teams split into pots.
type Competition struct {
	Slug  string `json:"slug" toml:"slug"`
	Name  string `json:"name" toml:"name"`
	Teams []Team `json:"teams" toml:"teams"`
}

// TeamsByPot returns the teams of pot in catalog order.
func (c *Competition) TeamsByPot(pot int) []Team {
	teams := make([]Team, 0, len(c.Teams)/PotCount)
	for _, t := range c.Teams {
		if t.Pot == pot {
			teams = append(teams, t)
		}
	}
	return teams
}

// TeamByID returns the team with the given id.
func (c *Competition) TeamByID(id int) (Team, bool) {
	for _, t := range c.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}
