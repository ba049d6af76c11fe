package models

// Badge is a static catalog entry. Condition is a declarative CEL expression
// over the "stats" and "event" variables; unlocking is a side effect of stats
// updates and is persisted only as the id appended to UserStats.Badges.
type Badge struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Condition   string `json:"condition"`
}
