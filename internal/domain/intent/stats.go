package intent

// FlowStats is the per-flow slice of a profile's intent aggregate.
type FlowStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// Stats is the dashboard aggregate for one profile's intents.
type Stats struct {
	Total    int                    `json:"total"`
	ByFlow   map[FlowType]FlowStats `json:"by_flow"`
	Today    int                    `json:"today"`
	ThisWeek int                    `json:"this_week"`
}
