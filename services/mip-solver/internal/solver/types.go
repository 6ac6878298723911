package solver

// ColumnValue matches the optimizer's RemoteClient decoding shape:
// {"columns": {"x_a1_r1": {"Primal": 1}}}.
type ColumnValue struct {
	Primal float64 `json:"Primal"`
}

// Response is the JSON body returned to the optimizer's dispatcher.
type Response struct {
	Status         string                 `json:"status"`
	ObjectiveValue float64                `json:"objectiveValue"`
	Columns        map[string]ColumnValue `json:"columns"`
	SolveTimeMs    int64                  `json:"solveTimeMs"`
}

// ToResponse converts a solve Result into the wire shape.
func (r Result) ToResponse() Response {
	columns := make(map[string]ColumnValue, len(r.Columns))
	for v, val := range r.Columns {
		columns[v] = ColumnValue{Primal: val}
	}
	return Response{
		Status:         string(r.Status),
		ObjectiveValue: r.ObjectiveValue,
		Columns:        columns,
		SolveTimeMs:    r.SolveTimeMs,
	}
}
