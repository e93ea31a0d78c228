package mindmap

import "math"

// Progress is the answered fraction of a project's countable nodes.
type Progress struct {
	Total    int `json:"total"`
	Answered int `json:"answered"`
	Percent  int `json:"percent"`
}

// CalcProgress computes progress over a flat node snapshot. Only
// question-type nodes below the root count; green and ai both count as
// answered; tip nodes never count regardless of status. Pure and
// idempotent — recomputing on an unchanged snapshot yields the same
// result.
func CalcProgress(nodes []*Node) Progress {
	var p Progress
	for _, n := range nodes {
		if !n.Countable() {
			continue
		}
		p.Total++
		if n.Status.Answered() {
			p.Answered++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(100 * float64(p.Answered) / float64(p.Total)))
	}
	return p
}
