package task

import (
	"fmt"
	"strings"

	"github.com/an4xdev/SprintForge/pkg/cerr"
)

const (
	StatusCreated  = "Created"
	StatusAssigned = "Assigned"
	StatusStarted  = "Started"
	StatusPaused   = "Paused"
	StatusStopped  = "Stopped"
)

// Status is a row of the status catalogue.
type Status struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Target is a status a client may move a task into.
type Target string

const (
	TargetStarted = Target(StatusStarted)
	TargetPaused  = Target(StatusPaused)
	TargetStopped = Target(StatusStopped)
)

var allTargets = []Target{TargetStarted, TargetPaused, TargetStopped}

// allowedEdges narrows the targets reachable from a known status. Statuses
// missing from the table, such as catalogue rows added by operators, reach
// every target. A paused task can be paused again and a stopped task can be
// restarted.
var allowedEdges = map[string][]Target{
	StatusCreated:  allTargets,
	StatusAssigned: allTargets,
	StatusStarted:  allTargets,
	StatusPaused:   allTargets,
	StatusStopped:  allTargets,
}

func ParseTarget(s string) (Target, error) {
	for _, t := range allTargets {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown target status %q", s), nil)
}

// CanTransition reports whether from → to is an allowed edge.
func CanTransition(from string, to Target) bool {
	targets, ok := allowedEdges[from]
	if !ok {
		targets = allTargets
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}
