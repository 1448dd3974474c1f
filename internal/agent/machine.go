package agent

import "github.com/bowerhall/rumbo/internal/router"

// Next returns the node that follows from after the router made decision d.
// Generate is the only node whose successor depends on the decision.
func Next(from Node, d router.Decision) Node {
	switch from {
	case Start:
		return Generate
	case Generate:
		switch d {
		case router.ExecuteTools:
			return ExecuteTools
		case router.RequestApproval:
			return RequestApproval
		default:
			return Terminal
		}
	default:
		return Terminal
	}
}
