package analytics

import "fmt"

// InsufficientDataError reports a statistical operation whose sample is too
// small to be meaningful
type InsufficientDataError struct {
	NodeType   string
	SampleSize int
	Required   int
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s analysis: have %d samples, need %d",
		e.NodeType, e.SampleSize, e.Required)
}

// InvalidParameterError reports a request parameter outside its accepted
// domain
type InvalidParameterError struct {
	Param  string
	Value  interface{}
	Reason string
}

// Error implements the error interface
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Param, e.Value, e.Reason)
}

// NotFoundError reports a node id the graph does not hold
type NotFoundError struct {
	ID string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node %s not found", e.ID)
}
