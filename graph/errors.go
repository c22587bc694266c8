package graph

import "fmt"

// IntegrityError reports an edge that references a node the store does not
// hold. It fails the single offending mutation, never the process.
type IntegrityError struct {
	Source  string
	Target  string
	Type    EdgeType
	Missing string
}

// Error implements the error interface
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("graph integrity: edge %s -> %s (%s) references missing node %s",
		e.Source, e.Target, e.Type, e.Missing)
}
