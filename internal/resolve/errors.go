package resolve

import (
	"fmt"
	"strings"
)

// ResolutionError reports that no usable interpreter or simulator could be
// located. It always carries the enumerated probable causes so the user
// knows which of the installation layouts to fix.
type ResolutionError struct {
	// Summary is the first line, e.g. "Unable to find any Python executable at path: '...'".
	Summary string
	// Causes are printed as a numbered list.
	Causes []string
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Summary)
	if len(e.Causes) > 0 {
		b.WriteString("\nThere are potentially the following reasons:")
		for i, cause := range e.Causes {
			fmt.Fprintf(&b, "\n\t%d. %s", i+1, cause)
		}
	}
	return b.String()
}

func (r *Resolver) causes(what, defaultPath string) []string {
	return []string{
		"Conda environment is not activated.",
		fmt.Sprintf("Isaac Sim pip package '%s' is not installed.", r.opts.MarkerPackage),
		fmt.Sprintf("%s is not available at the default path: %s", what, defaultPath),
	}
}

func (r *Resolver) interpreterError(path string) *ResolutionError {
	return &ResolutionError{
		Summary: fmt.Sprintf("Unable to find any Python executable at path: '%s'", path),
		Causes:  r.causes("Python executable", r.bundledPython()),
	}
}

func (r *Resolver) simulatorDirError(path string) *ResolutionError {
	return &ResolutionError{
		Summary: fmt.Sprintf("Unable to find the Isaac Sim directory: '%s'", path),
		Causes:  r.causes("Isaac Sim directory", r.bundledRoot()),
	}
}

func (r *Resolver) simulatorError(path string) *ResolutionError {
	return &ResolutionError{
		Summary: fmt.Sprintf("No Isaac Sim executable found at path: '%s'", path),
		Causes:  r.causes("Isaac Sim executable", r.bundledSimulator()),
	}
}
