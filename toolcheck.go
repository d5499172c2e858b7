package pybuild

import (
	"fmt"
	"os/exec"
	"strings"
)

// execLookPath is exec.LookPath, replaceable in tests.
var execLookPath = exec.LookPath

// PythonEnv names the environment variable that overrides interpreter
// discovery.
const PythonEnv = "PYTHON"

// ToolRequirement names an executable the build depends on.
//
// The requirement is met by Name or by any of Alternatives, tried in that
// order. On Windows the Python launcher is commonly the only interpreter on
// PATH:
//
//	ToolRequirement{
//	    Name:         "python3",
//	    Alternatives: []string{"python", "py"},
//	}
type ToolRequirement struct {
	Name         string
	Alternatives []string

	// Optional requirements never make CheckRequiredTools fail.
	Optional bool

	// Purpose is shown next to the tool name when it is missing.
	Purpose string
}

// Standard tool requirements.
var (
	PythonRequirement = ToolRequirement{
		Name:         "python3",
		Alternatives: []string{"python", "py"},
		Purpose:      "Python interpreter for loading modules",
	}
	CMakeRequirement = ToolRequirement{
		Name:    "cmake",
		Purpose: "CMake build system",
	}
)

// CheckToolAvailable returns an error naming tool if it is not in PATH.
func CheckToolAvailable(tool string) error {
	_, err := execLookPath(tool)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// FindTool resolves a requirement to an executable path.
//
// # Parameters
//
//   - req: The requirement; req.Name is tried first, then each of
//     req.Alternatives in order
//
// # Returns
//
// Returns the path of the first name found in PATH. When none is found the
// error names req.Name and, if set, req.Purpose. req.Optional is ignored
// here; it only matters to CheckRequiredTools.
//
// # Example
//
//	python, err := pybuild.FindTool(pybuild.PythonRequirement)
//	if err != nil {
//	    return err // python3 not found in PATH (required for: ...)
//	}
func FindTool(req ToolRequirement) (string, error) {
	for _, name := range append([]string{req.Name}, req.Alternatives...) {
		if path, err := execLookPath(name); err == nil {
			return path, nil
		}
	}
	if req.Purpose != "" {
		return "", fmt.Errorf("%s not found in PATH (required for: %s)", req.Name, req.Purpose)
	}
	return "", fmt.Errorf("%s not found in PATH", req.Name)
}

// FindPython selects the interpreter used for fallback module loading:
// the PYTHON environment variable if set, otherwise the first of python3,
// python and py found in PATH.
func FindPython(lookupEnv LookupEnvFunc) (string, error) {
	if python, ok := lookupEnvOrDefault(lookupEnv)(PythonEnv); ok && python != "" {
		return python, nil
	}
	return FindTool(PythonRequirement)
}

// CheckRequiredTools reports every non-optional requirement that FindTool
// cannot satisfy, in one error:
//
//	cmake (CMake build system) not found in PATH
//	missing required tools: cmake (CMake build system), ninja
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		if _, err := FindTool(req); err == nil || req.Optional {
			continue
		}

		if req.Purpose != "" {
			missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missingTools = append(missingTools, req.Name)
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}
