// loader.go: project discovery and registration
//
// A Steps project is a directory:
//
//	project_name/
//	├── project_name.building    entry point
//	├── steps.yaml               optional manifest
//	├── floor_one/
//	│   ├── floor_one.floor
//	│   ├── step_a.step
//	│   └── step_b.step
//	└── floor_two/
//	    ├── floor_two.floor
//	    └── step_c.step
//
// The loader parses every file, validates the structure against the
// floor declarations, and registers all steps and floors with one
// Environment.
package steps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goccy/go-yaml"
)

// Manifest is the optional steps.yaml at the project root. It can
// rename the project and point at a non-default building file.
type Manifest struct {
	Name  string `yaml:"name"`
	Entry string `yaml:"entry"`
}

// LoadResult reports a project load: the building entry point plus
// every error found across the project files.
type LoadResult struct {
	Building *Building
	Errors   []error
}

// Success is true when the project loaded with no errors.
func (r *LoadResult) Success() bool { return len(r.Errors) == 0 }

func (r *LoadResult) addError(err error) {
	r.Errors = append(r.Errors, err)
}

// Loader discovers and loads one project directory.
type Loader struct {
	ProjectPath string
}

// NewLoader creates a loader for the project directory.
func NewLoader(projectPath string) *Loader {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		abs = projectPath
	}
	return &Loader{ProjectPath: abs}
}

// Load reads the whole project into env. Floors keep loading past a
// broken file so one run reports every problem.
func (l *Loader) Load(env *Environment) *LoadResult {
	result := &LoadResult{}

	info, err := os.Stat(l.ProjectPath)
	if err != nil {
		e := structureError(E001, SourceLocation{File: l.ProjectPath})
		e.Message = fmt.Sprintf("Project directory '%s' does not exist.", l.ProjectPath)
		e.Hint = "Check that the path is correct and the directory exists."
		result.addError(e)
		return result
	}
	if !info.IsDir() {
		e := structureError(E001, SourceLocation{File: l.ProjectPath})
		e.Message = fmt.Sprintf("'%s' is not a directory.", l.ProjectPath)
		e.Hint = "Steps projects must be directories, not single files."
		result.addError(e)
		return result
	}

	manifest := l.readManifest(result)

	buildingFile, ok := l.findBuildingFile(manifest, result)
	if !ok {
		return result
	}

	building, ok := l.loadBuilding(buildingFile, result)
	if !ok {
		return result
	}
	env.BuildingName = building.Name

	entries, err := os.ReadDir(l.ProjectPath)
	if err != nil {
		e := structureError(E001, SourceLocation{File: l.ProjectPath})
		e.Message = fmt.Sprintf("Could not read project directory: %v", err)
		result.addError(e)
		return result
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		floorDir := filepath.Join(l.ProjectPath, entry.Name())
		floorFile := filepath.Join(floorDir, entry.Name()+".floor")
		if _, err := os.Stat(floorFile); err != nil {
			// A directory holding .step files needs a floor definition.
			if hasStepFiles(floorDir) {
				result.addError(structureError(E002,
					SourceLocation{File: floorDir},
					"floor_name", entry.Name()))
			}
			continue
		}
		l.loadFloor(floorFile, floorDir, env, result)
	}

	result.Building = building
	return result
}

// readManifest parses steps.yaml when present. A missing manifest is
// not an error; a malformed one is.
func (l *Loader) readManifest(result *LoadResult) *Manifest {
	path := filepath.Join(l.ProjectPath, "steps.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		e := structureError(E001, SourceLocation{File: path})
		e.Message = fmt.Sprintf("Could not parse steps.yaml: %v", err)
		e.Hint = "The manifest must be valid YAML with optional 'name' and 'entry' keys."
		result.addError(e)
		return nil
	}
	return &m
}

// findBuildingFile locates the entry point: the manifest's entry if
// set, then <dirname>.building, then any *.building file.
func (l *Loader) findBuildingFile(manifest *Manifest, result *LoadResult) (string, bool) {
	if manifest != nil && manifest.Entry != "" {
		path := filepath.Join(l.ProjectPath, manifest.Entry)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
		e := structureError(E001, SourceLocation{File: path})
		e.Message = fmt.Sprintf("Manifest entry '%s' does not exist.", manifest.Entry)
		e.Hint = "Point 'entry' in steps.yaml at an existing .building file."
		result.addError(e)
		return "", false
	}

	name := filepath.Base(l.ProjectPath)
	path := filepath.Join(l.ProjectPath, name+".building")
	if _, err := os.Stat(path); err == nil {
		return path, true
	}

	matches, _ := filepath.Glob(filepath.Join(l.ProjectPath, "*.building"))
	sort.Strings(matches)
	if len(matches) > 0 {
		return matches[0], true
	}

	e := structureError(E001, SourceLocation{File: l.ProjectPath})
	e.Hint = fmt.Sprintf("Create a file named '%s.building' in the project directory.", name)
	result.addError(e)
	return "", false
}

func (l *Loader) loadBuilding(path string, result *LoadResult) (*Building, bool) {
	source, ok := l.readSource(path, "building", result)
	if !ok {
		return nil, false
	}
	building, parseErrs, err := ParseBuildingSource(source, path)
	if err != nil {
		result.addError(err)
		return nil, false
	}
	if len(parseErrs) > 0 {
		for _, pe := range parseErrs {
			result.addError(pe)
		}
		return nil, false
	}
	return building, true
}

// loadFloor parses a floor file, registers it and loads every step it
// declares.
func (l *Loader) loadFloor(floorFile, floorDir string, env *Environment, result *LoadResult) {
	source, ok := l.readSource(floorFile, "floor", result)
	if !ok {
		return
	}
	floor, parseErrs, err := ParseFloorSource(source, floorFile)
	if err != nil {
		result.addError(err)
		return
	}
	if len(parseErrs) > 0 {
		for _, pe := range parseErrs {
			result.addError(pe)
		}
		return
	}

	env.RegisterFloor(&FloorDef{
		Name:     floor.Name,
		Steps:    floor.Steps,
		FilePath: floorFile,
	})

	for _, stepName := range floor.Steps {
		stepFile := filepath.Join(floorDir, stepName+".step")
		if _, err := os.Stat(stepFile); err != nil {
			result.addError(structureError(E004,
				SourceLocation{File: floorFile},
				"step_name", stepName))
			continue
		}
		l.loadStep(stepFile, floor.Name, env, result)
	}
}

// loadStep parses a step file, checks its belongs-to declaration
// against the floor it sits in, and registers it.
func (l *Loader) loadStep(stepFile, floorName string, env *Environment, result *LoadResult) {
	source, ok := l.readSource(stepFile, "step", result)
	if !ok {
		return
	}
	step, parseErrs, err := ParseStepSource(source, stepFile)
	if err != nil {
		result.addError(err)
		return
	}
	if len(parseErrs) > 0 {
		for _, pe := range parseErrs {
			result.addError(pe)
		}
		return
	}

	if step.BelongsTo == "" {
		e := structureError(E003, SourceLocation{File: stepFile, Line: step.Loc().Line})
		e.Message = fmt.Sprintf("Step '%s' does not declare which floor it belongs to.", step.Name)
		e.Hint = fmt.Sprintf("Add 'belongs to: %s' after the step name.", floorName)
		result.addError(e)
		return
	}
	if step.BelongsTo != floorName {
		result.addError(structureError(E003,
			SourceLocation{File: stepFile, Line: step.Loc().Line},
			"expected_floor", step.BelongsTo,
			"actual_floor", floorName))
		return
	}

	env.RegisterStep(stepDefFromNode(step, stepFile))
}

func (l *Loader) readSource(path, kind string, result *LoadResult) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		e := structureError(E001, SourceLocation{File: path})
		e.Message = fmt.Sprintf("Could not read %s file: %v", kind, err)
		e.Hint = "Check file permissions and encoding."
		result.addError(e)
		return "", false
	}
	return string(data), true
}

// stepDefFromNode converts a parsed step into its registry form.
func stepDefFromNode(step *Step, filePath string) *StepDef {
	risers := make(map[string]*RiserDef, len(step.Risers))
	for i := range step.Risers {
		r := &step.Risers[i]
		risers[r.Name] = &RiserDef{
			Name:         r.Name,
			Parameters:   parameterNames(r.Expects),
			Returns:      returnName(r.Returns),
			Declarations: r.Declarations,
			Body:         r.Body,
		}
	}
	return &StepDef{
		Name:         step.Name,
		BelongsTo:    step.BelongsTo,
		Parameters:   parameterNames(step.Expects),
		Returns:      returnName(step.Returns),
		Declarations: step.Declarations,
		Body:         step.Body,
		Risers:       risers,
		FilePath:     filePath,
	}
}

func parameterNames(params []Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func returnName(r *ReturnDecl) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func hasStepFiles(dir string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.step"))
	return len(matches) > 0
}

// LoadProject loads a project directory into a fresh environment.
func LoadProject(projectPath string) (*Building, *Environment, []error) {
	env := NewEnvironment()
	result := NewLoader(projectPath).Load(env)
	return result.Building, env, result.Errors
}

// LoadBuildingSource parses building source without touching the
// filesystem, as the REPL and tests do.
func LoadBuildingSource(source, name string) (*Building, []error) {
	building, parseErrs, err := ParseBuildingSource(source, name+".building")
	if err != nil {
		return nil, []error{err}
	}
	if len(parseErrs) > 0 {
		errs := make([]error, len(parseErrs))
		for i, pe := range parseErrs {
			errs[i] = pe
		}
		return nil, errs
	}
	return building, nil
}
