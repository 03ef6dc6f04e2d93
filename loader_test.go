// loader_test.go
package steps

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out a project directory from a map of relative
// paths to file contents.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func structureCode(t *testing.T, err error) string {
	t.Helper()
	se, ok := err.(*StructureError)
	require.True(t, ok, "expected a structure error, got %T: %v", err, err)
	return se.Code
}

func Test_Loader_HappyPath(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"calculator.building": `building: calculator
    call add_numbers with 2, 3 storing result in total
    display total
`,
		"math_utilities/math_utilities.floor": `floor: math_utilities
    step: add_numbers
`,
		"math_utilities/add_numbers.step": `step: add_numbers
    belongs to: math_utilities
    expects: a as number, b as number
    returns: total as number
    do:
        return a + b
`,
	})

	building, env, errs := LoadProject(dir)
	require.Empty(t, errs)
	require.NotNil(t, building)
	assert.Equal(t, "calculator", building.Name)
	assert.Equal(t, "calculator", env.BuildingName)

	step, err := env.GetStep("add_numbers", SourceLocation{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, step.Parameters)
	assert.Equal(t, "math_utilities", step.BelongsTo)

	require.Len(t, env.Floors, 1)
	assert.Equal(t, []string{"add_numbers"}, env.Floors["math_utilities"].Steps)
}

func Test_Loader_RunsLoadedProject(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"greeter.building": `building: greeter
    call greet with "Jo" storing result in message
    display message
`,
		"social/social.floor": `floor: social
    step: greet
`,
		"social/greet.step": `step: greet
    belongs to: social
    expects: who as text
    returns: message as text
    do:
        return "Hello, " added to who
`,
	})

	building, env, errs := LoadProject(dir)
	require.Empty(t, errs)

	env.Output = func(string) {}
	result := NewInterpreter(env).RunBuilding(building)
	require.NoError(t, result.Err)
	assert.Equal(t, []string{"Hello, Jo"}, result.OutputLines)
}

func Test_Loader_MissingDirectory(t *testing.T) {
	_, _, errs := LoadProject(filepath.Join(t.TempDir(), "no_such_project"))
	require.Len(t, errs, 1)
	assert.Equal(t, E001, structureCode(t, errs[0]))
}

func Test_Loader_NoBuildingFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"readme.txt": "not a steps project",
	})
	_, _, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E001, structureCode(t, errs[0]))
}

func Test_Loader_StepFilesWithoutFloor(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "hi"
`,
		"orphans/lonely.step": `step: lonely
    do:
        display "?"
`,
	})
	_, _, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E002, structureCode(t, errs[0]))
	assert.Contains(t, errs[0].Error(), "orphans")
}

func Test_Loader_DirectoryWithoutSteps_Ignored(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "hi"
`,
		"docs/notes.txt": "not code",
	})
	_, _, errs := LoadProject(dir)
	assert.Empty(t, errs)
}

func Test_Loader_BelongsToMismatch(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "hi"
`,
		"kitchen/kitchen.floor": `floor: kitchen
    step: bake
`,
		"kitchen/bake.step": `step: bake
    belongs to: bakery
    do:
        display "baking"
`,
	})
	_, env, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E003, structureCode(t, errs[0]))

	// The mismatched step is not registered.
	_, err := env.GetStep("bake", SourceLocation{})
	assert.Error(t, err)
}

func Test_Loader_BelongsToMissing(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "hi"
`,
		"kitchen/kitchen.floor": `floor: kitchen
    step: bake
`,
		"kitchen/bake.step": `step: bake
    do:
        display "baking"
`,
	})
	_, _, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E003, structureCode(t, errs[0]))
	assert.Contains(t, errs[0].Error(), "belongs to")
}

func Test_Loader_ListedStepFileMissing(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "hi"
`,
		"kitchen/kitchen.floor": `floor: kitchen
    step: bake
    step: fry
`,
		"kitchen/bake.step": `step: bake
    belongs to: kitchen
    do:
        display "baking"
`,
	})
	_, env, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E004, structureCode(t, errs[0]))
	assert.Contains(t, errs[0].Error(), "fry")

	// Loading continues past the missing file.
	_, err := env.GetStep("bake", SourceLocation{})
	assert.NoError(t, err)
}

func Test_Loader_ManifestEntryOverride(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"steps.yaml": "name: custom\nentry: start_here.building\n",
		"start_here.building": `building: custom
    display "manifest entry"
`,
		"ignored.building": `building: ignored
    display "wrong one"
`,
	})
	building, _, errs := LoadProject(dir)
	require.Empty(t, errs)
	assert.Equal(t, "custom", building.Name)
}

func Test_Loader_ManifestEntryMissing(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"steps.yaml": "entry: nowhere.building\n",
		"app.building": `building: app
    display "hi"
`,
	})
	_, _, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E001, structureCode(t, errs[0]))
	assert.Contains(t, errs[0].Error(), "nowhere.building")
}

func Test_Loader_MalformedManifest(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"steps.yaml": "name: [unclosed\n",
		"app.building": `building: app
    display "hi"
`,
	})
	building, _, errs := LoadProject(dir)
	require.Len(t, errs, 1)
	assert.Equal(t, E001, structureCode(t, errs[0]))
	// The building still loads via the fallback search.
	require.NotNil(t, building)
	assert.Equal(t, "app", building.Name)
}

func Test_Loader_ParseErrorsCollected(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"app.building": `building: app
    display "ok"
`,
		"a/a.floor": `floor: a
    step: broken
`,
		"a/broken.step": `step: broken
    do:
        set to to
`,
	})
	building, _, errs := LoadProject(dir)
	require.NotEmpty(t, errs)
	// Structural loading still succeeds for the building itself.
	require.NotNil(t, building)
	for _, err := range errs {
		_, ok := err.(*ParseError)
		assert.True(t, ok, "expected parse errors, got %T", err)
	}
}

func Test_Loader_LoadBuildingSource(t *testing.T) {
	building, errs := LoadBuildingSource(`building: inline
    display "hi"
`, "inline")
	require.Empty(t, errs)
	assert.Equal(t, "inline", building.Name)

	_, errs = LoadBuildingSource("display \"no header\"\n", "bad")
	require.NotEmpty(t, errs)
}
