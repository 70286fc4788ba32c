//go:build basic || database || integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/core/grid"
	"github.com/VANatHeritage/ConsVision-WtrshdImpactModel/internal/rasterio"
	"github.com/stretchr/testify/require"
)

var (
	// sharedWimPath holds the path to a shared wim binary built once for all tests.
	sharedWimPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getWimBinary returns the path to the wim binary, building it once if needed.
func getWimBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "wim-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		wimPath := filepath.Join(tempDir, "wim")
		buildCmd := exec.Command("go", "build", "-o", wimPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build wim: %v\n%s", err, out))
		}

		sharedWimPath = wimPath
	})

	return sharedWimPath
}

// workspaceManifest runs on prepared grids only, so no shapefiles are needed.
const workspaceManifest = `
name = "integration"

[grid]
reference = "procMask.asc"

[soils]
hydro_group = "hydroGroup.asc"
kfactor = "kfactor.asc"

[slope]
input = "slope.asc"
input_type = "DEGREES"
transform = "RUSLE"

[soil_loss]
rfactor = 180

[runoff]
rain = 3.1
land_cover = 31

[flow]
units = ["flow_west.asc", "flow_east.asc"]

[priority]
cons_mask = "consMask.asc"
rest_mask = "restMask.asc"
slices = 4

[output]
dir = "outputs"
`

// workspaceGeometry is an 8x8 lattice of 30 m cells.
var workspaceGeometry = grid.Geometry{Rows: 8, Cols: 8, CellSize: 30, XMin: 500000, YMax: 4200000}

// newWorkspace writes the manifest and its input grids into a fresh
// directory and returns the manifest path.
func newWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	geo := workspaceGeometry

	write := func(name string, fn func(row, col int) float64) {
		g := grid.Build(geo, func(i int) float64 { return fn(geo.RowCol(i)) })
		require.NoError(t, rasterio.Write(filepath.Join(dir, name), g, 3))
	}
	null := grid.Null()

	write("procMask.asc", func(int, int) float64 { return 1 })
	write("hydroGroup.asc", func(row, _ int) float64 { return float64(row%4 + 1) })
	write("kfactor.asc", func(_, col int) float64 { return 0.1 + 0.05*float64(col%4) })
	write("slope.asc", func(row, col int) float64 { return float64(row + 2*col) })
	write("flow_west.asc", func(row, col int) float64 {
		if col >= 4 {
			return null
		}
		return float64(40 * (row + col))
	})
	write("flow_east.asc", func(row, col int) float64 {
		if col < 4 {
			return null
		}
		return float64(60 * (row + col - 4))
	})
	write("consMask.asc", func(row, _ int) float64 { return float64(row % 2) })
	write("restMask.asc", func(row, _ int) float64 { return float64(1 - row%2) })

	path := filepath.Join(dir, "wim.toml")
	require.NoError(t, os.WriteFile(path, []byte(workspaceManifest), 0o644))
	return path
}

// runWim runs the binary with home as HOME so default SQLite files stay out
// of the real home directory. Extra env entries are appended.
func runWim(t *testing.T, home string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getWimBinary(), args...)
	cmd.Env = append(os.Environ(), "HOME="+home)
	cmd.Env = append(cmd.Env, env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		t.Logf("Command failed: %s\nStdout: %s\nStderr: %s", cmd.String(), stdout.String(), stderr.String())
	}
	return stdout.String(), err
}
