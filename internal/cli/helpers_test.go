package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const singleAddGraph = `nodes:
  - name: x
    op: placeholder
  - name: y
    op: placeholder
  - name: add
    op: call_function
    target: accel.add
    args: [{ref: x}, {ref: y}]
  - op: output
    results: [{ref: add}]
`

const singleAddRewritten = `%x = placeholder
%y = placeholder
%from_host = accel.from_host(%x)
%to_device = accel.to_device(%from_host, device(accel:0))
%from_host_1 = accel.from_host(%y)
%to_device_1 = accel.to_device(%from_host_1, device(accel:0))
%add = accel.add(%to_device, %to_device_1)
%from_device = accel.from_device(%add)
%to_layout = accel.to_layout(%from_device, layout(ROW_MAJOR_LAYOUT))
%to_host = accel.to_host(%to_layout)
return (%to_host)
`

const hostOnlyGraph = `nodes:
  - name: x
    op: placeholder
  - name: relu
    op: call_function
    target: host.relu
    args: [{ref: x}]
  - op: output
    results: [{ref: relu}]
`

const geluGraph = `nodes:
  - name: x
    op: placeholder
  - name: gelu
    op: call_function
    target: accel.gelu
    args: [{ref: x}]
  - op: output
    results: [{ref: gelu}]
`

const npuProfiles = `package profiles

profile: npu_lite: {
	device:           "npu:1"
	row_major_layout: "NPU_ROW_MAJOR"
	compute_ops: ["accel.add", "accel.gelu"]
}
`

// writeFile writes content to name under a fresh temp dir and returns its path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeGraph(t *testing.T, content string) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "graph.yaml", content)
}

func writeProfiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "profiles.cue", npuProfiles)
	return dir
}

// execute runs cmd with args and returns stdout, stderr and the error.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
