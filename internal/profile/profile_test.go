package profile

import (
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
)

func compileString(t *testing.T, src, path string) (*classify.Profile, error) {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("inline.cue"))
	require.NoError(t, v.Err())
	return Compile(v.LookupPath(cue.ParsePath(path)))
}

func TestCompile_Basic(t *testing.T) {
	p, err := compileString(t, `
		profile: npu: {
			device: "npu:0"
			row_major_layout: "RM"
			compute_ops: ["accel.add", "accel.matmul"]
		}
	`, "profile.npu")
	require.NoError(t, err)

	assert.Equal(t, "npu", p.Name)
	assert.Equal(t, ir.Device("npu:0"), p.Device)
	assert.Equal(t, ir.Layout("RM"), p.RowMajor)
	assert.Equal(t, []ir.Target{"accel.add", "accel.matmul"}, p.ComputeOps)
}

func TestCompile_DefaultsLayout(t *testing.T) {
	p, err := compileString(t, `
		profile: small: {
			device: "accel:0"
			compute_ops: []
		}
	`, "profile.small")
	require.NoError(t, err)
	assert.Equal(t, classify.DefaultRowMajor, p.RowMajor)
	assert.Empty(t, p.ComputeOps)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
		msg   string
	}{
		{
			name:  "missing device",
			src:   `profile: p: { compute_ops: ["accel.add"] }`,
			field: "device",
			msg:   "device is required",
		},
		{
			name:  "missing compute ops",
			src:   `profile: p: { device: "accel:0" }`,
			field: "compute_ops",
			msg:   "compute_ops is required",
		},
		{
			name:  "non-string op",
			src:   `profile: p: { device: "accel:0", compute_ops: [1] }`,
			field: "compute_ops",
		},
		{
			name:  "transfer op listed",
			src:   `profile: p: { device: "accel:0", compute_ops: ["accel.from_host"] }`,
			field: "profile",
			msg:   "transfer primitive accel.from_host cannot be a compute op",
		},
		{
			name:  "device not a string",
			src:   `profile: p: { device: 3, compute_ops: [] }`,
			field: "device",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src, "profile.p")
			require.Error(t, err)

			var cerr *CompileError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
			if tt.msg != "" {
				assert.Contains(t, cerr.Message, tt.msg)
			}
		})
	}
}

func TestCompileError_Format(t *testing.T) {
	_, err := compileString(t, "profile: p: {\n\tcompute_ops: []\n}\n", "profile.p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inline.cue:")
	assert.Contains(t, err.Error(), "device: device is required")

	plain := &CompileError{Field: "device", Message: "device is required"}
	assert.Equal(t, "device: device is required", plain.Error())
}

func TestLoad_Directory(t *testing.T) {
	set, err := Load(filepath.Join("testdata", "profiles"))
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "npu_lite"}, set.Names())

	def, err := set.Get("default")
	require.NoError(t, err)
	assert.Equal(t, classify.DefaultProfile(), def)

	lite, err := set.Get("npu_lite")
	require.NoError(t, err)
	assert.Equal(t, ir.Device("npu:1"), lite.Device)
	assert.Equal(t, ir.Layout("NPU_ROW_MAJOR"), lite.RowMajor)

	_, err = set.Get("missing")
	assert.ErrorContains(t, err, `profile "missing" not found`)
}

func TestLoad_InvalidProfile(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile.bad")
	assert.ErrorIs(t, err, classify.ErrInvalidProfile)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "nope"))
	assert.Error(t, err)

	_, err = Load(t.TempDir())
	assert.ErrorContains(t, err, "no CUE files")
}

func TestResolve(t *testing.T) {
	p, err := Resolve("", "")
	require.NoError(t, err)
	assert.Equal(t, classify.DefaultProfile(), p)

	_, err = Resolve("", "npu_lite")
	assert.Error(t, err)

	p, err = Resolve(filepath.Join("testdata", "profiles"), "npu_lite")
	require.NoError(t, err)
	assert.Equal(t, "npu_lite", p.Name)
}
