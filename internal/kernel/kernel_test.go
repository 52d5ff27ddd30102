package kernel_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visualright/filterlab/internal/kernel"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		Name   string
		Kernel kernel.Kernel
		Valid  bool
	}{
		{"1x1", kernel.Kernel{{1}}, true},
		{"3x3", kernel.Kernel{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}, true},
		{"empty", kernel.Kernel{}, false},
		{"nil", nil, false},
		{"even", kernel.Kernel{{1, 0}, {0, 1}}, false},
		{"ragged", kernel.Kernel{{0, 0, 0}, {0, 1}, {0, 0, 0}}, false},
		{"not square", kernel.Kernel{{0, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}}, false},
		{"nan", kernel.Kernel{{0, 0, 0}, {0, math.NaN(), 0}, {0, 0, 0}}, false},
		{"inf", kernel.Kernel{{0, 0, 0}, {0, math.Inf(1), 0}, {0, 0, 0}}, false},
	}

	for _, test := range tests {
		err := test.Kernel.Validate()
		if test.Valid {
			assert.NoError(t, err, test.Name)
			continue
		}

		var kernelErr *kernel.InvalidKernelError
		assert.True(t, errors.As(err, &kernelErr), "%s: wrong error %v", test.Name, err)
	}
}

func TestRadius(t *testing.T) {
	assert.Equal(t, 0, kernel.Kernel{{1}}.Radius())
	assert.Equal(t, 1, kernel.Kernel{{0, 0, 0}, {0, 1, 0}, {0, 0, 0}}.Radius())

	k := make(kernel.Kernel, 5)
	for i := range k {
		k[i] = make([]float64, 5)
	}
	assert.Equal(t, 2, k.Radius())
}

func TestParse(t *testing.T) {
	k, err := kernel.Parse("0,-1,0; -1,5,-1 ;0,-1,0")
	require.NoError(t, err)

	sharpen, _ := kernel.Builtin(kernel.Sharpen)
	assert.True(t, k.Equal(sharpen))
	assert.Equal(t, "0,-1,0;-1,5,-1;0,-1,0", k.String())

	roundTrip, err := kernel.Parse(k.String())
	require.NoError(t, err)
	assert.True(t, roundTrip.Equal(k))

	for _, literal := range []string{"", "1,2;3,4", "a,b,c;d,e,f;g,h,i", "1,2,3", "NaN"} {
		_, err := kernel.Parse(literal)
		var kernelErr *kernel.InvalidKernelError
		assert.True(t, errors.As(err, &kernelErr), "%q: wrong error %v", literal, err)
	}
}

func TestNormalize(t *testing.T) {
	k := kernel.Kernel{{1, 2, 1}, {2, 4, 2}, {1, 2, 1}}
	n := k.Normalize()

	assert.InDelta(t, 1.0, n.Sum(), 1e-12)
	assert.InDelta(t, 0.25, n[1][1], 1e-12)
	assert.Equal(t, 4.0, k[1][1], "original kernel was modified")

	edge, _ := kernel.Builtin(kernel.EdgeDetect)
	assert.True(t, edge.Normalize().Equal(edge), "zero-sum kernel should be unchanged")
}

func TestBuiltins(t *testing.T) {
	for _, name := range []string{kernel.Identity, kernel.Blur, kernel.Sharpen, kernel.EdgeDetect} {
		k, ok := kernel.Builtin(name)
		require.True(t, ok, name)
		assert.NoError(t, k.Validate(), name)
	}

	blur, _ := kernel.Builtin(kernel.Blur)
	assert.InDelta(t, 1.0, blur.Sum(), 1e-12)

	// Callers get copies
	blur[1][1] = 42
	again, _ := kernel.Builtin(kernel.Blur)
	assert.InDelta(t, 1.0/9, again[1][1], 1e-12)

	_, ok := kernel.Builtin("nope")
	assert.False(t, ok)
}

func TestRegistry(t *testing.T) {
	registry, err := kernel.NewRegistry(kernel.Preset{Name: "Emboss", Kernel: kernel.Kernel{{-2, -1, 0}, {-1, 1, 1}, {0, 1, 2}}})
	require.NoError(t, err)

	t.Run("resolves presets case insensitively", func(t *testing.T) {
		k, err := registry.Resolve("SHARPEN")
		require.NoError(t, err)
		assert.Equal(t, 5.0, k[1][1])

		k, err = registry.Resolve("emboss")
		require.NoError(t, err)
		assert.Equal(t, -2.0, k[0][0])
	})

	t.Run("resolves matrix literals", func(t *testing.T) {
		k, err := registry.Resolve("2")
		require.NoError(t, err)
		assert.True(t, k.Equal(kernel.Kernel{{2}}))

		_, err = registry.Resolve("1,1;1,1")
		var kernelErr *kernel.InvalidKernelError
		assert.True(t, errors.As(err, &kernelErr))
	})

	t.Run("unknown presets", func(t *testing.T) {
		_, err := registry.Resolve("nope")
		assert.ErrorIs(t, err, kernel.ErrUnknownPreset)
	})

	t.Run("lists presets sorted", func(t *testing.T) {
		var names []string
		for _, p := range registry.Presets() {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"blur", "edge", "emboss", "identity", "sharpen"}, names)
	})

	t.Run("rejects bad custom presets", func(t *testing.T) {
		_, err := kernel.NewRegistry(kernel.Preset{Name: "blur", Kernel: kernel.Kernel{{1}}})
		assert.Error(t, err)

		_, err = kernel.NewRegistry(kernel.Preset{Name: "", Kernel: kernel.Kernel{{1}}})
		assert.Error(t, err)

		_, err = kernel.NewRegistry(kernel.Preset{Name: "even", Kernel: kernel.Kernel{{1, 1}, {1, 1}}})
		assert.Error(t, err)

		_, err = kernel.NewRegistry(kernel.Preset{Name: "a", Kernel: kernel.Kernel{{1}}}, kernel.Preset{Name: "A", Kernel: kernel.Kernel{{1}}})
		assert.Error(t, err)
	})
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	err := os.WriteFile(path, []byte(`presets:
  - name: gaussian
    normalize: true
    kernel: [[1, 2, 1], [2, 4, 2], [1, 2, 1]]
  - name: outline
    kernel:
      - [0, 1, 0]
      - [1, -4, 1]
      - [0, 1, 0]
`), 0644)
	require.NoError(t, err)

	registry, err := kernel.LoadRegistry(path)
	require.NoError(t, err)

	gaussian, err := registry.Get("gaussian")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, gaussian.Sum(), 1e-12)

	outline, err := registry.Get("outline")
	require.NoError(t, err)
	assert.Equal(t, -4.0, outline[1][1])

	builtinsOnly, err := kernel.LoadRegistry("")
	require.NoError(t, err)
	assert.Len(t, builtinsOnly.Presets(), 4)

	_, err = kernel.LoadRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
