package bundles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagsmith/bundle-registry-server/internal/config"
)

func testServerConfig() *config.Config {
	return &config.Config{
		DagsFolder:             "/opt/dagsmith/dags",
		DefaultRefreshInterval: "5m",
	}
}

func strPtr(s string) *string {
	return &s
}

func TestParseConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		raw           *string
		expectedNames []string
		wantFormatErr bool
		wantShapeErr  bool
		errorContains string
	}{
		{
			name:          "absent setting yields the default bundle",
			raw:           nil,
			expectedNames: []string{"dags-folder"},
		},
		{
			name:          "empty object yields zero bundles",
			raw:           strPtr("{}"),
			expectedNames: []string{},
		},
		{
			name:          "empty list yields zero bundles",
			raw:           strPtr("[]"),
			expectedNames: []string{},
		},
		{
			name: "single entry",
			raw: strPtr(`[{"name": "my-bundle", "classpath": "dagsmith.bundles.local",
				"kwargs": {"local_folder": "/tmp/hihi", "refresh_interval": 1}}]`),
			expectedNames: []string{"my-bundle"},
		},
		{
			name: "entries keep configuration order",
			raw: strPtr(`[{"name": "b", "classpath": "dagsmith.bundles.local"},
				{"name": "a", "classpath": "dagsmith.bundles.local"}]`),
			expectedNames: []string{"b", "a"},
		},
		{
			name:          "scalar is not a list",
			raw:           strPtr("1"),
			wantShapeErr:  true,
			errorContains: "bundle config is not a list",
		},
		{
			name:          "non-empty object is not a list",
			raw:           strPtr(`{"name": "my-bundle"}`),
			wantShapeErr:  true,
			errorContains: "bundle config is not a list",
		},
		{
			name:          "invalid json",
			raw:           strPtr("abc"),
			wantFormatErr: true,
			errorContains: `unable to parse "abc" as valid json`,
		},
		{
			name:          "entry is not an object",
			raw:           strPtr(`["my-bundle"]`),
			wantShapeErr:  true,
			errorContains: "entry 0 is not an object",
		},
		{
			name:          "entry missing name",
			raw:           strPtr(`[{"classpath": "dagsmith.bundles.local"}]`),
			wantShapeErr:  true,
			errorContains: "missing required field 'name'",
		},
		{
			name:          "entry missing classpath",
			raw:           strPtr(`[{"name": "my-bundle"}]`),
			wantShapeErr:  true,
			errorContains: "missing required field 'classpath'",
		},
		{
			name:          "kwargs must be an object",
			raw:           strPtr(`[{"name": "my-bundle", "classpath": "dagsmith.bundles.local", "kwargs": 5}]`),
			wantShapeErr:  true,
			errorContains: "kwargs must be an object",
		},
		{
			name: "duplicate names are fatal",
			raw: strPtr(`[{"name": "my-bundle", "classpath": "dagsmith.bundles.local"},
				{"name": "my-bundle", "classpath": "dagsmith.bundles.git"}]`),
			wantShapeErr:  true,
			errorContains: "duplicate bundle name 'my-bundle'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			entries, err := ParseConfig(tt.raw, testServerConfig())

			if tt.wantFormatErr || tt.wantShapeErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				if tt.wantFormatErr {
					var formatErr *FormatError
					assert.ErrorAs(t, err, &formatErr)
				}
				if tt.wantShapeErr {
					var shapeErr *ShapeError
					assert.ErrorAs(t, err, &shapeErr)
				}
				return
			}

			require.NoError(t, err)
			names := make([]string, 0, len(entries))
			for _, entry := range entries {
				names = append(names, entry.Name)
			}
			assert.Equal(t, tt.expectedNames, names)
		})
	}
}

func TestParseConfigDefaultEntry(t *testing.T) {
	t.Parallel()

	entries, err := ParseConfig(nil, testServerConfig())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, DefaultBundleName, entry.Name)
	assert.Equal(t, LocalBundleClasspath, entry.Classpath)
	assert.Equal(t, "/opt/dagsmith/dags", entry.Kwargs["local_folder"])
	assert.Equal(t, (5 * time.Minute).String(), entry.Kwargs["refresh_interval"])
}

func TestParseConfigKwargsDefaultEmpty(t *testing.T) {
	t.Parallel()

	entries, err := ParseConfig(strPtr(`[{"name": "my-bundle", "classpath": "dagsmith.bundles.local"}]`), testServerConfig())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotNil(t, entries[0].Kwargs)
	assert.Empty(t, entries[0].Kwargs)
}
