package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverDefaults(t *testing.T) {
	r := NewResolver(DefaultDirectories())

	tests := []struct {
		category Category
		want     string
	}{
		{ProfileImage, filepath.Join("storage", "images", "profile")},
		{TeamImage, filepath.Join("storage", "images", "teams")},
		{Video, filepath.Join("storage", "videos")},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			dir, err := r.Resolve(tt.category)
			require.NoError(t, err)
			assert.Equal(t, tt.want, dir)
		})
	}
}

func TestResolverUnsupportedDestination(t *testing.T) {
	r := NewResolver(map[Category]string{
		ProfileImage: "profiles",
		Video:        "",
	})

	_, err := r.Resolve(Video)
	assert.ErrorIs(t, err, ErrUnsupportedDestination)

	_, err = r.Resolve(TeamImage)
	assert.ErrorIs(t, err, ErrUnsupportedDestination)

	assert.Equal(t, []string{"profiles"}, r.Dirs())
}

func TestResolverDirsOrder(t *testing.T) {
	r := NewResolver(map[Category]string{
		Video:        "v",
		TeamImage:    "t",
		ProfileImage: "p",
	})
	assert.Equal(t, []string{"p", "t", "v"}, r.Dirs())
}
