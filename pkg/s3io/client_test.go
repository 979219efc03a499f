package s3io

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	bucket, key, err := ParseURI("s3://surveys/north-sea/vol.sz")
	require.NoError(t, err)
	require.Equal(t, "surveys", bucket)
	require.Equal(t, "north-sea/vol.sz", key)

	for _, uri := range []string{
		"",
		"surveys/vol.sz",
		"http://surveys/vol.sz",
		"s3://",
		"s3://surveys",
		"s3://surveys/",
		"s3:///vol.sz",
	} {
		_, _, err := ParseURI(uri)
		require.Error(t, err, "uri %q", uri)
	}
}

func TestIsURI(t *testing.T) {
	require.True(t, IsURI("s3://surveys/vol.sz"))
	require.False(t, IsURI("/data/vol.sz"))
	require.False(t, IsURI("vol.sz"))
}
