package s3

import (
	"strings"
	"testing"

	"authkit/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL_AWS(t *testing.T) {
	client, err := newClient(&config.Config{AWSRegion: "eu-west-1", S3BucketName: "avatars-bucket"})
	require.NoError(t, err)

	assert.Equal(t, "https://avatars-bucket.s3.eu-west-1.amazonaws.com/avatars/a/b.png", client.ObjectURL("avatars/a/b.png"))
}

func TestObjectURL_MinIO(t *testing.T) {
	client, err := newClient(&config.Config{
		AWSRegion:    "us-east-1",
		AWSEndpoint:  "http://localhost:9000",
		S3UseSSL:     "false",
		S3BucketName: "authkit",
	})
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/authkit/avatars/a/b.png", client.ObjectURL("avatars/a/b.png"))
}

func TestKeyFromURL(t *testing.T) {
	client, err := newClient(&config.Config{
		AWSRegion:    "us-east-1",
		AWSEndpoint:  "http://localhost:9000",
		S3UseSSL:     "false",
		S3BucketName: "authkit",
	})
	require.NoError(t, err)

	key, ok := client.KeyFromURL("http://localhost:9000/authkit/avatars/a/b.png")
	assert.True(t, ok)
	assert.Equal(t, "avatars/a/b.png", key)

	_, ok = client.KeyFromURL("https://cdn.example.com/me.png")
	assert.False(t, ok)
}

func TestAvatarKey(t *testing.T) {
	key := AvatarKey("acc-1", "Me.PNG")

	assert.True(t, strings.HasPrefix(key, "avatars/acc-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, AvatarKey("acc-1", "Me.PNG"))
}

func TestIsAvatarOf(t *testing.T) {
	assert.True(t, IsAvatarOf("acc-1", AvatarKey("acc-1", "me.png")))
	assert.False(t, IsAvatarOf("acc-1", AvatarKey("acc-2", "me.png")))
	assert.False(t, IsAvatarOf("acc-1", "avatars/acc-1/"))
	assert.False(t, IsAvatarOf("acc-1", "avatars/acc-1/../acc-2/me.png"))
	assert.False(t, IsAvatarOf("acc-1", "avatars/acc-10/me.png"))
	assert.False(t, IsAvatarOf("", "avatars//me.png"))
}

func TestNewClient_RequiresBucket(t *testing.T) {
	_, err := NewClient(t.Context(), &config.Config{AWSRegion: "us-east-1"})
	assert.Error(t, err)
}
