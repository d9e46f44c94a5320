package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileURL(t *testing.T) {
	assert.Equal(t, "http://localhost:3000/image/profile/images/pic.png", ProfileURL("http", "localhost:3000", "pic.png"))
	assert.Equal(t, "https://h/image/profile/Default.png", DefaultURL("https", "h"))
}

func TestFilenameOf(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"http://h/image/profile/images/pic1.png", "pic1.png"},
		{"http://h/image/profile/Default.png", ""},
		{"http://h/image/profile/images/Default.png", "Default.png"},
		{"", ""},
		{"http://h/image/profile/images/../../etc/passwd", "../../etc/passwd"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, FilenameOf(tc.ref), tc.ref)
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, validName("123_abc.png"))
	for _, bad := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`, ".upload-123", ".hidden.png"} {
		assert.False(t, validName(bad), bad)
	}
}
