// version_test.go
package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUserAgentHeader(t *testing.T) {
	assert.Equal(t, "go-noclist-client/0.1.0", GetUserAgentHeader())
}

func TestUserAgentFollowsLinkerOverride(t *testing.T) {
	saved := Version
	t.Cleanup(func() { Version = saved })

	Version = "1.2.3-rc1"

	assert.Equal(t, "1.2.3-rc1", GetVersion())
	assert.Equal(t, GetAppName()+"/1.2.3-rc1", GetUserAgentHeader())
}
