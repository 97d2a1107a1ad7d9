package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCookies(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadCookies(t *testing.T) {
	path := writeCookies(t, `[
		{"name":"sid","value":"abc","domain":".remote.co","path":"/","expires":1900000000,"httpOnly":true,"secure":true,"sameSite":"Lax"},
		{"name":"pref","value":"dark","domain":"remote.co"}
	]`)

	cookies, err := LoadCookies(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	sid := cookies[0]
	assert.Equal(t, "sid", sid.Name)
	assert.Equal(t, ".remote.co", *sid.Domain)
	assert.Equal(t, float64(1900000000), *sid.Expires)
	assert.True(t, *sid.HttpOnly)
	assert.True(t, *sid.Secure)
	assert.Equal(t, playwright.SameSiteAttributeLax, sid.SameSite)

	pref := cookies[1]
	assert.Equal(t, "/", *pref.Path)
	assert.Nil(t, pref.Expires)
	assert.Nil(t, pref.HttpOnly)
	assert.Nil(t, pref.SameSite)
}

func TestLoadCookies_ExtensionExport(t *testing.T) {
	now := time.Unix(1_800_000_000, 0)
	path := writeCookies(t, `[
		{"name":"cf","value":"1","domain":".remote.co","path":"/","expirationDate":1900000000.5,"sameSite":"no_restriction"},
		{"name":"tmp","value":"1","domain":".remote.co","session":true,"expirationDate":1},
		{"name":"old","value":"1","domain":".remote.co","expirationDate":1700000000},
		{"name":"","value":"1","domain":".remote.co"},
		{"name":"nodomain","value":"1"}
	]`)

	cookies, err := loadCookies(path, now)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	cf := cookies[0]
	assert.Equal(t, "cf", cf.Name)
	assert.Equal(t, 1900000000.5, *cf.Expires)
	assert.Equal(t, playwright.SameSiteAttributeNone, cf.SameSite)
	assert.True(t, *cf.Secure)

	assert.Equal(t, "tmp", cookies[1].Name)
	assert.Nil(t, cookies[1].Expires)
}

func TestLoadCookies_Errors(t *testing.T) {
	_, err := LoadCookies(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadCookies(writeCookies(t, `{not json`))
	assert.ErrorContains(t, err, "parse cookies")
}
