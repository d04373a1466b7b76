package hostid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func stubHostnames(t *testing.T, fqdnName string, fqdnErr error, osName string) {
	oldFQDN, oldOS := fqdnHostname, osHostname
	fqdnHostname = func() (string, error) { return fqdnName, fqdnErr }
	osHostname = func() (string, error) { return osName, nil }
	t.Cleanup(func() {
		fqdnHostname, osHostname = oldFQDN, oldOS
	})
}

func TestExplicitHostnameWins(t *testing.T) {
	stubHostnames(t, "lpar01.example.com", nil, "lpar01")
	assert.Equal(t, map[string]string{"host": "myhost"}, Dimensions("myhost", nil))
}

func TestFQDNIsTheDefault(t *testing.T) {
	stubHostnames(t, "lpar01.example.com", nil, "lpar01")
	assert.Equal(t, "lpar01.example.com", Dimensions("", nil)["host"])
}

func TestFQDNCanBeDisabled(t *testing.T) {
	stubHostnames(t, "lpar01.example.com", nil, "lpar01")
	no := false
	assert.Equal(t, "lpar01", Dimensions("", &no)["host"])
}

func TestFallsBackToPlainHostname(t *testing.T) {
	stubHostnames(t, "", errors.New("no dns"), "lpar01")
	assert.Equal(t, "lpar01", Dimensions("", nil)["host"])

	stubHostnames(t, "localhost", nil, "lpar02")
	assert.Equal(t, "lpar02", Dimensions("", nil)["host"])
}

func TestBlankDimsAreOmitted(t *testing.T) {
	var g dimGatherer
	g.GatherDim("a", func() string { return "" })
	g.GatherDim("b", func() string { return "x" })
	assert.Equal(t, map[string]string{"b": "x"}, g.WaitForDimensions())
}
